package client

import (
	"context"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// GetSystemState returns aggregate listing and delivery counts.
func (c *Client) GetSystemState(ctx context.Context) (*domain.SystemState, error) {
	var state domain.SystemState
	if err := c.get(ctx, "/api/v1/state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// TriggerPoll runs one poll cycle outside the schedule.
func (c *Client) TriggerPoll(ctx context.Context) error {
	return c.post(ctx, "/api/v1/poll", nil, nil)
}
