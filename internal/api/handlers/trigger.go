package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gardenmarket/listing-herald/internal/pipeline"
)

// CycleRunner defines the interface for triggering a poll cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// PollHandler handles manual poll trigger requests.
type PollHandler struct {
	runner CycleRunner
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(r CycleRunner) *PollHandler {
	return &PollHandler{runner: r}
}

// PollOutput is the response body for the poll endpoint.
type PollOutput struct {
	Body struct {
		Status string `json:"status" example:"poll cycle completed" doc:"Cycle status"`
	}
}

// Poll triggers one full poll cycle outside the schedule.
func (h *PollHandler) Poll(ctx context.Context, _ *struct{}) (*PollOutput, error) {
	if err := h.runner.RunCycle(ctx); err != nil {
		if errors.Is(err, pipeline.ErrCycleRunning) {
			return nil, huma.Error409Conflict("a poll cycle is already running")
		}
		return nil, huma.Error500InternalServerError("poll cycle failed: " + err.Error())
	}

	resp := &PollOutput{}
	resp.Body.Status = "poll cycle completed"
	return resp, nil
}

// RegisterTriggerRoutes registers trigger endpoints with the Huma API.
func RegisterTriggerRoutes(api huma.API, h *PollHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-poll",
		Method:      http.MethodPost,
		Path:        "/api/v1/poll",
		Summary:     "Trigger a poll cycle",
		Description: "Runs one full cycle: fetch listings, scan for status " +
			"changes, persist and deliver new batches.",
		Tags:   []string{"poll"},
		Errors: []int{http.StatusConflict, http.StatusInternalServerError},
	}, h.Poll)
}
