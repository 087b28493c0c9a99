// Package notify implements rule-driven alerts for newly observed
// listings, delivered over a Discord webhook separate from the main
// channel feed.
package notify

import (
	"context"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// AlertPayload contains the data needed to send a listing alert.
type AlertPayload struct {
	RuleName  string
	ListingID string
	Kind      domain.ListingKind
	ItemName  string
	ItemIcon  string
	Rarity    string
	Offering  string
	Wanting   string
	Seller    string
}

// Notifier defines the interface for sending listing alerts.
type Notifier interface {
	SendAlert(ctx context.Context, alert *AlertPayload) error
}
