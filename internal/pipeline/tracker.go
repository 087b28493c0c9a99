package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gardenmarket/listing-herald/internal/store"
	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// Tracker maintains the listing-to-message mapping that makes in-place
// message edits and interaction lookups possible.
type Tracker struct {
	store store.Store
	log   *slog.Logger
}

// NewTracker creates a Tracker over the given store.
func NewTracker(s store.Store, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{store: s, log: log}
}

// Record stores one listing's position inside a delivered message.
// Idempotent: a listing that already has a delivery record is a benign
// no-op, so duplicate delivery attempts never fail the cycle.
func (t *Tracker) Record(ctx context.Context, rec *domain.DeliveryRecord) error {
	inserted, err := t.store.InsertDeliveryIfAbsent(ctx, rec)
	if err != nil {
		return fmt.Errorf("recording delivery for %s: %w", rec.ListingID, err)
	}
	if !inserted {
		t.log.Debug("delivery already recorded", "listing_id", rec.ListingID)
	}
	return nil
}

// Resolve maps a (message, position) pair back to its listing. Returns
// nil for unknown pairs; callers treat nil as a stale reference.
func (t *Tracker) Resolve(ctx context.Context, messageID string, position int) (*domain.Listing, error) {
	l, err := t.store.FindListingByMessagePosition(ctx, messageID, position)
	if err != nil {
		return nil, fmt.Errorf("resolving message %s position %d: %w", messageID, position, err)
	}
	return l, nil
}

// MessageGroup is every tracked listing delivered inside one message,
// sorted by position ascending so regenerated content preserves the
// original layout.
type MessageGroup struct {
	MessageID string
	ChannelID string
	BatchSeq  int
	Entries   []domain.TrackedListing
}

// ListForStatusScan returns all delivered listings grouped by message,
// for the per-cycle status-change scan. Groups come back in a stable
// order (by message id) so edit behavior is deterministic.
func (t *Tracker) ListForStatusScan(ctx context.Context) ([]MessageGroup, error) {
	tracked, err := t.store.ListDelivered(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing delivered listings: %w", err)
	}

	byMessage := make(map[string]*MessageGroup)
	var order []string
	for i := range tracked {
		rec := tracked[i].Record
		g, ok := byMessage[rec.MessageID]
		if !ok {
			g = &MessageGroup{
				MessageID: rec.MessageID,
				ChannelID: rec.ChannelID,
				BatchSeq:  rec.BatchSeq,
			}
			byMessage[rec.MessageID] = g
			order = append(order, rec.MessageID)
		}
		g.Entries = append(g.Entries, tracked[i])
	}

	groups := make([]MessageGroup, 0, len(order))
	for _, id := range order {
		g := byMessage[id]
		sort.Slice(g.Entries, func(i, j int) bool {
			return g.Entries[i].Record.Position < g.Entries[j].Record.Position
		})
		groups = append(groups, *g)
	}
	return groups, nil
}
