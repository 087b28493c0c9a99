// Package store defines the datastore abstraction for listing-herald.
// The pipeline depends on the Store interface, never on a concrete
// backend; sqlite is the default local store, postgres and an in-memory
// implementation are alternatives selected by config.
package store

import (
	"context"
	"time"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// ListingQuery defines optional filters for listing queries.
type ListingQuery struct {
	Kind      *domain.ListingKind
	Status    *string
	Delivered *bool
	Limit     int // default 50
	Offset    int
}

func (q *ListingQuery) limitOrDefault() int {
	if q.Limit <= 0 {
		return 50
	}
	return q.Limit
}

// Store defines all data access operations for listing-herald.
//
// Listings are never deleted; a delivery record is written at most once
// per listing and read-only afterwards.
type Store interface {
	// Listings
	InsertListingIfAbsent(ctx context.Context, l *domain.Listing) (inserted bool, err error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	KnownListingIDs(ctx context.Context) (map[string]struct{}, error)
	ListListings(ctx context.Context, q *ListingQuery) ([]domain.Listing, int, error)
	ListUndelivered(ctx context.Context) ([]domain.Listing, error)
	SetListingStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	MarkDelivered(ctx context.Context, ids []string) error

	// Delivery records
	InsertDeliveryIfAbsent(ctx context.Context, r *domain.DeliveryRecord) (inserted bool, err error)
	FindListingByMessagePosition(ctx context.Context, messageID string, position int) (*domain.Listing, error)
	ListDelivered(ctx context.Context) ([]domain.TrackedListing, error)

	// Aggregates
	GetSystemState(ctx context.Context) (*domain.SystemState, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}
