package store

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// MemoryStore implements Store with plain maps. It backs the "memory"
// storage driver and the pipeline unit tests; all state is lost on
// restart.
type MemoryStore struct {
	mu         sync.RWMutex
	listings   map[string]domain.Listing
	deliveries map[string]domain.DeliveryRecord // keyed by listing id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings:   make(map[string]domain.Listing),
		deliveries: make(map[string]domain.DeliveryRecord),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Migrate is a no-op.
func (s *MemoryStore) Migrate(context.Context) error { return nil }

// InsertListingIfAbsent inserts a listing, reporting false when the id
// already exists.
func (s *MemoryStore) InsertListingIfAbsent(_ context.Context, l *domain.Listing) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[l.ID]; ok {
		return false, nil
	}

	stored := *l
	if stored.FirstSeenAt.IsZero() {
		stored.FirstSeenAt = time.Now().UTC()
	}
	s.listings[l.ID] = stored
	return true, nil
}

// GetListing retrieves one listing by id, or nil when absent.
func (s *MemoryStore) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// KnownListingIDs returns the set of every stored listing id.
func (s *MemoryStore) KnownListingIDs(context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{}, len(s.listings))
	for id := range s.listings {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// ListListings queries listings with optional filters plus a total count.
func (s *MemoryStore) ListListings(_ context.Context, q *ListingQuery) ([]domain.Listing, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Listing
	for _, l := range s.listings {
		if q.Kind != nil && l.Kind != *q.Kind {
			continue
		}
		if q.Status != nil && l.Status != *q.Status {
			continue
		}
		if q.Delivered != nil && l.Delivered != *q.Delivered {
			continue
		}
		matched = append(matched, l)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if q.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[q.Offset:]
	if limit := q.limitOrDefault(); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// ListUndelivered returns stored listings not yet posted, oldest first.
func (s *MemoryStore) ListUndelivered(context.Context) ([]domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Listing
	for _, l := range s.listings {
		if !l.Delivered {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstSeenAt.Equal(out[j].FirstSeenAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FirstSeenAt.Before(out[j].FirstSeenAt)
	})
	return out, nil
}

// SetListingStatus updates the mutable status field in place.
func (s *MemoryStore) SetListingStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return nil
	}
	l.Status = status
	l.UpdatedAt = updatedAt
	s.listings[id] = l
	return nil
}

// MarkDelivered flags the given listings as posted.
func (s *MemoryStore) MarkDelivered(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if l, ok := s.listings[id]; ok {
			l.Delivered = true
			s.listings[id] = l
		}
	}
	return nil
}

// InsertDeliveryIfAbsent records a delivery, reporting false when the
// listing already has one.
func (s *MemoryStore) InsertDeliveryIfAbsent(_ context.Context, r *domain.DeliveryRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deliveries[r.ListingID]; ok {
		return false, nil
	}

	stored := *r
	if stored.DeliveredAt.IsZero() {
		stored.DeliveredAt = time.Now().UTC()
	}
	s.deliveries[r.ListingID] = stored
	return true, nil
}

// FindListingByMessagePosition resolves a (message, position) pair, or
// nil when the mapping is unknown.
func (s *MemoryStore) FindListingByMessagePosition(_ context.Context, messageID string, position int) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.deliveries {
		if rec.MessageID == messageID && rec.Position == position {
			if l, ok := s.listings[rec.ListingID]; ok {
				return &l, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

// ListDelivered returns every delivered listing paired with its delivery
// record, ordered by message then position.
func (s *MemoryStore) ListDelivered(context.Context) ([]domain.TrackedListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tracked []domain.TrackedListing
	for listingID, rec := range s.deliveries {
		l, ok := s.listings[listingID]
		if !ok {
			continue
		}
		tracked = append(tracked, domain.TrackedListing{Listing: l, Record: rec})
	}
	sort.Slice(tracked, func(i, j int) bool {
		if tracked[i].Record.MessageID == tracked[j].Record.MessageID {
			return tracked[i].Record.Position < tracked[j].Record.Position
		}
		return tracked[i].Record.MessageID < tracked[j].Record.MessageID
	})
	return tracked, nil
}

// GetSystemState returns aggregate counters.
func (s *MemoryStore) GetSystemState(context.Context) (*domain.SystemState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &domain.SystemState{
		ListingsTotal:   len(s.listings),
		DeliveryRecords: len(s.deliveries),
	}
	for _, l := range s.listings {
		if l.Delivered {
			st.ListingsDelivered++
		} else {
			st.ListingsUndelivered++
		}
	}
	return st, nil
}
