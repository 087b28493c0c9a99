package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "herald.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testListing(id string) *domain.Listing {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return &domain.Listing{
		ID:     id,
		Kind:   domain.KindSell,
		Status: domain.StatusActive,
		Offering: domain.TradeItem{
			ItemID:   "sunflower",
			Name:     "Sunflower",
			Icon:     "https://cdn.gardenmarket.gg/items/sunflower.png",
			Quantity: 3,
			Rarity:   "rare",
		},
		Wanting: domain.TradeItem{
			ItemID:   domain.CurrencyItemID,
			Name:     domain.CurrencyItemName,
			Icon:     domain.CurrencyItemIcon,
			Quantity: 120,
		},
		Seller: domain.SellerProfile{
			FullName: "Pat Gardener",
			Handle:   "patg",
			GameID:   "g-1001",
		},
		CreatedAt:   now,
		UpdatedAt:   now,
		FirstSeenAt: now,
	}
}

func TestSQLiteInsertListingIfAbsent(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	inserted, err := s.InsertListingIfAbsent(ctx, testListing("l-1"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// same id again is a no-op
	inserted, err = s.InsertListingIfAbsent(ctx, testListing("l-1"))
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.GetListing(ctx, "l-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.KindSell, got.Kind)
	assert.Equal(t, "Sunflower", got.Offering.Name)
	assert.Equal(t, 120, got.Wanting.Quantity)
	assert.True(t, got.IsCurrencyTrade())
	assert.False(t, got.Delivered)
}

func TestSQLiteGetListingAbsent(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)

	got, err := s.GetListing(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteKnownListingIDs(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.InsertListingIfAbsent(ctx, testListing(id))
		require.NoError(t, err)
	}

	ids, err := s.KnownListingIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	_, ok := ids["b"]
	assert.True(t, ok)
}

func TestSQLiteStatusLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.InsertListingIfAbsent(ctx, testListing("l-1"))
	require.NoError(t, err)

	updated := time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetListingStatus(ctx, "l-1", domain.StatusCompleted, updated))

	got, err := s.GetListing(ctx, "l-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.True(t, updated.Equal(got.UpdatedAt))

	// unknown statuses pass through unchanged
	require.NoError(t, s.SetListingStatus(ctx, "l-1", "escrow-hold", updated))
	got, err = s.GetListing(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, "escrow-hold", got.Status)
}

func TestSQLiteUndeliveredOrdering(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	newest := testListing("l-new")
	newest.FirstSeenAt = base.Add(2 * time.Hour)
	oldest := testListing("l-old")
	oldest.FirstSeenAt = base
	middle := testListing("l-mid")
	middle.FirstSeenAt = base.Add(time.Hour)

	for _, l := range []*domain.Listing{newest, oldest, middle} {
		_, err := s.InsertListingIfAbsent(ctx, l)
		require.NoError(t, err)
	}

	undelivered, err := s.ListUndelivered(ctx)
	require.NoError(t, err)
	require.Len(t, undelivered, 3)
	assert.Equal(t, "l-old", undelivered[0].ID)
	assert.Equal(t, "l-mid", undelivered[1].ID)
	assert.Equal(t, "l-new", undelivered[2].ID)

	require.NoError(t, s.MarkDelivered(ctx, []string{"l-old", "l-mid"}))

	undelivered, err = s.ListUndelivered(ctx)
	require.NoError(t, err)
	require.Len(t, undelivered, 1)
	assert.Equal(t, "l-new", undelivered[0].ID)
}

func TestSQLiteListListingsFilters(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	sell := testListing("l-sell")
	buy := testListing("l-buy")
	buy.Kind = domain.KindBuy
	done := testListing("l-done")
	done.Status = domain.StatusCompleted

	for _, l := range []*domain.Listing{sell, buy, done} {
		_, err := s.InsertListingIfAbsent(ctx, l)
		require.NoError(t, err)
	}

	kind := domain.KindBuy
	got, total, err := s.ListListings(ctx, &ListingQuery{Kind: &kind})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "l-buy", got[0].ID)

	status := domain.StatusActive
	got, total, err = s.ListListings(ctx, &ListingQuery{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, got, 2)

	got, total, err = s.ListListings(ctx, &ListingQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, got, 2)
}

func TestSQLiteDeliveryRecords(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	for _, id := range []string{"l-1", "l-2"} {
		_, err := s.InsertListingIfAbsent(ctx, testListing(id))
		require.NoError(t, err)
	}

	rec := &domain.DeliveryRecord{
		ListingID:   "l-1",
		MessageID:   "m-100",
		ChannelID:   "c-1",
		BatchSeq:    1,
		Position:    1,
		DeliveredAt: time.Date(2026, 8, 30, 12, 5, 0, 0, time.UTC),
	}
	inserted, err := s.InsertDeliveryIfAbsent(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	// redelivery of the same listing does not create a second record
	inserted, err = s.InsertDeliveryIfAbsent(ctx, rec)
	require.NoError(t, err)
	assert.False(t, inserted)

	rec2 := &domain.DeliveryRecord{
		ListingID:   "l-2",
		MessageID:   "m-100",
		ChannelID:   "c-1",
		BatchSeq:    1,
		Position:    2,
		DeliveredAt: rec.DeliveredAt,
	}
	_, err = s.InsertDeliveryIfAbsent(ctx, rec2)
	require.NoError(t, err)

	require.NoError(t, s.MarkDelivered(ctx, []string{"l-1", "l-2"}))

	got, err := s.FindListingByMessagePosition(ctx, "m-100", 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "l-2", got.ID)

	got, err = s.FindListingByMessagePosition(ctx, "m-999", 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	tracked, err := s.ListDelivered(ctx)
	require.NoError(t, err)
	require.Len(t, tracked, 2)
	assert.Equal(t, "l-1", tracked[0].Listing.ID)
	assert.Equal(t, 1, tracked[0].Record.Position)
	assert.Equal(t, "l-2", tracked[1].Listing.ID)
	assert.Equal(t, 2, tracked[1].Record.Position)
}

func TestSQLiteSystemState(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	for _, id := range []string{"l-1", "l-2", "l-3"} {
		_, err := s.InsertListingIfAbsent(ctx, testListing(id))
		require.NoError(t, err)
	}
	require.NoError(t, s.MarkDelivered(ctx, []string{"l-1"}))
	_, err := s.InsertDeliveryIfAbsent(ctx, &domain.DeliveryRecord{
		ListingID: "l-1", MessageID: "m-1", ChannelID: "c-1",
		BatchSeq: 1, Position: 1, DeliveredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	state, err := s.GetSystemState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, state.ListingsTotal)
	assert.Equal(t, 1, state.ListingsDelivered)
	assert.Equal(t, 2, state.ListingsUndelivered)
	assert.Equal(t, 1, state.DeliveryRecords)
}
