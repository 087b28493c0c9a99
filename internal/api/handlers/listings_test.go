package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenmarket/listing-herald/internal/api/handlers"
	"github.com/gardenmarket/listing-herald/internal/store"
	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()

	s := store.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	seed := []domain.Listing{
		{ID: "l-sell", Kind: domain.KindSell, Status: domain.StatusActive,
			Offering:  domain.TradeItem{ItemID: "sunflower", Name: "Sunflower", Quantity: 1},
			Wanting:   domain.TradeItem{ItemID: domain.CurrencyItemID, Name: domain.CurrencyItemName, Quantity: 100},
			CreatedAt: now, UpdatedAt: now, FirstSeenAt: now},
		{ID: "l-buy", Kind: domain.KindBuy, Status: domain.StatusActive,
			Offering:  domain.TradeItem{ItemID: domain.CurrencyItemID, Name: domain.CurrencyItemName, Quantity: 50},
			Wanting:   domain.TradeItem{ItemID: "rose", Name: "Rose", Quantity: 2},
			CreatedAt: now.Add(time.Minute), UpdatedAt: now, FirstSeenAt: now},
		{ID: "l-done", Kind: domain.KindSell, Status: domain.StatusCompleted,
			Offering:  domain.TradeItem{ItemID: "tulip", Name: "Tulip", Quantity: 1},
			Wanting:   domain.TradeItem{ItemID: domain.CurrencyItemID, Name: domain.CurrencyItemName, Quantity: 10},
			CreatedAt: now.Add(2 * time.Minute), UpdatedAt: now, FirstSeenAt: now},
	}
	for i := range seed {
		_, err := s.InsertListingIfAbsent(ctx, &seed[i])
		require.NoError(t, err)
	}
	require.NoError(t, s.MarkDelivered(ctx, []string{"l-done"}))
	return s
}

func TestListListings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantTotal string
		wantIDs   []string
	}{
		{
			name:      "no filters returns everything",
			query:     "/api/v1/listings",
			wantTotal: `"total":3`,
			wantIDs:   []string{"l-sell", "l-buy", "l-done"},
		},
		{
			name:      "kind filter",
			query:     "/api/v1/listings?kind=buy",
			wantTotal: `"total":1`,
			wantIDs:   []string{"l-buy"},
		},
		{
			name:      "status filter",
			query:     "/api/v1/listings?status=completed",
			wantTotal: `"total":1`,
			wantIDs:   []string{"l-done"},
		},
		{
			name:      "delivered filter",
			query:     "/api/v1/listings?delivered=false",
			wantTotal: `"total":2`,
			wantIDs:   []string{"l-sell", "l-buy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := handlers.NewListingsHandler(seedStore(t))
			_, api := humatest.New(t)
			handlers.RegisterListingRoutes(api, h)

			resp := api.Get(tt.query)
			require.Equal(t, http.StatusOK, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantTotal)
			for _, id := range tt.wantIDs {
				assert.Contains(t, resp.Body.String(), `"id":"`+id+`"`)
			}
		})
	}
}

func TestListListingsPagination(t *testing.T) {
	t.Parallel()

	h := handlers.NewListingsHandler(seedStore(t))
	_, api := humatest.New(t)
	handlers.RegisterListingRoutes(api, h)

	resp := api.Get("/api/v1/listings?limit=1&offset=2")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":3`)
	assert.Contains(t, resp.Body.String(), `"offset":2`)
}

func TestGetListing(t *testing.T) {
	t.Parallel()

	h := handlers.NewListingsHandler(seedStore(t))
	_, api := humatest.New(t)
	handlers.RegisterListingRoutes(api, h)

	resp := api.Get("/api/v1/listings/l-sell")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"id":"l-sell"`)
	assert.Contains(t, resp.Body.String(), `"kind":"sell"`)

	resp = api.Get("/api/v1/listings/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
