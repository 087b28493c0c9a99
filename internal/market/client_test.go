package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

func listingJSON(id, side, createdAt string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"type": %q,
		"status": "active",
		"item": {"id": "sunflower", "name": "Sunflower", "icon": "", "quantity": 1},
		"price": 100,
		"user": {"displayName": "Pat", "username": "patg", "gameId": "g-1"},
		"createdAt": %q,
		"updatedAt": %q
	}`, id, side, createdAt, createdAt)
}

func TestFetchAllMergesAndSorts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("side") {
		case "sell":
			fmt.Fprintf(w, `{"listings": [%s, %s]}`,
				listingJSON("s-old", "sell", "2026-08-30T10:00:00Z"),
				listingJSON("s-new", "sell", "2026-08-30T12:00:00Z"))
		case "buy":
			fmt.Fprintf(w, `{"listings": [%s]}`,
				listingJSON("b-mid", "buy", "2026-08-30T11:00:00Z"))
		default:
			http.Error(w, "bad side", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	listings, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	// merged across sides, createdAt descending
	require.Len(t, listings, 3)
	assert.Equal(t, "s-new", listings[0].ID)
	assert.Equal(t, "b-mid", listings[1].ID)
	assert.Equal(t, "s-old", listings[2].ID)
	assert.Equal(t, domain.KindBuy, listings[1].Kind)
}

func TestFetchAllSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("side") == "sell" {
			// second record has neither price nor barter item
			fmt.Fprintf(w, `{"listings": [%s, {
				"id": "bad-1", "type": "sell", "status": "active",
				"item": {"id": "rose", "name": "Rose", "quantity": 1},
				"user": {"displayName": "X", "username": "x", "gameId": "g"},
				"createdAt": "2026-08-30T09:00:00Z", "updatedAt": "2026-08-30T09:00:00Z"
			}]}`, listingJSON("s-1", "sell", "2026-08-30T10:00:00Z"))
			return
		}
		fmt.Fprint(w, `{"listings": []}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	listings, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, listings, 1)
	assert.Equal(t, "s-1", listings[0].ID)
}

func TestFetchAllSurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("side") == "buy" {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"listings": []}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchAllIssuesBothSides(t *testing.T) {
	t.Parallel()

	var sides atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sides.Add(1)
		fmt.Fprint(w, `{"listings": []}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	listings, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Equal(t, int32(2), sides.Load())
}
