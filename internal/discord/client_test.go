package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

func TestPostBatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/channels/c-1/messages", r.URL.Path)
		assert.Equal(t, "Bot test-token", r.Header.Get("Authorization"))

		var content MessageContent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&content))
		assert.Len(t, content.Embeds, 2)

		fmt.Fprint(w, `{"id": "m-123", "channel_id": "c-1"}`)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithAPIBase(srv.URL))
	b := &domain.Batch{
		Sequence: 1,
		Listings: []domain.Listing{sampleListing("l-1"), sampleListing("l-2")},
	}

	messageID, err := c.PostBatch(context.Background(), "c-1", b)
	require.NoError(t, err)
	assert.Equal(t, "m-123", messageID)
}

func TestPostBatchUnknownChannel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code": 10003, "message": "Unknown Channel"}`)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithAPIBase(srv.URL))
	b := &domain.Batch{Sequence: 1, Listings: []domain.Listing{sampleListing("l-1")}}

	_, err := c.PostBatch(context.Background(), "gone", b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestPostBatchOtherAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"code": 50001, "message": "Missing Access"}`)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithAPIBase(srv.URL))
	b := &domain.Batch{Sequence: 1, Listings: []domain.Listing{sampleListing("l-1")}}

	_, err := c.PostBatch(context.Background(), "c-1", b)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownChannel)
	assert.Contains(t, err.Error(), "403")
}

func TestEditMessage(t *testing.T) {
	t.Parallel()

	var edited bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/channels/c-1/messages/m-123", r.URL.Path)
		edited = true
		fmt.Fprint(w, `{"id": "m-123", "channel_id": "c-1"}`)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithAPIBase(srv.URL))
	content := RenderListings([]domain.Listing{sampleListing("l-1")}, 1)

	require.NoError(t, c.EditMessage(context.Background(), "c-1", "m-123", content))
	assert.True(t, edited)
}
