package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenmarket/listing-herald/internal/api/handlers"
	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

type mockSystemStateProvider struct {
	state *domain.SystemState
	err   error
}

func (m *mockSystemStateProvider) GetSystemState(_ context.Context) (*domain.SystemState, error) {
	return m.state, m.err
}

func TestGetSystemState_Success(t *testing.T) {
	t.Parallel()

	state := &domain.SystemState{
		ListingsTotal:       120,
		ListingsDelivered:   100,
		ListingsUndelivered: 20,
		DeliveryRecords:     100,
	}

	h := handlers.NewSystemStateHandler(&mockSystemStateProvider{state: state})

	_, api := humatest.New(t)
	handlers.RegisterSystemStateRoutes(api, h)

	resp := api.Get("/api/v1/state")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"listings_total":120`)
	assert.Contains(t, resp.Body.String(), `"delivery_records":100`)
}

func TestGetSystemState_Error(t *testing.T) {
	t.Parallel()

	h := handlers.NewSystemStateHandler(&mockSystemStateProvider{err: errors.New("db error")})

	_, api := humatest.New(t)
	handlers.RegisterSystemStateRoutes(api, h)

	resp := api.Get("/api/v1/state")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
