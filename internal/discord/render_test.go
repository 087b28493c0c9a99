package discord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

func sampleListing(id string) domain.Listing {
	return domain.Listing{
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
			Quantity: 150,
		},
		Seller: domain.SellerProfile{
			FullName: "Pat Gardener",
			Handle:   "patg",
			GameID:   "g-1",
		},
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildAndParseCustomID(t *testing.T) {
	t.Parallel()

	id := BuildCustomID("listing-42", 3)
	assert.Equal(t, "herald:buy:listing-42:3", id)

	ref := ParseCustomID(id)
	require.NotNil(t, ref)
	assert.Equal(t, "listing-42", ref.ListingID)
	assert.Equal(t, 3, ref.Position)
}

func TestParseCustomIDRejectsForeignIDs(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"herald",
		"herald:buy:x",
		"herald:sell:x:1",
		"other:buy:x:1",
		"herald:buy::1",
		"herald:buy:x:notanumber",
		"herald:buy:x:-1",
		"herald:buy:x:0",
		"herald:buy:x:1:extra",
	}
	for _, tt := range tests {
		assert.Nil(t, ParseCustomID(tt), "input %q", tt)
	}
}

func TestRenderBatch(t *testing.T) {
	t.Parallel()

	b := &domain.Batch{
		Sequence: 7,
		Listings: []domain.Listing{
			sampleListing("l-1"),
			sampleListing("l-2"),
			sampleListing("l-3"),
		},
	}

	msg := RenderBatch(b)
	assert.Equal(t, "Trade batch #7", msg.Content)
	require.Len(t, msg.Embeds, 3)
	require.Len(t, msg.Components, 1)
	require.Len(t, msg.Components[0].Components, 3)

	// 1-based positions encode the listing's slot inside the message
	for i, btn := range msg.Components[0].Components {
		assert.Equal(t, BuildCustomID(b.Listings[i].ID, i+1), btn.CustomID)
		assert.False(t, btn.Disabled)
	}

	assert.Equal(t, "1. Selling Sunflower", msg.Embeds[0].Title)
	assert.Equal(t, "Sunflower x3 (rare)", msg.Embeds[0].Fields[0].Value)
	assert.Equal(t, "Assorted Seeds x150", msg.Embeds[0].Fields[1].Value)
	assert.Equal(t, "Pat Gardener (@patg)", msg.Embeds[0].Fields[3].Value)
	require.NotNil(t, msg.Embeds[0].Thumbnail)
}

func TestRenderInactiveListingDisablesButton(t *testing.T) {
	t.Parallel()

	l := sampleListing("l-1")
	l.Status = domain.StatusCompleted

	msg := RenderListings([]domain.Listing{l}, 1)
	require.Len(t, msg.Components, 1)
	assert.True(t, msg.Components[0].Components[0].Disabled)
	assert.Equal(t, colorClosed, msg.Embeds[0].Color)
	assert.Equal(t, domain.StatusCompleted, msg.Embeds[0].Fields[2].Value)
}

func TestRenderBuyListingTitle(t *testing.T) {
	t.Parallel()

	l := sampleListing("l-1")
	l.Kind = domain.KindBuy
	l.Wanting = domain.TradeItem{ItemID: "moonflower", Name: "Moonflower", Quantity: 1}

	msg := RenderListings([]domain.Listing{l}, 1)
	assert.Equal(t, "1. Buying Moonflower", msg.Embeds[0].Title)
	assert.Equal(t, colorBuy, msg.Embeds[0].Color)
}

func TestRenderSplitsButtonRows(t *testing.T) {
	t.Parallel()

	listings := make([]domain.Listing, 7)
	for i := range listings {
		listings[i] = sampleListing(string(rune('a' + i)))
	}

	msg := RenderListings(listings, 1)
	require.Len(t, msg.Components, 2)
	assert.Len(t, msg.Components[0].Components, 5)
	assert.Len(t, msg.Components[1].Components, 2)
}
