// Package domain defines the core business types for listing-herald.
package domain

import "time"

// ListingKind distinguishes the two orientations a trade can have.
type ListingKind string

// Listing kind constants.
const (
	KindSell ListingKind = "sell"
	KindBuy  ListingKind = "buy"
)

// Known listing status values. Status is deliberately an open string:
// the market API may introduce new states at any time and they must pass
// through unchanged.
const (
	StatusActive     = "active"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Currency trades carry no barter item; the requested side is synthesized
// as this well-known pseudo-item.
const (
	CurrencyItemID   = "assorted-seeds"
	CurrencyItemName = "Assorted Seeds"
	CurrencyItemIcon = "https://cdn.gardenmarket.gg/items/assorted-seeds.png"
)

// TradeItem is one side of a trade: the item offered or the item (or
// currency amount) wanted in return.
type TradeItem struct {
	ItemID   string `json:"item_id"          db:"item_id"`
	Name     string `json:"name"             db:"name"`
	Icon     string `json:"icon,omitempty"   db:"icon"`
	Quantity int    `json:"quantity"         db:"quantity"`
	Rarity   string `json:"rarity,omitempty" db:"rarity"`
}

// SellerProfile identifies the player behind a listing.
type SellerProfile struct {
	FullName string `json:"full_name"        db:"full_name"`
	Handle   string `json:"handle"           db:"handle"`
	Avatar   string `json:"avatar,omitempty" db:"avatar"`
	GameID   string `json:"game_id"          db:"game_id"`
}

// Listing is a single trade offer normalized to one canonical shape.
// ID and Kind are immutable for the lifetime of the record; Status may
// change between polls; Offering and Wanting never change after creation.
type Listing struct {
	ID     string      `json:"id"     db:"id"`
	Kind   ListingKind `json:"kind"   db:"kind"`
	Status string      `json:"status" db:"status"`

	Offering TradeItem     `json:"offering" db:"offering"`
	Wanting  TradeItem     `json:"wanting"  db:"wanting"`
	Seller   SellerProfile `json:"seller"   db:"seller"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Delivered is true once the listing has been posted to the channel.
	Delivered   bool      `json:"delivered"     db:"delivered"`
	FirstSeenAt time.Time `json:"first_seen_at" db:"first_seen_at"`
}

// IsCurrencyTrade reports whether the wanted side is the currency
// pseudo-item rather than a barter item.
func (l *Listing) IsCurrencyTrade() bool {
	return l.Wanting.ItemID == CurrencyItemID
}

// DeliveryRecord maps one listing to its position inside a delivered
// message. Position is 1-based, 1..batchSize. Created exactly once per
// listing at first successful delivery and never mutated afterwards.
type DeliveryRecord struct {
	ListingID   string    `json:"listing_id"   db:"listing_id"`
	MessageID   string    `json:"message_id"   db:"message_id"`
	ChannelID   string    `json:"channel_id"   db:"channel_id"`
	BatchSeq    int       `json:"batch_seq"    db:"batch_seq"`
	Position    int       `json:"position"     db:"position"`
	DeliveredAt time.Time `json:"delivered_at" db:"delivered_at"`
}

// Batch is an ephemeral fixed-size group of listings delivered together
// as one message. It is never persisted as its own entity.
type Batch struct {
	Sequence  int       `json:"sequence"`
	Listings  []Listing `json:"listings"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackedListing pairs a delivered listing with its delivery record for
// the per-cycle status scan.
type TrackedListing struct {
	Listing Listing
	Record  DeliveryRecord
}

// StatusChange describes one listing whose status differs between two
// poll cycles.
type StatusChange struct {
	ListingID string `json:"listing_id"`
	Old       string `json:"old"`
	New       string `json:"new"`
}

// SystemState holds a snapshot of aggregate counters for the admin API.
type SystemState struct {
	ListingsTotal       int `json:"listings_total"       db:"listings_total"`
	ListingsDelivered   int `json:"listings_delivered"   db:"listings_delivered"`
	ListingsUndelivered int `json:"listings_undelivered" db:"listings_undelivered"`
	DeliveryRecords     int `json:"delivery_records"     db:"delivery_records"`
}
