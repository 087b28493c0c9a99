package market

// rawListing is the wire shape of one listing as served by the market API.
// Item is always the traded item; the counter side is either a coin Price
// or a barter WantedItem, never both.
type rawListing struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"` // "sell" or "buy"
	Status     string   `json:"status"`
	Item       rawItem  `json:"item"`
	WantedItem *rawItem `json:"wantedItem"`
	Price      *int     `json:"price"`
	User       rawUser  `json:"user"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

type rawItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Quantity int    `json:"quantity"`
	Rarity   string `json:"rarity,omitempty"`
}

type rawUser struct {
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar,omitempty"`
	GameID      string `json:"gameId"`
}

type listingsResponse struct {
	Listings []rawListing `json:"listings"`
}
