package market

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// ErrMalformedRecord marks a remote record that cannot be normalized.
// Callers skip the record and keep processing the rest of the batch.
var ErrMalformedRecord = errors.New("malformed listing record")

// Normalize converts one raw API record into the canonical Listing shape.
//
// Orientation: sell listings trade Item away (offered side), buy listings
// request it (wanted side). Settlement: a non-nil Price synthesizes the
// counter side as the currency pseudo-item; otherwise the counter side is
// taken verbatim from WantedItem. A record with neither is malformed.
func Normalize(raw *rawListing) (domain.Listing, error) {
	counter, err := counterSide(raw)
	if err != nil {
		return domain.Listing{}, err
	}

	item := tradedItem(&raw.Item)

	l := domain.Listing{
		ID:     raw.ID,
		Status: raw.Status,
		Seller: domain.SellerProfile{
			FullName: raw.User.DisplayName,
			Handle:   raw.User.Username,
			Avatar:   raw.User.Avatar,
			GameID:   raw.User.GameID,
		},
	}

	switch raw.Type {
	case "sell":
		l.Kind = domain.KindSell
		l.Offering = item
		l.Wanting = counter
	case "buy":
		l.Kind = domain.KindBuy
		l.Wanting = item
		l.Offering = counter
	default:
		return domain.Listing{}, fmt.Errorf(
			"%w: id=%s unknown type %q", ErrMalformedRecord, raw.ID, raw.Type,
		)
	}

	if l.CreatedAt, err = parseTimestamp(raw.CreatedAt); err != nil {
		return domain.Listing{}, fmt.Errorf("%w: id=%s createdAt: %v", ErrMalformedRecord, raw.ID, err)
	}
	if l.UpdatedAt, err = parseTimestamp(raw.UpdatedAt); err != nil {
		return domain.Listing{}, fmt.Errorf("%w: id=%s updatedAt: %v", ErrMalformedRecord, raw.ID, err)
	}

	return l, nil
}

func counterSide(raw *rawListing) (domain.TradeItem, error) {
	if raw.Price != nil {
		return domain.TradeItem{
			ItemID:   domain.CurrencyItemID,
			Name:     domain.CurrencyItemName,
			Icon:     domain.CurrencyItemIcon,
			Quantity: *raw.Price,
		}, nil
	}

	if raw.WantedItem == nil || raw.WantedItem.ID == "" {
		return domain.TradeItem{}, fmt.Errorf(
			"%w: id=%s has neither price nor barter item", ErrMalformedRecord, raw.ID,
		)
	}

	return toTradeItem(raw.WantedItem), nil
}

// toTradeItem copies the raw item fields verbatim. Barter counter-sides
// go through it untouched.
func toTradeItem(item *rawItem) domain.TradeItem {
	return domain.TradeItem{
		ItemID:   item.ID,
		Name:     item.Name,
		Icon:     item.Icon,
		Quantity: item.Quantity,
		Rarity:   item.Rarity,
	}
}

// tradedItem normalizes the listing's own item; a missing or zero
// quantity means a single unit.
func tradedItem(item *rawItem) domain.TradeItem {
	out := toTradeItem(item)
	if out.Quantity < 1 {
		out.Quantity = 1
	}
	return out
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
