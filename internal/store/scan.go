package store

import (
	"database/sql"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanListingInto(row rowScanner, l *domain.Listing) error {
	var kind string
	if err := row.Scan(
		&l.ID, &kind, &l.Status,
		&l.Offering.ItemID, &l.Offering.Name, &l.Offering.Icon, &l.Offering.Quantity, &l.Offering.Rarity,
		&l.Wanting.ItemID, &l.Wanting.Name, &l.Wanting.Icon, &l.Wanting.Quantity, &l.Wanting.Rarity,
		&l.Seller.FullName, &l.Seller.Handle, &l.Seller.Avatar, &l.Seller.GameID,
		&l.CreatedAt, &l.UpdatedAt, &l.Delivered, &l.FirstSeenAt,
	); err != nil {
		return err
	}
	l.Kind = domain.ListingKind(kind)
	return nil
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	l := &domain.Listing{}
	if err := scanListingInto(row, l); err != nil {
		return nil, err
	}
	return l, nil
}

func collectListings(rows *sql.Rows) ([]domain.Listing, error) {
	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := scanListingInto(rows, &l); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func scanTracked(rows *sql.Rows, t *domain.TrackedListing) error {
	var kind string
	if err := rows.Scan(
		&t.Listing.ID, &kind, &t.Listing.Status,
		&t.Listing.Offering.ItemID, &t.Listing.Offering.Name, &t.Listing.Offering.Icon,
		&t.Listing.Offering.Quantity, &t.Listing.Offering.Rarity,
		&t.Listing.Wanting.ItemID, &t.Listing.Wanting.Name, &t.Listing.Wanting.Icon,
		&t.Listing.Wanting.Quantity, &t.Listing.Wanting.Rarity,
		&t.Listing.Seller.FullName, &t.Listing.Seller.Handle, &t.Listing.Seller.Avatar, &t.Listing.Seller.GameID,
		&t.Listing.CreatedAt, &t.Listing.UpdatedAt, &t.Listing.Delivered, &t.Listing.FirstSeenAt,
		&t.Record.ListingID, &t.Record.MessageID, &t.Record.ChannelID,
		&t.Record.BatchSeq, &t.Record.Position, &t.Record.DeliveredAt,
	); err != nil {
		return err
	}
	t.Listing.Kind = domain.ListingKind(kind)
	return nil
}
