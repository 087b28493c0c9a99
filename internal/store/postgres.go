package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool, for deployments that
// prefer a shared database over the local sqlite file.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection-pooled Postgres store.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the schema when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("applying postgres schema: %w", err)
	}
	return nil
}

// InsertListingIfAbsent inserts a listing, reporting false without error
// when the id already exists.
func (s *PostgresStore) InsertListingIfAbsent(ctx context.Context, l *domain.Listing) (bool, error) {
	firstSeen := l.FirstSeenAt
	if firstSeen.IsZero() {
		firstSeen = time.Now().UTC()
	}

	args := pgx.NamedArgs{
		"id":             l.ID,
		"kind":           string(l.Kind),
		"status":         l.Status,
		"offer_item_id":  l.Offering.ItemID,
		"offer_name":     l.Offering.Name,
		"offer_icon":     l.Offering.Icon,
		"offer_quantity": l.Offering.Quantity,
		"offer_rarity":   l.Offering.Rarity,
		"want_item_id":   l.Wanting.ItemID,
		"want_name":      l.Wanting.Name,
		"want_icon":      l.Wanting.Icon,
		"want_quantity":  l.Wanting.Quantity,
		"want_rarity":    l.Wanting.Rarity,
		"seller_name":    l.Seller.FullName,
		"seller_handle":  l.Seller.Handle,
		"seller_avatar":  l.Seller.Avatar,
		"seller_game_id": l.Seller.GameID,
		"created_at":     l.CreatedAt,
		"updated_at":     l.UpdatedAt,
		"delivered":      l.Delivered,
		"first_seen_at":  firstSeen,
	}

	tag, err := s.pool.Exec(ctx, queryInsertListing, args)
	if err != nil {
		return false, fmt.Errorf("inserting listing %s: %w", l.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetListing retrieves one listing by id, or nil when absent.
func (s *PostgresStore) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l := &domain.Listing{}
	err := scanPgListing(s.pool.QueryRow(ctx, queryGetListing, id), l)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing %s: %w", id, err)
	}
	return l, nil
}

// KnownListingIDs returns the set of every persisted listing id.
func (s *PostgresStore) KnownListingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, queryKnownListingIDs)
	if err != nil {
		return nil, fmt.Errorf("querying listing ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning listing id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// ListListings queries listings with optional filters plus a total count.
func (s *PostgresStore) ListListings(ctx context.Context, q *ListingQuery) ([]domain.Listing, int, error) {
	where := " WHERE TRUE"
	args := []any{}

	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	if q.Kind != nil {
		args = append(args, string(*q.Kind))
		where += " AND kind = " + next()
	}
	if q.Status != nil {
		args = append(args, *q.Status)
		where += " AND status = " + next()
	}
	if q.Delivered != nil {
		args = append(args, *q.Delivered)
		where += " AND delivered = " + next()
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM listings"+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting listings: %w", err)
	}

	args = append(args, q.limitOrDefault())
	limitPH := next()
	args = append(args, q.Offset)
	offsetPH := next()

	query := "SELECT " + pgListingColumns + " FROM listings" + where +
		" ORDER BY created_at DESC LIMIT " + limitPH + " OFFSET " + offsetPH

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := scanPgListing(rows, &l); err != nil {
			return nil, 0, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating listings: %w", err)
	}

	return listings, total, nil
}

// ListUndelivered returns persisted listings not yet posted, oldest first.
func (s *PostgresStore) ListUndelivered(ctx context.Context) ([]domain.Listing, error) {
	rows, err := s.pool.Query(ctx, queryListUndelivered)
	if err != nil {
		return nil, fmt.Errorf("querying undelivered listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := scanPgListing(rows, &l); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// SetListingStatus updates the mutable status field in place.
func (s *PostgresStore) SetListingStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	if _, err := s.pool.Exec(ctx, querySetListingStatus, id, status, updatedAt); err != nil {
		return fmt.Errorf("updating status for %s: %w", id, err)
	}
	return nil
}

// MarkDelivered flags the given listings as posted.
func (s *PostgresStore) MarkDelivered(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, queryMarkDelivered, ids); err != nil {
		return fmt.Errorf("marking listings delivered: %w", err)
	}
	return nil
}

// InsertDeliveryIfAbsent records a delivery, reporting false without
// error when the listing already has one.
func (s *PostgresStore) InsertDeliveryIfAbsent(ctx context.Context, r *domain.DeliveryRecord) (bool, error) {
	deliveredAt := r.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = time.Now().UTC()
	}

	args := pgx.NamedArgs{
		"listing_id":   r.ListingID,
		"message_id":   r.MessageID,
		"channel_id":   r.ChannelID,
		"batch_seq":    r.BatchSeq,
		"position":     r.Position,
		"delivered_at": deliveredAt,
	}

	tag, err := s.pool.Exec(ctx, queryInsertDelivery, args)
	if err != nil {
		return false, fmt.Errorf("inserting delivery record for %s: %w", r.ListingID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindListingByMessagePosition resolves a (message, position) pair back to
// the listing rendered there, or nil when the mapping is unknown.
func (s *PostgresStore) FindListingByMessagePosition(ctx context.Context, messageID string, position int) (*domain.Listing, error) {
	l := &domain.Listing{}
	err := scanPgListing(s.pool.QueryRow(ctx, queryFindByMessagePosition, messageID, position), l)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving message %s position %d: %w", messageID, position, err)
	}
	return l, nil
}

// ListDelivered returns every delivered listing paired with its delivery
// record.
func (s *PostgresStore) ListDelivered(ctx context.Context) ([]domain.TrackedListing, error) {
	rows, err := s.pool.Query(ctx, queryListDelivered)
	if err != nil {
		return nil, fmt.Errorf("querying delivered listings: %w", err)
	}
	defer rows.Close()

	var tracked []domain.TrackedListing
	for rows.Next() {
		var t domain.TrackedListing
		if err := scanPgTracked(rows, &t); err != nil {
			return nil, fmt.Errorf("scanning tracked listing: %w", err)
		}
		tracked = append(tracked, t)
	}
	return tracked, rows.Err()
}

// GetSystemState returns aggregate counters.
func (s *PostgresStore) GetSystemState(ctx context.Context) (*domain.SystemState, error) {
	st := &domain.SystemState{}
	err := s.pool.QueryRow(ctx, querySystemState).Scan(
		&st.ListingsTotal, &st.ListingsDelivered, &st.ListingsUndelivered, &st.DeliveryRecords,
	)
	if err != nil {
		return nil, fmt.Errorf("querying system state: %w", err)
	}
	return st, nil
}

// pgx rows satisfy the same narrow Scan contract as database/sql rows.
func scanPgListing(row rowScanner, l *domain.Listing) error {
	return scanListingInto(row, l)
}

func scanPgTracked(rows pgx.Rows, t *domain.TrackedListing) error {
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
