package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	status         TEXT NOT NULL,
	offer_item_id  TEXT NOT NULL,
	offer_name     TEXT NOT NULL,
	offer_icon     TEXT NOT NULL DEFAULT '',
	offer_quantity INTEGER NOT NULL,
	offer_rarity   TEXT NOT NULL DEFAULT '',
	want_item_id   TEXT NOT NULL,
	want_name      TEXT NOT NULL,
	want_icon      TEXT NOT NULL DEFAULT '',
	want_quantity  INTEGER NOT NULL,
	want_rarity    TEXT NOT NULL DEFAULT '',
	seller_name    TEXT NOT NULL,
	seller_handle  TEXT NOT NULL,
	seller_avatar  TEXT NOT NULL DEFAULT '',
	seller_game_id TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL,
	delivered      INTEGER NOT NULL DEFAULT 0,
	first_seen_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_delivered ON listings(delivered);

CREATE TABLE IF NOT EXISTS delivery_records (
	listing_id   TEXT PRIMARY KEY REFERENCES listings(id),
	message_id   TEXT NOT NULL,
	channel_id   TEXT NOT NULL,
	batch_seq    INTEGER NOT NULL,
	position     INTEGER NOT NULL,
	delivered_at TIMESTAMP NOT NULL,
	UNIQUE (message_id, position)
);
CREATE INDEX IF NOT EXISTS idx_delivery_message ON delivery_records(message_id);
`

const sqliteListingColumns = `id, kind, status,
	offer_item_id, offer_name, offer_icon, offer_quantity, offer_rarity,
	want_item_id, want_name, want_icon, want_quantity, want_rarity,
	seller_name, seller_handle, seller_avatar, seller_game_id,
	created_at, updated_at, delivered, first_seen_at`

// Same columns qualified for joins against delivery_records.
const sqliteListingColumnsJoined = `l.id, l.kind, l.status,
	l.offer_item_id, l.offer_name, l.offer_icon, l.offer_quantity, l.offer_rarity,
	l.want_item_id, l.want_name, l.want_icon, l.want_quantity, l.want_rarity,
	l.seller_name, l.seller_handle, l.seller_avatar, l.seller_game_id,
	l.created_at, l.updated_at, l.delivered, l.first_seen_at`

// SQLiteStore implements Store on a local SQLite file. WAL mode with a
// single writer connection; the poll pipeline is the only writer.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating when necessary) the SQLite database at
// path. Parent directories are created as needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// SQLite supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

// Ping verifies the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema when it does not exist yet.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("applying sqlite schema: %w", err)
	}
	return nil
}

// InsertListingIfAbsent inserts a listing, reporting false without error
// when the id already exists.
func (s *SQLiteStore) InsertListingIfAbsent(ctx context.Context, l *domain.Listing) (bool, error) {
	firstSeen := l.FirstSeenAt
	if firstSeen.IsZero() {
		firstSeen = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO listings (`+sqliteListingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, string(l.Kind), l.Status,
		l.Offering.ItemID, l.Offering.Name, l.Offering.Icon, l.Offering.Quantity, l.Offering.Rarity,
		l.Wanting.ItemID, l.Wanting.Name, l.Wanting.Icon, l.Wanting.Quantity, l.Wanting.Rarity,
		l.Seller.FullName, l.Seller.Handle, l.Seller.Avatar, l.Seller.GameID,
		l.CreatedAt, l.UpdatedAt, boolToInt(l.Delivered), firstSeen,
	)
	if err != nil {
		return false, fmt.Errorf("inserting listing %s: %w", l.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert result: %w", err)
	}
	return n > 0, nil
}

// GetListing retrieves one listing by id, or nil when absent.
func (s *SQLiteStore) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteListingColumns+` FROM listings WHERE id = ?`, id)

	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing %s: %w", id, err)
	}
	return l, nil
}

// KnownListingIDs returns the set of every persisted listing id.
func (s *SQLiteStore) KnownListingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM listings`)
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
func (s *SQLiteStore) ListListings(ctx context.Context, q *ListingQuery) ([]domain.Listing, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if q.Kind != nil {
		where += " AND kind = ?"
		args = append(args, string(*q.Kind))
	}
	if q.Status != nil {
		where += " AND status = ?"
		args = append(args, *q.Status)
	}
	if q.Delivered != nil {
		where += " AND delivered = ?"
		args = append(args, boolToInt(*q.Delivered))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listings`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting listings: %w", err)
	}

	query := `SELECT ` + sqliteListingColumns + ` FROM listings` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, q.limitOrDefault(), q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	listings, err := collectListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// ListUndelivered returns persisted listings not yet posted, oldest first
// so redeliveries keep their original relative order.
func (s *SQLiteStore) ListUndelivered(ctx context.Context) ([]domain.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteListingColumns+` FROM listings
		 WHERE delivered = 0 ORDER BY first_seen_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying undelivered listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

// SetListingStatus updates the mutable status field in place.
func (s *SQLiteStore) SetListingStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE listings SET status = ?, updated_at = ? WHERE id = ?`,
		status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("updating status for %s: %w", id, err)
	}
	return nil
}

// MarkDelivered flags the given listings as posted.
func (s *SQLiteStore) MarkDelivered(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE listings SET delivered = 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("marking %s delivered: %w", id, err)
		}
	}

	return tx.Commit()
}

// InsertDeliveryIfAbsent records a delivery, reporting false without
// error when the listing already has one.
func (s *SQLiteStore) InsertDeliveryIfAbsent(ctx context.Context, r *domain.DeliveryRecord) (bool, error) {
	deliveredAt := r.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO delivery_records
			(listing_id, message_id, channel_id, batch_seq, position, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ListingID, r.MessageID, r.ChannelID, r.BatchSeq, r.Position, deliveredAt,
	)
	if err != nil {
		return false, fmt.Errorf("inserting delivery record for %s: %w", r.ListingID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert result: %w", err)
	}
	return n > 0, nil
}

// FindListingByMessagePosition resolves a (message, position) pair back to
// the listing rendered there, or nil when the mapping is unknown.
func (s *SQLiteStore) FindListingByMessagePosition(ctx context.Context, messageID string, position int) (*domain.Listing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sqliteListingColumnsJoined+`
		FROM listings l
		JOIN delivery_records d ON d.listing_id = l.id
		WHERE d.message_id = ? AND d.position = ?`,
		messageID, position)

	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving message %s position %d: %w", messageID, position, err)
	}
	return l, nil
}

// ListDelivered returns every delivered listing paired with its delivery
// record, ordered by message then position.
func (s *SQLiteStore) ListDelivered(ctx context.Context) ([]domain.TrackedListing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteListingColumnsJoined+`,
			d.listing_id, d.message_id, d.channel_id, d.batch_seq, d.position, d.delivered_at
		FROM listings l
		JOIN delivery_records d ON d.listing_id = l.id
		ORDER BY d.message_id ASC, d.position ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying delivered listings: %w", err)
	}
	defer rows.Close()

	var tracked []domain.TrackedListing
	for rows.Next() {
		var t domain.TrackedListing
		if err := scanTracked(rows, &t); err != nil {
			return nil, fmt.Errorf("scanning tracked listing: %w", err)
		}
		tracked = append(tracked, t)
	}
	return tracked, rows.Err()
}

// GetSystemState returns aggregate counters.
func (s *SQLiteStore) GetSystemState(ctx context.Context) (*domain.SystemState, error) {
	st := &domain.SystemState{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM listings),
			(SELECT COUNT(*) FROM listings WHERE delivered = 1),
			(SELECT COUNT(*) FROM listings WHERE delivered = 0),
			(SELECT COUNT(*) FROM delivery_records)`,
	).Scan(&st.ListingsTotal, &st.ListingsDelivered, &st.ListingsUndelivered, &st.DeliveryRecords)
	if err != nil {
		return nil, fmt.Errorf("querying system state: %w", err)
	}
	return st, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
