package store

// SQL statements for the Postgres backend. The sqlite backend carries its
// own statements inline because the placeholder styles differ.

const pgSchema = `
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
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	delivered      BOOLEAN NOT NULL DEFAULT FALSE,
	first_seen_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_delivered ON listings (delivered);

CREATE TABLE IF NOT EXISTS delivery_records (
	listing_id   TEXT PRIMARY KEY REFERENCES listings (id),
	message_id   TEXT NOT NULL,
	channel_id   TEXT NOT NULL,
	batch_seq    INTEGER NOT NULL,
	position     INTEGER NOT NULL,
	delivered_at TIMESTAMPTZ NOT NULL,
	UNIQUE (message_id, position)
);
CREATE INDEX IF NOT EXISTS idx_delivery_message ON delivery_records (message_id);
`

const pgListingColumns = `id, kind, status,
	offer_item_id, offer_name, offer_icon, offer_quantity, offer_rarity,
	want_item_id, want_name, want_icon, want_quantity, want_rarity,
	seller_name, seller_handle, seller_avatar, seller_game_id,
	created_at, updated_at, delivered, first_seen_at`

const pgListingColumnsJoined = `l.id, l.kind, l.status,
	l.offer_item_id, l.offer_name, l.offer_icon, l.offer_quantity, l.offer_rarity,
	l.want_item_id, l.want_name, l.want_icon, l.want_quantity, l.want_rarity,
	l.seller_name, l.seller_handle, l.seller_avatar, l.seller_game_id,
	l.created_at, l.updated_at, l.delivered, l.first_seen_at`

const queryInsertListing = `
	INSERT INTO listings (` + pgListingColumns + `)
	VALUES (@id, @kind, @status,
		@offer_item_id, @offer_name, @offer_icon, @offer_quantity, @offer_rarity,
		@want_item_id, @want_name, @want_icon, @want_quantity, @want_rarity,
		@seller_name, @seller_handle, @seller_avatar, @seller_game_id,
		@created_at, @updated_at, @delivered, @first_seen_at)
	ON CONFLICT (id) DO NOTHING`

const queryGetListing = `
	SELECT ` + pgListingColumns + ` FROM listings WHERE id = $1`

const queryKnownListingIDs = `SELECT id FROM listings`

const queryListUndelivered = `
	SELECT ` + pgListingColumns + ` FROM listings
	WHERE delivered = FALSE
	ORDER BY first_seen_at ASC, id ASC`

const querySetListingStatus = `
	UPDATE listings SET status = $2, updated_at = $3 WHERE id = $1`

const queryMarkDelivered = `
	UPDATE listings SET delivered = TRUE WHERE id = ANY($1)`

const queryInsertDelivery = `
	INSERT INTO delivery_records
		(listing_id, message_id, channel_id, batch_seq, position, delivered_at)
	VALUES (@listing_id, @message_id, @channel_id, @batch_seq, @position, @delivered_at)
	ON CONFLICT (listing_id) DO NOTHING`

const queryFindByMessagePosition = `
	SELECT ` + pgListingColumnsJoined + `
	FROM listings l
	JOIN delivery_records d ON d.listing_id = l.id
	WHERE d.message_id = $1 AND d.position = $2`

const queryListDelivered = `
	SELECT ` + pgListingColumnsJoined + `,
		d.listing_id, d.message_id, d.channel_id, d.batch_seq, d.position, d.delivered_at
	FROM listings l
	JOIN delivery_records d ON d.listing_id = l.id
	ORDER BY d.message_id ASC, d.position ASC`

const querySystemState = `
	SELECT
		(SELECT COUNT(*) FROM listings),
		(SELECT COUNT(*) FROM listings WHERE delivered),
		(SELECT COUNT(*) FROM listings WHERE NOT delivered),
		(SELECT COUNT(*) FROM delivery_records)`
