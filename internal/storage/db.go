package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sourceRef TEXT NOT NULL,
  orderNumber TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'parsed',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(hash)
);
CREATE INDEX IF NOT EXISTS idx_orders_orderNumber ON orders(orderNumber);

CREATE TABLE IF NOT EXISTS cards (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  orderId INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  setName TEXT NOT NULL,
  cardName TEXT NOT NULL,
  variant TEXT,
  collectorNumber TEXT NOT NULL DEFAULT '',
  rarity TEXT NOT NULL,
  condition TEXT NOT NULL,
  isFoil INTEGER NOT NULL DEFAULT 0,
  language TEXT,
  price REAL NOT NULL DEFAULT 0,
  totalPrice REAL NOT NULL DEFAULT 0,
  color TEXT NOT NULL DEFAULT 'Colorless',
  imageUrl TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(orderId) REFERENCES orders(id)
);
CREATE INDEX IF NOT EXISTS idx_cards_orderId ON cards(orderId);

CREATE TABLE IF NOT EXISTS lookup_cache (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  kind TEXT NOT NULL,
  key TEXT NOT NULL,
  valueJson TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(kind, key)
);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// UpsertOrder records one parsed slip keyed by its content hash, so the same
// document processed twice lands on the same row.
func (d *DB) UpsertOrder(sourceRef, orderNumber, hash, status string) (internal.OrderRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO orders (sourceRef, orderNumber, hash, status)
VALUES (?, ?, ?, ?)
ON CONFLICT(hash) DO UPDATE SET
  sourceRef=excluded.sourceRef,
  orderNumber=excluded.orderNumber,
  updatedAt=CURRENT_TIMESTAMP
`, sourceRef, orderNumber, hash, status)
	if err != nil {
		return internal.OrderRow{}, err
	}

	row, err := d.GetOrderByHash(hash)
	if err != nil {
		return internal.OrderRow{}, err
	}
	if row == nil {
		return internal.OrderRow{}, errors.New("failed to upsert order")
	}
	return *row, nil
}

func (d *DB) GetOrderByHash(hash string) (*internal.OrderRow, error) {
	return d.getOrder(`SELECT id, sourceRef, orderNumber, hash, status FROM orders WHERE hash = ?`, hash)
}

func (d *DB) GetOrderByID(id int) (*internal.OrderRow, error) {
	return d.getOrder(`SELECT id, sourceRef, orderNumber, hash, status FROM orders WHERE id = ?`, id)
}

func (d *DB) getOrder(query string, arg any) (*internal.OrderRow, error) {
	var row internal.OrderRow
	err := d.conn.QueryRow(query, arg).Scan(&row.ID, &row.SourceRef, &row.OrderNumber, &row.Hash, &row.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustOrderByID(id int) (internal.OrderRow, error) {
	row, err := d.GetOrderByID(id)
	if err != nil {
		return internal.OrderRow{}, err
	}
	if row == nil {
		return internal.OrderRow{}, fmt.Errorf("order not found: id=%d", id)
	}
	return *row, nil
}

func (d *DB) ListOrders(limit int) ([]internal.OrderRow, error) {
	rows, err := d.conn.Query(`
SELECT id, sourceRef, orderNumber, hash, status FROM orders ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.OrderRow
	for rows.Next() {
		var row internal.OrderRow
		if err := rows.Scan(&row.ID, &row.SourceRef, &row.OrderNumber, &row.Hash, &row.Status); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateOrderStatus(orderID int, status string) error {
	_, err := d.conn.Exec(`UPDATE orders SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, orderID)
	return err
}

// ReplaceOrderCards rewrites the card rows for one order inside a single
// transaction. Reprocessing or enrichment always replaces the full set.
func (d *DB) ReplaceOrderCards(orderID int, cards []internal.Card) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM cards WHERE orderId = ?`, orderID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO cards (
  orderId, lineNo, quantity, setName, cardName, variant, collectorNumber,
  rarity, condition, isFoil, language, price, totalPrice, color, imageUrl
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, card := range cards {
		foil := 0
		if card.IsFoil {
			foil = 1
		}
		if _, err := stmt.Exec(
			orderID, i+1, card.Quantity, card.SetName, card.CardName, card.Variant, card.CollectorNumber,
			string(card.Rarity), string(card.Condition), foil, card.Language, card.Price, card.TotalPrice, card.Color, card.ImageURL,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetOrderCards(orderID int) ([]internal.Card, error) {
	rows, err := d.conn.Query(`
SELECT quantity, setName, cardName, variant, collectorNumber,
       rarity, condition, isFoil, language, price, totalPrice, color, imageUrl
FROM cards WHERE orderId = ? ORDER BY lineNo ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Card
	for rows.Next() {
		var card internal.Card
		var rarity, condition string
		var foil int
		if err := rows.Scan(
			&card.Quantity, &card.SetName, &card.CardName, &card.Variant, &card.CollectorNumber,
			&rarity, &condition, &foil, &card.Language, &card.Price, &card.TotalPrice, &card.Color, &card.ImageURL,
		); err != nil {
			return nil, err
		}
		card.Rarity = internal.Rarity(rarity)
		card.Condition = internal.Condition(condition)
		card.IsFoil = foil != 0
		out = append(out, card)
	}
	return out, rows.Err()
}

func (d *DB) GetExportRows(orderID int) ([]internal.CardExportRow, error) {
	rows, err := d.conn.Query(`
SELECT lineNo, quantity, setName, cardName, variant, collectorNumber,
       rarity, condition, isFoil, language, price, totalPrice, color, imageUrl
FROM cards WHERE orderId = ? ORDER BY lineNo ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CardExportRow
	for rows.Next() {
		var row internal.CardExportRow
		var foil int
		if err := rows.Scan(
			&row.LineNo, &row.Quantity, &row.SetName, &row.CardName, &row.Variant, &row.CollectorNumber,
			&row.Rarity, &row.Condition, &foil, &row.Language, &row.Price, &row.TotalPrice, &row.Color, &row.ImageURL,
		); err != nil {
			return nil, err
		}
		row.IsFoil = foil != 0
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetCachedLookup returns the cached JSON for a lookup key, nil on a miss.
func (d *DB) GetCachedLookup(kind, key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT valueJson FROM lookup_cache WHERE kind = ? AND key = ?`, kind, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) PutCachedLookup(kind, key, valueJSON string) error {
	_, err := d.conn.Exec(`
INSERT INTO lookup_cache (kind, key, valueJson) VALUES (?, ?, ?)
ON CONFLICT(kind, key) DO UPDATE SET valueJson = excluded.valueJson, updatedAt = CURRENT_TIMESTAMP
`, kind, key, valueJSON)
	return err
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetEmailByID(id int) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE id = ?
`, id).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		var row internal.EmailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
