package execution

import (
	"database/sql"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Journal persists trade attempts and position closes to SQLite for
// analysis and audit.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id    TEXT,
		side        TEXT NOT NULL,
		product_id  TEXT NOT NULL,
		size        REAL NOT NULL,
		price       REAL NOT NULL,
		status      TEXT NOT NULL,
		executed_at DATETIME NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_product ON trades(product_id);
	CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades(executed_at);

	CREATE TABLE IF NOT EXISTS closes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id TEXT NOT NULL,
		exit_price REAL NOT NULL,
		pnl        REAL NOT NULL,
		reason     TEXT,
		closed_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_closes_product ON closes(product_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened trade journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// RecordOutcome persists an execution attempt to the journal.
func (j *Journal) RecordOutcome(out Outcome) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO trades (order_id, side, product_id, size, price, status, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		out.OrderID,
		string(out.Side),
		out.ProductID,
		out.Size,
		out.Price,
		string(out.Status),
		now().UTC().Format(time.RFC3339),
	)
	return err
}

// RecordClose persists a realized position close.
func (j *Journal) RecordClose(productID string, exitPrice, pnl float64, reason string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO closes (product_id, exit_price, pnl, reason, closed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		productID, exitPrice, pnl, reason,
		now().UTC().Format(time.RFC3339),
	)
	return err
}

// TradeRecord represents a row from the trades table.
type TradeRecord struct {
	ID         int64   `json:"id"`
	OrderID    string  `json:"order_id"`
	Side       string  `json:"side"`
	ProductID  string  `json:"product_id"`
	Size       float64 `json:"size"`
	Price      float64 `json:"price"`
	Status     string  `json:"status"`
	ExecutedAt string  `json:"executed_at"`
}

// Trades returns the last N trade attempts, newest first.
func (j *Journal) Trades(limit int) ([]TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, order_id, side, product_id, size, price, status, executed_at
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Side, &t.ProductID,
			&t.Size, &t.Price, &t.Status, &t.ExecutedAt); err != nil {
			continue
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DB exposes the underlying database handle for liveness checks.
func (j *Journal) DB() *sql.DB { return j.db }

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
