package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nyxonbank/kiosk/internal/config"
)

// schema creates the three ledger tables on first boot. Balances and
// amounts are INTEGER minor units; the overdraft rule is enforced by
// the transaction engine, not the schema.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_number TEXT UNIQUE NOT NULL,
    pin_hash TEXT NOT NULL,
    balance INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    type TEXT NOT NULL,
    idempotency_key TEXT UNIQUE,
    reference TEXT,
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(account_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER,
    event_type TEXT NOT NULL,
    amount INTEGER NOT NULL DEFAULT 0,
    details TEXT NOT NULL DEFAULT '',
    ts DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Open connects to the embedded store and bootstraps the schema.
// The DSN pins WAL journaling, a bounded busy wait (a lock that cannot
// be acquired within the timeout surfaces as an error instead of
// hanging the kiosk) and immediate transactions, so concurrent writers
// serialize at BEGIN rather than deadlocking on lock upgrade.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=%s&_txlock=immediate&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeout.Milliseconds(), cfg.JournalMode)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection
	// keeps the immediate-transaction semantics predictable.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}

	log.Printf("[DB] Ledger store ready at %s", cfg.Path)
	return db, nil
}
