package services

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyxonbank/kiosk/internal/config"
	"github.com/nyxonbank/kiosk/internal/database"
	"github.com/nyxonbank/kiosk/internal/security"
)

// newTestDB opens a throwaway ledger store under t.TempDir with the
// production schema and DSN settings.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "kiosk.db"),
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// seedAccount inserts an account directly; the placeholder credential
// is fine for tests that never authenticate.
func seedAccount(t *testing.T, db *sql.DB, card string, balance int64) int64 {
	t.Helper()
	return seedAccountWithPIN(t, db, card, "", balance)
}

// seedAccountWithPIN inserts an account with a real derived credential
// for tests that exercise the auth path.
func seedAccountWithPIN(t *testing.T, db *sql.DB, card, pin string, balance int64) int64 {
	t.Helper()

	blob := "not-a-real-credential"
	if pin != "" {
		var err error
		blob, err = security.HashPIN(pin)
		require.NoError(t, err)
	}

	res, err := db.Exec(`INSERT INTO accounts (card_number, pin_hash, balance) VALUES (?, ?, ?)`,
		card, blob, balance)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func accountBalance(t *testing.T, db *sql.DB, id int64) int64 {
	t.Helper()
	var balance int64
	require.NoError(t, db.QueryRow(`SELECT balance FROM accounts WHERE id = ?`, id).Scan(&balance))
	return balance
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func countAuditEvents(t *testing.T, db *sql.DB, eventType string) int {
	t.Helper()
	return countRows(t, db, `SELECT COUNT(1) FROM audit_log WHERE event_type = ?`, eventType)
}
