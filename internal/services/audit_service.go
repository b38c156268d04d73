package services

import (
	"database/sql"
	"fmt"
)

// execer is satisfied by both *sql.DB and *sql.Tx, so an audit insert
// can either open its own minimal unit or share fate with a
// caller-managed one.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// AuditService appends rows to the append-only audit log. Event types
// are open strings; nothing here validates them.
type AuditService struct {
	db *sql.DB
}

func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one audit event in its own unit of work. accountID is
// nil for system or anonymous events.
func (s *AuditService) Record(accountID *int64, eventType string, amount int64, details string) error {
	return s.insert(s.db, accountID, eventType, amount, details)
}

// RecordTx writes one audit event inside the caller's open transaction
// so the event commits or rolls back with the mutation it documents.
func (s *AuditService) RecordTx(tx *sql.Tx, accountID *int64, eventType string, amount int64, details string) error {
	return s.insert(tx, accountID, eventType, amount, details)
}

func (s *AuditService) insert(ex execer, accountID *int64, eventType string, amount int64, details string) error {
	var acct sql.NullInt64
	if accountID != nil {
		acct = sql.NullInt64{Int64: *accountID, Valid: true}
	}

	_, err := ex.Exec(`
		INSERT INTO audit_log (account_id, event_type, amount, details)
		VALUES (?, ?, ?, ?)`,
		acct, eventType, amount, details)
	if err != nil {
		return fmt.Errorf("recording %s audit event: %w", eventType, err)
	}
	return nil
}
