package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/mattn/go-sqlite3"

	"github.com/nyxonbank/kiosk/internal/config"
	"github.com/nyxonbank/kiosk/internal/models"
	"github.com/nyxonbank/kiosk/internal/security"
)

const defaultAuditLimit = 200

// AdminService backs the admin panel: the privileged-access gate,
// account creation, the transaction reset, and the panel's table
// reads.
type AdminService struct {
	db        *sql.DB
	audit     *AuditService
	cfg       config.AdminConfig
	validator *ValidationHelper
}

func NewAdminService(db *sql.DB, audit *AuditService, cfg config.AdminConfig) *AdminService {
	return &AdminService{
		db:        db,
		audit:     audit,
		cfg:       cfg,
		validator: NewValidationHelper(),
	}
}

type CreateAccountRequest struct {
	CardNumber     string `validate:"required,min=4"`
	PIN            string `validate:"required,min=4"`
	InitialBalance int64  `validate:"gte=0"`
}

// Unlock verifies the admin PIN against the configured credential
// hash. A successful unlock is audited; failures are not tied to any
// account and are only logged locally.
func (s *AdminService) Unlock(pin string) bool {
	if !security.VerifyPIN(pin, s.cfg.CredentialHash) {
		log.Printf("[ADMIN] Unlock attempt rejected")
		return false
	}
	if err := s.audit.Record(nil, models.EventAdminUnlock, 0, ""); err != nil {
		log.Printf("[ADMIN] Failed to record unlock audit event: %v", err)
	}
	return true
}

// CreateAccount provisions a card with a PIN and an initial balance.
// The account insert and its CREATE_ACCOUNT audit event commit in one
// unit. A reused card number surfaces ErrDuplicateCard.
func (s *AdminService) CreateAccount(req CreateAccountRequest) (int64, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return 0, err
	}

	blob, err := security.HashPIN(req.PIN)
	if err != nil {
		return 0, fmt.Errorf("hashing PIN: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning account creation: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO accounts (card_number, pin_hash, balance)
		VALUES (?, ?, ?)`,
		req.CardNumber, blob, req.InitialBalance)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrDuplicateCard
		}
		return 0, fmt.Errorf("inserting account: %w", err)
	}

	accountID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new account id: %w", err)
	}

	if err := s.audit.RecordTx(tx, &accountID, models.EventCreateAccount, req.InitialBalance,
		fmt.Sprintf("Admin created account %s", req.CardNumber)); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing account creation: %w", err)
	}

	log.Printf("[ADMIN] Account %d created for card %s", accountID, models.MaskCard(req.CardNumber))
	return accountID, nil
}

// ResetTransactions deletes every transaction record, leaving accounts
// and the audit log untouched. The delete and its ADMIN_RESET audit
// event share one unit, so the reset cannot commit undocumented.
func (s *AdminService) ResetTransactions() (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning reset: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM transactions`)
	if err != nil {
		return 0, fmt.Errorf("deleting transactions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted transactions: %w", err)
	}

	if err := s.audit.RecordTx(tx, nil, models.EventAdminReset, 0, "Transactions wiped"); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing reset: %w", err)
	}

	log.Printf("[ADMIN] Reset complete, %d transactions deleted", deleted)
	return deleted, nil
}

// ListAccounts returns every account for the admin panel table.
func (s *AdminService) ListAccounts() ([]models.Account, error) {
	rows, err := s.db.Query(`SELECT id, card_number, balance FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var acc models.Account
		if err := rows.Scan(&acc.ID, &acc.CardNumber, &acc.Balance); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// RecentAuditEvents returns the newest audit rows first. limit <= 0
// means the panel default.
func (s *AdminService) RecentAuditEvents(limit int) ([]models.AuditEvent, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	rows, err := s.db.Query(`
		SELECT id, account_id, event_type, amount, details, ts
		FROM audit_log
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var (
			ev   models.AuditEvent
			acct sql.NullInt64
		)
		if err := rows.Scan(&ev.ID, &acct, &ev.EventType, &ev.Amount, &ev.Details, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		if acct.Valid {
			id := acct.Int64
			ev.AccountID = &id
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
