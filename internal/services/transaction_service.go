package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/nyxonbank/kiosk/internal/models"
)

// History page-size bounds for recent-transaction reads.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// TransactionService executes the money-movement operations as atomic
// units against the ledger store. Each operation's balance mutations,
// its transaction record and its success audit events commit together
// or not at all; failure audit events are written standalone after the
// unit is rolled back. Nothing here retries a failed unit.
type TransactionService struct {
	db        *sql.DB
	audit     *AuditService
	validator *ValidationHelper
}

func NewTransactionService(db *sql.DB, audit *AuditService) *TransactionService {
	return &TransactionService{
		db:        db,
		audit:     audit,
		validator: NewValidationHelper(),
	}
}

// TransferRequest moves Amount from the acting account to the account
// holding RecipientCard. IdempotencyKey is optional; the kiosk front
// end mints one per confirm press so a double-submit of the same
// confirmation is rejected instead of applied twice.
type TransferRequest struct {
	AccountID      int64  `validate:"required,gt=0"`
	RecipientCard  string `validate:"required"`
	Amount         int64  `validate:"required,gt=0"`
	IdempotencyKey string `validate:"omitempty,uuid4"`
}

type BillPaymentRequest struct {
	AccountID     int64  `validate:"required,gt=0"`
	BillReference string `validate:"required"`
	Amount        int64  `validate:"required,gt=0"`
}

type DepositRequest struct {
	AccountID int64 `validate:"required,gt=0"`
	Amount    int64 `validate:"required,gt=0"`
}

// Transfer debits the sender, credits the recipient and writes one
// TRANSFER record against the sender. The success audit pair
// (TRANSFER + TRANSFER_IN) shares the same unit of work, so a reader
// can never observe the audit events without the committed balances.
func (ts *TransactionService) Transfer(req TransferRequest) (*models.Receipt, error) {
	if err := ts.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	tx, err := ts.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transfer: %w", err)
	}
	defer tx.Rollback()

	if req.IdempotencyKey != "" {
		var n int
		err := tx.QueryRow(`SELECT COUNT(1) FROM transactions WHERE idempotency_key = ?`,
			req.IdempotencyKey).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if n > 0 {
			log.Printf("[TXN] Duplicate transfer submission for account %d", req.AccountID)
			return nil, ErrDuplicateSubmission
		}
	}

	var oldBalance int64
	err = tx.QueryRow(`SELECT balance FROM accounts WHERE id = ?`, req.AccountID).Scan(&oldBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading sender balance: %w", err)
	}

	if req.Amount > oldBalance {
		tx.Rollback()
		ts.logFailure(req.AccountID, models.EventTransferFail, req.Amount, "Insufficient balance")
		return nil, ErrInsufficientFunds
	}

	var recipientID, recipientBalance int64
	err = tx.QueryRow(`SELECT id, balance FROM accounts WHERE card_number = ?`,
		req.RecipientCard).Scan(&recipientID, &recipientBalance)
	if errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		ts.logFailure(req.AccountID, models.EventTransferFail, req.Amount, "Recipient not found")
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up recipient: %w", err)
	}

	if recipientID == req.AccountID {
		tx.Rollback()
		ts.logFailure(req.AccountID, models.EventTransferFail, req.Amount, "Self transfer rejected")
		return nil, ErrSelfTransfer
	}

	newBalance := oldBalance - req.Amount
	if err := ts.debit(tx, req.AccountID, req.Amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			tx.Rollback()
			ts.logFailure(req.AccountID, models.EventTransferFail, req.Amount, "Insufficient balance")
		}
		return nil, err
	}

	if _, err := tx.Exec(`UPDATE accounts SET balance = balance + ? WHERE id = ?`,
		req.Amount, recipientID); err != nil {
		return nil, fmt.Errorf("crediting recipient: %w", err)
	}

	reference := uuid.NewString()
	if err := ts.insertRecord(tx, req.AccountID, req.Amount, models.TxTypeTransfer, reference, req.IdempotencyKey); err != nil {
		return nil, err
	}

	senderID := req.AccountID
	details := fmt.Sprintf("To card %s | Balance %d -> %d", req.RecipientCard, oldBalance, newBalance)
	if err := ts.audit.RecordTx(tx, &senderID, models.EventTransfer, req.Amount, details); err != nil {
		return nil, err
	}
	if err := ts.audit.RecordTx(tx, &recipientID, models.EventTransferIn, req.Amount,
		fmt.Sprintf("From account %d", req.AccountID)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer: %w", err)
	}

	log.Printf("[TXN] Transfer of %s from account %d to card %s complete",
		models.FormatAmount(req.Amount), req.AccountID, models.MaskCard(req.RecipientCard))

	return &models.Receipt{
		Reference:  reference,
		Type:       models.ReceiptTransfer,
		Recipient:  req.RecipientCard,
		Amount:     req.Amount,
		OldBalance: oldBalance,
		NewBalance: newBalance,
		Timestamp:  time.Now(),
	}, nil
}

// PayBill debits the account and records a BILL_PAYMENT. The bill
// reference goes on the receipt's recipient line and into the audit
// details.
func (ts *TransactionService) PayBill(req BillPaymentRequest) (*models.Receipt, error) {
	if err := ts.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	tx, err := ts.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning bill payment: %w", err)
	}
	defer tx.Rollback()

	var oldBalance int64
	err = tx.QueryRow(`SELECT balance FROM accounts WHERE id = ?`, req.AccountID).Scan(&oldBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading balance: %w", err)
	}

	if req.Amount > oldBalance {
		tx.Rollback()
		ts.logFailure(req.AccountID, models.EventBillPayFail, req.Amount, "Insufficient balance")
		return nil, ErrInsufficientFunds
	}

	if err := ts.debit(tx, req.AccountID, req.Amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			tx.Rollback()
			ts.logFailure(req.AccountID, models.EventBillPayFail, req.Amount, "Insufficient balance")
		}
		return nil, err
	}

	reference := uuid.NewString()
	if err := ts.insertRecord(tx, req.AccountID, req.Amount, models.TxTypeBillPayment, reference, ""); err != nil {
		return nil, err
	}

	accountID := req.AccountID
	if err := ts.audit.RecordTx(tx, &accountID, models.EventBillPayment, req.Amount,
		fmt.Sprintf("Bill %s", req.BillReference)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bill payment: %w", err)
	}

	log.Printf("[TXN] Bill payment of %s by account %d complete",
		models.FormatAmount(req.Amount), req.AccountID)

	return &models.Receipt{
		Reference:  reference,
		Type:       models.ReceiptBillPayment,
		Recipient:  req.BillReference,
		Amount:     req.Amount,
		OldBalance: oldBalance,
		NewBalance: oldBalance - req.Amount,
		Timestamp:  time.Now(),
	}, nil
}

// DepositCash credits the account; deposits cannot overdraw, so the
// only validation failure is a non-positive amount.
func (ts *TransactionService) DepositCash(req DepositRequest) (*models.Receipt, error) {
	if err := ts.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	tx, err := ts.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning deposit: %w", err)
	}
	defer tx.Rollback()

	var oldBalance int64
	err = tx.QueryRow(`SELECT balance FROM accounts WHERE id = ?`, req.AccountID).Scan(&oldBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading balance: %w", err)
	}

	if _, err := tx.Exec(`UPDATE accounts SET balance = balance + ? WHERE id = ?`,
		req.Amount, req.AccountID); err != nil {
		return nil, fmt.Errorf("crediting account: %w", err)
	}

	reference := uuid.NewString()
	if err := ts.insertRecord(tx, req.AccountID, req.Amount, models.TxTypeCashDeposit, reference, ""); err != nil {
		return nil, err
	}

	accountID := req.AccountID
	if err := ts.audit.RecordTx(tx, &accountID, models.EventCashDeposit, req.Amount, "Cash deposit"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing deposit: %w", err)
	}

	log.Printf("[TXN] Cash deposit of %s to account %d complete",
		models.FormatAmount(req.Amount), req.AccountID)

	return &models.Receipt{
		Reference:  reference,
		Type:       models.ReceiptCashDeposit,
		Amount:     req.Amount,
		OldBalance: oldBalance,
		NewBalance: oldBalance + req.Amount,
		Timestamp:  time.Now(),
	}, nil
}

// AccountSummary returns the account-info screen data. The card number
// is unmasked; rendering layers mask it with models.MaskCard.
func (ts *TransactionService) AccountSummary(accountID int64) (*models.AccountSummary, error) {
	var sum models.AccountSummary
	err := ts.db.QueryRow(`SELECT id, card_number, balance FROM accounts WHERE id = ?`,
		accountID).Scan(&sum.ID, &sum.CardNumber, &sum.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading account summary: %w", err)
	}
	return &sum, nil
}

// RecentTransactions returns the account's newest transaction records
// first. limit is clamped to [1, 100]; zero or negative means the
// default page size.
func (ts *TransactionService) RecentTransactions(accountID int64, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := ts.db.Query(`
		SELECT id, account_id, amount, type, timestamp
		FROM transactions
		WHERE account_id = ?
		ORDER BY id DESC
		LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading transaction history: %w", err)
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var rec models.TransactionRecord
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Amount, &rec.Type, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// debit subtracts amount with an overdraft guard in the UPDATE itself,
// so a racing debit that slipped past the upfront read still cannot
// take the balance negative.
func (ts *TransactionService) debit(tx *sql.Tx, accountID, amount int64) error {
	res, err := tx.Exec(`
		UPDATE accounts SET balance = balance - ?
		WHERE id = ? AND balance >= ?`,
		amount, accountID, amount)
	if err != nil {
		return fmt.Errorf("debiting account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debiting account: %w", err)
	}
	if n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (ts *TransactionService) insertRecord(tx *sql.Tx, accountID, amount int64, txType, reference, idemKey string) error {
	var key sql.NullString
	if idemKey != "" {
		key = sql.NullString{String: idemKey, Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO transactions (account_id, amount, type, idempotency_key, reference)
		VALUES (?, ?, ?, ?, ?)`,
		accountID, amount, txType, key, reference)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateSubmission
		}
		return fmt.Errorf("inserting %s record: %w", txType, err)
	}
	return nil
}

// logFailure records a failure audit event in its own unit, after the
// operation's transaction has been rolled back.
func (ts *TransactionService) logFailure(accountID int64, eventType string, amount int64, reason string) {
	if err := ts.audit.Record(&accountID, eventType, amount, reason); err != nil {
		log.Printf("[TXN] Failed to record %s audit event: %v", eventType, err)
	}
	log.Printf("[TXN] %s for account %d: %s", eventType, accountID, reason)
}
