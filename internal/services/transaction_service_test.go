package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionService_Transfer(t *testing.T) {
	db := newTestDB(t)
	service := NewTransactionService(db, NewAuditService(db))

	t.Run("successful transfer", func(t *testing.T) {
		sender := seedAccount(t, db, "1111", 150000)
		recipient := seedAccount(t, db, "2222", 50000)

		receipt, err := service.Transfer(TransferRequest{
			AccountID:     sender,
			RecipientCard: "2222",
			Amount:        50000,
		})
		require.NoError(t, err)

		assert.Equal(t, "Transfer Funds", receipt.Type)
		assert.Equal(t, "2222", receipt.Recipient)
		assert.Equal(t, int64(50000), receipt.Amount)
		assert.Equal(t, int64(150000), receipt.OldBalance)
		assert.Equal(t, int64(100000), receipt.NewBalance)
		assert.NotEmpty(t, receipt.Reference)

		assert.Equal(t, int64(100000), accountBalance(t, db, sender))
		assert.Equal(t, int64(100000), accountBalance(t, db, recipient))

		// Exactly one record, tied to the sender.
		assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(1) FROM transactions`))
		assert.Equal(t, 1, countRows(t, db,
			`SELECT COUNT(1) FROM transactions WHERE account_id = ? AND type = 'TRANSFER'`, sender))

		// Exactly two audit events: TRANSFER against the sender,
		// TRANSFER_IN against the recipient.
		assert.Equal(t, 1, countRows(t, db,
			`SELECT COUNT(1) FROM audit_log WHERE event_type = 'TRANSFER' AND account_id = ?`, sender))
		assert.Equal(t, 1, countRows(t, db,
			`SELECT COUNT(1) FROM audit_log WHERE event_type = 'TRANSFER_IN' AND account_id = ?`, recipient))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		sender := seedAccount(t, db, "3333", 10000)
		recipient := seedAccount(t, db, "4444", 0)

		_, err := service.Transfer(TransferRequest{
			AccountID:     sender,
			RecipientCard: "4444",
			Amount:        10001,
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		assert.Equal(t, int64(10000), accountBalance(t, db, sender))
		assert.Equal(t, int64(0), accountBalance(t, db, recipient))
		assert.Equal(t, 0, countRows(t, db,
			`SELECT COUNT(1) FROM transactions WHERE account_id = ?`, sender))
		assert.Equal(t, 1, countRows(t, db,
			`SELECT COUNT(1) FROM audit_log WHERE event_type = 'TRANSFER_FAIL' AND account_id = ? AND details = 'Insufficient balance'`, sender))
	})

	t.Run("recipient not found", func(t *testing.T) {
		sender := seedAccount(t, db, "5555", 50000)

		_, err := service.Transfer(TransferRequest{
			AccountID:     sender,
			RecipientCard: "9999",
			Amount:        10000,
		})
		assert.ErrorIs(t, err, ErrRecipientNotFound)

		assert.Equal(t, int64(50000), accountBalance(t, db, sender))
		assert.Equal(t, 1, countRows(t, db,
			`SELECT COUNT(1) FROM audit_log WHERE event_type = 'TRANSFER_FAIL' AND account_id = ? AND details = 'Recipient not found'`, sender))
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		sender := seedAccount(t, db, "6666", 50000)

		_, err := service.Transfer(TransferRequest{
			AccountID:     sender,
			RecipientCard: "6666",
			Amount:        10000,
		})
		assert.ErrorIs(t, err, ErrSelfTransfer)
		assert.Equal(t, int64(50000), accountBalance(t, db, sender))
	})

	t.Run("idempotency key rejects double submit", func(t *testing.T) {
		sender := seedAccount(t, db, "7777", 100000)
		recipient := seedAccount(t, db, "8888", 0)
		key := uuid.NewString()

		_, err := service.Transfer(TransferRequest{
			AccountID:      sender,
			RecipientCard:  "8888",
			Amount:         25000,
			IdempotencyKey: key,
		})
		require.NoError(t, err)

		_, err = service.Transfer(TransferRequest{
			AccountID:      sender,
			RecipientCard:  "8888",
			Amount:         25000,
			IdempotencyKey: key,
		})
		assert.ErrorIs(t, err, ErrDuplicateSubmission)

		// Applied exactly once.
		assert.Equal(t, int64(75000), accountBalance(t, db, sender))
		assert.Equal(t, int64(25000), accountBalance(t, db, recipient))
	})

	t.Run("validation failures", func(t *testing.T) {
		for name, req := range map[string]TransferRequest{
			"zero amount":     {AccountID: 1, RecipientCard: "2222", Amount: 0},
			"negative amount": {AccountID: 1, RecipientCard: "2222", Amount: -100},
			"missing card":    {AccountID: 1, Amount: 100},
			"bad idem key":    {AccountID: 1, RecipientCard: "2222", Amount: 100, IdempotencyKey: "nope"},
		} {
			_, err := service.Transfer(req)
			assert.ErrorIs(t, err, ErrValidation, name)
		}
	})

	t.Run("unknown sender", func(t *testing.T) {
		_, err := service.Transfer(TransferRequest{
			AccountID:     99999,
			RecipientCard: "2222",
			Amount:        100,
		})
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestTransactionService_PayBill(t *testing.T) {
	db := newTestDB(t)
	service := NewTransactionService(db, NewAuditService(db))

	t.Run("successful payment", func(t *testing.T) {
		account := seedAccount(t, db, "1111", 80000)

		receipt, err := service.PayBill(BillPaymentRequest{
			AccountID:     account,
			BillReference: "ELEC-2024-0042",
			Amount:        30000,
		})
		require.NoError(t, err)

		assert.Equal(t, "Bill Payment", receipt.Type)
		assert.Equal(t, "ELEC-2024-0042", receipt.Recipient)
		assert.Equal(t, int64(80000), receipt.OldBalance)
		assert.Equal(t, int64(50000), receipt.NewBalance)

		assert.Equal(t, int64(50000), accountBalance(t, db, account))
		assert.Equal(t, 1, countRows(t, db,
			`SELECT COUNT(1) FROM transactions WHERE account_id = ? AND type = 'BILL_PAYMENT'`, account))
		assert.Equal(t, 1, countRows(t, db,
			`SELECT COUNT(1) FROM audit_log WHERE event_type = 'BILL_PAYMENT' AND account_id = ? AND details = 'Bill ELEC-2024-0042'`, account))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		account := seedAccount(t, db, "2222", 100)

		_, err := service.PayBill(BillPaymentRequest{
			AccountID:     account,
			BillReference: "WATER-7",
			Amount:        200,
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, int64(100), accountBalance(t, db, account))
		assert.Equal(t, 0, countRows(t, db,
			`SELECT COUNT(1) FROM transactions WHERE account_id = ?`, account))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := service.PayBill(BillPaymentRequest{AccountID: 1, Amount: 100})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTransactionService_DepositCash(t *testing.T) {
	db := newTestDB(t)
	service := NewTransactionService(db, NewAuditService(db))

	t.Run("deposit strictly increases balance", func(t *testing.T) {
		account := seedAccount(t, db, "1111", 0)

		for i, amount := range []int64{100, 2500, 1} {
			before := accountBalance(t, db, account)
			receipt, err := service.DepositCash(DepositRequest{AccountID: account, Amount: amount})
			require.NoError(t, err)

			assert.Equal(t, "Cash Deposit", receipt.Type)
			assert.Empty(t, receipt.Recipient)
			assert.Equal(t, before, receipt.OldBalance)
			assert.Equal(t, before+amount, receipt.NewBalance)
			assert.Equal(t, before+amount, accountBalance(t, db, account))
			assert.Equal(t, i+1, countRows(t, db,
				`SELECT COUNT(1) FROM transactions WHERE account_id = ? AND type = 'CASH_DEPOSIT'`, account))
		}
		assert.Equal(t, 3, countAuditEvents(t, db, "CASH_DEPOSIT"))
	})

	t.Run("non-positive amount is the only validation failure", func(t *testing.T) {
		account := seedAccount(t, db, "2222", 0)

		for _, amount := range []int64{0, -100} {
			_, err := service.DepositCash(DepositRequest{AccountID: account, Amount: amount})
			assert.ErrorIs(t, err, ErrValidation)
		}
		assert.Equal(t, int64(0), accountBalance(t, db, account))
	})
}

func TestTransactionService_Reads(t *testing.T) {
	db := newTestDB(t)
	service := NewTransactionService(db, NewAuditService(db))

	account := seedAccount(t, db, "4111111111111111", 500000)

	t.Run("account summary returns unmasked card", func(t *testing.T) {
		sum, err := service.AccountSummary(account)
		require.NoError(t, err)
		assert.Equal(t, account, sum.ID)
		assert.Equal(t, "4111111111111111", sum.CardNumber, "masking is the display layer's job")
		assert.Equal(t, int64(500000), sum.Balance)

		_, err = service.AccountSummary(99999)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("recent transactions newest first, clamped", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			_, err := service.DepositCash(DepositRequest{AccountID: account, Amount: int64(100 * (i + 1))})
			require.NoError(t, err)
		}

		records, err := service.RecentTransactions(account, 3)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, int64(500), records[0].Amount, "newest first")
		assert.Greater(t, records[0].ID, records[1].ID)
		assert.Greater(t, records[1].ID, records[2].ID)

		records, err = service.RecentTransactions(account, 0)
		require.NoError(t, err)
		assert.Len(t, records, 5, "zero limit falls back to the default page size")
	})
}
