package models

import "time"

// Audit event vocabulary. The audit log accepts any string; these are
// the values the kiosk itself writes.
const (
	EventLoginSuccess  = "LOGIN_SUCCESS"
	EventLoginFail     = "LOGIN_FAIL"
	EventTransfer      = "TRANSFER"
	EventTransferFail  = "TRANSFER_FAIL"
	EventTransferIn    = "TRANSFER_IN"
	EventBillPayment   = "BILL_PAYMENT"
	EventBillPayFail   = "BILL_PAYMENT_FAIL"
	EventCashDeposit   = "CASH_DEPOSIT"
	EventAdminUnlock   = "ADMIN_UNLOCK"
	EventAdminReset    = "ADMIN_RESET"
	EventCreateAccount = "CREATE_ACCOUNT"
	EventSystemBoot    = "SYSTEM_BOOT"
)

// AuditEvent is one append-only row in the audit_log table. AccountID
// is nil for system or anonymous events (failed logins, boot, reset).
type AuditEvent struct {
	ID        int64     `json:"id" db:"id"`
	AccountID *int64    `json:"account_id,omitempty" db:"account_id"`
	EventType string    `json:"event_type" db:"event_type"`
	Amount    int64     `json:"amount" db:"amount"` // minor units, 0 for non-monetary events
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"ts"`
}
