package models

import "time"

// Receipt labels shown on the printed slip.
const (
	ReceiptTransfer    = "Transfer Funds"
	ReceiptBillPayment = "Bill Payment"
	ReceiptCashDeposit = "Cash Deposit"
)

// Receipt summarizes a completed money-movement operation for display.
// Recipient is the destination card for transfers, the bill reference
// for bill payments, and empty for deposits.
type Receipt struct {
	Reference  string    `json:"reference"`
	Type       string    `json:"type"`
	Recipient  string    `json:"recipient,omitempty"`
	Amount     int64     `json:"amount"`
	OldBalance int64     `json:"old_balance"`
	NewBalance int64     `json:"new_balance"`
	Timestamp  time.Time `json:"timestamp"`
}
