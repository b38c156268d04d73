package models

import (
	"fmt"
	"time"
)

// Transaction types recorded against the debiting (or, for deposits,
// the credited) account. A transfer writes exactly one record, tied to
// the sender.
const (
	TxTypeTransfer    = "TRANSFER"
	TxTypeBillPayment = "BILL_PAYMENT"
	TxTypeCashDeposit = "CASH_DEPOSIT"
)

// TransactionRecord is one immutable row in the transactions table.
type TransactionRecord struct {
	ID        int64     `json:"id" db:"id"`
	AccountID int64     `json:"account_id" db:"account_id"`
	Amount    int64     `json:"amount" db:"amount"` // minor units
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"timestamp"`
}

// FormatAmount renders a minor-unit amount as a decimal string with
// thousands grouping, e.g. 150000 -> "1,500.00".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole := minor / 100
	frac := minor % 100

	s := fmt.Sprintf("%d", whole)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return fmt.Sprintf("%s%s.%02d", sign, s, frac)
}

// ParseAmount converts user-entered decimal text ("500", "500.5",
// "1,500.00") to minor units. Sub-cent precision or anything
// non-numeric is an error.
func ParseAmount(text string) (int64, error) {
	clean := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == ',' {
			continue
		}
		clean = append(clean, text[i])
	}
	s := string(clean)

	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	wholePart := s
	fracPart := ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			wholePart, fracPart = s[:i], s[i+1:]
			break
		}
	}
	if wholePart == "" && fracPart == "" {
		return 0, fmt.Errorf("invalid amount %q", text)
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("amount %q has sub-cent precision", text)
	}

	digits := func(p string) (int64, error) {
		var n int64
		for i := 0; i < len(p); i++ {
			if p[i] < '0' || p[i] > '9' {
				return 0, fmt.Errorf("invalid amount %q", text)
			}
			n = n*10 + int64(p[i]-'0')
		}
		return n, nil
	}

	whole, err := digits(wholePart)
	if err != nil {
		return 0, err
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	frac, err := digits(fracPart)
	if err != nil {
		return 0, err
	}

	minor := whole*100 + frac
	if neg {
		minor = -minor
	}
	return minor, nil
}
