package models

// Account is a kiosk account row. Balance is held in minor units
// (centavos) to keep arithmetic exact.
type Account struct {
	ID         int64  `json:"id" db:"id"`
	CardNumber string `json:"card_number" db:"card_number"`
	PINHash    string `json:"-" db:"pin_hash"`
	Balance    int64  `json:"balance" db:"balance"`
}

// AccountIdentity is what a successful login yields: identity plus the
// balance at login time. The credential never leaves the auth layer.
type AccountIdentity struct {
	ID         int64  `json:"id"`
	CardNumber string `json:"card_number"`
	Balance    int64  `json:"balance"`
}

// AccountSummary carries the account-info screen data. CardNumber is
// unmasked; callers mask at render time with MaskCard.
type AccountSummary struct {
	ID         int64  `json:"id"`
	CardNumber string `json:"card_number"`
	Balance    int64  `json:"balance"`
}

// MaskCard hides all but the last four characters of a card number.
// Pure formatting; safe to call from any layer.
func MaskCard(card string) string {
	if len(card) < 4 {
		return card
	}
	return "**** **** **** " + card[len(card)-4:]
}
