package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/nyxonbank/kiosk/internal/models"
	"github.com/nyxonbank/kiosk/internal/security"
)

// AuthService answers one question: does this card/PIN pair identify
// an account. It never mutates account state; its only writes are
// audit events.
type AuthService struct {
	db    *sql.DB
	audit *AuditService
}

func NewAuthService(db *sql.DB, audit *AuditService) *AuthService {
	return &AuthService{db: db, audit: audit}
}

// Authenticate looks the account up by card number and verifies the
// PIN against the stored credential blob. An unknown card and a wrong
// PIN both return ErrAuthFailed; the audit trail records the attempted
// card number either way.
func (s *AuthService) Authenticate(cardNumber, pin string) (*models.AccountIdentity, error) {
	if cardNumber == "" || pin == "" {
		return nil, ErrValidation
	}

	var (
		id      int64
		balance int64
		blob    string
	)
	err := s.db.QueryRow(`
		SELECT id, balance, pin_hash
		FROM accounts
		WHERE card_number = ?`, cardNumber).Scan(&id, &balance, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		s.logFailure(cardNumber)
		return nil, ErrAuthFailed
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if !security.VerifyPIN(pin, blob) {
		s.logFailure(cardNumber)
		return nil, ErrAuthFailed
	}

	if err := s.audit.Record(&id, models.EventLoginSuccess, 0, "Card login"); err != nil {
		log.Printf("[AUTH] Failed to record login audit event: %v", err)
	}
	log.Printf("[AUTH] Login successful for account %d", id)

	return &models.AccountIdentity{ID: id, CardNumber: cardNumber, Balance: balance}, nil
}

func (s *AuthService) logFailure(cardNumber string) {
	if err := s.audit.Record(nil, models.EventLoginFail, 0, "Card "+cardNumber); err != nil {
		log.Printf("[AUTH] Failed to record login audit event: %v", err)
	}
	log.Printf("[AUTH] Login failed for card %s", models.MaskCard(cardNumber))
}
