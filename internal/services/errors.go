package services

import "errors"

// Typed failures surfaced to the presentation layer. None of these are
// retried by the engine itself; a failed atomic unit is rolled back
// whole and the decision is left to the caller.
var (
	// ErrAuthFailed covers both an unknown card and a wrong PIN so a
	// caller cannot enumerate accounts.
	ErrAuthFailed = errors.New("invalid card number or PIN")

	ErrValidation        = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrRecipientNotFound = errors.New("recipient account does not exist")
	ErrSelfTransfer      = errors.New("cannot transfer to own account")
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateCard     = errors.New("card number already exists")

	// ErrDuplicateSubmission means a transfer with the same idempotency
	// key was already applied; no money moved on this call.
	ErrDuplicateSubmission = errors.New("transfer already processed")
)
