package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Dispatch errors
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnauthorized     = errors.New("missing or invalid bearer token")

	// Ledger errors
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("credit amount must be positive")

	// Transform parameter errors
	ErrNoInputFile      = errors.New("no input document provided")
	ErrNotEnoughInputs  = errors.New("merge requires at least two input documents")
	ErrInvalidPageRange = errors.New("invalid page range expression")
	ErrEmptyPageRange   = errors.New("page range selects no pages")
	ErrInvalidRotation  = errors.New("rotation angle must be a multiple of 90 between -270 and 270")
	ErrInvalidOrder     = errors.New("page order must be a permutation of all pages")
	ErrNoPagesLeft      = errors.New("deletion would leave an empty document")
	ErrMissingParameter = errors.New("missing required parameter")

	// Certificate errors
	ErrCertificateNotFound = errors.New("certificate not found")

	// Billing errors
	ErrBadWebhookSignature = errors.New("webhook signature verification failed")
	ErrUnknownPrice        = errors.New("no credit mapping for price id")
)
