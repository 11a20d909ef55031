package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// TokenVerifier authenticates a bearer token against the identity
// provider and resolves it to a user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// CreditStore is persistent storage for balances and the audit trail.
// Spend and Grant mutate the balance and append the audit row inside a
// single transaction, so partial writes cannot occur.
type CreditStore interface {
	// Balance returns the current balance, creating the row at 0 if the
	// user has never been seen.
	Balance(ctx context.Context, userID string) (int64, error)

	// Spend atomically deducts amount if the balance covers it and
	// returns the remaining balance. Returns ErrInsufficientCredits
	// without mutating anything when it does not.
	Spend(ctx context.Context, userID string, amount int64, reason string) (int64, error)

	// Grant atomically adds amount and returns the new balance.
	Grant(ctx context.Context, userID string, amount int64, reason string) (int64, error)

	// GrantOnce is Grant keyed by an external event id. The second
	// return is false when the event was already processed, in which
	// case nothing is written.
	GrantOnce(ctx context.Context, eventID, userID string, amount int64, reason string) (int64, bool, error)

	// Transactions returns the newest audit rows for a user.
	Transactions(ctx context.Context, userID string, limit int) ([]CreditTransaction, error)
}

// CertificateStore persists signing attestations.
type CertificateStore interface {
	InsertCertificate(ctx context.Context, c Certificate) error
	GetCertificate(ctx context.Context, id string) (*Certificate, error)
	RevokeCertificate(ctx context.Context, id string, at time.Time) error
}
