// Package ledger owns every credit mutation in inkwell. All paid
// operations settle through it; nothing else writes balances.
package ledger

import (
	"context"
	"log/slog"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// Service wraps a CreditStore with the check/settle flow used by the
// request dispatcher.
type Service struct {
	store domain.CreditStore
	log   *slog.Logger
}

// New creates a ledger service. A nil logger disables logging.
func New(store domain.CreditStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, log: log}
}

// Balance returns the user's current balance, creating it at 0 on first
// contact.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.store.Balance(ctx, userID)
}

// CheckSufficient reports whether the balance covers cost, along with
// the current balance for error reporting.
func (s *Service) CheckSufficient(ctx context.Context, userID string, cost int64) (bool, int64, error) {
	current, err := s.store.Balance(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	return current >= cost, current, nil
}

// Settle deducts cost and records the audit row in one atomic step.
// The store re-reads the balance under the same transaction, so a
// sufficiency check that passed moments ago can still lose the race
// here; callers must treat ErrInsufficientCredits as a clean refusal.
func (s *Service) Settle(ctx context.Context, userID string, cost int64, reason string) (int64, error) {
	remaining, err := s.store.Spend(ctx, userID, cost, reason)
	if err != nil {
		s.log.Warn("settle failed", "user", userID, "cost", cost, "reason", reason, "error", err)
		return 0, err
	}
	s.log.Info("credits settled", "user", userID, "cost", cost, "reason", reason, "remaining", remaining)
	return remaining, nil
}

// Grant credits the user, recording the audit row atomically.
func (s *Service) Grant(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	remaining, err := s.store.Grant(ctx, userID, amount, reason)
	if err != nil {
		return 0, err
	}
	s.log.Info("credits granted", "user", userID, "amount", amount, "reason", reason, "remaining", remaining)
	return remaining, nil
}

// GrantOnce credits the user for an external event exactly once.
func (s *Service) GrantOnce(ctx context.Context, eventID, userID string, amount int64, reason string) (int64, bool, error) {
	remaining, applied, err := s.store.GrantOnce(ctx, eventID, userID, amount, reason)
	if err != nil {
		return 0, false, err
	}
	if !applied {
		s.log.Info("duplicate billing event ignored", "event", eventID, "user", userID)
	}
	return remaining, applied, nil
}

// History returns the newest audit rows for a user.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]domain.CreditTransaction, error) {
	return s.store.Transactions(ctx, userID, limit)
}
