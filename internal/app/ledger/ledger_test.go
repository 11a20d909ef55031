package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/inkwell-pdf/inkwell/internal/domain"
	"github.com/inkwell-pdf/inkwell/internal/infra/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, nil)
}

func TestCheckSufficient(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	ok, current, err := s.CheckSufficient(ctx, "user-1", 3)
	if err != nil {
		t.Fatalf("CheckSufficient() error: %v", err)
	}
	if ok || current != 0 {
		t.Errorf("fresh user = (%v, %d), want (false, 0)", ok, current)
	}

	s.Grant(ctx, "user-1", 5, "seed")
	ok, current, err = s.CheckSufficient(ctx, "user-1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || current != 5 {
		t.Errorf("after grant = (%v, %d), want (true, 5)", ok, current)
	}
}

func TestSettle_SequentialSemantics(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	s.Grant(ctx, "user-1", 10, "seed")
	remaining, err := s.Settle(ctx, "user-1", 4, "operation:compress")
	if err != nil {
		t.Fatalf("Settle() error: %v", err)
	}
	if remaining != 6 {
		t.Errorf("remaining = %d, want 6", remaining)
	}

	// Settle followed immediately by Balance reflects the deduction.
	balance, _ := s.Balance(ctx, "user-1")
	if balance != 6 {
		t.Errorf("Balance() = %d, want 6", balance)
	}
}

func TestSettle_InsufficientIsCleanRefusal(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	s.Grant(ctx, "user-1", 1, "seed")
	_, err := s.Settle(ctx, "user-1", 3, "operation:sign")
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	balance, _ := s.Balance(ctx, "user-1")
	if balance != 1 {
		t.Errorf("balance = %d, want 1 (untouched)", balance)
	}
	txs, _ := s.History(ctx, "user-1", 10)
	if len(txs) != 1 {
		t.Errorf("len(history) = %d, want 1 (no audit row for refused settle)", len(txs))
	}
}

func TestSettle_ConcurrentSpendsNeverOverdraw(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	s.Grant(ctx, "user-1", 5, "seed")

	// Ten concurrent settles of 2 against a balance of 5: exactly two
	// may succeed.
	const workers = 10
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := s.Settle(ctx, "user-1", 2, "operation:merge")
			results <- err
		}()
	}
	var succeeded int
	for i := 0; i < workers; i++ {
		if err := <-results; err == nil {
			succeeded++
		} else if !errors.Is(err, domain.ErrInsufficientCredits) {
			t.Fatalf("unexpected settle error: %v", err)
		}
	}
	if succeeded != 2 {
		t.Errorf("succeeded = %d, want exactly 2", succeeded)
	}
	balance, _ := s.Balance(ctx, "user-1")
	if balance != 1 {
		t.Errorf("balance = %d, want 1", balance)
	}
}
