package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// ─── Credit Operations ──────────────────────────────────────────────────────
// Balance mutation and audit insert always happen in one transaction.
// The deduction itself is a conditional UPDATE guarded by the balance,
// so two concurrent spends can never overdraw an account.

// Balance returns the user's current balance, creating the row at 0 on
// first contact.
func (d *DB) Balance(ctx context.Context, userID string) (int64, error) {
	if _, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_credits (user_id) VALUES (?)`, userID); err != nil {
		return 0, fmt.Errorf("ensure balance row: %w", err)
	}
	var balance int64
	err := d.db.QueryRowContext(ctx,
		`SELECT balance FROM user_credits WHERE user_id = ?`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Spend deducts amount from the user's balance and appends the audit row.
// Returns domain.ErrInsufficientCredits, mutating nothing, when the
// balance does not cover the amount.
func (d *DB) Spend(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_credits (user_id) VALUES (?)`, userID); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE user_credits
		SET balance = balance - ?, updated_at = datetime('now')
		WHERE user_id = ? AND balance >= ?
	`, amount, userID, amount)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.ErrInsufficientCredits
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (user_id, amount, reason) VALUES (?, ?, ?)
	`, userID, -amount, reason); err != nil {
		return 0, err
	}
	var remaining int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM user_credits WHERE user_id = ?`, userID).Scan(&remaining); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return remaining, nil
}

// Grant adds amount to the user's balance and appends the audit row.
func (d *DB) Grant(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	remaining, err := grantInTx(ctx, tx, userID, amount, reason)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return remaining, nil
}

// GrantOnce performs Grant keyed by an external event id. When the event
// was already recorded nothing is written and the second return is false.
func (d *DB) GrantOnce(ctx context.Context, eventID, userID string, amount int64, reason string) (int64, bool, error) {
	if amount <= 0 {
		return 0, false, domain.ErrInvalidAmount
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO webhook_events (event_id, event_type) VALUES (?, ?)
	`, eventID, reason)
	if err != nil {
		return 0, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		// Event seen before: report the current balance untouched.
		var balance int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE((SELECT balance FROM user_credits WHERE user_id = ?), 0)`,
			userID).Scan(&balance); err != nil {
			return 0, false, err
		}
		return balance, false, nil
	}
	remaining, err := grantInTx(ctx, tx, userID, amount, reason)
	if err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return remaining, true, nil
}

func grantInTx(ctx context.Context, tx *sql.Tx, userID string, amount int64, reason string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_credits (user_id, balance) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			balance    = balance + excluded.balance,
			updated_at = datetime('now')
	`, userID, amount); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (user_id, amount, reason) VALUES (?, ?, ?)
	`, userID, amount, reason); err != nil {
		return 0, err
	}
	var remaining int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM user_credits WHERE user_id = ?`, userID).Scan(&remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

// Transactions returns the newest audit rows for a user, newest first.
func (d *DB) Transactions(ctx context.Context, userID string, limit int) ([]domain.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, amount, reason, created_at
		FROM credit_transactions
		WHERE user_id = ?
		ORDER BY id DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CreditTransaction
	for rows.Next() {
		var t domain.CreditTransaction
		var createdStr string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Reason, &createdStr); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdStr)
		result = append(result, t)
	}
	return result, rows.Err()
}
