package domain

import (
	"strings"
	"time"
)

// ─── Credit Transactions ────────────────────────────────────────────────────
// Every balance mutation goes through the ledger and leaves exactly one
// audit row. The sum of a user's transaction amounts reconciles with the
// stored balance because both are written in the same transaction.

// TransactionType is the business reason for a credit mutation.
type TransactionType string

const (
	TxSpend    TransactionType = "SPEND"
	TxPurchase TransactionType = "PURCHASE"
	TxGrant    TransactionType = "GRANT"
	TxRefund   TransactionType = "REFUND"
)

// CreditTransaction is a single append-only row in the audit trail.
// Amount is negative for spends and positive for purchases and grants.
type CreditTransaction struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Type classifies the transaction from its sign and reason. Spends are
// always negative; positive mutations are told apart by the reason
// prefix the writer recorded.
func (t CreditTransaction) Type() TransactionType {
	switch {
	case t.Amount < 0:
		return TxSpend
	case strings.HasPrefix(t.Reason, "purchase:"):
		return TxPurchase
	case strings.HasPrefix(t.Reason, "refund"):
		return TxRefund
	default:
		return TxGrant
	}
}
