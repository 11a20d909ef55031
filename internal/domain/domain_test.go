package domain

import (
	"testing"
	"time"
)

// ─── Certificate Validity ───────────────────────────────────────────────────

func testCertificate() Certificate {
	return Certificate{
		ID:           "cert-1",
		UserID:       "user-1",
		SignerName:   "Ada Lovelace",
		Reason:       "approval",
		DocumentHash: "abc123",
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCertificate_Valid(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := testCertificate()

	if !c.Valid("abc123", now) {
		t.Error("unrevoked, unexpired certificate with matching hash should be valid")
	}
}

func TestCertificate_Valid_HashMismatch(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := testCertificate()

	if c.Valid("tampered", now) {
		t.Error("certificate must be invalid when the presented hash differs")
	}
}

func TestCertificate_Valid_Revoked(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := testCertificate()
	revoked := now.Add(-time.Hour)
	c.RevokedAt = &revoked

	if c.Valid("abc123", now) {
		t.Error("revoked certificate must be invalid even with a matching hash")
	}
}

func TestCertificate_Valid_Expired(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := testCertificate()
	expires := now.Add(-time.Minute)
	c.ExpiresAt = &expires

	if c.Valid("abc123", now) {
		t.Error("expired certificate must be invalid")
	}
	if !c.Expired(now) {
		t.Error("Expired() should report true past the expiry")
	}
}

func TestCertificate_NoExpiryNeverExpires(t *testing.T) {
	c := testCertificate()
	if c.Expired(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("certificate without expiry should never expire")
	}
}

// ─── Transaction Classification ─────────────────────────────────────────────

func TestCreditTransaction_Type(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		reason string
		want   TransactionType
	}{
		{"operation spend", -2, "op:merge", TxSpend},
		{"manual deduct", -5, "manual_deduct", TxSpend},
		{"checkout purchase", 100, "purchase:price_100", TxPurchase},
		{"operator refund", 3, "refund: double charge", TxRefund},
		{"admin grant", 50, "admin_grant", TxGrant},
		{"seed grant", 10, "seed", TxGrant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := CreditTransaction{Amount: tt.amount, Reason: tt.reason}
			if got := tx.Type(); got != tt.want {
				t.Errorf("Type() = %q, want %q", got, tt.want)
			}
		})
	}
}
