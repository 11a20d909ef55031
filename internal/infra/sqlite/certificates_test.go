package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

func TestCertificate_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	expires := time.Date(2027, 3, 1, 12, 0, 0, 0, time.UTC)
	cert := domain.Certificate{
		ID:           "cert-abc",
		UserID:       "user-1",
		SignerName:   "Grace Hopper",
		Reason:       "contract approval",
		DocumentHash: "deadbeef",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ExpiresAt:    &expires,
	}
	if err := db.InsertCertificate(ctx, cert); err != nil {
		t.Fatalf("InsertCertificate() error: %v", err)
	}

	got, err := db.GetCertificate(ctx, "cert-abc")
	if err != nil {
		t.Fatalf("GetCertificate() error: %v", err)
	}
	if got.SignerName != "Grace Hopper" {
		t.Errorf("SignerName = %q, want %q", got.SignerName, "Grace Hopper")
	}
	if got.DocumentHash != "deadbeef" {
		t.Errorf("DocumentHash = %q, want %q", got.DocumentHash, "deadbeef")
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, expires)
	}
	if got.RevokedAt != nil {
		t.Error("fresh certificate should not be revoked")
	}
}

func TestCertificate_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetCertificate(context.Background(), "missing")
	if !errors.Is(err, domain.ErrCertificateNotFound) {
		t.Fatalf("err = %v, want ErrCertificateNotFound", err)
	}
}

func TestCertificate_Revoke(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cert := domain.Certificate{
		ID:           "cert-rev",
		UserID:       "user-1",
		SignerName:   "Ada",
		DocumentHash: "cafe",
		CreatedAt:    time.Now().UTC(),
	}
	db.InsertCertificate(ctx, cert)

	first := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if err := db.RevokeCertificate(ctx, "cert-rev", first); err != nil {
		t.Fatalf("RevokeCertificate() error: %v", err)
	}
	got, _ := db.GetCertificate(ctx, "cert-rev")
	if got.RevokedAt == nil || !got.RevokedAt.Equal(first) {
		t.Fatalf("RevokedAt = %v, want %v", got.RevokedAt, first)
	}

	// Revoking again keeps the original timestamp.
	if err := db.RevokeCertificate(ctx, "cert-rev", first.Add(time.Hour)); err != nil {
		t.Fatalf("second revoke error: %v", err)
	}
	got, _ = db.GetCertificate(ctx, "cert-rev")
	if !got.RevokedAt.Equal(first) {
		t.Errorf("RevokedAt = %v, want original %v", got.RevokedAt, first)
	}
}

func TestCertificate_RevokeUnknown(t *testing.T) {
	db := newTestDB(t)

	err := db.RevokeCertificate(context.Background(), "missing", time.Now())
	if !errors.Is(err, domain.ErrCertificateNotFound) {
		t.Fatalf("err = %v, want ErrCertificateNotFound", err)
	}
}
