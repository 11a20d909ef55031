package certify

import (
	"context"
	"testing"
	"time"

	"github.com/inkwell-pdf/inkwell/internal/infra/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestIssueAndVerify(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	doc := []byte("%PDF-1.7 signed document body")

	cert, err := s.Issue(ctx, "user-1", "Grace Hopper", "approval", doc, 0)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if cert.ID == "" {
		t.Fatal("certificate id must be generated")
	}
	if cert.DocumentHash != HashDocument(doc) {
		t.Error("stored hash must match the document hash")
	}

	v, err := s.Verify(ctx, cert.ID, doc)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if !v.Valid {
		t.Errorf("verdict = invalid (%s), want valid", v.Reason)
	}
}

func TestIssueForArtifact_HashCoversStampedBytes(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	cert, stamped, err := s.IssueForArtifact(ctx, "user-1", "Ada", "approval", 0,
		func(certID string) ([]byte, error) {
			return []byte("document body / certificate " + certID), nil
		})
	if err != nil {
		t.Fatalf("IssueForArtifact() error: %v", err)
	}
	if cert.DocumentHash != HashDocument(stamped) {
		t.Error("certificate must hash the stamped artifact, not the input")
	}

	// The delivered bytes verify; the pre-stamp bytes do not.
	v, err := s.Verify(ctx, cert.ID, stamped)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Valid {
		t.Errorf("stamped artifact should verify, got %q", v.Reason)
	}
	v, _ = s.Verify(ctx, cert.ID, []byte("document body"))
	if v.Valid {
		t.Error("unstamped bytes must not verify")
	}
}

func TestVerify_TamperedDocument(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	doc := []byte("original bytes")

	cert, _ := s.Issue(ctx, "user-1", "Ada", "approval", doc, 0)

	v, err := s.Verify(ctx, cert.ID, []byte("original bytes plus a tweak"))
	if err != nil {
		t.Fatal(err)
	}
	if v.Valid {
		t.Error("verdict must be invalid when even one byte changed")
	}
	if v.Reason != "document has been modified since signing" {
		t.Errorf("reason = %q", v.Reason)
	}
}

func TestVerify_UnknownCertificate(t *testing.T) {
	s := newTestService(t)

	v, err := s.Verify(context.Background(), "no-such-cert", []byte("doc"))
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if v.Valid {
		t.Error("unknown certificate must verify as invalid")
	}
	if v.Reason != "certificate not found" {
		t.Errorf("reason = %q", v.Reason)
	}
}

func TestVerify_Revoked(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	doc := []byte("doc")

	cert, _ := s.Issue(ctx, "user-1", "Ada", "approval", doc, 0)
	if err := s.Revoke(ctx, cert.ID); err != nil {
		t.Fatalf("Revoke() error: %v", err)
	}

	v, _ := s.Verify(ctx, cert.ID, doc)
	if v.Valid {
		t.Error("revoked certificate must verify as invalid despite matching hash")
	}
	if v.Reason != "certificate revoked" {
		t.Errorf("reason = %q", v.Reason)
	}
}

func TestVerify_Expired(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	doc := []byte("doc")

	cert, _ := s.Issue(ctx, "user-1", "Ada", "approval", doc, time.Hour)

	// Move the service clock past the expiry.
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	v, _ := s.Verify(ctx, cert.ID, doc)
	if v.Valid {
		t.Error("expired certificate must verify as invalid")
	}
	if v.Reason != "certificate expired" {
		t.Errorf("reason = %q", v.Reason)
	}
}
