// Package certify issues and verifies document signing certificates.
// A certificate binds a signer and reason to the SHA-256 of the document
// bytes at signing time; verification re-derives validity on every call.
package certify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// HashDocument returns the hex SHA-256 of the document bytes.
func HashDocument(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

// Service issues, verifies, and revokes certificates.
type Service struct {
	store domain.CertificateStore
	now   func() time.Time
}

// New creates a certificate service.
func New(store domain.CertificateStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Issue creates and persists a certificate for the given document bytes.
// validFor of zero issues a certificate without expiry.
func (s *Service) Issue(ctx context.Context, userID, signerName, reason string, doc []byte, validFor time.Duration) (*domain.Certificate, error) {
	now := s.now().UTC()
	cert := domain.Certificate{
		ID:           uuid.NewString(),
		UserID:       userID,
		SignerName:   signerName,
		Reason:       reason,
		DocumentHash: HashDocument(doc),
		CreatedAt:    now,
	}
	if validFor > 0 {
		expires := now.Add(validFor)
		cert.ExpiresAt = &expires
	}
	if err := s.store.InsertCertificate(ctx, cert); err != nil {
		return nil, fmt.Errorf("store certificate: %w", err)
	}
	return &cert, nil
}

// IssueForArtifact issues a certificate whose id must appear inside the
// attested artifact itself. It generates the id, calls stamp to produce
// the final bytes carrying that id, then persists the certificate over
// the stamped bytes. The hash covers exactly what the caller delivers.
func (s *Service) IssueForArtifact(ctx context.Context, userID, signerName, reason string, validFor time.Duration, stamp func(certID string) ([]byte, error)) (*domain.Certificate, []byte, error) {
	now := s.now().UTC()
	cert := domain.Certificate{
		ID:         uuid.NewString(),
		UserID:     userID,
		SignerName: signerName,
		Reason:     reason,
		CreatedAt:  now,
	}
	if validFor > 0 {
		expires := now.Add(validFor)
		cert.ExpiresAt = &expires
	}
	stamped, err := stamp(cert.ID)
	if err != nil {
		return nil, nil, err
	}
	cert.DocumentHash = HashDocument(stamped)
	if err := s.store.InsertCertificate(ctx, cert); err != nil {
		return nil, nil, fmt.Errorf("store certificate: %w", err)
	}
	return &cert, stamped, nil
}

// Verdict is the outcome of verifying a document against a certificate.
type Verdict struct {
	Valid       bool                `json:"valid"`
	Reason      string              `json:"reason"`
	Certificate *domain.Certificate `json:"certificate,omitempty"`
}

// Verify checks the presented document bytes against the stored
// certificate. An unknown certificate id yields an invalid verdict, not
// an error, so the caller can always return a structured result.
func (s *Service) Verify(ctx context.Context, certID string, doc []byte) (*Verdict, error) {
	cert, err := s.store.GetCertificate(ctx, certID)
	if errors.Is(err, domain.ErrCertificateNotFound) {
		return &Verdict{Valid: false, Reason: "certificate not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	hash := HashDocument(doc)
	switch {
	case cert.Revoked():
		return &Verdict{Valid: false, Reason: "certificate revoked", Certificate: cert}, nil
	case cert.Expired(now):
		return &Verdict{Valid: false, Reason: "certificate expired", Certificate: cert}, nil
	case cert.DocumentHash != hash:
		return &Verdict{Valid: false, Reason: "document has been modified since signing", Certificate: cert}, nil
	default:
		return &Verdict{Valid: true, Reason: "document is unaltered and the certificate is in force", Certificate: cert}, nil
	}
}

// Revoke marks a certificate revoked as of now.
func (s *Service) Revoke(ctx context.Context, certID string) error {
	return s.store.RevokeCertificate(ctx, certID, s.now().UTC())
}
