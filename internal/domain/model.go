// Package domain holds the core business types for inkwell: credit
// balances, the audit trail, and signing certificates. Domain types are
// pure, with no infrastructure dependency.
package domain

import "time"

// ─── Certificates ───────────────────────────────────────────────────────────

// Certificate is a signing attestation binding a signer and reason to the
// content hash of a document at signing time.
type Certificate struct {
	ID           string     `json:"certificate_id"`
	UserID       string     `json:"user_id"`
	SignerName   string     `json:"signer_name"`
	Reason       string     `json:"reason"`
	DocumentHash string     `json:"document_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// Revoked reports whether the certificate has been revoked.
func (c *Certificate) Revoked() bool { return c.RevokedAt != nil }

// Expired reports whether the certificate has expired at the given time.
// Certificates without an expiry never expire.
func (c *Certificate) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Valid reports whether the certificate attests the presented document
// hash. Validity is a pure function of the record and the hash: it is
// re-derived on every call, never cached.
func (c *Certificate) Valid(documentHash string, now time.Time) bool {
	return !c.Revoked() && !c.Expired(now) && c.DocumentHash == documentHash
}
