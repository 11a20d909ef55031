package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// ─── Certificate Operations ─────────────────────────────────────────────────

// InsertCertificate stores a new signing attestation.
func (d *DB) InsertCertificate(ctx context.Context, c domain.Certificate) error {
	var expiresStr *string
	if c.ExpiresAt != nil {
		s := c.ExpiresAt.UTC().Format(time.RFC3339)
		expiresStr = &s
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO certificate_records
			(certificate_id, user_id, signer_name, reason, document_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.SignerName, c.Reason, c.DocumentHash,
		c.CreatedAt.UTC().Format(time.RFC3339), expiresStr)
	return err
}

// GetCertificate retrieves a certificate by id.
func (d *DB) GetCertificate(ctx context.Context, id string) (*domain.Certificate, error) {
	var c domain.Certificate
	var createdStr string
	var expiresStr, revokedStr sql.NullString
	err := d.db.QueryRowContext(ctx, `
		SELECT certificate_id, user_id, signer_name, reason, document_hash,
		       created_at, expires_at, revoked_at
		FROM certificate_records WHERE certificate_id = ?
	`, id).Scan(&c.ID, &c.UserID, &c.SignerName, &c.Reason, &c.DocumentHash,
		&createdStr, &expiresStr, &revokedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	if expiresStr.Valid {
		t, _ := time.Parse(time.RFC3339, expiresStr.String)
		c.ExpiresAt = &t
	}
	if revokedStr.Valid {
		t, _ := time.Parse(time.RFC3339, revokedStr.String)
		c.RevokedAt = &t
	}
	return &c, nil
}

// RevokeCertificate marks a certificate revoked. Revoking twice keeps
// the original revocation time.
func (d *DB) RevokeCertificate(ctx context.Context, id string, at time.Time) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE certificate_records SET revoked_at = ?
		WHERE certificate_id = ? AND revoked_at IS NULL
	`, at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either unknown id or already revoked; distinguish for callers.
		if _, err := d.GetCertificate(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
