package audit

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"
)

// Repository persists audit entries in postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Record writes one audit row, filling id and timestamp when absent.
func (r *Repository) Record(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit: nil repository")
	}
	if entry.ID == "" {
		entry.ID = newEntryID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_log (
	id, actor, role, action, resource_type, resource_id, customer_id,
	metadata, ip, user_agent, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		entry.ID, entry.Actor, entry.Role, entry.Action, entry.ResourceType,
		entry.ResourceID, entry.CustomerID, entry.Metadata, entry.IP,
		entry.UserAgent, entry.CreatedAt)
	return err
}

func newEntryID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "aud-" + hex.EncodeToString(buf)
}
