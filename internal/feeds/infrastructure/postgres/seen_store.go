package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const defaultSeenTable = "feed_seen_items"

// SeenStore is a Postgres implementation of the per-feed seen-item set.
// The set is append-only; entries are never evicted.
type SeenStore struct {
	db    *sql.DB
	table string
}

// SeenOption configures the seen store.
type SeenOption func(*SeenStore)

// WithSeenTable overrides the table name.
func WithSeenTable(table string) SeenOption {
	return func(store *SeenStore) {
		if table != "" {
			store.table = table
		}
	}
}

// NewSeenStore constructs a seen store.
func NewSeenStore(db *sql.DB, opts ...SeenOption) *SeenStore {
	store := &SeenStore{db: db, table: defaultSeenTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Load returns the full seen set for a feed.
func (s *SeenStore) Load(ctx context.Context, feed string) (map[string]struct{}, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("seen store: nil db")
	}
	if feed == "" {
		return nil, errors.New("seen store: empty feed name")
	}
	query := fmt.Sprintf(`SELECT item_id FROM %s WHERE feed_name = $1`, s.table)
	rows, err := s.db.QueryContext(ctx, query, feed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seen[id] = struct{}{}
	}
	return seen, rows.Err()
}

// Add records item identifiers as seen.
func (s *SeenStore) Add(ctx context.Context, feed string, ids []string) error {
	if s == nil || s.db == nil {
		return errors.New("seen store: nil db")
	}
	if feed == "" {
		return errors.New("seen store: empty feed name")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (feed_name, item_id, seen_at)
VALUES ($1, $2, $3)
ON CONFLICT (feed_name, item_id)
DO NOTHING`, s.table)
	now := time.Now().UTC()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, query, feed, id, now); err != nil {
			return err
		}
	}
	return nil
}
