package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	config "mspmon/internal/config/domain"
)

// Store persists customer config entries. Sources, notifications and the
// reported-alerts list are stored as JSON to keep the persisted shapes
// identical to the exported config format.
type Store struct {
	db *sql.DB
}

// NewStore constructs a postgres config store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// List loads all entries.
func (s *Store) List(ctx context.Context) ([]*config.Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("config store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, description, sources, monitor_backup, monitor_endpoints,
	monitor_connectivity, monitor_dtc, create_ticket, notifications,
	reported_alerts, last_backup
FROM customer_configs
ORDER BY description`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*config.Entry
	for rows.Next() {
		var entry config.Entry
		var sources, notifications, reported []byte
		var lastBackup sql.NullTime
		if err := rows.Scan(
			&entry.ID,
			&entry.Description,
			&sources,
			&entry.MonitorBackup,
			&entry.MonitorEndpoints,
			&entry.MonitorConnectivity,
			&entry.MonitorDTC,
			&entry.CreateTicket,
			&notifications,
			&reported,
			&lastBackup,
		); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &entry.Sources); err != nil {
				return nil, err
			}
		}
		if len(notifications) > 0 {
			if err := json.Unmarshal(notifications, &entry.Notifications); err != nil {
				return nil, err
			}
		}
		if len(reported) > 0 {
			if err := json.Unmarshal(reported, &entry.ReportedAlerts); err != nil {
				return nil, err
			}
		}
		if lastBackup.Valid {
			entry.LastBackup = lastBackup.Time.UTC()
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Save upserts an entry.
func (s *Store) Save(ctx context.Context, entry *config.Entry) error {
	if s == nil || s.db == nil {
		return errors.New("config store: nil db")
	}
	if entry == nil || entry.ID == "" {
		return errors.New("config store: entry id required")
	}
	sources, err := json.Marshal(entry.Sources)
	if err != nil {
		return err
	}
	notifications, err := json.Marshal(entry.Notifications)
	if err != nil {
		return err
	}
	reported, err := json.Marshal(entry.ReportedAlerts)
	if err != nil {
		return err
	}
	var lastBackup sql.NullTime
	if !entry.LastBackup.IsZero() {
		lastBackup = sql.NullTime{Time: entry.LastBackup.UTC(), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO customer_configs (
	id, description, sources, monitor_backup, monitor_endpoints,
	monitor_connectivity, monitor_dtc, create_ticket, notifications,
	reported_alerts, last_backup, updated_at
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, $8, $9,
	$10, $11, $12
)
ON CONFLICT (id)
DO UPDATE SET
	description = EXCLUDED.description,
	sources = EXCLUDED.sources,
	monitor_backup = EXCLUDED.monitor_backup,
	monitor_endpoints = EXCLUDED.monitor_endpoints,
	monitor_connectivity = EXCLUDED.monitor_connectivity,
	monitor_dtc = EXCLUDED.monitor_dtc,
	create_ticket = EXCLUDED.create_ticket,
	notifications = EXCLUDED.notifications,
	reported_alerts = EXCLUDED.reported_alerts,
	last_backup = EXCLUDED.last_backup,
	updated_at = EXCLUDED.updated_at`,
		entry.ID,
		entry.Description,
		sources,
		entry.MonitorBackup,
		entry.MonitorEndpoints,
		entry.MonitorConnectivity,
		entry.MonitorDTC,
		entry.CreateTicket,
		notifications,
		reported,
		lastBackup,
		time.Now().UTC(),
	)
	return err
}

// Delete removes an entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("config store: nil db")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM customer_configs WHERE id = $1`, id)
	return err
}
