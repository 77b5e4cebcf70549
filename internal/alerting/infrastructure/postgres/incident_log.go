package postgres

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"
)

// LoggedIncident is a persisted record of a ticketed incident.
type LoggedIncident struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	TenantID    string    `json:"tenant_id"`
	Customer    string    `json:"customer"`
	EndpointID  string    `json:"endpoint_id"`
	AlertType   string    `json:"alert_type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	TicketID    string    `json:"ticket_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// IncidentLog stores ticketed incidents for the admin API and reports.
type IncidentLog struct {
	db *sql.DB
}

// NewIncidentLog constructs an incident log repository.
func NewIncidentLog(db *sql.DB) *IncidentLog {
	return &IncidentLog{db: db}
}

// Create inserts a logged incident. Re-inserting the same incident window is
// a no-op so retried cycles stay idempotent.
func (r *IncidentLog) Create(ctx context.Context, incident *LoggedIncident) error {
	if r == nil || r.db == nil {
		return errors.New("incident log: nil db")
	}
	if incident == nil {
		return errors.New("incident log: nil incident")
	}
	if incident.ID == "" {
		incident.ID = buildIncidentID(incident.Source, incident.EndpointID, incident.AlertType, incident.StartAt)
	}
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO incident_log (
	id, source, tenant_id, customer, endpoint_id, alert_type,
	severity, description, start_at, end_at, ticket_id, created_at
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, $8, $9, $10, $11, $12
)
ON CONFLICT (id)
DO NOTHING`,
		incident.ID,
		incident.Source,
		incident.TenantID,
		incident.Customer,
		incident.EndpointID,
		incident.AlertType,
		incident.Severity,
		incident.Description,
		incident.StartAt.UTC(),
		incident.EndAt.UTC(),
		incident.TicketID,
		incident.CreatedAt,
	)
	return err
}

// Record is the flat-argument form used by the collection pipeline.
func (r *IncidentLog) Record(ctx context.Context, source, tenantID, customer, endpointID, alertType, severity, description, ticketID string, startAt, endAt time.Time) error {
	return r.Create(ctx, &LoggedIncident{
		Source:      source,
		TenantID:    tenantID,
		Customer:    customer,
		EndpointID:  endpointID,
		AlertType:   alertType,
		Severity:    severity,
		Description: description,
		TicketID:    ticketID,
		StartAt:     startAt,
		EndAt:       endAt,
	})
}

// ListRecent returns the newest logged incidents, optionally scoped to a
// customer. A zero limit defaults to 100.
func (r *IncidentLog) ListRecent(ctx context.Context, customer string, limit int) ([]LoggedIncident, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("incident log: nil db")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, source, tenant_id, customer, endpoint_id, alert_type,
	severity, description, start_at, end_at, ticket_id, created_at
FROM incident_log
WHERE ($1 = '' OR customer = $1)
ORDER BY created_at DESC
LIMIT $2`, customer, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []LoggedIncident
	for rows.Next() {
		var incident LoggedIncident
		if err := rows.Scan(
			&incident.ID,
			&incident.Source,
			&incident.TenantID,
			&incident.Customer,
			&incident.EndpointID,
			&incident.AlertType,
			&incident.Severity,
			&incident.Description,
			&incident.StartAt,
			&incident.EndAt,
			&incident.TicketID,
			&incident.CreatedAt,
		); err != nil {
			return nil, err
		}
		incident.StartAt = incident.StartAt.UTC()
		incident.EndAt = incident.EndAt.UTC()
		incident.CreatedAt = incident.CreatedAt.UTC()
		incidents = append(incidents, incident)
	}
	return incidents, rows.Err()
}

func buildIncidentID(source, endpointID, alertType string, startAt time.Time) string {
	sum := sha1.Sum([]byte(source + "|" + endpointID + "|" + alertType + "|" + startAt.UTC().Format(time.RFC3339Nano)))
	return "incident-" + hex.EncodeToString(sum[:8])
}
