package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one recorded admin action against the monitoring API.
type Entry struct {
	ID           string          `json:"id"`
	Actor        string          `json:"actor"`
	Role         string          `json:"role"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	CustomerID   string          `json:"customer_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	IP           string          `json:"ip,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Actions recorded by the API handlers.
const (
	ActionNotificationAdd = "notification.add"
	ActionReportedCompact = "reported.compact"
)

// Recorder persists audit entries. Recording is best effort; handlers do not
// fail a request over a lost audit row.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}
