package config

import (
	"strings"
	"time"
)

// Entry is a customer configuration record shared by every monitor source.
// One entry can be tagged by multiple vendor sources; the description is the
// join key against vendor tenant lists and the documentation system.
type Entry struct {
	ID                  string         `json:"id"`
	Description         string         `json:"description"`
	Sources             []string       `json:"source"`
	MonitorBackup       bool           `json:"monitor_backup"`
	MonitorEndpoints    bool           `json:"monitor_endpoints"`
	MonitorConnectivity bool           `json:"monitor_connectivity"`
	MonitorDTC          bool           `json:"monitor_dtc"`
	CreateTicket        bool           `json:"create_ticket"`
	Notifications       []Notification `json:"notifications"`
	ReportedAlerts      []string       `json:"reported_alerts"`
	LastBackup          time.Time      `json:"last_backup"`

	// Touched marks entries seen during the current reconciliation pass.
	// Never persisted; used to prune entries for tenants a vendor no
	// longer lists.
	Touched bool `json:"-"`
}

// Notification is a recurring or one-shot reminder task for a customer.
type Notification struct {
	Task      string     `json:"task"`
	Interval  string     `json:"interval"`
	Triggered *time.Time `json:"triggered"`
}

// HasSource reports whether the entry is tagged with the vendor source.
func (e *Entry) HasSource(source string) bool {
	for _, s := range e.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// AddSource tags the entry with a vendor source, once.
func (e *Entry) AddSource(source string) {
	if source == "" || e.HasSource(source) {
		return
	}
	e.Sources = append(e.Sources, source)
}

// MatchDescription matches a customer name against the entry description:
// case-insensitive equality first, substring containment as fallback.
func (e *Entry) MatchDescription(name string) bool {
	return MatchNames(e.Description, name)
}

// MatchNames is the shared cross-system name matching rule.
func MatchNames(left, right string) bool {
	l := normalize(left)
	r := normalize(right)
	if l == "" || r == "" {
		return false
	}
	if l == r {
		return true
	}
	return strings.Contains(l, r) || strings.Contains(r, l)
}

// EqualNames reports case-insensitive name equality after trimming.
func EqualNames(left, right string) bool {
	l := normalize(left)
	r := normalize(right)
	return l != "" && l == r
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
