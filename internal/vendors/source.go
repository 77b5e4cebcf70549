package vendors

import (
	"context"
	"errors"
	"strings"

	"mspmon/internal/alerting/application"
	alerting "mspmon/internal/alerting/domain"
	config "mspmon/internal/config/domain"
)

// Client lists tenants and per-tenant alerts for one vendor portal.
type Client interface {
	Name() string
	ListTenants(ctx context.Context) ([]*alerting.Tenant, error)
	ListAlerts(ctx context.Context, tenantID string) ([]alerting.AlertRecord, error)
}

// Source bundles a vendor client with its correlation policy, the label
// formatter used in ticket bodies, and the config monitor flag that gates
// reporting for this vendor's service category.
type Source struct {
	Client    Client
	Policy    application.Policy
	Label     func(endpoint *alerting.Endpoint) string
	TicketTag string
	Monitored func(entry *config.Entry) bool
}

// Validate checks the source is usable.
func (s Source) Validate() error {
	if s.Client == nil {
		return errors.New("vendors: nil client")
	}
	if err := s.Policy.Validate(); err != nil {
		return err
	}
	return nil
}

// ExcludeSeverities builds a qualify predicate that drops alerts whose
// severity matches any excluded value, case-insensitively. Everything else
// is incident-worthy.
func ExcludeSeverities(excluded ...string) func(alerting.AlertRecord) bool {
	lowered := make(map[string]struct{}, len(excluded))
	for _, value := range excluded {
		lowered[strings.ToLower(value)] = struct{}{}
	}
	return func(alert alerting.AlertRecord) bool {
		_, drop := lowered[strings.ToLower(strings.TrimSpace(alert.Severity))]
		return !drop
	}
}

// CategoryKey groups alerts by their normalized category.
func CategoryKey(alert alerting.AlertRecord) string {
	if alert.Category != "" {
		return alert.Category
	}
	return alert.EndpointType
}

// EndpointKey groups alerts by endpoint identity; used by vendors where any
// alert on a device belongs to the same incident stream.
func EndpointKey(alert alerting.AlertRecord) string {
	return alert.EndpointID
}

// DefaultEndpointFactory synthesizes an endpoint from an alert when the
// vendor exposes no device directory.
func DefaultEndpointFactory(endpointType string) alerting.EndpointFactory {
	return func(alert alerting.AlertRecord) *alerting.Endpoint {
		kind := alert.EndpointType
		if kind == "" {
			kind = endpointType
		}
		return &alerting.Endpoint{
			ID:       alert.EndpointID,
			Type:     kind,
			Hostname: alert.Property("machine_name"),
			TenantID: alert.TenantID,
			Status:   "active",
		}
	}
}
