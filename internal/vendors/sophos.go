package vendors

import (
	"context"
	"fmt"
	"net/http"

	"mspmon/internal/alerting/application"
	alerting "mspmon/internal/alerting/domain"
	config "mspmon/internal/config/domain"
)

const sourceSophos = "Sophos"

// Sophos is a client for the Sophos Central partner API.
type Sophos struct {
	rest *restClient
}

// NewSophos constructs a Sophos Central client.
func NewSophos(baseURL, token, partnerID string) (*Sophos, error) {
	rest, err := newRESTClient(baseURL, map[string]string{
		"Authorization": "Bearer " + token,
		"X-Partner-ID":  partnerID,
	})
	if err != nil {
		return nil, err
	}
	return &Sophos{rest: rest}, nil
}

// Name returns the source name.
func (s *Sophos) Name() string { return sourceSophos }

type sophosTenantsPage struct {
	Items []sophosTenant `json:"items"`
}

type sophosTenant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	APIHost    string `json:"apiHost"`
	DataRegion string `json:"dataRegion"`
}

// ListTenants lists partner tenants.
func (s *Sophos) ListTenants(ctx context.Context) ([]*alerting.Tenant, error) {
	var page sophosTenantsPage
	if err := s.rest.doJSON(ctx, http.MethodGet, "/partner/v1/tenants?pageTotal=true", nil, &page); err != nil {
		return nil, err
	}
	tenants := make([]*alerting.Tenant, 0, len(page.Items))
	for _, item := range page.Items {
		tenants = append(tenants, alerting.NewTenant(item.ID, item.Name))
	}
	return tenants, nil
}

type sophosAlertsPage struct {
	Items []sophosAlert `json:"items"`
}

type sophosAlert struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Product     string `json:"product"`
	RaisedAt    string `json:"raisedAt"`
	ManagedAgent struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"managedAgent"`
}

// ListAlerts lists open alerts for a tenant.
func (s *Sophos) ListAlerts(ctx context.Context, tenantID string) ([]alerting.AlertRecord, error) {
	var page sophosAlertsPage
	path := fmt.Sprintf("/common/v1/alerts?tenant=%s", tenantID)
	if err := s.rest.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	alerts := make([]alerting.AlertRecord, 0, len(page.Items))
	for _, item := range page.Items {
		alerts = append(alerts, alerting.AlertRecord{
			ID:           item.ID,
			Created:      parseTimestamp(item.RaisedAt),
			Description:  item.Description,
			Severity:     item.Severity,
			Category:     item.Category,
			Product:      item.Product,
			EndpointID:   item.ManagedAgent.ID,
			EndpointType: item.ManagedAgent.Type,
			TenantID:     tenantID,
			Raw: map[string]any{
				"managed_agent": map[string]any{
					"name": item.ManagedAgent.Name,
					"type": item.ManagedAgent.Type,
				},
			},
		})
	}
	return alerts, nil
}

// NewSophosSource builds the complete Sophos source with its policy.
func NewSophosSource(baseURL, token, partnerID string) (Source, error) {
	client, err := NewSophos(baseURL, token, partnerID)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Client: client,
		Policy: application.Policy{
			Source:      sourceSophos,
			Qualify:     ExcludeSeverities("Resolved", "Information"),
			GroupKey:    CategoryKey,
			NewEndpoint: sophosEndpoint,
		},
		Label: func(endpoint *alerting.Endpoint) string {
			return fmt.Sprintf("%s (%s)", endpoint.Label(), endpoint.Type)
		},
		TicketTag: "sophos",
		Monitored: func(entry *config.Entry) bool { return entry.MonitorEndpoints },
	}, nil
}

func sophosEndpoint(alert alerting.AlertRecord) *alerting.Endpoint {
	return &alerting.Endpoint{
		ID:       alert.EndpointID,
		Type:     alert.EndpointType,
		Hostname: alert.Property("managed_agent.name"),
		TenantID: alert.TenantID,
		Status:   "active",
	}
}
