package vendors

import (
	"context"
	"fmt"
	"net/http"

	"mspmon/internal/alerting/application"
	alerting "mspmon/internal/alerting/domain"
	config "mspmon/internal/config/domain"
)

const sourceIntegra365 = "Integra365"

// Integra365 is a client for the Integra Cloud Office 365 backup portal.
type Integra365 struct {
	rest *restClient
}

// NewIntegra365 constructs an Integra365 client.
func NewIntegra365(baseURL, apiKey string) (*Integra365, error) {
	rest, err := newRESTClient(baseURL, map[string]string{"X-Api-Key": apiKey})
	if err != nil {
		return nil, err
	}
	return &Integra365{rest: rest}, nil
}

// Name returns the source name.
func (i *Integra365) Name() string { return sourceIntegra365 }

type integraOrganization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListTenants lists backup organizations.
func (i *Integra365) ListTenants(ctx context.Context) ([]*alerting.Tenant, error) {
	var organizations []integraOrganization
	if err := i.rest.doJSON(ctx, http.MethodGet, "/api/organizations", nil, &organizations); err != nil {
		return nil, err
	}
	tenants := make([]*alerting.Tenant, 0, len(organizations))
	for _, organization := range organizations {
		tenants = append(tenants, alerting.NewTenant(organization.ID, organization.Name))
	}
	return tenants, nil
}

type integraJob struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	LastStatus  string `json:"lastStatus"`
	LastRun     string `json:"lastRun"`
	FailureText string `json:"failureMessage"`
}

// ListAlerts maps backup job results to alert records.
func (i *Integra365) ListAlerts(ctx context.Context, tenantID string) ([]alerting.AlertRecord, error) {
	var jobs []integraJob
	path := fmt.Sprintf("/api/organizations/%s/jobs", tenantID)
	if err := i.rest.doJSON(ctx, http.MethodGet, path, nil, &jobs); err != nil {
		return nil, err
	}
	alerts := make([]alerting.AlertRecord, 0, len(jobs))
	for _, job := range jobs {
		description := job.FailureText
		if description == "" {
			description = fmt.Sprintf("Backup job %s reported %s", job.Name, job.LastStatus)
		}
		alerts = append(alerts, alerting.AlertRecord{
			ID:           job.ID,
			Created:      parseTimestamp(job.LastRun),
			Description:  description,
			Severity:     job.LastStatus,
			Category:     job.Type,
			Product:      sourceIntegra365,
			EndpointID:   job.ID,
			EndpointType: "backup-job",
			TenantID:     tenantID,
			Raw: map[string]any{
				"job": map[string]any{
					"name": job.Name,
					"type": job.Type,
				},
			},
		})
	}
	return alerts, nil
}

// NewIntegra365Source builds the complete Integra365 source with its policy.
func NewIntegra365Source(baseURL, apiKey string) (Source, error) {
	client, err := NewIntegra365(baseURL, apiKey)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Client: client,
		Policy: application.Policy{
			Source:      sourceIntegra365,
			Qualify:     ExcludeSeverities("Success", "Running"),
			GroupKey:    CategoryKey,
			NewEndpoint: integraEndpoint,
		},
		Label: func(endpoint *alerting.Endpoint) string {
			return endpoint.Label()
		},
		TicketTag: "integra365",
		Monitored: func(entry *config.Entry) bool { return entry.MonitorBackup },
	}, nil
}

func integraEndpoint(alert alerting.AlertRecord) *alerting.Endpoint {
	return &alerting.Endpoint{
		ID:       alert.EndpointID,
		Type:     "backup-job",
		Hostname: alert.Property("job.name"),
		TenantID: alert.TenantID,
		Status:   "active",
	}
}
