package vendors

import (
	"context"
	"fmt"
	"net/http"

	"mspmon/internal/alerting/application"
	alerting "mspmon/internal/alerting/domain"
	config "mspmon/internal/config/domain"
)

const sourceCloudAlly = "CloudAlly"

// CloudAlly is a client for the CloudAlly partner backup API.
type CloudAlly struct {
	rest *restClient
}

// NewCloudAlly constructs a CloudAlly client.
func NewCloudAlly(baseURL, token string) (*CloudAlly, error) {
	rest, err := newRESTClient(baseURL, map[string]string{"Authorization": "Bearer " + token})
	if err != nil {
		return nil, err
	}
	return &CloudAlly{rest: rest}, nil
}

// Name returns the source name.
func (c *CloudAlly) Name() string { return sourceCloudAlly }

type cloudAllyAccountsPage struct {
	Data    []cloudAllyAccount `json:"data"`
	NextURL string             `json:"nextPageToken"`
}

type cloudAllyAccount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListTenants lists partner accounts.
func (c *CloudAlly) ListTenants(ctx context.Context) ([]*alerting.Tenant, error) {
	var page cloudAllyAccountsPage
	if err := c.rest.doJSON(ctx, http.MethodGet, "/v2/partners/accounts", nil, &page); err != nil {
		return nil, err
	}
	tenants := make([]*alerting.Tenant, 0, len(page.Data))
	for _, account := range page.Data {
		tenants = append(tenants, alerting.NewTenant(account.ID, account.Name))
	}
	return tenants, nil
}

type cloudAllyTasksPage struct {
	Data []cloudAllyTask `json:"data"`
}

type cloudAllyTask struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	EntityName  string `json:"entityName"`
	Status      string `json:"status"`
	LastBackup  string `json:"lastBackup"`
	Description string `json:"statusDescription"`
}

// ListAlerts maps the account's backup task statuses to alert records.
func (c *CloudAlly) ListAlerts(ctx context.Context, tenantID string) ([]alerting.AlertRecord, error) {
	var page cloudAllyTasksPage
	path := fmt.Sprintf("/v2/accounts/%s/tasks", tenantID)
	if err := c.rest.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	alerts := make([]alerting.AlertRecord, 0, len(page.Data))
	for _, task := range page.Data {
		description := task.Description
		if description == "" {
			description = fmt.Sprintf("Backup task %s for %s reported %s", task.Source, task.EntityName, task.Status)
		}
		alerts = append(alerts, alerting.AlertRecord{
			ID:           task.ID,
			Created:      parseTimestamp(task.LastBackup),
			Description:  description,
			Severity:     task.Status,
			Category:     task.Source,
			Product:      sourceCloudAlly,
			EndpointID:   task.ID,
			EndpointType: "backup-task",
			TenantID:     tenantID,
			Raw: map[string]any{
				"task": map[string]any{
					"source":      task.Source,
					"entity_name": task.EntityName,
					"status":      task.Status,
				},
			},
		})
	}
	return alerts, nil
}

// NewCloudAllySource builds the complete CloudAlly source with its policy.
func NewCloudAllySource(baseURL, token string) (Source, error) {
	client, err := NewCloudAlly(baseURL, token)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Client: client,
		Policy: cloudAllyPolicy(),
		Label: func(endpoint *alerting.Endpoint) string {
			return endpoint.Label()
		},
		TicketTag: "cloudally",
		Monitored: func(entry *config.Entry) bool { return entry.MonitorBackup },
	}, nil
}

func cloudAllyPolicy() application.Policy {
	return application.Policy{
		Source:      sourceCloudAlly,
		Qualify:     ExcludeSeverities("Success", "Running"),
		GroupKey:    CategoryKey,
		NewEndpoint: cloudAllyEndpoint,
	}
}

func cloudAllyEndpoint(alert alerting.AlertRecord) *alerting.Endpoint {
	return &alerting.Endpoint{
		ID:       alert.EndpointID,
		Type:     "backup-task",
		Hostname: alert.Property("task.entity_name"),
		TenantID: alert.TenantID,
		Status:   "active",
	}
}
