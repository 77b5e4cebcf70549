package vendors

import (
	"context"
	"fmt"
	"net/http"

	"mspmon/internal/alerting/application"
	alerting "mspmon/internal/alerting/domain"
	config "mspmon/internal/config/domain"
)

const sourceVeeam = "Veeam"

// Veeam is a client for the Veeam Service Provider Console API.
type Veeam struct {
	rest *restClient
}

// NewVeeam constructs a VSPC client.
func NewVeeam(baseURL, token string) (*Veeam, error) {
	rest, err := newRESTClient(baseURL, map[string]string{"Authorization": "Bearer " + token})
	if err != nil {
		return nil, err
	}
	return &Veeam{rest: rest}, nil
}

// Name returns the source name.
func (v *Veeam) Name() string { return sourceVeeam }

type veeamCompaniesPage struct {
	Data []veeamCompany `json:"data"`
}

type veeamCompany struct {
	InstanceUID string `json:"instanceUid"`
	Name        string `json:"name"`
}

// ListTenants lists managed companies.
func (v *Veeam) ListTenants(ctx context.Context) ([]*alerting.Tenant, error) {
	var page veeamCompaniesPage
	if err := v.rest.doJSON(ctx, http.MethodGet, "/api/v3/organizations/companies", nil, &page); err != nil {
		return nil, err
	}
	tenants := make([]*alerting.Tenant, 0, len(page.Data))
	for _, company := range page.Data {
		tenants = append(tenants, alerting.NewTenant(company.InstanceUID, company.Name))
	}
	return tenants, nil
}

type veeamAlarmsPage struct {
	Data []veeamAlarm `json:"data"`
}

type veeamAlarm struct {
	InstanceUID string `json:"instanceUid"`
	LastChange  struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Time    string `json:"time"`
	} `json:"lastActivation"`
	Alarm struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	} `json:"alarm"`
	Object struct {
		InstanceUID  string `json:"instanceUid"`
		ObjectUID    string `json:"objectUid"`
		ComputerName string `json:"computerName"`
		Type         string `json:"type"`
	} `json:"object"`
}

// ListAlerts lists active alarms scoped to a company.
func (v *Veeam) ListAlerts(ctx context.Context, tenantID string) ([]alerting.AlertRecord, error) {
	var page veeamAlarmsPage
	path := fmt.Sprintf("/api/v3/alarms/active?filter=companyUid eq %s", tenantID)
	if err := v.rest.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	alerts := make([]alerting.AlertRecord, 0, len(page.Data))
	for _, alarm := range page.Data {
		alerts = append(alerts, alerting.AlertRecord{
			ID:           alarm.InstanceUID,
			Created:      parseTimestamp(alarm.LastChange.Time),
			Description:  alarm.LastChange.Message,
			Severity:     alarm.LastChange.Status,
			Category:     alarm.Alarm.Name,
			Product:      sourceVeeam,
			EndpointID:   alarm.Object.ObjectUID,
			EndpointType: alarm.Object.Type,
			TenantID:     tenantID,
			Raw: map[string]any{
				"object": map[string]any{
					"computer_name": alarm.Object.ComputerName,
					"type":          alarm.Object.Type,
				},
				"alarm": map[string]any{
					"category": alarm.Alarm.Category,
				},
			},
		})
	}
	return alerts, nil
}

// NewVeeamSource builds the complete Veeam source with its policy.
func NewVeeamSource(baseURL, token string) (Source, error) {
	client, err := NewVeeam(baseURL, token)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Client: client,
		Policy: application.Policy{
			Source:      sourceVeeam,
			Qualify:     ExcludeSeverities("Resolved", "Information", "Acknowledged"),
			GroupKey:    CategoryKey,
			NewEndpoint: veeamEndpoint,
		},
		Label: func(endpoint *alerting.Endpoint) string {
			return endpoint.Label()
		},
		TicketTag: "veeam",
		Monitored: func(entry *config.Entry) bool { return entry.MonitorBackup },
	}, nil
}

func veeamEndpoint(alert alerting.AlertRecord) *alerting.Endpoint {
	return &alerting.Endpoint{
		ID:       alert.EndpointID,
		Type:     alert.EndpointType,
		Hostname: alert.Property("object.computer_name"),
		TenantID: alert.TenantID,
		Status:   "active",
	}
}
