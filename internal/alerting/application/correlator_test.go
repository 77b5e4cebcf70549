package application

import (
	"testing"
	"time"

	alerting "mspmon/internal/alerting/domain"
)

func testPolicy() Policy {
	return Policy{
		Source: "SRC",
		Qualify: func(alert alerting.AlertRecord) bool {
			return alert.Severity != "Information"
		},
		GroupKey: func(alert alerting.AlertRecord) string {
			return alert.Category
		},
		NewEndpoint: func(alert alerting.AlertRecord) *alerting.Endpoint {
			return &alerting.Endpoint{ID: alert.EndpointID, Type: "server", TenantID: alert.TenantID}
		},
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := testPolicy().Validate(); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}
	broken := testPolicy()
	broken.GroupKey = nil
	if err := broken.Validate(); err == nil {
		t.Fatal("expected error for nil group key")
	}
}

func TestCorrelateMergesSameKeyIntoOneIncident(t *testing.T) {
	correlator, err := NewCorrelator(testPolicy())
	if err != nil {
		t.Fatalf("new correlator: %v", err)
	}
	tenant := alerting.NewTenant("t-1", "Acme")

	t1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(30 * time.Minute)
	alerts := []alerting.AlertRecord{
		{ID: "a1", Created: t1, Severity: "Error", Category: "backup failed", EndpointID: "ep-1"},
		{ID: "a2", Created: t2, Severity: "Error", Category: "backup failed", EndpointID: "ep-1"},
	}

	out := correlator.Correlate(tenant, alerts)
	if got := out.IncidentCount(); got != 1 {
		t.Fatalf("IncidentCount = %d, want 1", got)
	}
	incident := out.Devices["ep-1"]["backup failed"]
	if incident == nil {
		t.Fatal("missing incident for (ep-1, backup failed)")
	}
	if !incident.StartAt.Equal(t1) || !incident.EndAt.Equal(t2) {
		t.Fatalf("window = [%v, %v], want [%v, %v]", incident.StartAt, incident.EndAt, t1, t2)
	}
	if incident.Alert.ID != "a2" {
		t.Fatalf("carried alert = %s, want a2", incident.Alert.ID)
	}
}

func TestCorrelateDistinctKeysDistinctIncidents(t *testing.T) {
	correlator, _ := NewCorrelator(testPolicy())
	tenant := alerting.NewTenant("t-1", "Acme")

	now := time.Now().UTC()
	alerts := []alerting.AlertRecord{
		{ID: "a1", Created: now, Severity: "Error", Category: "backup failed", EndpointID: "ep-1"},
		{ID: "a2", Created: now, Severity: "Error", Category: "quota exceeded", EndpointID: "ep-1"},
	}

	out := correlator.Correlate(tenant, alerts)
	if got := out.IncidentCount(); got != 2 {
		t.Fatalf("IncidentCount = %d, want 2", got)
	}
}

func TestCorrelateSkipsNonQualifying(t *testing.T) {
	correlator, _ := NewCorrelator(testPolicy())
	tenant := alerting.NewTenant("t-1", "Acme")

	now := time.Now().UTC()
	alerts := []alerting.AlertRecord{
		{ID: "a1", Created: now, Severity: "Information", Category: "job finished", EndpointID: "ep-1"},
		{ID: "a2", Created: now, Severity: "Error", Category: "backup failed", EndpointID: "ep-1"},
	}

	out := correlator.Correlate(tenant, alerts)
	if got := out.IncidentCount(); got != 1 {
		t.Fatalf("IncidentCount = %d, want 1", got)
	}
	endpoint := tenant.Endpoints["ep-1"]
	if endpoint == nil {
		t.Fatal("endpoint not resolved")
	}
	// All alerts land on the endpoint, only qualifying ones become incidents.
	if len(endpoint.Alerts) != 2 {
		t.Fatalf("endpoint alerts = %d, want 2", len(endpoint.Alerts))
	}
	if len(endpoint.IncidentAlerts) != 1 {
		t.Fatalf("endpoint incident alerts = %d, want 1", len(endpoint.IncidentAlerts))
	}
}

func TestCorrelateResetsPreviousCycle(t *testing.T) {
	correlator, _ := NewCorrelator(testPolicy())
	tenant := alerting.NewTenant("t-1", "Acme")

	now := time.Now().UTC()
	first := []alerting.AlertRecord{
		{ID: "a1", Created: now, Severity: "Error", Category: "backup failed", EndpointID: "ep-1"},
	}
	correlator.Correlate(tenant, first)

	second := []alerting.AlertRecord{
		{ID: "a2", Created: now, Severity: "Error", Category: "quota exceeded", EndpointID: "ep-1"},
	}
	out := correlator.Correlate(tenant, second)

	endpoint := tenant.Endpoints["ep-1"]
	if len(endpoint.Alerts) != 1 || endpoint.Alerts[0].ID != "a2" {
		t.Fatalf("previous cycle's alerts not cleared: %+v", endpoint.Alerts)
	}
	if _, stale := out.Devices["ep-1"]["backup failed"]; stale {
		t.Fatal("stale incident survived the new cycle")
	}
}
