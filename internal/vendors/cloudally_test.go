package vendors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCloudAllyListTenants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/partners/accounts" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("auth = %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"acc-1","name":"Acme"},{"id":"acc-2","name":"Globex"}]}`))
	}))
	defer server.Close()

	client, err := NewCloudAlly(server.URL, "secret")
	if err != nil {
		t.Fatalf("new cloudally: %v", err)
	}
	tenants, err := client.ListTenants(context.Background())
	if err != nil {
		t.Fatalf("list tenants: %v", err)
	}
	if len(tenants) != 2 || tenants[0].Description != "Acme" || tenants[1].ID != "acc-2" {
		t.Fatalf("tenants = %+v", tenants)
	}
}

func TestCloudAllyListAlerts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/accounts/acc-1/tasks" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[
			{"id":"task-1","source":"MS365","entityName":"finance","status":"Failed","lastBackup":"2026-03-01T08:00:00Z"},
			{"id":"task-2","source":"GSUITE","entityName":"sales","status":"Success","lastBackup":"2026-03-01T09:00:00Z"}
		]}`))
	}))
	defer server.Close()

	client, _ := NewCloudAlly(server.URL, "secret")
	alerts, err := client.ListAlerts(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d", len(alerts))
	}
	failed := alerts[0]
	if failed.Severity != "Failed" || failed.Category != "MS365" {
		t.Fatalf("alert = %+v", failed)
	}
	if failed.Property("task.entity_name") != "finance" {
		t.Fatalf("entity = %q", failed.Property("task.entity_name"))
	}

	// The source policy keeps failures and drops healthy task states.
	qualify := cloudAllyPolicy().Qualify
	if !qualify(alerts[0]) {
		t.Fatal("failed task must qualify")
	}
	if qualify(alerts[1]) {
		t.Fatal("successful task must not qualify")
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	cases := []string{
		"2026-03-01T08:00:00Z",
		"2026-03-01T08:00:00",
		"2026-03-01 08:00:00",
	}
	for _, value := range cases {
		if parseTimestamp(value).IsZero() {
			t.Fatalf("parseTimestamp(%q) returned zero", value)
		}
	}
	if !parseTimestamp("not a time").IsZero() {
		t.Fatal("expected zero time for garbage input")
	}
}
