package vendors

import (
	"testing"

	alerting "mspmon/internal/alerting/domain"
)

func TestExcludeSeverities(t *testing.T) {
	qualify := ExcludeSeverities("Success", "Running")

	cases := []struct {
		severity string
		want     bool
	}{
		{"Failed", true},
		{"Success", false},
		{"success", false},
		{" RUNNING ", false},
		{"Warning", true},
		{"", true},
	}
	for _, tc := range cases {
		alert := alerting.AlertRecord{Severity: tc.severity}
		if got := qualify(alert); got != tc.want {
			t.Fatalf("qualify(severity=%q) = %v, want %v", tc.severity, got, tc.want)
		}
	}
}

func TestCategoryKey(t *testing.T) {
	withCategory := alerting.AlertRecord{Category: "backup failed", EndpointType: "mailbox"}
	if got := CategoryKey(withCategory); got != "backup failed" {
		t.Fatalf("got %q", got)
	}
	withoutCategory := alerting.AlertRecord{EndpointType: "mailbox"}
	if got := CategoryKey(withoutCategory); got != "mailbox" {
		t.Fatalf("got %q", got)
	}
}

func TestEndpointKey(t *testing.T) {
	if got := EndpointKey(alerting.AlertRecord{EndpointID: "host-9"}); got != "host-9" {
		t.Fatalf("got %q", got)
	}
}

func TestSourceValidate(t *testing.T) {
	source, err := NewZabbixSource("http://zabbix.local", "token")
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if err := source.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	source.Client = nil
	if err := source.Validate(); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestDefaultEndpointFactory(t *testing.T) {
	factory := DefaultEndpointFactory("account")
	alert := alerting.AlertRecord{
		EndpointID: "ep-1",
		TenantID:   "t-1",
		Raw:        map[string]any{"machine_name": "srv01"},
	}
	endpoint := factory(alert)
	if endpoint.Type != "account" || endpoint.Hostname != "srv01" || endpoint.TenantID != "t-1" {
		t.Fatalf("endpoint = %+v", endpoint)
	}

	typed := alert
	typed.EndpointType = "job"
	if got := factory(typed).Type; got != "job" {
		t.Fatalf("type = %q, want alert's own endpoint type", got)
	}
}
