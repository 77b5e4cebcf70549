package vendors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestZabbixSeverity(t *testing.T) {
	cases := map[string]string{
		"0":  "Not classified",
		"1":  "Information",
		"2":  "Warning",
		"3":  "Average",
		"4":  "High",
		"5":  "Disaster",
		"9":  "9",
		"":   "",
		"xx": "xx",
	}
	for code, want := range cases {
		if got := ZabbixSeverity(code); got != want {
			t.Fatalf("ZabbixSeverity(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestZabbixListTenantsAndAlerts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_jsonrpc.php" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var request zabbixRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("decode: %v", err)
		}
		if request.Auth != "secret" {
			t.Errorf("auth = %q", request.Auth)
		}
		w.Header().Set("Content-Type", "application/json")
		switch request.Method {
		case "hostgroup.get":
			_, _ = w.Write([]byte(`{"result":[{"groupid":"7","name":"Acme"}]}`))
		case "problem.get":
			_, _ = w.Write([]byte(`{"result":[{"eventid":"e-1","objectid":"o-1","name":"Link down","severity":"4","clock":"1767225600","hosts":[{"hostid":"h-1","host":"fw01"}]}]}`))
		default:
			t.Errorf("unexpected method %q", request.Method)
		}
	}))
	defer server.Close()

	zabbix, err := NewZabbix(server.URL, "secret")
	if err != nil {
		t.Fatalf("new zabbix: %v", err)
	}

	tenants, err := zabbix.ListTenants(context.Background())
	if err != nil {
		t.Fatalf("list tenants: %v", err)
	}
	if len(tenants) != 1 || tenants[0].ID != "7" || tenants[0].Description != "Acme" {
		t.Fatalf("tenants = %+v", tenants)
	}

	alerts, err := zabbix.ListAlerts(context.Background(), "7")
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d", len(alerts))
	}
	alert := alerts[0]
	if alert.ID != "e-1" || alert.Severity != "High" || alert.EndpointID != "h-1" {
		t.Fatalf("alert = %+v", alert)
	}
	if alert.Property("host.name") != "fw01" {
		t.Fatalf("hostname = %q", alert.Property("host.name"))
	}
	want := time.Unix(1767225600, 0).UTC()
	if !alert.Created.Equal(want) {
		t.Fatalf("created = %v, want %v", alert.Created, want)
	}
}

func TestZabbixAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid params.","data":"Session terminated"}}`))
	}))
	defer server.Close()

	zabbix, _ := NewZabbix(server.URL, "secret")
	if _, err := zabbix.ListTenants(context.Background()); err == nil {
		t.Fatal("expected API error")
	}
}

func TestZabbixEmptyGroupID(t *testing.T) {
	zabbix, _ := NewZabbix("http://zabbix.local", "secret")
	if _, err := zabbix.ListAlerts(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty group id")
	}
}
