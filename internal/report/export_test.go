package report

import (
	"bytes"
	"testing"
	"time"

	incidentlog "mspmon/internal/alerting/infrastructure/postgres"
)

func sampleIncidents() []incidentlog.LoggedIncident {
	return []incidentlog.LoggedIncident{
		{
			ID:         "incident-aa11bb22",
			Source:     "cloudally",
			Customer:   "Acme Corp",
			EndpointID: "mbx-1",
			AlertType:  "Backup",
			Severity:   "Failed",
			StartAt:    time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
			EndAt:      time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
			TicketID:   "68001",
		},
		{
			ID:       "incident-cc33dd44",
			Source:   "zabbix",
			Customer: "Acme Corp",
		},
	}
}

func TestBuildIncidentPDF(t *testing.T) {
	summary := Summary{
		Customer:    "Acme Corp",
		From:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := BuildIncidentPDF(summary, sampleIncidents())
	if err != nil {
		t.Fatalf("BuildIncidentPDF: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte("%PDF")) {
		t.Fatalf("payload does not start with a PDF header: %q", payload[:8])
	}
}

func TestBuildIncidentPDFEmpty(t *testing.T) {
	payload, err := BuildIncidentPDF(Summary{GeneratedAt: time.Now()}, nil)
	if err != nil {
		t.Fatalf("BuildIncidentPDF: %v", err)
	}
	if len(payload) == 0 {
		t.Fatal("empty payload")
	}
}

func TestBuildIncidentXLSX(t *testing.T) {
	summary := Summary{Customer: "Acme Corp", GeneratedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	payload, err := BuildIncidentXLSX(summary, sampleIncidents())
	if err != nil {
		t.Fatalf("BuildIncidentXLSX: %v", err)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(payload, []byte("PK")) {
		t.Fatalf("payload does not look like a zip archive: %q", payload[:4])
	}
}

func TestSummaryTitle(t *testing.T) {
	if got := (Summary{}).title(); got != "Incident Report" {
		t.Fatalf("title = %q", got)
	}
	if got := (Summary{Customer: "Acme Corp"}).title(); got != "Incident Report: Acme Corp" {
		t.Fatalf("title = %q", got)
	}
}
