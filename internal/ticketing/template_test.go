package ticketing

import (
	"strings"
	"testing"
)

func TestTemplateRenderDefault(t *testing.T) {
	template, err := NewTemplate("")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}

	body, err := template.Render(TemplateData{
		Customer: "Acme",
		Source:   "CloudAlly",
		Incidents: []IncidentLine{
			{
				Endpoint:    "nas-1",
				Kind:        "backup failed",
				Severity:    "Error",
				Start:       "2026-03-01T08:00:00Z",
				End:         "2026-03-01T08:20:00Z",
				Description: "Job exceeded retry budget",
			},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{"Acme", "CloudAlly", "nas-1", "backup failed", "Job exceeded retry budget", "1 unreported"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestTemplateRenderCustom(t *testing.T) {
	template, err := NewTemplate("{{.Customer}}: {{len .Incidents}}")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}
	body, err := template.Render(TemplateData{Customer: "Globex", Incidents: make([]IncidentLine, 3)})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if body != "Globex: 3" {
		t.Fatalf("body = %q", body)
	}
}

func TestNewTemplateInvalid(t *testing.T) {
	if _, err := NewTemplate("{{.Broken"); err == nil {
		t.Fatal("expected parse error")
	}
}
