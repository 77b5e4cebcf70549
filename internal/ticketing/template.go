package ticketing

import (
	"bytes"
	"errors"
	"text/template"
)

const DefaultTicketTemplate = `Monitoring detected {{len .Incidents}} unreported incident(s) for {{.Customer}} via {{.Source}}.
{{range .Incidents}}
Endpoint: {{.Endpoint}}
Type: {{.Kind}}
Severity: {{.Severity}}
First seen: {{.Start}}
Last seen: {{.End}}
Details: {{.Description}}
{{end}}`

// IncidentLine is one incident rendered into a ticket body.
type IncidentLine struct {
	Endpoint    string
	Kind        string
	Severity    string
	Start       string
	End         string
	Description string
}

// TemplateData provides fields for rendering a ticket body.
type TemplateData struct {
	Customer  string
	Source    string
	Incidents []IncidentLine
}

// Template renders ticket bodies.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a ticket template, falling back to DefaultTicketTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTicketTemplate
	}
	parsed, err := template.New("incident-ticket").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("ticket template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
