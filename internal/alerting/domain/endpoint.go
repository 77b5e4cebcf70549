package alerting

// Endpoint is a monitored device, mailbox, job, or host owned by a tenant.
type Endpoint struct {
	ID             string        `json:"id"`
	Type           string        `json:"type"`
	Hostname       string        `json:"hostname"`
	TenantID       string        `json:"tenant_id"`
	Status         string        `json:"status"`
	Alerts         []AlertRecord `json:"alerts"`
	IncidentAlerts []AlertRecord `json:"incident_alerts"`
}

// Label renders a short human identifier, preferring the hostname.
func (e *Endpoint) Label() string {
	if e == nil {
		return ""
	}
	if e.Hostname != "" {
		return e.Hostname
	}
	return e.ID
}
