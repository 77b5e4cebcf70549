package alerting

import "time"

// Incident is a time-bounded grouping of same-type alerts for one endpoint.
// Incidents are transient: rebuilt from current alerts every collection
// cycle; only their identifiers persist once reported.
type Incident struct {
	Source     string      `json:"source"`
	EndpointID string      `json:"endpoint_id"`
	StartAt    time.Time   `json:"start_at"`
	EndAt      time.Time   `json:"end_at"`
	Alert      AlertRecord `json:"alert"`
}

// NewIncident opens an incident from its first qualifying alert.
func NewIncident(source string, alert AlertRecord) *Incident {
	return &Incident{
		Source:     source,
		EndpointID: alert.EndpointID,
		StartAt:    alert.Created,
		EndAt:      alert.Created,
		Alert:      alert,
	}
}

// Extend records a repeat alert for the same (endpoint, type) key. The
// window end and carried alert follow the last alert processed; callers that
// want the end time to mean "most recent occurrence" must feed alerts in
// ascending creation order.
func (i *Incident) Extend(alert AlertRecord) {
	i.EndAt = alert.Created
	i.Alert = alert
}

// DedupID is the identity used by the reported-incident tracker.
func (i *Incident) DedupID() string {
	return i.Source + "-" + i.Alert.ID
}

// CustomerAlerts aggregates one tenant's cycle output: the raw alert list and
// live incidents keyed by endpoint then alert-type group key. At most one
// live incident exists per (endpoint, key).
type CustomerAlerts struct {
	Name    string                          `json:"name"`
	Alerts  []AlertRecord                   `json:"alerts"`
	Devices map[string]map[string]*Incident `json:"devices"`
}

// NewCustomerAlerts constructs an empty per-tenant aggregate.
func NewCustomerAlerts(name string) *CustomerAlerts {
	return &CustomerAlerts{
		Name:    name,
		Devices: make(map[string]map[string]*Incident),
	}
}

// Upsert opens or extends the incident for (endpointID, key).
func (c *CustomerAlerts) Upsert(source, endpointID, key string, alert AlertRecord) *Incident {
	if c.Devices == nil {
		c.Devices = make(map[string]map[string]*Incident)
	}
	byKey, ok := c.Devices[endpointID]
	if !ok {
		byKey = make(map[string]*Incident)
		c.Devices[endpointID] = byKey
	}
	if incident, ok := byKey[key]; ok {
		incident.Extend(alert)
		return incident
	}
	incident := NewIncident(source, alert)
	byKey[key] = incident
	return incident
}

// IncidentCount returns the number of live incidents across all devices.
func (c *CustomerAlerts) IncidentCount() int {
	count := 0
	for _, byKey := range c.Devices {
		count += len(byKey)
	}
	return count
}
