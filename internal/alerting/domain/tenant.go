package alerting

// Tenant is a vendor-side customer account with its monitored endpoints.
// Tenant IDs are scoped to the vendor that produced them; the description is
// the human name used as the cross-system join key.
type Tenant struct {
	ID          string               `json:"id"`
	Description string               `json:"description"`
	Endpoints   map[string]*Endpoint `json:"endpoints"`
	Alerts      []AlertRecord        `json:"alerts"`
}

// NewTenant constructs an empty tenant.
func NewTenant(id, description string) *Tenant {
	return &Tenant{
		ID:          id,
		Description: description,
		Endpoints:   make(map[string]*Endpoint),
	}
}

// EndpointFactory synthesizes an endpoint from an alert that references an
// endpoint id the tenant has no directory entry for. Vendor policy; total.
type EndpointFactory func(alert AlertRecord) *Endpoint

// ResolveEndpoint returns the endpoint the alert refers to, lazily creating
// it through the vendor factory when the tenant has no record of it.
func (t *Tenant) ResolveEndpoint(alert AlertRecord, factory EndpointFactory) *Endpoint {
	if t.Endpoints == nil {
		t.Endpoints = make(map[string]*Endpoint)
	}
	if endpoint, ok := t.Endpoints[alert.EndpointID]; ok {
		return endpoint
	}
	endpoint := factory(alert)
	if endpoint.TenantID == "" {
		endpoint.TenantID = t.ID
	}
	t.Endpoints[alert.EndpointID] = endpoint
	return endpoint
}

// ClearAlerts resets every endpoint's alert lists without destroying the
// endpoint records. Runs once per polling cycle before repopulation.
func (t *Tenant) ClearAlerts() {
	for _, endpoint := range t.Endpoints {
		endpoint.Alerts = nil
		endpoint.IncidentAlerts = nil
	}
}
