package application

import (
	"errors"

	alerting "mspmon/internal/alerting/domain"
)

// Policy carries the vendor-specific strategies the correlator needs:
// which alerts qualify as incident-worthy, how alerts group into incident
// keys, and how unknown endpoints are synthesized. Severity vocabularies
// differ per vendor, so the core never interprets them itself.
type Policy struct {
	Source      string
	Qualify     func(alert alerting.AlertRecord) bool
	GroupKey    func(alert alerting.AlertRecord) string
	NewEndpoint alerting.EndpointFactory
}

// Validate checks the policy is complete.
func (p Policy) Validate() error {
	if p.Source == "" {
		return errors.New("correlator: empty source")
	}
	if p.Qualify == nil {
		return errors.New("correlator: nil qualify predicate")
	}
	if p.GroupKey == nil {
		return errors.New("correlator: nil group key func")
	}
	if p.NewEndpoint == nil {
		return errors.New("correlator: nil endpoint factory")
	}
	return nil
}

// Correlator folds one cycle's raw alerts into per-tenant incidents.
type Correlator struct {
	policy Policy
}

// NewCorrelator constructs a correlator for one vendor source.
func NewCorrelator(policy Policy) (*Correlator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Correlator{policy: policy}, nil
}

// Correlate resets the tenant's endpoint alert lists, resolves every alert to
// an endpoint (creating unknown ones lazily), and groups qualifying alerts
// into incidents per (endpoint, group key). Repeat alerts for a live key
// extend the incident window; the last alert processed wins the end time.
func (c *Correlator) Correlate(tenant *alerting.Tenant, alerts []alerting.AlertRecord) *alerting.CustomerAlerts {
	out := alerting.NewCustomerAlerts(tenant.Description)
	tenant.ClearAlerts()
	tenant.Alerts = alerts

	for _, alert := range alerts {
		endpoint := tenant.ResolveEndpoint(alert, c.policy.NewEndpoint)
		endpoint.Alerts = append(endpoint.Alerts, alert)

		if !c.policy.Qualify(alert) {
			continue
		}
		endpoint.IncidentAlerts = append(endpoint.IncidentAlerts, alert)
		out.Alerts = append(out.Alerts, alert)
		out.Upsert(c.policy.Source, alert.EndpointID, c.policy.GroupKey(alert), alert)
	}
	return out
}
