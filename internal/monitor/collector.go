package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"mspmon/internal/alerting/application"
	alerting "mspmon/internal/alerting/domain"
	config "mspmon/internal/config/domain"
	"mspmon/internal/observability/metrics"
	"mspmon/internal/ticketing"
	"mspmon/internal/vendors"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// IncidentRecorder persists ticketed incidents. Satisfied by the postgres
// incident log; nil recorders are skipped.
type IncidentRecorder interface {
	Record(ctx context.Context, source, tenantID, customer, endpointID, alertType, severity, description, ticketID string, startAt, endAt time.Time) error
}

// Collector drives the full per-vendor pipeline: list tenants, reconcile
// config entries, correlate alerts into incidents, suppress already-reported
// ones, raise tickets, and persist state.
type Collector struct {
	sources  []vendors.Source
	store    config.Store
	ticketer ticketing.Ticketer
	template *ticketing.Template
	recorder IncidentRecorder
	logger   *log.Logger
	clock    Clock

	// pace runs between per-tenant vendor API calls so portals with strict
	// rate limits are not hammered. Tests inject a no-op.
	pace func(ctx context.Context)

	// live holds the latest pre-suppression aggregate per source and
	// customer; the compaction op intersects reported ids against it.
	mu   sync.Mutex
	live map[string]map[string]*alerting.CustomerAlerts
}

// Option customizes a Collector.
type Option func(*Collector)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(c *Collector) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithPacing overrides the inter-tenant pacing hook.
func WithPacing(pace func(ctx context.Context)) Option {
	return func(c *Collector) {
		if pace != nil {
			c.pace = pace
		}
	}
}

// WithIncidentRecorder attaches an incident log.
func WithIncidentRecorder(recorder IncidentRecorder) Option {
	return func(c *Collector) {
		c.recorder = recorder
	}
}

// WithTemplate overrides the ticket body template.
func WithTemplate(template *ticketing.Template) Option {
	return func(c *Collector) {
		if template != nil {
			c.template = template
		}
	}
}

// NewCollector constructs a Collector over the configured vendor sources.
func NewCollector(sources []vendors.Source, store config.Store, ticketer ticketing.Ticketer, logger *log.Logger, opts ...Option) (*Collector, error) {
	if len(sources) == 0 {
		return nil, errors.New("monitor: no sources")
	}
	for _, source := range sources {
		if err := source.Validate(); err != nil {
			return nil, err
		}
	}
	if store == nil {
		return nil, errors.New("monitor: nil store")
	}
	if ticketer == nil {
		return nil, errors.New("monitor: nil ticketer")
	}
	if logger == nil {
		logger = log.Default()
	}
	template, err := ticketing.NewTemplate("")
	if err != nil {
		return nil, err
	}
	c := &Collector{
		sources:  sources,
		store:    store,
		ticketer: ticketer,
		template: template,
		logger:   logger,
		clock:    systemClock{},
		live:     make(map[string]map[string]*alerting.CustomerAlerts),
		pace: func(ctx context.Context) {
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start runs collection cycles until the context is cancelled. The first
// cycle runs immediately.
func (c *Collector) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunCycle(ctx)
		}
	}
}

// RunCycle executes one collection pass over every source, then prunes
// config entries no vendor lists any more.
func (c *Collector) RunCycle(ctx context.Context) {
	entries, err := c.store.List(ctx)
	if err != nil {
		c.logger.Printf("monitor: list config entries: %v", err)
		return
	}
	for _, entry := range entries {
		entry.Touched = false
	}

	active := make(map[string]struct{}, len(c.sources))
	for _, source := range c.sources {
		active[source.Client.Name()] = struct{}{}
		started := c.clock.Now()
		if err := c.collectSource(ctx, source, &entries); err != nil {
			c.logger.Printf("monitor: source %s: %v", source.Client.Name(), err)
			metrics.ObserveCollectCycle(source.Client.Name(), metrics.ResultError, c.clock.Now().Sub(started))
			continue
		}
		metrics.ObserveCollectCycle(source.Client.Name(), metrics.ResultSuccess, c.clock.Now().Sub(started))
	}

	c.pruneUntouched(ctx, entries, active)
}

func (c *Collector) collectSource(ctx context.Context, source vendors.Source, entries *[]*config.Entry) error {
	name := source.Client.Name()
	correlator, err := application.NewCorrelator(source.Policy)
	if err != nil {
		return err
	}
	tenants, err := source.Client.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	openIncidents := 0
	for _, tenant := range tenants {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		entry := c.ensureEntry(ctx, entries, tenant, name)

		c.pace(ctx)
		alerts, err := source.Client.ListAlerts(ctx, tenant.ID)
		if err != nil {
			c.logger.Printf("monitor: %s: tenant %q: list alerts: %v", name, tenant.Description, err)
			metrics.IncTenantError(name)
			continue
		}
		metrics.AddAlertsSeen(name, len(alerts))

		current := correlator.Correlate(tenant, alerts)
		c.snapshotLive(name, current)
		reported, suppressed := application.FilterUnreported(entry.ReportedAlerts, current)
		entry.ReportedAlerts = reported
		metrics.AddIncidentsSuppressed(name, suppressed)
		openIncidents += current.IncidentCount()

		if current.IncidentCount() > 0 && entry.CreateTicket && source.Monitored(entry) {
			c.raiseTicket(ctx, source, tenant, entry, current)
		}

		if err := c.store.Save(ctx, entry); err != nil {
			c.logger.Printf("monitor: %s: save entry %q: %v", name, entry.Description, err)
		}
	}
	metrics.SetIncidentsOpen(name, openIncidents)
	return nil
}

// ensureEntry finds the config entry for a vendor tenant by description,
// creating one when the customer is new, and marks it live for this pass.
func (c *Collector) ensureEntry(ctx context.Context, entries *[]*config.Entry, tenant *alerting.Tenant, source string) *config.Entry {
	entry := config.FindByDescription(*entries, tenant.Description)
	if entry == nil {
		entry = &config.Entry{
			ID:          tenant.ID,
			Description: tenant.Description,
		}
		*entries = append(*entries, entry)
		c.logger.Printf("monitor: %s: new customer %q", source, tenant.Description)
	}
	entry.AddSource(source)
	entry.Touched = true
	return entry
}

func (c *Collector) raiseTicket(ctx context.Context, source vendors.Source, tenant *alerting.Tenant, entry *config.Entry, current *alerting.CustomerAlerts) {
	name := source.Client.Name()
	lines := incidentLines(source, tenant, current)
	body, err := c.template.Render(ticketing.TemplateData{
		Customer:  current.Name,
		Source:    name,
		Incidents: lines,
	})
	if err != nil {
		c.logger.Printf("monitor: %s: render ticket for %q: %v", name, current.Name, err)
		return
	}

	title := fmt.Sprintf("[%s] %d incident(s) for %s", source.TicketTag, len(lines), current.Name)
	ticketID, err := c.ticketer.CreateTicket(ctx, title, body, highestPriority(current), source.TicketTag)
	if err != nil {
		c.logger.Printf("monitor: %s: create ticket for %q: %v", name, current.Name, err)
		metrics.IncTicketCreated(name, metrics.ResultError)
		return
	}
	metrics.IncTicketCreated(name, metrics.ResultSuccess)
	c.logger.Printf("monitor: %s: ticket %s raised for %q (%d incidents)", name, ticketID, current.Name, len(lines))

	c.recordIncidents(ctx, name, tenant, entry, current, ticketID)
}

func (c *Collector) recordIncidents(ctx context.Context, source string, tenant *alerting.Tenant, entry *config.Entry, current *alerting.CustomerAlerts, ticketID string) {
	if c.recorder == nil {
		return
	}
	for _, byKey := range current.Devices {
		for key, incident := range byKey {
			err := c.recorder.Record(ctx,
				source, tenant.ID, entry.Description,
				incident.EndpointID, key,
				incident.Alert.Severity, incident.Alert.Description,
				ticketID, incident.StartAt, incident.EndAt)
			if err != nil {
				c.logger.Printf("monitor: %s: record incident for %q: %v", source, entry.Description, err)
			}
		}
	}
}

// snapshotLive copies the aggregate before suppression mutates it, so
// compaction can tell which incident ids are still live.
func (c *Collector) snapshotLive(source string, current *alerting.CustomerAlerts) {
	snapshot := alerting.NewCustomerAlerts(current.Name)
	for device, byKey := range current.Devices {
		copied := make(map[string]*alerting.Incident, len(byKey))
		for key, incident := range byKey {
			clone := *incident
			copied[key] = &clone
		}
		snapshot.Devices[device] = copied
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	byCustomer, ok := c.live[source]
	if !ok {
		byCustomer = make(map[string]*alerting.CustomerAlerts)
		c.live[source] = byCustomer
	}
	byCustomer[current.Name] = snapshot
}

// CompactCustomer drops reported incident ids no source still lists as live
// and returns how many were removed. This is the manual counterpart to the
// tracker's grow-only reported list.
func (c *Collector) CompactCustomer(ctx context.Context, customerID string) (int, error) {
	entries, err := c.store.List(ctx)
	if err != nil {
		return 0, err
	}
	var entry *config.Entry
	for _, candidate := range entries {
		if candidate.ID == customerID {
			entry = candidate
			break
		}
	}
	if entry == nil {
		return 0, fmt.Errorf("monitor: unknown customer %q", customerID)
	}

	merged := alerting.NewCustomerAlerts(entry.Description)
	c.mu.Lock()
	for source, byCustomer := range c.live {
		for customer, aggregate := range byCustomer {
			if !config.EqualNames(customer, entry.Description) {
				continue
			}
			for device, byKey := range aggregate.Devices {
				merged.Devices[source+"|"+device] = byKey
			}
		}
	}
	c.mu.Unlock()

	before := len(entry.ReportedAlerts)
	entry.ReportedAlerts = application.CompactReported(entry.ReportedAlerts, merged)
	removed := before - len(entry.ReportedAlerts)
	if err := c.store.Save(ctx, entry); err != nil {
		return 0, err
	}
	c.logger.Printf("monitor: compacted reported list for %q: removed %d of %d", entry.Description, removed, before)
	return removed, nil
}

// pruneUntouched removes entries that belong to an active source but were
// not listed by any vendor this pass. Entries only tagged by sources that
// did not run are left alone.
func (c *Collector) pruneUntouched(ctx context.Context, entries []*config.Entry, active map[string]struct{}) {
	for _, entry := range entries {
		if entry.Touched || len(entry.Sources) == 0 {
			continue
		}
		owned := false
		for _, source := range entry.Sources {
			if _, ok := active[source]; ok {
				owned = true
				break
			}
		}
		if !owned {
			continue
		}
		if err := c.store.Delete(ctx, entry.ID); err != nil {
			c.logger.Printf("monitor: prune entry %q: %v", entry.Description, err)
			continue
		}
		c.logger.Printf("monitor: pruned customer %q (no vendor lists it)", entry.Description)
	}
}

func incidentLines(source vendors.Source, tenant *alerting.Tenant, current *alerting.CustomerAlerts) []ticketing.IncidentLine {
	var lines []ticketing.IncidentLine
	for device, byKey := range current.Devices {
		label := device
		if endpoint, ok := tenant.Endpoints[device]; ok && source.Label != nil {
			label = source.Label(endpoint)
		}
		for key, incident := range byKey {
			lines = append(lines, ticketing.IncidentLine{
				Endpoint:    label,
				Kind:        key,
				Severity:    incident.Alert.Severity,
				Start:       incident.StartAt.Format(time.RFC3339),
				End:         incident.EndAt.Format(time.RFC3339),
				Description: incident.Alert.Description,
			})
		}
	}
	return lines
}

// highestPriority maps the worst live severity onto a ticket priority.
func highestPriority(current *alerting.CustomerAlerts) string {
	priority := ticketing.PriorityLow
	for _, byKey := range current.Devices {
		for _, incident := range byKey {
			switch strings.ToLower(incident.Alert.Severity) {
			case "critical", "high", "disaster", "error", "failed":
				return ticketing.PriorityHigh
			case "warning", "average", "major":
				priority = ticketing.PriorityNormal
			}
		}
	}
	return priority
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
