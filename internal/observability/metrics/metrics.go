package metrics

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "mspmon_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	collectCycles  *prometheus.CounterVec
	collectLatency *prometheus.HistogramVec
	tenantErrors   *prometheus.CounterVec

	alertsSeen          *prometheus.CounterVec
	incidentsOpen       *prometheus.GaugeVec
	incidentsSuppressed *prometheus.CounterVec

	ticketsCreated *prometheus.CounterVec

	slaFired *prometheus.CounterVec

	feedItemsEmitted *prometheus.CounterVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	configEntriesGauge prometheus.Gauge
	feedSeenGauge      prometheus.Gauge
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		collectCycles = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "collect_cycles_total",
				Help: "Total vendor collection cycles by source and result",
			},
			[]string{"source", "result"},
		)
		collectLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "collect_cycle_latency_seconds",
				Help:    "Vendor collection cycle latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)
		tenantErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tenant_fetch_errors_total",
				Help: "Total per-tenant alert fetch failures by source",
			},
			[]string{"source"},
		)

		alertsSeen = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_seen_total",
				Help: "Total normalized alerts observed by source",
			},
			[]string{"source"},
		)
		incidentsOpen = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "incidents_open",
				Help: "Live incidents per source as of the last cycle",
			},
			[]string{"source"},
		)
		incidentsSuppressed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "incidents_suppressed_total",
				Help: "Incidents filtered out as already reported by source",
			},
			[]string{"source"},
		)

		ticketsCreated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tickets_created_total",
				Help: "Total tickets raised by source and result",
			},
			[]string{"source", "result"},
		)

		slaFired = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sla_notifications_fired_total",
				Help: "Total SLA notifications fired by interval code",
			},
			[]string{"interval"},
		)

		feedItemsEmitted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_items_emitted_total",
				Help: "Total new feed advisories emitted by feed and priority",
			},
			[]string{"feed", "priority"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total incident report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Incident report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		configEntriesGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "config_entries",
				Help: "Customer config entries currently stored",
			},
		)
		feedSeenGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "feed_seen_items",
				Help: "Feed item identifiers remembered as seen",
			},
		)

		prometheus.MustRegister(
			collectCycles,
			collectLatency,
			tenantErrors,
			alertsSeen,
			incidentsOpen,
			incidentsSuppressed,
			ticketsCreated,
			slaFired,
			feedItemsEmitted,
			reportExportTotal,
			reportExportLatency,
			configEntriesGauge,
			feedSeenGauge,
		)

		if db != nil {
			go runDBGaugeLoop(db, logger)
		}
	})
}

func runDBGaugeLoop(db *sql.DB, logger *log.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		updateDBGauges(ctx, db, logger)
		cancel()
	}
}

func updateDBGauges(ctx context.Context, db *sql.DB, logger *log.Logger) {
	var entries int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM customer_configs`).Scan(&entries); err == nil {
		configEntriesGauge.Set(float64(entries))
	} else if logger != nil {
		logger.Printf("metrics: config gauge query: %v", err)
	}
	var seen int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM feed_seen_items`).Scan(&seen); err == nil {
		feedSeenGauge.Set(float64(seen))
	} else if logger != nil {
		logger.Printf("metrics: feed gauge query: %v", err)
	}
}

// ObserveCollectCycle records one vendor collection pass.
func ObserveCollectCycle(source, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if collectCycles != nil {
		collectCycles.WithLabelValues(source, result).Inc()
	}
	if collectLatency != nil {
		collectLatency.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// IncTenantError increments the per-tenant fetch failure counter.
func IncTenantError(source string) {
	if tenantErrors != nil {
		tenantErrors.WithLabelValues(source).Inc()
	}
}

// AddAlertsSeen increments the normalized alert counter.
func AddAlertsSeen(source string, count int) {
	if count <= 0 {
		return
	}
	if alertsSeen != nil {
		alertsSeen.WithLabelValues(source).Add(float64(count))
	}
}

// SetIncidentsOpen records the live incident count after a cycle.
func SetIncidentsOpen(source string, count int) {
	if incidentsOpen != nil {
		incidentsOpen.WithLabelValues(source).Set(float64(count))
	}
}

// AddIncidentsSuppressed counts incidents dropped by the dedup tracker.
func AddIncidentsSuppressed(source string, count int) {
	if count <= 0 {
		return
	}
	if incidentsSuppressed != nil {
		incidentsSuppressed.WithLabelValues(source).Add(float64(count))
	}
}

// IncTicketCreated counts ticket creation attempts.
func IncTicketCreated(source, result string) {
	if result == "" {
		result = resultSuccess
	}
	if ticketsCreated != nil {
		ticketsCreated.WithLabelValues(source, result).Inc()
	}
}

// IncSLAFired counts fired SLA notifications.
func IncSLAFired(interval string) {
	if interval == "" {
		interval = "unknown"
	}
	if slaFired != nil {
		slaFired.WithLabelValues(interval).Inc()
	}
}

// IncFeedItem counts emitted feed advisories.
func IncFeedItem(feed, priority string) {
	if feedItemsEmitted != nil {
		feedItemsEmitted.WithLabelValues(feed, priority).Inc()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
