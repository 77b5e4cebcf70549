package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	incidentlog "mspmon/internal/alerting/infrastructure/postgres"
	"mspmon/internal/audit"
	"mspmon/internal/auth"
	config "mspmon/internal/config/domain"
	"mspmon/internal/observability/metrics"
	"mspmon/internal/report"
)

// IncidentLister reads logged incidents.
type IncidentLister interface {
	ListRecent(ctx context.Context, customer string, limit int) ([]incidentlog.LoggedIncident, error)
}

// NotificationAdder registers SLA notification tasks.
type NotificationAdder interface {
	AddNotification(ctx context.Context, customerDescription, task, intervalCode, dateValue string)
}

// ReportedCompactor drops stale reported incident ids for a customer.
type ReportedCompactor interface {
	CompactCustomer(ctx context.Context, customerID string) (int, error)
}

// IncidentsHandler serves logged incident queries.
type IncidentsHandler struct {
	log IncidentLister
}

// NewIncidentsHandler constructs an IncidentsHandler.
func NewIncidentsHandler(log IncidentLister) *IncidentsHandler {
	return &IncidentsHandler{log: log}
}

// ServeHTTP handles GET /api/v1/incidents.
func (h *IncidentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.log == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	customer := r.URL.Query().Get("customer")
	limit, err := parseLimitQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	incidents, err := h.log.ListRecent(r.Context(), customer, limit)
	if err != nil {
		http.Error(w, "query incidents error", http.StatusInternalServerError)
		return
	}
	if incidents == nil {
		incidents = []incidentlog.LoggedIncident{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(incidents)
}

// IncidentExportHandler serves incident report downloads.
type IncidentExportHandler struct {
	log IncidentLister
}

// NewIncidentExportHandler constructs an IncidentExportHandler.
func NewIncidentExportHandler(log IncidentLister) *IncidentExportHandler {
	return &IncidentExportHandler{log: log}
}

// ServeHTTP handles GET /api/v1/incidents/export.{xlsx,pdf}.
func (h *IncidentExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.log == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	format := strings.TrimPrefix(r.URL.Path, "/api/v1/incidents/export.")
	if format != "xlsx" && format != "pdf" {
		http.Error(w, "format must be xlsx or pdf", http.StatusBadRequest)
		return
	}

	customer := r.URL.Query().Get("customer")
	limit, err := parseLimitQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	started := time.Now()
	incidents, err := h.log.ListRecent(r.Context(), customer, limit)
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, "query incidents error", http.StatusInternalServerError)
		return
	}

	summary := report.Summary{Customer: customer, GeneratedAt: time.Now().UTC()}
	var payload []byte
	var contentType, filename string
	switch format {
	case "xlsx":
		payload, err = report.BuildIncidentXLSX(summary, incidents)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "incidents.xlsx"
	case "pdf":
		payload, err = report.BuildIncidentPDF(summary, incidents)
		contentType = "application/pdf"
		filename = "incidents.pdf"
	}
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, "build report error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveReportExport(format, metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(payload)
}

// CustomersHandler serves the customer configuration list.
type CustomersHandler struct {
	store config.Store
}

// NewCustomersHandler constructs a CustomersHandler.
func NewCustomersHandler(store config.Store) *CustomersHandler {
	return &CustomersHandler{store: store}
}

// ServeHTTP handles GET /api/v1/customers.
func (h *CustomersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	entries, err := h.store.List(r.Context())
	if err != nil {
		http.Error(w, "query customers error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*config.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// NotificationsHandler registers SLA notification tasks for a customer.
type NotificationsHandler struct {
	scheduler NotificationAdder
	auditor   audit.Recorder
}

// NewNotificationsHandler constructs a NotificationsHandler.
func NewNotificationsHandler(scheduler NotificationAdder, auditor audit.Recorder) *NotificationsHandler {
	return &NotificationsHandler{scheduler: scheduler, auditor: auditor}
}

type addNotificationRequest struct {
	Customer string `json:"customer"`
	Task     string `json:"task"`
	Interval string `json:"interval"`
	Date     string `json:"date"`
}

// ServeHTTP handles POST /api/v1/notifications.
func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.scheduler == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	var req addNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Customer == "" || req.Task == "" || req.Interval == "" {
		http.Error(w, "customer, task and interval are required", http.StatusBadRequest)
		return
	}

	h.scheduler.AddNotification(r.Context(), req.Customer, req.Task, req.Interval, req.Date)
	writeAudit(r, h.auditor, audit.ActionNotificationAdd, "notification", req.Customer, req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

// CompactReportedHandler triggers manual reported-list compaction.
type CompactReportedHandler struct {
	compactor ReportedCompactor
	auditor   audit.Recorder
}

// NewCompactReportedHandler constructs a CompactReportedHandler.
func NewCompactReportedHandler(compactor ReportedCompactor, auditor audit.Recorder) *CompactReportedHandler {
	return &CompactReportedHandler{compactor: compactor, auditor: auditor}
}

// ServeHTTP handles POST /api/v1/customers/{id}/reported/compact.
func (h *CompactReportedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.compactor == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	customerID := compactCustomerID(r.URL.Path)
	if customerID == "" {
		http.Error(w, "customer id is required", http.StatusBadRequest)
		return
	}
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && !identity.AllowsCustomer(customerID) {
		http.Error(w, "customer out of scope", http.StatusForbidden)
		return
	}

	removed, err := h.compactor.CompactCustomer(r.Context(), customerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeAudit(r, h.auditor, audit.ActionReportedCompact, "customer", customerID, map[string]int{"removed": removed})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"removed": removed})
}

func compactCustomerID(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/customers/")
	rest = strings.TrimSuffix(rest, "/reported/compact")
	if rest == path || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

func writeAudit(r *http.Request, auditor audit.Recorder, action, resourceType, resourceID string, payload any) {
	if auditor == nil {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	metadata, _ := json.Marshal(payload)
	entry := audit.Entry{
		Actor:        identity.Subject,
		Role:         string(identity.Role),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		CustomerID:   resourceID,
		Metadata:     metadata,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	_ = auditor.Record(r.Context(), entry)
}

func parseLimitQuery(r *http.Request) (int, error) {
	value := r.URL.Query().Get("limit")
	if value == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return limit, nil
}
