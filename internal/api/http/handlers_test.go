package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	incidentlog "mspmon/internal/alerting/infrastructure/postgres"
	"mspmon/internal/audit"
	"mspmon/internal/auth"
	config "mspmon/internal/config/domain"
	"mspmon/internal/config/infrastructure/memory"
)

type stubLister struct {
	incidents []incidentlog.LoggedIncident
	err       error

	customer string
	limit    int
}

func (s *stubLister) ListRecent(_ context.Context, customer string, limit int) ([]incidentlog.LoggedIncident, error) {
	s.customer = customer
	s.limit = limit
	return s.incidents, s.err
}

type stubScheduler struct {
	customer, task, interval, date string
	calls                          int
}

func (s *stubScheduler) AddNotification(_ context.Context, customer, task, interval, date string) {
	s.customer, s.task, s.interval, s.date = customer, task, interval, date
	s.calls++
}

type stubCompactor struct {
	removed int
	err     error
	id      string
}

func (s *stubCompactor) CompactCustomer(_ context.Context, customerID string) (int, error) {
	s.id = customerID
	return s.removed, s.err
}

type stubAuditor struct {
	entries []audit.Entry
}

func (s *stubAuditor) Record(_ context.Context, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func TestIncidentsHandler(t *testing.T) {
	lister := &stubLister{incidents: []incidentlog.LoggedIncident{{
		ID:       "incident-aa11bb22",
		Source:   "cloudally",
		Customer: "Acme Corp",
		StartAt:  time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}}}
	handler := NewIncidentsHandler(lister)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/incidents?customer=Acme%20Corp&limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if lister.customer != "Acme Corp" || lister.limit != 5 {
		t.Fatalf("query passed as customer=%q limit=%d", lister.customer, lister.limit)
	}
	var got []incidentlog.LoggedIncident
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "incident-aa11bb22" {
		t.Fatalf("body = %+v", got)
	}
}

func TestIncidentsHandlerEmptyListIsJSONArray(t *testing.T) {
	handler := NewIncidentsHandler(&stubLister{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/incidents", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want empty array", body)
	}
}

func TestIncidentsHandlerRejectsBadLimit(t *testing.T) {
	handler := NewIncidentsHandler(&stubLister{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/incidents?limit=-3", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIncidentsHandlerMethodNotAllowed(t *testing.T) {
	handler := NewIncidentsHandler(&stubLister{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/incidents", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestIncidentExportHandler(t *testing.T) {
	lister := &stubLister{incidents: []incidentlog.LoggedIncident{{
		ID:       "incident-aa11bb22",
		Source:   "cloudally",
		Customer: "Acme Corp",
	}}}
	handler := NewIncidentExportHandler(lister)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/export.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "incidents.xlsx") {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty xlsx payload")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/export.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("Content-Type = %q", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/export.csv", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unsupported format", rec.Code)
	}
}

func TestCustomersHandler(t *testing.T) {
	store := memory.NewStore()
	entry := &config.Entry{ID: "t-1", Description: "Acme Corp", MonitorBackup: true}
	if err := store.Save(context.Background(), entry); err != nil {
		t.Fatalf("Save: %v", err)
	}
	handler := NewCustomersHandler(store)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []config.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Description != "Acme Corp" || !got[0].MonitorBackup {
		t.Fatalf("body = %+v", got)
	}
}

func TestNotificationsHandler(t *testing.T) {
	scheduler := &stubScheduler{}
	auditor := &stubAuditor{}
	handler := NewNotificationsHandler(scheduler, auditor)

	body := `{"customer":"Acme Corp","task":"quarterly review","interval":"Q","date":"01-06-2026"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if scheduler.calls != 1 || scheduler.customer != "Acme Corp" || scheduler.interval != "Q" || scheduler.date != "01-06-2026" {
		t.Fatalf("scheduler = %+v", scheduler)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionNotificationAdd {
		t.Fatalf("audit = %+v", auditor.entries)
	}
	if auditor.entries[0].CustomerID != "Acme Corp" {
		t.Fatalf("audit customer = %q", auditor.entries[0].CustomerID)
	}
}

func TestNotificationsHandlerRecordsCallerIdentity(t *testing.T) {
	scheduler := &stubScheduler{}
	auditor := &stubAuditor{}
	handler := NewNotificationsHandler(scheduler, auditor)

	body := `{"customer":"Acme Corp","task":"quarterly review","interval":"Q"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(body))
	identity := auth.Identity{Subject: "user-1", Role: auth.RoleOperator}
	req = req.WithContext(auth.WithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(auditor.entries) != 1 {
		t.Fatalf("audit = %+v", auditor.entries)
	}
	entry := auditor.entries[0]
	if entry.Actor != "user-1" || entry.Role != "operator" {
		t.Fatalf("audit actor = %q role = %q", entry.Actor, entry.Role)
	}
}

func TestNotificationsHandlerValidation(t *testing.T) {
	handler := NewNotificationsHandler(&stubScheduler{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad json", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(`{"customer":"Acme Corp"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing fields", rec.Code)
	}
}

func TestCompactReportedHandler(t *testing.T) {
	compactor := &stubCompactor{removed: 3}
	auditor := &stubAuditor{}
	handler := NewCompactReportedHandler(compactor, auditor)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/customers/t-1/reported/compact", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if compactor.id != "t-1" {
		t.Fatalf("customer id = %q", compactor.id)
	}
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["removed"] != 3 {
		t.Fatalf("body = %v", got)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionReportedCompact {
		t.Fatalf("audit = %+v", auditor.entries)
	}
}

func TestCompactReportedHandlerEnforcesCustomerScope(t *testing.T) {
	compactor := &stubCompactor{removed: 1}
	handler := NewCompactReportedHandler(compactor, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/t-9/reported/compact", nil)
	identity := auth.Identity{Subject: "user-1", Role: auth.RoleAdmin, Customers: []string{"t-1"}}
	req = req.WithContext(auth.WithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for out-of-scope customer", rec.Code)
	}
	if compactor.id != "" {
		t.Fatalf("compactor called for %q despite scope denial", compactor.id)
	}

	// The same token may compact the customer it is scoped to.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/customers/t-1/reported/compact", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), identity))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for in-scope customer", rec.Code)
	}
}

func TestCompactReportedHandlerUnknownCustomer(t *testing.T) {
	compactor := &stubCompactor{err: errors.New("unknown customer")}
	handler := NewCompactReportedHandler(compactor, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/customers/nope/reported/compact", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCompactCustomerID(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/customers/t-1/reported/compact", "t-1"},
		{"/api/v1/customers//reported/compact", ""},
		{"/api/v1/customers/a/b/reported/compact", ""},
		{"/api/v1/customers/t-1", "t-1"},
		{"/healthz", ""},
	}
	for _, tc := range cases {
		if got := compactCustomerID(tc.path); got != tc.want {
			t.Errorf("compactCustomerID(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
