package vendors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mspmon/internal/alerting/application"
	alerting "mspmon/internal/alerting/domain"
	config "mspmon/internal/config/domain"
)

const sourceSkykick = "Skykick"

// Skykick is a client for the Skykick cloud backup partner API. Bearer
// tokens are OAuth JWTs; expiry is read from the token claims so a refresh
// happens before the portal starts rejecting calls.
type Skykick struct {
	rest      *restClient
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	refresh   func(ctx context.Context) (string, error)
}

// NewSkykick constructs a Skykick client. refresh obtains a fresh bearer
// token; it is invoked lazily whenever the current token is near expiry.
func NewSkykick(baseURL string, refresh func(ctx context.Context) (string, error)) (*Skykick, error) {
	if refresh == nil {
		return nil, errors.New("vendors: skykick nil token refresh")
	}
	rest, err := newRESTClient(baseURL, nil)
	if err != nil {
		return nil, err
	}
	return &Skykick{rest: rest, refresh: refresh}, nil
}

// Name returns the source name.
func (s *Skykick) Name() string { return sourceSkykick }

func (s *Skykick) ensureToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Now().UTC().Before(s.expiresAt.Add(-time.Minute)) {
		return nil
	}
	token, err := s.refresh(ctx)
	if err != nil {
		return fmt.Errorf("vendors: skykick token refresh: %w", err)
	}
	s.token = token
	s.expiresAt = tokenExpiry(token)
	s.rest.headers = map[string]string{"Authorization": "Bearer " + token}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// portal is the authority on validity, we only need the refresh point.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Now().UTC().Add(5 * time.Minute)
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Now().UTC().Add(5 * time.Minute)
	}
	return expiry.Time.UTC()
}

type skykickSubscription struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
}

// ListTenants lists backup subscriptions.
func (s *Skykick) ListTenants(ctx context.Context) ([]*alerting.Tenant, error) {
	if err := s.ensureToken(ctx); err != nil {
		return nil, err
	}
	var subscriptions []skykickSubscription
	if err := s.rest.doJSON(ctx, http.MethodGet, "/Backup", nil, &subscriptions); err != nil {
		return nil, err
	}
	tenants := make([]*alerting.Tenant, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		tenants = append(tenants, alerting.NewTenant(subscription.ID, subscription.CompanyName))
	}
	return tenants, nil
}

type skykickAlert struct {
	ID           string `json:"id"`
	Subject      string `json:"subject"`
	Status       string `json:"status"`
	AlertType    string `json:"alertType"`
	MailboxID    string `json:"mailboxId"`
	MailboxName  string `json:"mailboxName"`
	PublishedOn  string `json:"publishedOn"`
	ProductGroup string `json:"productGroup"`
}

// ListAlerts lists backup alerts for a subscription.
func (s *Skykick) ListAlerts(ctx context.Context, tenantID string) ([]alerting.AlertRecord, error) {
	if err := s.ensureToken(ctx); err != nil {
		return nil, err
	}
	var raw []skykickAlert
	path := fmt.Sprintf("/Backup/%s/alerts", tenantID)
	if err := s.rest.doJSON(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	alerts := make([]alerting.AlertRecord, 0, len(raw))
	for _, item := range raw {
		alerts = append(alerts, alerting.AlertRecord{
			ID:           item.ID,
			Created:      parseTimestamp(item.PublishedOn),
			Description:  item.Subject,
			Severity:     item.Status,
			Category:     item.AlertType,
			Product:      sourceSkykick,
			EndpointID:   item.MailboxID,
			EndpointType: "mailbox",
			TenantID:     tenantID,
			Raw: map[string]any{
				"alert": map[string]any{
					"mailbox_name":  item.MailboxName,
					"product_group": item.ProductGroup,
				},
			},
		})
	}
	return alerts, nil
}

// NewSkykickSource builds the complete Skykick source with its policy.
func NewSkykickSource(baseURL string, refresh func(ctx context.Context) (string, error)) (Source, error) {
	client, err := NewSkykick(baseURL, refresh)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Client: client,
		Policy: application.Policy{
			Source:      sourceSkykick,
			Qualify:     ExcludeSeverities("Information"),
			GroupKey:    CategoryKey,
			NewEndpoint: skykickEndpoint,
		},
		Label: func(endpoint *alerting.Endpoint) string {
			return endpoint.Label()
		},
		TicketTag: "skykick",
		Monitored: func(entry *config.Entry) bool { return entry.MonitorBackup },
	}, nil
}

func skykickEndpoint(alert alerting.AlertRecord) *alerting.Endpoint {
	return &alerting.Endpoint{
		ID:       alert.EndpointID,
		Type:     "mailbox",
		Hostname: alert.Property("alert.mailbox_name"),
		TenantID: alert.TenantID,
		Status:   "active",
	}
}
