package docsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HuduClient talks to the Hudu asset-management REST API.
type HuduClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HuduOption customizes a HuduClient.
type HuduOption func(*HuduClient)

// WithHuduHTTPClient overrides the HTTP client.
func WithHuduHTTPClient(client *http.Client) HuduOption {
	return func(c *HuduClient) {
		if client != nil {
			c.client = client
		}
	}
}

// NewHuduClient constructs a Hudu API client.
func NewHuduClient(baseURL, apiKey string, opts ...HuduOption) (*HuduClient, error) {
	if baseURL == "" {
		return nil, errors.New("docsync: empty base url")
	}
	if apiKey == "" {
		return nil, errors.New("docsync: empty api key")
	}
	c := &HuduClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListCompanies returns all companies, paging until an empty page.
func (c *HuduClient) ListCompanies(ctx context.Context) ([]Company, error) {
	var companies []Company
	for page := 1; ; page++ {
		var payload struct {
			Companies []struct {
				ID   int    `json:"id"`
				Name string `json:"name"`
			} `json:"companies"`
		}
		query := url.Values{"page": {fmt.Sprint(page)}}
		if err := c.doJSON(ctx, http.MethodGet, "/api/v1/companies?"+query.Encode(), nil, &payload); err != nil {
			return nil, err
		}
		if len(payload.Companies) == 0 {
			return companies, nil
		}
		for _, company := range payload.Companies {
			companies = append(companies, Company{ID: fmt.Sprint(company.ID), Name: company.Name})
		}
	}
}

// ServiceFacts are the per-company monitoring flags pushed to documentation.
type ServiceFacts struct {
	BackupMonitored       bool `json:"backup_monitored"`
	EndpointsMonitored    bool `json:"endpoints_monitored"`
	ConnectivityMonitored bool `json:"connectivity_monitored"`
	TicketsEnabled        bool `json:"tickets_enabled"`
}

// PushFacts updates a company's monitoring facts asset.
func (c *HuduClient) PushFacts(ctx context.Context, companyID string, facts ServiceFacts) error {
	body := map[string]any{
		"asset": map[string]any{
			"name":   "Monitoring Services",
			"fields": facts,
		},
	}
	return c.doJSON(ctx, http.MethodPut, "/api/v1/companies/"+companyID+"/assets/monitoring", body, nil)
}

func (c *HuduClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	if c == nil || c.client == nil {
		return errors.New("docsync: nil client")
	}
	var reader *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("docsync: %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
