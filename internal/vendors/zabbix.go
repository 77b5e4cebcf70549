package vendors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mspmon/internal/alerting/application"
	alerting "mspmon/internal/alerting/domain"
	config "mspmon/internal/config/domain"
)

const sourceZabbix = "Zabbix"

// ZabbixSeverity maps the numeric 0-5 severity codes to their text form.
// Unknown codes fall back to the raw number.
func ZabbixSeverity(code string) string {
	switch code {
	case "0":
		return "Not classified"
	case "1":
		return "Information"
	case "2":
		return "Warning"
	case "3":
		return "Average"
	case "4":
		return "High"
	case "5":
		return "Disaster"
	default:
		return code
	}
}

// Zabbix is a JSON-RPC client for the Zabbix monitoring API. Host groups map
// to tenants and problems to alerts.
type Zabbix struct {
	rest  *restClient
	token string
}

// NewZabbix constructs a Zabbix client.
func NewZabbix(baseURL, token string) (*Zabbix, error) {
	rest, err := newRESTClient(baseURL, nil)
	if err != nil {
		return nil, err
	}
	return &Zabbix{rest: rest, token: token}, nil
}

// Name returns the source name.
func (z *Zabbix) Name() string { return sourceZabbix }

type zabbixRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	Auth    string `json:"auth,omitempty"`
	ID      int    `json:"id"`
}

type zabbixResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
		Data    string `json:"data"`
	} `json:"error"`
}

func (z *Zabbix) call(ctx context.Context, method string, params any, out any) error {
	request := zabbixRequest{JSONRPC: "2.0", Method: method, Params: params, Auth: z.token, ID: 1}
	var response zabbixResponse
	if err := z.rest.doJSON(ctx, http.MethodPost, "/api_jsonrpc.php", request, &response); err != nil {
		return err
	}
	if response.Error != nil {
		return fmt.Errorf("vendors: zabbix %s: %s %s", method, response.Error.Message, response.Error.Data)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(response.Result, out)
}

type zabbixHostGroup struct {
	GroupID string `json:"groupid"`
	Name    string `json:"name"`
}

// ListTenants maps host groups to tenants.
func (z *Zabbix) ListTenants(ctx context.Context) ([]*alerting.Tenant, error) {
	var groups []zabbixHostGroup
	params := map[string]any{"output": []string{"groupid", "name"}, "real_hosts": true}
	if err := z.call(ctx, "hostgroup.get", params, &groups); err != nil {
		return nil, err
	}
	tenants := make([]*alerting.Tenant, 0, len(groups))
	for _, group := range groups {
		tenants = append(tenants, alerting.NewTenant(group.GroupID, group.Name))
	}
	return tenants, nil
}

type zabbixProblem struct {
	EventID  string `json:"eventid"`
	ObjectID string `json:"objectid"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Clock    string `json:"clock"`
	Hosts    []struct {
		HostID string `json:"hostid"`
		Host   string `json:"host"`
	} `json:"hosts"`
}

// ListAlerts lists current problems for a host group.
func (z *Zabbix) ListAlerts(ctx context.Context, tenantID string) ([]alerting.AlertRecord, error) {
	if tenantID == "" {
		return nil, errors.New("vendors: zabbix empty group id")
	}
	var problems []zabbixProblem
	params := map[string]any{
		"groupids":    []string{tenantID},
		"output":      "extend",
		"selectHosts": []string{"hostid", "host"},
		"recent":      true,
	}
	if err := z.call(ctx, "problem.get", params, &problems); err != nil {
		return nil, err
	}
	alerts := make([]alerting.AlertRecord, 0, len(problems))
	for _, problem := range problems {
		hostID := ""
		hostname := ""
		if len(problem.Hosts) > 0 {
			hostID = problem.Hosts[0].HostID
			hostname = problem.Hosts[0].Host
		}
		if hostID == "" {
			hostID = problem.ObjectID
		}
		alerts = append(alerts, alerting.AlertRecord{
			ID:           problem.EventID,
			Created:      parseClock(problem.Clock),
			Description:  problem.Name,
			Severity:     ZabbixSeverity(problem.Severity),
			Category:     "problem",
			Product:      sourceZabbix,
			EndpointID:   hostID,
			EndpointType: "host",
			TenantID:     tenantID,
			Raw: map[string]any{
				"host": map[string]any{
					"name": hostname,
				},
				"severity_code": problem.Severity,
			},
		})
	}
	return alerts, nil
}

func parseClock(value string) time.Time {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}

// NewZabbixSource builds the complete Zabbix source with its policy. Any
// problem on a host belongs to that host's incident stream, so the group
// key is the endpoint identity itself.
func NewZabbixSource(baseURL, token string) (Source, error) {
	client, err := NewZabbix(baseURL, token)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Client: client,
		Policy: application.Policy{
			Source:      sourceZabbix,
			Qualify:     ExcludeSeverities("Not classified", "Information"),
			GroupKey:    EndpointKey,
			NewEndpoint: zabbixEndpoint,
		},
		Label: func(endpoint *alerting.Endpoint) string {
			return endpoint.Label()
		},
		TicketTag: "zabbix",
		Monitored: func(entry *config.Entry) bool { return entry.MonitorConnectivity },
	}, nil
}

func zabbixEndpoint(alert alerting.AlertRecord) *alerting.Endpoint {
	return &alerting.Endpoint{
		ID:       alert.EndpointID,
		Type:     "host",
		Hostname: alert.Property("host.name"),
		TenantID: alert.TenantID,
		Status:   "active",
	}
}
