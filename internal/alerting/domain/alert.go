package alerting

import (
	"strings"
	"time"
)

// AlertRecord is the normalized shape of a vendor alert.
type AlertRecord struct {
	ID           string         `json:"id"`
	Created      time.Time      `json:"created"`
	Description  string         `json:"description"`
	Severity     string         `json:"severity"`
	Category     string         `json:"category"`
	Product      string         `json:"product"`
	EndpointID   string         `json:"endpoint_id"`
	EndpointType string         `json:"endpoint_type"`
	TenantID     string         `json:"tenant_id,omitempty"`
	Raw          map[string]any `json:"-"`
}

// Property resolves a dotted path inside the raw vendor payload.
// Missing segments resolve to an empty string.
func (a AlertRecord) Property(path string) string {
	return Property(a.Raw, path)
}

// Property walks a tree of maps by dotted path and returns the leaf as a
// string. Non-map intermediate values and absent keys yield "".
func Property(raw map[string]any, path string) string {
	if raw == nil || path == "" {
		return ""
	}
	segments := strings.Split(path, ".")
	current := any(raw)
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = node[segment]
		if !ok {
			return ""
		}
	}
	if leaf, ok := current.(string); ok {
		return leaf
	}
	return ""
}
