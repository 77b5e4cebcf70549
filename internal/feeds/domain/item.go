package feeds

import (
	"regexp"
	"time"
)

// Priority classes for emitted vulnerabilities.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// Item is one parsed entry from an advisory feed. Upstream feeds repeat the
// same logical advisory under distinct delivery envelopes, so the link is
// the identity of record with the GUID as fallback.
type Item struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	GUID      string    `json:"guid"`
	Published time.Time `json:"published"`
	Summary   string    `json:"summary"`
}

// Identifier returns the dedup identity of the item, empty when the item
// carries no usable identifier.
func (i Item) Identifier() string {
	if i.Link != "" {
		return i.Link
	}
	return i.GUID
}

// Vulnerability is a newly observed advisory, classified and annotated with
// the tenants configured to care about this feed's category.
type Vulnerability struct {
	Item     Item     `json:"item"`
	Feed     string   `json:"feed"`
	Priority string   `json:"priority"`
	Tenants  []string `json:"tenants"`
}

// Classifier assigns a priority to an item. Feed policy, not core logic.
type Classifier func(item Item) string

// KeywordClassifier builds a classifier that marks an item high priority
// when its title matches any of the given case-insensitive patterns.
func KeywordClassifier(patterns ...string) Classifier {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		if re, err := regexp.Compile("(?i)" + pattern); err == nil {
			compiled = append(compiled, re)
		}
	}
	return func(item Item) string {
		for _, re := range compiled {
			if re.MatchString(item.Title) {
				return PriorityHigh
			}
		}
		return PriorityNormal
	}
}
