package application

import (
	"log"
	"time"

	feeds "mspmon/internal/feeds/domain"
)

// NewItemsSince filters a feed batch down to genuinely new advisories.
//
// The batch is first compressed by identifier because upstream feeds deliver
// the same advisory more than once; when duplicates share a link, the one
// with the later publish date keeps the stored attributes. Every unseen
// identifier is added to the seen set whether or not the item is emitted, so
// re-polls never re-emit. Items without an identifier or publish date are
// skipped with a warning; the rest of the batch still processes.
//
// The seen set grows monotonically and is never pruned.
func NewItemsSince(items []feeds.Item, since time.Time, seen map[string]struct{}, logger *log.Logger) ([]feeds.Item, map[string]struct{}) {
	if seen == nil {
		seen = make(map[string]struct{})
	}

	compressed := make(map[string]feeds.Item, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		id := item.Identifier()
		if id == "" || item.Published.IsZero() {
			if logger != nil {
				logger.Printf("feed: skipping malformed item title=%q link=%q", item.Title, item.Link)
			}
			continue
		}
		existing, ok := compressed[id]
		if !ok {
			order = append(order, id)
			compressed[id] = item
			continue
		}
		if !item.Published.Before(existing.Published) {
			compressed[id] = item
		}
	}

	var fresh []feeds.Item
	for _, id := range order {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		item := compressed[id]
		if item.Published.After(since) {
			fresh = append(fresh, item)
		}
	}
	return fresh, seen
}
