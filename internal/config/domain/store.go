package config

import "context"

// Store persists customer configuration entries. The pipeline is
// single-writer per pass; implementations only need to serialize
// individual operations.
type Store interface {
	List(ctx context.Context) ([]*Entry, error)
	Save(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, id string) error
}

// FindByDescription applies the name matching rule over a snapshot,
// preferring exact case-insensitive matches over substring ones.
func FindByDescription(entries []*Entry, name string) *Entry {
	var partial *Entry
	for _, entry := range entries {
		if EqualNames(entry.Description, name) {
			return entry
		}
		if partial == nil && entry.MatchDescription(name) {
			partial = entry
		}
	}
	return partial
}
