package memory

import (
	"context"
	"errors"
	"sync"

	config "mspmon/internal/config/domain"
)

// Store is an in-memory config store used by tests and dry runs.
type Store struct {
	mu      sync.Mutex
	entries map[string]*config.Entry
	order   []string
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*config.Entry)}
}

// List returns copies of all entries in insertion order.
func (s *Store) List(_ context.Context) ([]*config.Entry, error) {
	if s == nil {
		return nil, errors.New("config memory store: nil store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*config.Entry, 0, len(s.order))
	for _, id := range s.order {
		if entry, ok := s.entries[id]; ok {
			out = append(out, cloneEntry(entry))
		}
	}
	return out, nil
}

// Save inserts or replaces an entry.
func (s *Store) Save(_ context.Context, entry *config.Entry) error {
	if s == nil {
		return errors.New("config memory store: nil store")
	}
	if entry == nil || entry.ID == "" {
		return errors.New("config memory store: entry id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		s.order = append(s.order, entry.ID)
	}
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

// Delete removes an entry by id.
func (s *Store) Delete(_ context.Context, id string) error {
	if s == nil {
		return errors.New("config memory store: nil store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return nil
	}
	delete(s.entries, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneEntry(entry *config.Entry) *config.Entry {
	clone := *entry
	clone.Touched = false
	clone.Sources = append([]string(nil), entry.Sources...)
	clone.ReportedAlerts = append([]string(nil), entry.ReportedAlerts...)
	clone.Notifications = make([]config.Notification, len(entry.Notifications))
	for i, notification := range entry.Notifications {
		clone.Notifications[i] = notification
		if notification.Triggered != nil {
			triggered := *notification.Triggered
			clone.Notifications[i].Triggered = &triggered
		}
	}
	return &clone
}
