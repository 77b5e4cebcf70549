package application

import (
	"context"
	"errors"
	"log"
	"time"

	config "mspmon/internal/config/domain"
	feeds "mspmon/internal/feeds/domain"
)

// Fetcher retrieves the current batch of items for one feed.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]feeds.Item, error)
}

// SeenStore persists the per-feed set of item identifiers already observed.
type SeenStore interface {
	Load(ctx context.Context, feed string) (map[string]struct{}, error)
	Add(ctx context.Context, feed string, ids []string) error
}

// Feed couples a fetcher with its feed policy: how items classify and which
// customers are interested in this feed's category.
type Feed struct {
	Fetcher    Fetcher
	Classify   feeds.Classifier
	Interested func(entry *config.Entry) bool
}

// NotifyFunc delivers an emitted vulnerability downstream.
type NotifyFunc func(ctx context.Context, vuln feeds.Vulnerability) error

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Watcher polls advisory feeds, deduplicates items and raises notifications
// for monitored customers.
type Watcher struct {
	feeds    []Feed
	store    config.Store
	seen     SeenStore
	notify   NotifyFunc
	clock    Clock
	logger   *log.Logger
	interval time.Duration
	lastPoll map[string]time.Time
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithClock overrides the default clock.
func WithClock(clock Clock) WatcherOption {
	return func(w *Watcher) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithInterval sets the polling interval.
func WithInterval(interval time.Duration) WatcherOption {
	return func(w *Watcher) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// NewWatcher constructs a feed watcher.
func NewWatcher(feedList []Feed, store config.Store, seen SeenStore, notify NotifyFunc, logger *log.Logger, opts ...WatcherOption) (*Watcher, error) {
	if len(feedList) == 0 {
		return nil, errors.New("feeds: no feeds configured")
	}
	if seen == nil {
		return nil, errors.New("feeds: nil seen store")
	}
	watcher := &Watcher{
		feeds:    feedList,
		store:    store,
		seen:     seen,
		notify:   notify,
		clock:    systemClock{},
		logger:   logger,
		interval: time.Hour,
		lastPoll: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(watcher)
	}
	return watcher, nil
}

// Start polls all feeds until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	if w == nil {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.PollAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.PollAll(ctx)
		}
	}
}

// PollAll runs one polling pass over every configured feed. A failing feed
// is logged and skipped; the rest of the pass continues.
func (w *Watcher) PollAll(ctx context.Context) {
	for _, feed := range w.feeds {
		if err := w.poll(ctx, feed); err != nil && w.logger != nil {
			w.logger.Printf("feed poll error feed=%s err=%v", feed.Fetcher.Name(), err)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, feed Feed) error {
	name := feed.Fetcher.Name()
	items, err := feed.Fetcher.Fetch(ctx)
	if err != nil {
		return err
	}

	seen, err := w.seen.Load(ctx, name)
	if err != nil {
		return err
	}
	before := make(map[string]struct{}, len(seen))
	for id := range seen {
		before[id] = struct{}{}
	}

	since := w.lastPoll[name]
	if since.IsZero() {
		// First pass after start: only advisories from the last day count
		// as new, everything older is backfill.
		since = w.clock.Now().UTC().Add(-24 * time.Hour)
	}
	fresh, updated := NewItemsSince(items, since, seen, w.logger)
	w.lastPoll[name] = w.clock.Now().UTC()

	var added []string
	for id := range updated {
		if _, ok := before[id]; !ok {
			added = append(added, id)
		}
	}
	if len(added) > 0 {
		if err := w.seen.Add(ctx, name, added); err != nil {
			return err
		}
	}

	if len(fresh) == 0 {
		return nil
	}
	tenants := w.interestedTenants(ctx, feed)
	for _, item := range fresh {
		vuln := feeds.Vulnerability{
			Item:     item,
			Feed:     name,
			Priority: feeds.PriorityNormal,
			Tenants:  tenants,
		}
		if feed.Classify != nil {
			vuln.Priority = feed.Classify(item)
		}
		if w.notify == nil {
			continue
		}
		if err := w.notify(ctx, vuln); err != nil && w.logger != nil {
			w.logger.Printf("feed notify error feed=%s item=%s err=%v", name, item.Identifier(), err)
		}
	}
	return nil
}

func (w *Watcher) interestedTenants(ctx context.Context, feed Feed) []string {
	if w.store == nil || feed.Interested == nil {
		return nil
	}
	entries, err := w.store.List(ctx)
	if err != nil {
		if w.logger != nil {
			w.logger.Printf("feed tenant lookup error feed=%s err=%v", feed.Fetcher.Name(), err)
		}
		return nil
	}
	var names []string
	for _, entry := range entries {
		if feed.Interested(entry) {
			names = append(names, entry.Description)
		}
	}
	return names
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
