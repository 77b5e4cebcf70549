package sla

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	config "mspmon/internal/config/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// DueNotification is one fired reminder with its rendered text.
type DueNotification struct {
	Entry        *config.Entry
	Notification config.Notification
	IntervalDays int
	Text         string
}

// FireFunc delivers a due notification downstream (ticket, mail, ...).
type FireFunc func(ctx context.Context, due DueNotification) error

// Scheduler computes and fires per-customer SLA reminder tasks.
type Scheduler struct {
	store     config.Store
	intervals map[string]int
	clock     Clock
	logger    *log.Logger
	fire      FireFunc
	dailyAt   string
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithFireFunc assigns the delivery callback for due notifications.
func WithFireFunc(fire FireFunc) Option {
	return func(s *Scheduler) {
		s.fire = fire
	}
}

// WithDailyAt sets the HH:MM (UTC) the Start loop fires at.
func WithDailyAt(at string) Option {
	return func(s *Scheduler) {
		if at != "" {
			s.dailyAt = at
		}
	}
}

// NewScheduler constructs an SLA scheduler.
func NewScheduler(store config.Store, logger *log.Logger, opts ...Option) (*Scheduler, error) {
	if store == nil {
		return nil, errors.New("sla: nil config store")
	}
	scheduler := &Scheduler{
		store:     store,
		intervals: IntervalDays(),
		clock:     systemClock{},
		logger:    logger,
		dailyAt:   "08:00",
	}
	for _, opt := range opts {
		opt(scheduler)
	}
	return scheduler, nil
}

// DueNotifications walks every config entry and returns the notifications
// due today. Firing advances the trigger date to today; one-shot entries are
// removed from the entry's list after the pass. Unrecognized interval codes
// are warned about and left untouched. Mutated entries are persisted.
func (s *Scheduler) DueNotifications(ctx context.Context) ([]DueNotification, error) {
	if s == nil {
		return nil, errors.New("sla: nil scheduler")
	}
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	today := s.clock.Now().UTC()
	var due []DueNotification
	for _, entry := range entries {
		changed := false
		remaining := entry.Notifications[:0]
		for _, notification := range entry.Notifications {
			days, known := s.intervals[notification.Interval]
			if !known {
				s.warnf("sla: unknown interval code customer=%s task=%q code=%q", entry.Description, notification.Task, notification.Interval)
				remaining = append(remaining, notification)
				continue
			}
			if !IsDue(notification.Triggered, days, today) {
				remaining = append(remaining, notification)
				continue
			}

			fired := notification
			triggered := today
			fired.Triggered = &triggered
			due = append(due, DueNotification{
				Entry:        entry,
				Notification: fired,
				IntervalDays: days,
				Text:         renderTask(entry, fired),
			})
			changed = true
			if notification.Interval == IntervalOnce {
				continue // consumed, drop from the list
			}
			remaining = append(remaining, fired)
		}
		if changed {
			entry.Notifications = remaining
			if err := s.store.Save(ctx, entry); err != nil {
				return due, err
			}
		}
	}
	return due, nil
}

// AddNotification registers a reminder task on the customer matching the
// description. Unknown customers, invalid interval codes and unparseable
// dates are reported to the operator and abort this call only.
func (s *Scheduler) AddNotification(ctx context.Context, customerDescription, task, intervalCode, dateValue string) {
	if s == nil {
		return
	}
	if _, known := s.intervals[intervalCode]; !known {
		s.warnf("sla: invalid interval code %q for customer=%s", intervalCode, customerDescription)
		return
	}
	var triggered *time.Time
	if dateValue != "" {
		parsed, err := time.Parse("2006-01-02", dateValue)
		if err != nil {
			s.warnf("sla: invalid date %q for customer=%s: %v", dateValue, customerDescription, err)
			return
		}
		triggered = &parsed
	}
	entries, err := s.store.List(ctx)
	if err != nil {
		s.warnf("sla: list entries: %v", err)
		return
	}
	entry := config.FindByDescription(entries, customerDescription)
	if entry == nil {
		s.warnf("sla: customer not found description=%q", customerDescription)
		return
	}
	entry.Notifications = append(entry.Notifications, config.Notification{
		Task:      task,
		Interval:  intervalCode,
		Triggered: triggered,
	})
	entry.CreateTicket = true
	if err := s.store.Save(ctx, entry); err != nil {
		s.warnf("sla: save entry %s: %v", entry.ID, err)
	}
}

// Start runs the daily firing loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	at, err := time.Parse("15:04", s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == at.Hour() && now.Minute() == at.Minute()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	due, err := s.DueNotifications(ctx)
	if err != nil {
		s.warnf("sla: due scan: %v", err)
		return
	}
	if s.fire == nil {
		return
	}
	for _, notification := range due {
		if err := s.fire(ctx, notification); err != nil {
			s.warnf("sla: fire customer=%s task=%q: %v", notification.Entry.Description, notification.Notification.Task, err)
		}
	}
}

func (s *Scheduler) warnf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func renderTask(entry *config.Entry, notification config.Notification) string {
	return fmt.Sprintf("SLA task due for %s: %s (interval %s)", entry.Description, notification.Task, notification.Interval)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
