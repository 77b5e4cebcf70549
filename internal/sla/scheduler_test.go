package sla

import (
	"context"
	"log"
	"strings"
	"testing"
	"time"

	config "mspmon/internal/config/domain"
	"mspmon/internal/config/infrastructure/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestScheduler(t *testing.T, clock Clock) (*Scheduler, *memory.Store, *strings.Builder) {
	t.Helper()
	store := memory.NewStore()
	var buf strings.Builder
	logger := log.New(&buf, "", 0)
	scheduler, err := NewScheduler(store, logger, WithClock(clock))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return scheduler, store, &buf
}

func TestDueNotificationsFiresAndAdvances(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	scheduler, store, _ := newTestScheduler(t, clock)

	lastWeek := now.AddDate(0, 0, -8)
	_ = store.Save(ctx, &config.Entry{
		ID:          "1",
		Description: "Acme",
		Notifications: []config.Notification{
			{Task: "check backups", Interval: IntervalWeekly, Triggered: &lastWeek},
			{Task: "annual review", Interval: IntervalYearly, Triggered: &lastWeek},
		},
	})

	due, err := scheduler.DueNotifications(ctx)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due = %d, want 1", len(due))
	}
	if due[0].Notification.Task != "check backups" {
		t.Fatalf("wrong task fired: %s", due[0].Notification.Task)
	}
	if !strings.Contains(due[0].Text, "Acme") {
		t.Fatalf("rendered text = %q", due[0].Text)
	}

	// Re-running the same day fires nothing.
	due, _ = scheduler.DueNotifications(ctx)
	if len(due) != 0 {
		t.Fatalf("second pass due = %d, want 0", len(due))
	}

	entries, _ := store.List(ctx)
	if len(entries[0].Notifications) != 2 {
		t.Fatalf("notifications = %d, want 2", len(entries[0].Notifications))
	}
	for _, notification := range entries[0].Notifications {
		if notification.Task == "check backups" && !notification.Triggered.Equal(now) {
			t.Fatalf("trigger not advanced: %v", notification.Triggered)
		}
	}
}

func TestDueNotificationsConsumesOneShot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)
	scheduler, store, _ := newTestScheduler(t, &fakeClock{now: now})

	_ = store.Save(ctx, &config.Entry{
		ID:          "1",
		Description: "Acme",
		Notifications: []config.Notification{
			{Task: "renew cert", Interval: IntervalOnce},
		},
	})

	due, err := scheduler.DueNotifications(ctx)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 || due[0].Notification.Task != "renew cert" {
		t.Fatalf("due = %+v", due)
	}

	entries, _ := store.List(ctx)
	if len(entries[0].Notifications) != 0 {
		t.Fatalf("one-shot not consumed: %+v", entries[0].Notifications)
	}
}

func TestDueNotificationsUnknownCodeKept(t *testing.T) {
	ctx := context.Background()
	scheduler, store, buf := newTestScheduler(t, &fakeClock{now: time.Now().UTC()})

	_ = store.Save(ctx, &config.Entry{
		ID:          "1",
		Description: "Acme",
		Notifications: []config.Notification{
			{Task: "mystery", Interval: "X"},
		},
	})

	due, err := scheduler.DueNotifications(ctx)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due = %d, want 0", len(due))
	}
	if !strings.Contains(buf.String(), "unknown interval code") {
		t.Fatalf("missing warning, log = %q", buf.String())
	}
	entries, _ := store.List(ctx)
	if len(entries[0].Notifications) != 1 {
		t.Fatal("unknown-code notification must be kept")
	}
}

func TestAddNotification(t *testing.T) {
	ctx := context.Background()
	scheduler, store, _ := newTestScheduler(t, &fakeClock{now: time.Now().UTC()})
	_ = store.Save(ctx, &config.Entry{ID: "1", Description: "Acme Corporation"})

	scheduler.AddNotification(ctx, "acme", "check backups", IntervalWeekly, "2026-06-01")

	entries, _ := store.List(ctx)
	entry := entries[0]
	if len(entry.Notifications) != 1 {
		t.Fatalf("notifications = %+v", entry.Notifications)
	}
	notification := entry.Notifications[0]
	if notification.Task != "check backups" || notification.Interval != IntervalWeekly {
		t.Fatalf("notification = %+v", notification)
	}
	want := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if notification.Triggered == nil || !notification.Triggered.Equal(want) {
		t.Fatalf("triggered = %v, want %v", notification.Triggered, want)
	}
	if !entry.CreateTicket {
		t.Fatal("adding a notification enables ticket creation")
	}
}

func TestAddNotificationFailuresAreNonFatal(t *testing.T) {
	ctx := context.Background()
	scheduler, store, buf := newTestScheduler(t, &fakeClock{now: time.Now().UTC()})
	_ = store.Save(ctx, &config.Entry{ID: "1", Description: "Acme"})

	scheduler.AddNotification(ctx, "Acme", "task", "ZZ", "")
	if !strings.Contains(buf.String(), "invalid interval code") {
		t.Fatalf("log = %q", buf.String())
	}

	scheduler.AddNotification(ctx, "Acme", "task", IntervalWeekly, "June 1st")
	if !strings.Contains(buf.String(), "invalid date") {
		t.Fatalf("log = %q", buf.String())
	}

	scheduler.AddNotification(ctx, "Nonexistent Customer Ltd", "task", IntervalWeekly, "")
	if !strings.Contains(buf.String(), "customer not found") {
		t.Fatalf("log = %q", buf.String())
	}

	entries, _ := store.List(ctx)
	if len(entries[0].Notifications) != 0 {
		t.Fatalf("no notification should have been added: %+v", entries[0].Notifications)
	}
}
