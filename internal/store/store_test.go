package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"greetbot/internal/domain"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "greetbot.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSubscription_SaveAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub := domain.Subscription{
		ID:        "sub_telegram_42",
		Channel:   "telegram",
		ChatID:    "42",
		Message:   "Good Morning!",
		IntervalS: 86400,
		Enabled:   true,
		NextRun:   time.Now().Add(time.Hour),
	}
	if err := s.SaveSubscription(ctx, sub); err != nil {
		t.Fatalf("save: %v", err)
	}

	subs, err := s.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(subs))
	}
	if subs[0].ChatID != "42" || subs[0].IntervalS != 86400 {
		t.Errorf("round trip mismatch: %+v", subs[0])
	}
	if !subs[0].Enabled {
		t.Error("expected enabled subscription")
	}
}

func TestSubscription_UpsertSameChat(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub := domain.Subscription{ID: "a", Channel: "telegram", ChatID: "42", IntervalS: 3600, Enabled: true}
	if err := s.SaveSubscription(ctx, sub); err != nil {
		t.Fatalf("save: %v", err)
	}
	sub.IntervalS = 7200
	if err := s.SaveSubscription(ctx, sub); err != nil {
		t.Fatalf("second save: %v", err)
	}

	subs, err := s.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected upsert to keep 1 row, got %d", len(subs))
	}
	if subs[0].IntervalS != 7200 {
		t.Errorf("expected updated interval 7200, got %d", subs[0].IntervalS)
	}
}

func TestSubscription_Delete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub := domain.Subscription{ID: "a", Channel: "telegram", ChatID: "42", IntervalS: 3600, Enabled: true}
	if err := s.SaveSubscription(ctx, sub); err != nil {
		t.Fatalf("save: %v", err)
	}

	removed, err := s.DeleteSubscription(ctx, "telegram", "42")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !removed {
		t.Error("expected delete to report a removed row")
	}

	removed, err = s.DeleteSubscription(ctx, "telegram", "42")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if removed {
		t.Error("expected second delete to find nothing")
	}
}

func TestGreetings_RecordAndRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := GreetingRecord{
			Channel:   "telegram",
			ChatID:    "42",
			Trigger:   domain.TriggerCommand,
			Message:   "Good Morning!",
			Quote:     "A quote.",
			Delivered: i != 1,
		}
		if i == 1 {
			rec.Error = "telegram: 403 forbidden"
		}
		if err := s.RecordGreeting(ctx, rec); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	recs, err := s.RecentGreetings(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	// Newest first: record 2 (delivered), then record 1 (failed).
	if !recs[0].Delivered {
		t.Error("expected newest record delivered")
	}
	if recs[1].Delivered || recs[1].Error == "" {
		t.Errorf("expected failed record with error, got %+v", recs[1])
	}
}
