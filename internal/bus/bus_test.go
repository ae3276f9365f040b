package bus

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"greetbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestBus_PublishAndSubscribe(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	b.Publish(domain.GreetingRequest{
		Channel: "telegram",
		ChatID:  "42",
		Trigger: domain.TriggerCommand,
	})

	select {
	case req := <-b.Subscribe():
		if req.ChatID != "42" {
			t.Errorf("expected chat 42, got %s", req.ChatID)
		}
		if req.Trigger != domain.TriggerCommand {
			t.Errorf("expected command trigger, got %s", req.Trigger)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for request")
	}
}

func TestBus_Order(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	for _, id := range []string{"1", "2", "3"} {
		b.Publish(domain.GreetingRequest{ChatID: id})
	}

	for _, want := range []string{"1", "2", "3"} {
		got := <-b.Subscribe()
		if got.ChatID != want {
			t.Errorf("expected chat %s, got %s", want, got.ChatID)
		}
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	b := New(10, testLogger())
	b.Close()

	// Must not panic.
	b.Publish(domain.GreetingRequest{ChatID: "1"})

	if _, ok := <-b.Subscribe(); ok {
		t.Error("expected closed subscribe channel")
	}
}

func TestBus_DoubleClose(t *testing.T) {
	b := New(10, testLogger())
	b.Close()
	b.Close() // must not panic
}
