package channel

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"greetbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestParseInterval(t *testing.T) {
	cases := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{"", 86400, false},
		{"daily", 86400, false},
		{"DAILY", 86400, false},
		{"hourly", 3600, false},
		{"3600", 3600, false},
		{" 7200 ", 7200, false},
		{"59", 0, true},
		{"soon", 0, true},
		{"-100", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseInterval(tc.arg, 86400)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseInterval(%q) expected error, got %d", tc.arg, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseInterval(%q): %v", tc.arg, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseInterval(%q) = %d, want %d", tc.arg, got, tc.want)
		}
	}
}

func TestFormatInterval(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{86400, "day"},
		{2 * 86400, "2 days"},
		{3600, "hour"},
		{7200, "2 hours"},
		{90, "90 seconds"},
	}
	for _, tc := range cases {
		if got := FormatInterval(tc.seconds); got != tc.want {
			t.Errorf("FormatInterval(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestTelegramSend_BeforeConnect(t *testing.T) {
	tg := NewTelegram(TelegramConfig{Token: "x", Logger: testLogger()})

	err := tg.Send(context.Background(), "42", domain.GreetingArtifact{Text: "hi"})
	var de *domain.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.DeliveryError before connect, got %v", err)
	}
	if de.ChatID != "42" {
		t.Errorf("delivery error chat mismatch: %s", de.ChatID)
	}
}

func TestNewTelegram_AllowList(t *testing.T) {
	tg := NewTelegram(TelegramConfig{
		Token:     "x",
		AllowFrom: []string{"123", " 456 ", "garbage"},
		Logger:    testLogger(),
	})

	if !tg.isAllowed(123) || !tg.isAllowed(456) {
		t.Error("listed users must be allowed")
	}
	if tg.isAllowed(789) {
		t.Error("unlisted user must be rejected when a list is set")
	}

	open := NewTelegram(TelegramConfig{Token: "x", Logger: testLogger()})
	if !open.isAllowed(789) {
		t.Error("empty allow list must allow everyone")
	}
}
