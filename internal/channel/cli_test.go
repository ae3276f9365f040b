package channel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"greetbot/internal/bus"
	"greetbot/internal/domain"
)

func TestCLI_PublishesTypedGreetings(t *testing.T) {
	b := bus.New(10, testLogger())
	defer b.Close()

	in := strings.NewReader("Happy Monday!\n/quit\n")
	var out bytes.Buffer
	c := NewCLI(CLIConfig{OutputDir: t.TempDir(), Logger: testLogger(), In: in, Out: &out})

	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background(), b) }()

	select {
	case req := <-b.Subscribe():
		if req.Message != "Happy Monday!" {
			t.Errorf("unexpected message %q", req.Message)
		}
		if req.Channel != "cli" || req.ChatID != "local" {
			t.Errorf("unexpected routing: %+v", req)
		}
	case <-time.After(time.Second):
		t.Fatal("no request published")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cli did not exit on /quit")
	}
}

func TestCLI_SendWritesImage(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	c := NewCLI(CLIConfig{OutputDir: dir, Logger: testLogger(), Out: &out})

	art := domain.GreetingArtifact{Text: "Hello!", Image: []byte{0xff, 0xd8, 0xff}, ImageName: "greeting.jpg"}
	if err := c.Send(context.Background(), "local", art); err != nil {
		t.Fatalf("send: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 written image, got %d", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, art.Image) {
		t.Error("written image differs from artifact")
	}
}

func TestCLI_SendTextFallback(t *testing.T) {
	var out bytes.Buffer
	c := NewCLI(CLIConfig{OutputDir: t.TempDir(), Logger: testLogger(), Out: &out})

	if err := c.Send(context.Background(), "local", domain.GreetingArtifact{Text: "plain greeting"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out.String(), "plain greeting") {
		t.Errorf("text fallback not printed: %q", out.String())
	}
}
