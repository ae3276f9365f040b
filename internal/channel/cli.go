package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"greetbot/internal/domain"
)

// CLI implements domain.Channel for local use: type a greeting, get
// the rendered image written to the output directory.
type CLI struct {
	bus       domain.TriggerBus
	logger    *slog.Logger
	in        io.Reader
	out       io.Writer
	outputDir string
}

type CLIConfig struct {
	OutputDir string
	Logger    *slog.Logger
	In        io.Reader
	Out       io.Writer
}

func NewCLI(cfg CLIConfig) *CLI {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &CLI{
		logger:    cfg.Logger,
		in:        cfg.In,
		out:       cfg.Out,
		outputDir: cfg.OutputDir,
	}
}

func (c *CLI) Name() string { return "cli" }

// Start reads greeting messages line by line until EOF or cancellation.
func (c *CLI) Start(ctx context.Context, bus domain.TriggerBus) error {
	c.bus = bus

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	fmt.Fprintln(c.out, "greetbot CLI. Type a greeting and press Enter (empty line for a random one). /quit to exit.")
	fmt.Fprint(c.out, "> ")

	scanner := bufio.NewScanner(c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			return scanner.Err() // nil on EOF
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" || line == "/exit" {
			return nil
		}

		c.bus.Publish(domain.GreetingRequest{
			Channel:   c.Name(),
			ChatID:    "local",
			SenderID:  "cli",
			Message:   line,
			Trigger:   domain.TriggerCommand,
			Timestamp: time.Now(),
		})
	}
}

func (c *CLI) Stop() error { return nil }

// Send writes the artifact to the output directory (or prints the text
// fallback) and reports the path.
func (c *CLI) Send(ctx context.Context, chatID string, art domain.GreetingArtifact) error {
	if len(art.Image) == 0 {
		fmt.Fprintln(c.out, art.Text)
		fmt.Fprint(c.out, "> ")
		return nil
	}

	name := fmt.Sprintf("greeting-%d.jpg", time.Now().UnixMilli())
	path := filepath.Join(c.outputDir, name)
	if err := os.WriteFile(path, art.Image, 0o644); err != nil {
		return &domain.DeliveryError{Channel: c.Name(), ChatID: chatID, Err: err}
	}

	fmt.Fprintf(c.out, "saved %s\n> ", path)
	return nil
}
