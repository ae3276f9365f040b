// Package greeting holds the dispatch core: one trigger in, one
// generated artifact out, delivered best-effort to the requesting chat.
package greeting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"greetbot/internal/domain"
	"greetbot/internal/metrics"
	"greetbot/internal/store"
)

// QuoteSource supplies a quote for every greeting. Implementations
// must always return a usable quote (fallbacks, not errors).
type QuoteSource interface {
	Random(ctx context.Context) domain.Quote
}

// Renderer composes the greeting image.
type Renderer interface {
	Compose(ctx context.Context, quote domain.Quote, greeting string) ([]byte, error)
}

// HistoryRecorder persists delivery history. Optional.
type HistoryRecorder interface {
	RecordGreeting(ctx context.Context, rec store.GreetingRecord) error
}

type DispatcherConfig struct {
	Quotes    QuoteSource
	Renderer  Renderer
	Templates *Templates
	History   HistoryRecorder
	Logger    *slog.Logger
}

// Dispatcher turns greeting requests into artifacts and hands them to
// the owning channel. Each request is handled independently; there is
// no state shared between dispatches.
type Dispatcher struct {
	quotes    QuoteSource
	renderer  Renderer
	templates *Templates
	history   HistoryRecorder
	channels  map[string]domain.Channel
	logger    *slog.Logger
	rng       *rand.Rand
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		quotes:    cfg.Quotes,
		renderer:  cfg.Renderer,
		templates: cfg.Templates,
		history:   cfg.History,
		channels:  make(map[string]domain.Channel),
		logger:    cfg.Logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RegisterChannel makes a delivery surface available to Send.
func (d *Dispatcher) RegisterChannel(ch domain.Channel) {
	d.channels[ch.Name()] = ch
}

// Generate produces the artifact for a request. It never fails: when
// rendering breaks the artifact degrades to text carrying both the
// greeting and the quote. Text is never empty.
func (d *Dispatcher) Generate(ctx context.Context, req domain.GreetingRequest) domain.GreetingArtifact {
	art, _ := d.generate(ctx, req)
	return art
}

func (d *Dispatcher) generate(ctx context.Context, req domain.GreetingRequest) (domain.GreetingArtifact, domain.Quote) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		text = d.templates.Pick(d.rng)
	}

	q := d.quotes.Random(ctx)

	start := time.Now()
	img, err := d.renderer.Compose(ctx, q, text)
	metrics.Default.RenderDuration().Observe(time.Since(start))

	var art domain.GreetingArtifact
	if err != nil {
		d.logger.Warn("image render failed, degrading to text", "err", err)
		metrics.TextOnlyFallbacks().Inc()
		caption := text + "\n\n“" + q.Text + "”"
		if q.Author != "" {
			caption += " — " + q.Author
		}
		art = domain.GreetingArtifact{Text: caption}
	} else {
		art = domain.GreetingArtifact{Text: text, Image: img, ImageName: "greeting.jpg"}
	}

	metrics.GreetingsGenerated().Inc()
	return art, q
}

// Send delivers one artifact through the request's channel. Exactly
// one platform call per artifact; failures come back as DeliveryError.
func (d *Dispatcher) Send(ctx context.Context, req domain.GreetingRequest, art domain.GreetingArtifact) error {
	ch, ok := d.channels[req.Channel]
	if !ok {
		metrics.DeliveryErrors().Inc()
		return &domain.DeliveryError{
			Channel: req.Channel,
			ChatID:  req.ChatID,
			Err:     fmt.Errorf("no such channel"),
		}
	}

	if err := ch.Send(ctx, req.ChatID, art); err != nil {
		metrics.DeliveryErrors().Inc()
		var de *domain.DeliveryError
		if errors.As(err, &de) {
			return err
		}
		return &domain.DeliveryError{Channel: req.Channel, ChatID: req.ChatID, Err: err}
	}

	metrics.GreetingsSent().Inc()
	return nil
}

// Run consumes triggers from the bus until the context ends or the bus
// closes. Delivery failures are logged and swallowed; a dead chat must
// never take the bot down.
func (d *Dispatcher) Run(ctx context.Context, bus domain.TriggerBus) {
	d.logger.Info("greeting dispatcher started")
	triggers := bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("greeting dispatcher stopping")
			return
		case req, ok := <-triggers:
			if !ok {
				return
			}
			d.handle(ctx, req)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, req domain.GreetingRequest) {
	art, q := d.generate(ctx, req)

	err := d.Send(ctx, req, art)
	if err != nil {
		d.logger.Error("greeting delivery failed",
			"channel", req.Channel,
			"chat_id", req.ChatID,
			"trigger", req.Trigger,
			"err", err,
		)
	} else {
		d.logger.Info("greeting delivered",
			"channel", req.Channel,
			"chat_id", req.ChatID,
			"trigger", req.Trigger,
		)
	}

	if d.history == nil {
		return
	}
	rec := store.GreetingRecord{
		Channel:   req.Channel,
		ChatID:    req.ChatID,
		Trigger:   req.Trigger,
		Message:   art.Text,
		Quote:     q.Text,
		Delivered: err == nil,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if herr := d.history.RecordGreeting(ctx, rec); herr != nil {
		d.logger.Warn("cannot record greeting history", "err", herr)
	}
}
