package bus

import (
	"log/slog"
	"sync"
	"time"

	"greetbot/internal/domain"
)

const publishTimeout = 10 * time.Second

// InMemoryBus is a Go-channel based trigger bus. Channels and the
// scheduler publish greeting requests; the dispatch loop subscribes.
type InMemoryBus struct {
	triggers chan domain.GreetingRequest
	mu       sync.RWMutex
	closed   bool
	logger   *slog.Logger
}

// New creates an InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		triggers: make(chan domain.GreetingRequest, bufferSize),
		logger:   logger,
	}
}

// Publish blocks up to 10 seconds if the bus is full instead of dropping.
func (b *InMemoryBus) Publish(req domain.GreetingRequest) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}

	select {
	case b.triggers <- req:
	default:
		b.logger.Warn("trigger bus full, waiting...", "channel", req.Channel, "chat_id", req.ChatID)
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.triggers <- req:
			b.logger.Info("trigger delivered after wait", "channel", req.Channel)
		case <-timer.C:
			b.logger.Error("trigger dropped: bus full for 10s",
				"channel", req.Channel,
				"chat_id", req.ChatID,
			)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.GreetingRequest {
	return b.triggers
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.triggers)
	}
}
