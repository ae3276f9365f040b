// Package schedule fires recurring greetings for subscribed chats.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"greetbot/internal/domain"
	"greetbot/internal/store"
)

const tickInterval = 1 * time.Second

// Scheduler keeps per-chat subscriptions and publishes a scheduled
// greeting request whenever one comes due. Subscriptions survive
// restarts through the store.
type Scheduler struct {
	subs     map[string]*domain.Subscription
	bus      domain.TriggerBus
	store    *store.SQLiteStore
	logger   *slog.Logger
	mu       sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(bus domain.TriggerBus, st *store.SQLiteStore, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		subs:   make(map[string]*domain.Subscription),
		bus:    bus,
		store:  st,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	saved, err := st.ListSubscriptions(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	now := time.Now()
	for i := range saved {
		sub := saved[i]
		if sub.NextRun.IsZero() || sub.NextRun.Before(now) {
			sub.NextRun = now.Add(time.Duration(sub.IntervalS) * time.Second)
		}
		s.subs[sub.ID] = &sub
	}
	if len(s.subs) > 0 {
		logger.Info("subscriptions restored", "count", len(s.subs))
	}
	return s, nil
}

// Subscribe creates or replaces the schedule for a chat.
func (s *Scheduler) Subscribe(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	if sub.IntervalS <= 0 {
		return domain.Subscription{}, fmt.Errorf("interval must be positive")
	}
	if sub.ID == "" {
		sub.ID = fmt.Sprintf("sub_%s_%s", sub.Channel, sub.ChatID)
	}
	sub.Enabled = true
	sub.NextRun = time.Now().Add(time.Duration(sub.IntervalS) * time.Second)

	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}

	s.mu.Lock()
	s.subs[sub.ID] = &sub
	s.mu.Unlock()

	s.logger.Info("subscription added",
		"channel", sub.Channel, "chat_id", sub.ChatID, "interval_s", sub.IntervalS)
	return sub, nil
}

// Unsubscribe removes the schedule for a chat. Returns whether one
// existed.
func (s *Scheduler) Unsubscribe(ctx context.Context, channel, chatID string) (bool, error) {
	removed, err := s.store.DeleteSubscription(ctx, channel, chatID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	s.mu.Lock()
	for id, sub := range s.subs {
		if sub.Channel == channel && sub.ChatID == chatID {
			delete(s.subs, id)
		}
	}
	s.mu.Unlock()

	if removed {
		s.logger.Info("subscription removed", "channel", channel, "chat_id", chatID)
	}
	return removed, nil
}

// List returns a snapshot of all subscriptions.
func (s *Scheduler) List(ctx context.Context) []domain.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := make([]domain.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, *sub)
	}
	return subs
}

// Start runs the tick loop until the context ends.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("greeting scheduler started")
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("greeting scheduler stopping")
			return
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.fireDue(ctx, now)
		}
	}
}

// Stop halts the scheduler. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// fireDue advances run times under the lock, then publishes outside it
// so a backed-up bus cannot stall Subscribe/Unsubscribe.
func (s *Scheduler) fireDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []domain.Subscription
	for _, sub := range s.subs {
		if !sub.Enabled || now.Before(sub.NextRun) {
			continue
		}
		sub.LastRun = now
		sub.NextRun = now.Add(time.Duration(sub.IntervalS) * time.Second)
		due = append(due, *sub)
	}
	s.mu.Unlock()

	for _, sub := range due {
		s.logger.Info("scheduled greeting due", "channel", sub.Channel, "chat_id", sub.ChatID)
		s.bus.Publish(domain.GreetingRequest{
			Channel:   sub.Channel,
			ChatID:    sub.ChatID,
			SenderID:  "schedule:" + sub.ID,
			Message:   sub.Message,
			Trigger:   domain.TriggerScheduled,
			Timestamp: now,
		})
		if err := s.store.SaveSubscription(ctx, sub); err != nil {
			s.logger.Warn("cannot persist subscription run times", "id", sub.ID, "err", err)
		}
	}
}
