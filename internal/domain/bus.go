package domain

import "context"

// TriggerBus routes greeting triggers from channels and the scheduler
// to the dispatch loop.
type TriggerBus interface {
	Publish(req GreetingRequest)
	Subscribe() <-chan GreetingRequest
	Close()
}

// SubscriptionManager manages persisted per-chat greeting schedules.
// Implemented by the scheduler; used by channels for /subscribe and
// /unsubscribe.
type SubscriptionManager interface {
	Subscribe(ctx context.Context, sub Subscription) (Subscription, error)
	Unsubscribe(ctx context.Context, channel, chatID string) (bool, error)
	List(ctx context.Context) []Subscription
}
