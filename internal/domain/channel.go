package domain

import "context"

// Channel is the interface for user-facing delivery surfaces (Telegram, CLI).
type Channel interface {
	Name() string
	Start(ctx context.Context, bus TriggerBus) error
	Stop() error
	Send(ctx context.Context, chatID string, artifact GreetingArtifact) error
}
