package domain

import "time"

// TriggerType says what caused a greeting to be dispatched.
type TriggerType string

const (
	TriggerCommand   TriggerType = "command"
	TriggerScheduled TriggerType = "scheduled"
)

// GreetingRequest is created per incoming trigger and discarded after
// dispatch. Message is the optional greeting text supplied by the user
// ("/greet Happy Sunday!"); empty means the dispatcher picks one.
type GreetingRequest struct {
	Channel   string
	ChatID    string
	SenderID  string
	Message   string
	Trigger   TriggerType
	Timestamp time.Time
}

// GreetingArtifact is the generated payload for a single request.
// Image holds encoded JPEG bytes; nil means a text-only greeting
// (the renderer degraded gracefully).
type GreetingArtifact struct {
	Text      string
	Image     []byte
	ImageName string
}

// Quote is an inspirational quote stamped onto the greeting image.
type Quote struct {
	Text   string
	Author string
}

// Subscription is a persisted per-chat schedule for recurring greetings.
type Subscription struct {
	ID        string
	Channel   string
	ChatID    string
	Message   string
	IntervalS int
	Enabled   bool
	LastRun   time.Time
	NextRun   time.Time
}
