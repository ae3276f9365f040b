package domain

import "fmt"

// ConfigError reports missing or invalid startup configuration.
// Fatal: the process must exit non-zero instead of starting.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("config: %s", e.Field)
	}
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DeliveryError reports a platform send failure for one artifact.
// The dispatch loop logs it and moves on; greetings are never retried.
type DeliveryError struct {
	Channel string
	ChatID  string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s chat %s: %v", e.Channel, e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
