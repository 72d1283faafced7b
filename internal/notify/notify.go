// Package notify delivers user-facing toast notifications.
package notify

import (
	"context"
	"time"
)

// Severity is the visual weight of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Position is where a toast renderer places the notification.
type Position string

const PositionTopRight Position = "top-right"

// DefaultTimeout is how long toasts stay visible before auto-dismissal.
const DefaultTimeout = 5 * time.Second

// Options controls how a notification is rendered.
type Options struct {
	Severity Severity
	Position Position
	Timeout  time.Duration
	ShowIcon bool
}

// Toast returns the options used for all client notifications at the given severity.
func Toast(severity Severity) Options {
	return Options{
		Severity: severity,
		Position: PositionTopRight,
		Timeout:  DefaultTimeout,
		ShowIcon: true,
	}
}

// Notifier shows a message to the user. Implementations must not block on
// user interaction.
type Notifier interface {
	Notify(ctx context.Context, message string, opts Options)
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, message string, opts Options)

func (f Func) Notify(ctx context.Context, message string, opts Options) {
	f(ctx, message, opts)
}

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, string, Options) {})
