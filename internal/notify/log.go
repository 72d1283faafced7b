package notify

import (
	"context"
	"log/slog"
)

// LogNotifier records notifications as log entries. Used where no human is
// watching a terminal, e.g. the gateway.
type LogNotifier struct {
	logger *slog.Logger
}

// Compile-time check to ensure LogNotifier implements Notifier
var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, message string, opts Options) {
	n.logger.Log(ctx, level(opts.Severity), message,
		"severity", string(opts.Severity),
		"timeout", opts.Timeout,
	)
}

func level(s Severity) slog.Level {
	switch s {
	case SeverityDanger:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
