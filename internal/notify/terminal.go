package notify

import (
	"context"
	"io"

	"github.com/fatih/color"
)

// TerminalNotifier prints notifications as colored lines, one per toast.
// Timeout and Position have no meaning on a terminal and are ignored.
type TerminalNotifier struct {
	w io.Writer
}

// Compile-time check to ensure TerminalNotifier implements Notifier
var _ Notifier = (*TerminalNotifier)(nil)

// NewTerminalNotifier creates a TerminalNotifier writing to w (usually stderr).
func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{w: w}
}

func (n *TerminalNotifier) Notify(_ context.Context, message string, opts Options) {
	c, icon := style(opts.Severity)
	if !opts.ShowIcon {
		icon = ""
	}
	_, _ = c.Fprintf(n.w, "%s%s\n", icon, message)
}

func style(s Severity) (*color.Color, string) {
	switch s {
	case SeverityDanger:
		return color.New(color.FgRed, color.Bold), "✖ "
	case SeverityWarning:
		return color.New(color.FgYellow), "⚠ "
	default:
		return color.New(color.FgCyan), "ℹ "
	}
}
