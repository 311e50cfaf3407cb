package alert

import (
	"context"
	"log/slog"

	"github.com/teemow/mailgate/internal/logging"
)

// LogNotifier writes notices to the log. Useful as a fallback channel and in
// development.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, target, message string) error {
	n.logger.Info("alert", logging.Channel("log"), slog.String("target", target), slog.String("message", message))
	return nil
}

// Name implements Notifier.
func (n *LogNotifier) Name() string {
	return "log"
}
