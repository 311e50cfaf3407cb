package alert

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/teemow/mailgate/internal/instrumentation"
	"github.com/teemow/mailgate/internal/logging"
)

// DefaultTimeout bounds a single notification attempt.
const DefaultTimeout = 60 * time.Second

// Notifier delivers a message to a target on one channel.
type Notifier interface {
	Notify(ctx context.Context, target, message string) error
	Name() string
}

// Dispatcher routes notices to notifiers keyed by channel name.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// NewDispatcher creates a Dispatcher with DefaultTimeout. metrics may be nil.
func NewDispatcher(logger *slog.Logger, metrics *instrumentation.Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		notifiers: make(map[string]Notifier),
		timeout:   DefaultTimeout,
		logger:    logger,
		metrics:   metrics,
	}
}

// Register binds channel to n, replacing any previous binding.
func (d *Dispatcher) Register(channel string, n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[channel] = n
}

// SetTimeout changes the per-notice ceiling. Non-positive values are ignored.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.timeout = timeout
	}
}

// Channels returns the registered channel names in sorted order.
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.notifiers))
	for name := range d.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch sends message to target on channel and reports whether it was
// delivered. Unknown channels, empty targets, failures and timeouts are
// logged and never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, channel, target, message string) bool {
	if d == nil {
		return false
	}
	logger := d.logger.With(logging.Channel(channel))

	if target == "" {
		logger.Warn("alert skipped, no target configured")
		d.metrics.RecordAlert(ctx, channel, "skipped")
		return false
	}

	d.mu.RLock()
	n, ok := d.notifiers[channel]
	d.mu.RUnlock()
	if !ok {
		logger.Warn("alert skipped, unknown channel")
		d.metrics.RecordAlert(ctx, channel, "skipped")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	if err := n.Notify(ctx, target, message); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			logger.Error("alert abandoned after timeout",
				slog.Duration(logging.KeyDuration, time.Since(start)),
				logging.Err(err))
		} else {
			logger.Error("failed to send alert", logging.Err(err))
		}
		d.metrics.RecordAlert(ctx, channel, instrumentation.StatusError)
		return false
	}

	logger.Info("alert sent", slog.Duration(logging.KeyDuration, time.Since(start)))
	d.metrics.RecordAlert(ctx, channel, instrumentation.StatusSuccess)
	return true
}
