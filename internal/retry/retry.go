// Package retry re-runs idempotent calls to external services when they fail
// with transient network or server errors.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/mailgate/internal/logging"
)

// Defaults for Options fields left zero.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
	DefaultMultiplier   = 2.0
)

// retryableMarkers are substrings that identify transient failures in error
// text from HTTP clients and SDKs.
var retryableMarkers = []string{
	"ECONNRESET",
	"ETIMEDOUT",
	"ENOTFOUND",
	"EAI_AGAIN",
	"socket hang up",
	"network",
	"timeout",
	"429",
	"500",
	"502",
	"503",
	"504",
}

// Options configures Do.
type Options struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	Multiplier   float64

	// Retryable overrides IsRetryable.
	Retryable func(error) bool

	// Logger receives a debug line per retry. Nil disables logging.
	Logger *slog.Logger

	// Operation names the call in log lines.
	Operation string
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	if o.Multiplier < 1 {
		o.Multiplier = DefaultMultiplier
	}
	if o.Retryable == nil {
		o.Retryable = IsRetryable
	}
	return o
}

// Do calls fn until it succeeds, fails with a non-retryable error, the
// attempts run out, or ctx is done. The last error is returned unwrapped.
func Do[T any](ctx context.Context, fn func(context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialDelay
	b.Multiplier = opts.Multiplier
	b.RandomizationFactor = 0

	attempt := 0
	op := func() (T, error) {
		attempt++
		res, err := fn(ctx)
		if err != nil && !opts.Retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, next time.Duration) {
		if opts.Logger == nil {
			return
		}
		opts.Logger.Debug("retrying after transient error",
			logging.Operation(opts.Operation),
			slog.Int("attempt", attempt),
			slog.Duration("delay", next),
			logging.Err(err))
	}

	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(opts.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return res, err
}

// IsRetryable reports whether err looks transient: a net.Error timeout or an
// error whose text carries a known transient marker. Context cancellation is
// never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
