package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func fastOptions() Options {
	return Options{InitialDelay: time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	}, fastOptions())

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("upstream returned 503")
		}
		return 42, nil
	}, fastOptions())

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New("connect ECONNRESET")
	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, sentinel
	}, fastOptions())

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	sentinel := errors.New("invalid recipient")
	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, sentinel
	}, fastOptions())

	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SingleAttemptReturnsUnwrappedError(t *testing.T) {
	sentinel := errors.New("bad request")
	_, err := Do(context.Background(), func(context.Context) (int, error) {
		return 0, sentinel
	}, Options{MaxAttempts: 1, InitialDelay: time.Millisecond})

	assert.Equal(t, sentinel, err)
}

func TestDo_HonoursContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("network unreachable")
	}, Options{MaxAttempts: 5, InitialDelay: time.Hour})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: errors.New("googleapi: Error 429: rate limit"), want: true},
		{name: "server error", err: errors.New("status 500"), want: true},
		{name: "gateway", err: errors.New("502 Bad Gateway"), want: true},
		{name: "reset", err: errors.New("read: ECONNRESET"), want: true},
		{name: "hang up", err: errors.New("socket hang up"), want: true},
		{name: "net timeout", err: timeoutErr{}, want: true},
		{name: "wrapped net timeout", err: fmt.Errorf("send: %w", timeoutErr{}), want: true},
		{name: "bad request", err: errors.New("400 invalid argument"), want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
