// Package waitfor provides the poll-until-true primitive used to synchronize
// automation steps against the host page's asynchronous rendering.
package waitfor

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the condition does not become true within the
// configured timeout.
var ErrTimeout = errors.New("waitfor: condition not met before timeout")

const (
	// DefaultInterval is the fixed polling interval.
	DefaultInterval = 100 * time.Millisecond

	// DefaultTimeout is the maximum wait applied when no Timeout option is given.
	DefaultTimeout = 10 * time.Second
)

// Option configures a single wait.
type Option func(*options)

type options struct {
	interval time.Duration
	timeout  time.Duration
}

// Interval overrides the polling interval.
func Interval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// Timeout overrides the maximum wait duration.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// For polls cond at a fixed interval, starting immediately, until it returns
// true. It returns nil on the first true result, ErrTimeout once the timeout
// elapses, or the context error if ctx is cancelled first.
//
// The condition must be side-effect free; it may be invoked many times.
// There is no explicit cancel token: callers abandon a wait by cancelling
// ctx, and callers that swallow ErrTimeout proceed best-effort.
func For(ctx context.Context, cond func() bool, opts ...Option) error {
	o := options{
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if cond() {
		return nil
	}

	deadline := time.NewTimer(o.timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrTimeout
		case <-ticker.C:
			if cond() {
				return nil
			}
		}
	}
}
