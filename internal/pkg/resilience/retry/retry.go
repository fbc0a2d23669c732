// Package retry runs operations that may fail temporarily, on top of
// avast/retry-go. The default strategy is capped exponential backoff; a
// fixed delay and unlimited attempts can be selected for reconnect loops.
//
//	r := retry.New(retry.WithAttempts(5), retry.WithDelay(200*time.Millisecond))
//	err := r.Execute(ctx, func() error { return store.Save(ctx, v) })
package retry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Retry executes an operation until it succeeds, attempts run out, or ctx
// is done.
type Retry interface {
	// Execute runs operation, retrying it on error. When ctx is done while
	// waiting between attempts the context error is returned.
	Execute(ctx context.Context, operation func() error) error
}

type config struct {
	attempts uint // 0 means unlimited
	delay    time.Duration
	maxDelay time.Duration
	fixed    bool
	onRetry  func(attempt uint, err error)
}

// Option configures a Retry built by New.
type Option func(*config)

type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// New returns a Retry with 3 attempts, a 1s base delay growing
// exponentially up to 5s, and only the last error reported.
func New(opts ...Option) Retry {
	cfg := config{
		attempts: 3,
		delay:    1 * time.Second,
		maxDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{cfg: cfg}
}

func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	delayType := retry.BackOffDelay
	if r.cfg.fixed {
		delayType = retry.FixedDelay
	}

	options := []retry.Option{
		retry.Attempts(r.cfg.attempts),
		retry.Delay(r.cfg.delay),
		retry.MaxDelay(r.cfg.maxDelay),
		retry.DelayType(delayType),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	}
	if r.cfg.onRetry != nil {
		options = append(options, retry.OnRetry(r.cfg.onRetry))
	}

	return retry.Do(operation, options...)
}

// WithAttempts sets the total number of attempts, the first one included.
// Zero retries until ctx is done.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the base delay between attempts.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay caps the exponential growth of the delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// WithFixedDelay waits exactly d between attempts, without backoff.
func WithFixedDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
		c.maxDelay = d
		c.fixed = true
	}
}

// WithOnRetry registers a callback invoked after failed attempts.
func WithOnRetry(fn func(attempt uint, err error)) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}
