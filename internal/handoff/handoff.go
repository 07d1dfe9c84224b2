// Package handoff implements the open-request-await sequence used to obtain
// a decision from an external authority that answers through a callback.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/rentfleet/internal/pkg/metrics"
	"github.com/autopeer-io/rentfleet/internal/rendezvous"
	"github.com/autopeer-io/rentfleet/pkg/log"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

// Handoff kinds, used as metric labels.
const (
	KindAccess     = "access"
	KindPrepayment = "prepayment"
	KindInvoice    = "invoice"
	KindFinal      = "final"
)

// Options bounds one handoff.
type Options struct {
	// Kind labels metrics and logs.
	Kind string
	// Timeout is the wait for the callback, per attempt.
	Timeout time.Duration
	// MaxAttempts includes the first attempt; values below 1 mean 1.
	MaxAttempts int
	// RetryInterval is the pause before another attempt.
	RetryInterval time.Duration
	// Clock defaults to the real clock.
	Clock clock.Clock
}

// NewOptions derives handoff Options of the given kind from configuration.
func NewOptions(kind string, o *options.HandoffOptions) Options {
	return Options{
		Kind:          kind,
		Timeout:       o.Timeout,
		MaxAttempts:   o.MaxAttempts,
		RetryInterval: o.RetryInterval,
	}
}

// RequestFunc asks the authority for a decision. It must return once the
// request is accepted; the decision arrives through the broker.
type RequestFunc func(ctx context.Context) error

// Run opens a wait on key, sends the request and blocks for the callback.
//
// AlreadyPending on open and TimedOut on await are retried until
// MaxAttempts is used up. A failed request is not retried.
func Run[T any](ctx context.Context, broker *rendezvous.Broker[T], key string, opts Options, request RequestFunc) (T, error) {
	var zero T

	attempts := max(opts.MaxAttempts, 1)
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	logger := log.WithValues("handoff", opts.Kind, "key", key)
	start := clk.Now()

	for attempt := 1; ; attempt++ {
		payload, err := runOnce(ctx, broker, key, opts.Timeout, request)
		if err == nil {
			observe(opts.Kind, "ok", clk.Since(start))
			return payload, nil
		}

		retryable := errors.Is(err, rendezvous.ErrAlreadyPending) || errors.Is(err, rendezvous.ErrTimedOut)
		if !retryable || attempt >= attempts {
			observe(opts.Kind, outcome(err), clk.Since(start))
			return zero, err
		}

		logger.Warn("Handoff attempt failed, retrying", "attempt", attempt, "max-attempts", attempts, "error", err.Error())
		if err := sleep(ctx, clk, opts.RetryInterval); err != nil {
			observe(opts.Kind, outcome(err), clk.Since(start))
			return zero, err
		}
	}
}

func runOnce[T any](ctx context.Context, broker *rendezvous.Broker[T], key string, timeout time.Duration, request RequestFunc) (T, error) {
	var zero T

	// The wait is registered before the authority can possibly call back.
	w, err := broker.Open(key)
	if err != nil {
		return zero, err
	}

	if err := request(ctx); err != nil {
		w.Close()
		return zero, fmt.Errorf("request for %q: %w", key, err)
	}

	return w.Result(ctx, timeout)
}

func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := clk.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, rendezvous.ErrTimedOut):
		return "timeout"
	case errors.Is(err, rendezvous.ErrAlreadyPending):
		return "already_pending"
	case errors.Is(err, rendezvous.ErrClosed):
		return "closed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "request_failed"
	}
}

func observe(kind, result string, latency time.Duration) {
	metrics.HandoffTotal.WithLabelValues(kind, result).Inc()
	metrics.HandoffLatency.WithLabelValues(kind).Observe(latency.Seconds())
}
