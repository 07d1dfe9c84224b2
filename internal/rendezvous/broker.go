// Package rendezvous bridges an asynchronous callback to a caller blocked on
// its result. A waiter opens a slot under a correlation key; the callback
// fulfills that slot exactly once.
package rendezvous

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/rentfleet/internal/pkg/errno"
)

var (
	// ErrAlreadyPending is returned by Open when the key already has a waiter.
	ErrAlreadyPending = errno.New(http.StatusConflict, "already_pending", "a request for this key is already pending")

	// ErrNoSuchWaiter is returned by Fulfill when nobody waits on the key.
	ErrNoSuchWaiter = errno.New(http.StatusConflict, "no_such_waiter", "no pending request for this key")

	// ErrTimedOut is returned when no callback arrived within the timeout.
	ErrTimedOut = errno.New(http.StatusGatewayTimeout, "timed_out", "timed out waiting for the authority callback")

	// ErrClosed is returned to waiters when the broker shuts down.
	ErrClosed = errno.New(http.StatusServiceUnavailable, "broker_closed", "service is shutting down")
)

type slot[T any] struct {
	// ch has capacity one; the single Fulfill never blocks.
	ch        chan T
	fulfilled bool
}

// Broker holds at most one pending wait per key.
type Broker[T any] struct {
	clock clock.Clock

	mu     sync.Mutex
	slots  map[string]*slot[T]
	closed bool
	done   chan struct{}
}

// NewBroker creates an empty broker. A nil clock uses the real clock.
func NewBroker[T any](clk clock.Clock) *Broker[T] {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Broker[T]{
		clock: clk,
		slots: make(map[string]*slot[T]),
		done:  make(chan struct{}),
	}
}

// Wait is one registered, not yet consumed, pending wait.
type Wait[T any] struct {
	broker *Broker[T]
	key    string
	slot   *slot[T]
	once   sync.Once
}

// Open registers a pending wait on key. The returned Wait must be finished
// with Result or Close.
func (b *Broker[T]) Open(key string) (*Wait[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if _, ok := b.slots[key]; ok {
		return nil, fmt.Errorf("%q: %w", key, ErrAlreadyPending)
	}

	s := &slot[T]{ch: make(chan T, 1)}
	b.slots[key] = s
	return &Wait[T]{broker: b, key: key, slot: s}, nil
}

// Await is Open followed by Result.
func (b *Broker[T]) Await(ctx context.Context, key string, timeout time.Duration) (T, error) {
	w, err := b.Open(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return w.Result(ctx, timeout)
}

// Fulfill delivers payload to the wait pending on key.
func (b *Broker[T]) Fulfill(key string, payload T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[key]
	if !ok || s.fulfilled {
		return fmt.Errorf("%q: %w", key, ErrNoSuchWaiter)
	}
	s.fulfilled = true
	s.ch <- payload
	return nil
}

// Pending returns the number of open waits.
func (b *Broker[T]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}

// Close fails every current and future wait with ErrClosed.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

// Key returns the correlation key of the wait.
func (w *Wait[T]) Key() string {
	return w.key
}

// Result blocks until the wait is fulfilled, timeout elapses or ctx ends.
// The slot is released in every case. Call it at most once.
func (w *Wait[T]) Result(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T
	defer w.Close()

	timer := w.broker.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-w.slot.ch:
		return payload, nil
	case <-timer.C():
		if payload, ok := w.release(); ok {
			return payload, nil
		}
		return zero, fmt.Errorf("%q after %s: %w", w.key, timeout, ErrTimedOut)
	case <-ctx.Done():
		if payload, ok := w.release(); ok {
			return payload, nil
		}
		return zero, ctx.Err()
	case <-w.broker.done:
		if payload, ok := w.release(); ok {
			return payload, nil
		}
		return zero, ErrClosed
	}
}

// Close releases the slot without waiting. Safe to call more than once.
func (w *Wait[T]) Close() {
	w.once.Do(func() {
		b := w.broker
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.slots[w.key] == w.slot {
			delete(b.slots, w.key)
		}
	})
}

// release removes the slot and returns a payload delivered before removal.
// Fulfill sends under the broker lock, so a fulfilled slot always has its
// payload buffered here.
func (w *Wait[T]) release() (T, bool) {
	b := w.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.slots[w.key] == w.slot {
		delete(b.slots, w.key)
	}
	if w.slot.fulfilled {
		return <-w.slot.ch, true
	}
	var zero T
	return zero, false
}
