package rendezvous

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

const testTimeout = 30 * time.Second

func TestFulfillWithoutWaiter(t *testing.T) {
	b := NewBroker[string](nil)

	err := b.Fulfill("Ivan", "granted")
	assert.ErrorIs(t, err, ErrNoSuchWaiter)

	// The rejected payload must not leak into a later wait.
	w, err := b.Open("Ivan")
	require.NoError(t, err)
	defer w.Close()
	select {
	case v := <-w.slot.ch:
		t.Fatalf("stale payload %q delivered", v)
	default:
	}
}

func TestAwaitReturnsPayload(t *testing.T) {
	b := NewBroker[string](nil)

	w, err := b.Open("Ivan")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Pending())

	go func() {
		assert.NoError(t, b.Fulfill("Ivan", "granted"))
	}()

	got, err := w.Result(context.Background(), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, "granted", got)
	assert.Zero(t, b.Pending())

	// consumed: a second callback has nobody to deliver to
	assert.ErrorIs(t, b.Fulfill("Ivan", "again"), ErrNoSuchWaiter)
}

func TestFulfillCompletesOnce(t *testing.T) {
	b := NewBroker[int](nil)
	w, err := b.Open("invoice/7")
	require.NoError(t, err)

	require.NoError(t, b.Fulfill("invoice/7", 1))
	assert.ErrorIs(t, b.Fulfill("invoice/7", 2), ErrNoSuchWaiter)

	got, err := w.Result(context.Background(), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestSameKeyAlreadyPending(t *testing.T) {
	b := NewBroker[string](nil)

	w, err := b.Open("Ivan")
	require.NoError(t, err)

	_, err = b.Open("Ivan")
	assert.ErrorIs(t, err, ErrAlreadyPending)

	_, err = b.Await(context.Background(), "Ivan", time.Millisecond)
	assert.ErrorIs(t, err, ErrAlreadyPending)

	w.Close()
	w.Close()
	assert.Zero(t, b.Pending())

	w, err = b.Open("Ivan")
	require.NoError(t, err)
	w.Close()
}

func TestDistinctKeysDoNotBlock(t *testing.T) {
	b := NewBroker[string](nil)
	keys := []string{"Ivan", "Olga", "Petr"}

	waits := make(map[string]*Wait[string], len(keys))
	for _, k := range keys {
		w, err := b.Open(k)
		require.NoError(t, err)
		waits[k] = w
	}

	var wg sync.WaitGroup
	results := make(map[string]string)
	var mu sync.Mutex
	for k, w := range waits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := w.Result(context.Background(), testTimeout)
			assert.NoError(t, err)
			mu.Lock()
			results[k] = got
			mu.Unlock()
		}()
	}

	// fulfil in reverse order; every waiter gets its own payload
	for i := len(keys) - 1; i >= 0; i-- {
		require.NoError(t, b.Fulfill(keys[i], "decision for "+keys[i]))
	}
	wg.Wait()

	for _, k := range keys {
		assert.Equal(t, "decision for "+k, results[k])
	}
}

func TestResultTimesOut(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Now())
	b := NewBroker[string](clk)

	w, err := b.Open("Ivan")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := w.Result(context.Background(), 5*time.Second)
		errCh <- err
	}()

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	clk.Step(5 * time.Second)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrTimedOut)
	case <-time.After(time.Second):
		t.Fatal("wait did not time out")
	}

	// the slot is released so a retry can register
	assert.Zero(t, b.Pending())
	assert.ErrorIs(t, b.Fulfill("Ivan", "late"), ErrNoSuchWaiter)
	w, err = b.Open("Ivan")
	require.NoError(t, err)
	w.Close()
}

func TestResultContextCancelled(t *testing.T) {
	b := NewBroker[string](nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Await(ctx, "Ivan", testTimeout)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, b.Pending())
}

func TestPayloadWinsOverExpiry(t *testing.T) {
	b := NewBroker[string](nil)
	w, err := b.Open("Ivan")
	require.NoError(t, err)
	require.NoError(t, b.Fulfill("Ivan", "granted"))

	got, ok := w.release()
	assert.True(t, ok)
	assert.Equal(t, "granted", got)
	assert.Zero(t, b.Pending())
}

func TestCloseReleasesWaiters(t *testing.T) {
	b := NewBroker[string](nil)

	w, err := b.Open("Ivan")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := w.Result(context.Background(), testTimeout)
		errCh <- err
	}()

	b.Close()
	b.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("waiter not released by Close")
	}

	_, err = b.Open("Olga")
	assert.ErrorIs(t, err, ErrClosed)
}
