package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunsAllTasks(t *testing.T) {
	p := New(4)

	var wg sync.WaitGroup
	var ran atomic.Int64
	for i := 0; i < 100; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			ran.Add(1)
		})
	}
	wg.Wait()
	assert.Equal(t, int64(100), ran.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const size = 3
	p := New(size)

	var wg sync.WaitGroup
	var cur, peak atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			n := cur.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			cur.Add(-1)
		})
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int64(size))
}

func TestDoReturnsTaskError(t *testing.T) {
	p := New(1)
	want := errors.New("native layer said no")

	err := p.Do(context.Background(), func() error { return want })
	assert.ErrorIs(t, err, want)

	assert.NoError(t, p.Do(context.Background(), func() error { return nil }))
}

// TestDoAbandonsOnContextCancel pins the cancellation contract: the caller
// stops waiting, but the dispatched task still runs to completion.
func TestDoAbandonsOnContextCancel(t *testing.T) {
	p := New(1)

	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	err := p.Do(ctx, func() error {
		close(started)
		<-release
		close(finished)
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	// The abandoned task is still live and completes once unblocked.
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abandoned task never completed")
	}
}

func TestWorkersExitWhenIdle(t *testing.T) {
	p := New(2)
	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(func() { wg.Done() })
	wg.Wait()

	// The semaphore drains only when the worker exits after its idle
	// timeout; a follow-up task must still run either way.
	wg.Add(1)
	p.Submit(func() { wg.Done() })
	wg.Wait()
}
