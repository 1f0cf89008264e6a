// Package pool runs blocking native calls on a bounded set of worker
// goroutines. The native client performs uninterruptible network I/O, so the
// pool is sized for blocking work and never cancels a task once it has been
// handed to a worker: callers that stop waiting simply abandon the result.
package pool

import (
	"context"
	"time"

	"github.com/brettbedarf/hdfs/internal/util"
)

// workerIdleTimeout is how long an idle worker lingers before exiting.
const workerIdleTimeout = 10 * time.Second

// Pool is a lazily-grown, bounded worker pool.
type Pool struct {
	tasks  chan func()
	sem    chan struct{} // bounds live workers
	logger util.Logger
}

// New creates a pool running at most size concurrent tasks.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		tasks:  make(chan func(), size),
		sem:    make(chan struct{}, size),
		logger: util.GetLogger("pool"),
	}
}

// Submit enqueues fn for execution and returns without waiting. A new worker
// is spawned only when no idle worker can pick the task up and the bound has
// not been reached.
func (p *Pool) Submit(fn func()) {
	select {
	case p.tasks <- fn:
		return
	default:
	}
	select {
	case p.sem <- struct{}{}:
		go p.worker(fn)
	case p.tasks <- fn:
	}
}

// Do runs fn on the pool and waits for its result. If ctx expires first, Do
// returns ctx.Err() while fn keeps running to completion in the background
// with its result discarded; there is no mid-call cancellation of native
// I/O.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	p.Submit(func() {
		done <- fn()
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		p.logger.Debug().Err(ctx.Err()).Msg("caller stopped waiting; task left to finish")
		return ctx.Err()
	}
}

func (p *Pool) worker(fn func()) {
	defer func() { <-p.sem }()

	idle := time.NewTimer(workerIdleTimeout)
	defer idle.Stop()
	for {
		fn()
		if !idle.Stop() {
			<-idle.C
		}
		idle.Reset(workerIdleTimeout)
		select {
		case fn = <-p.tasks:
		case <-idle.C:
			return
		}
	}
}
