package hdfs

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/brettbedarf/hdfs/internal/pool"
)

// AsyncFile wraps a File so callers do not block on native I/O directly:
// every native call runs on the client's worker pool and the caller waits on
// it with a context. Cancelling the context abandons the wait only — a
// dispatched native call always runs to completion, because the native layer
// cannot interrupt it.
//
// Sequential reads are served through a read-ahead buffer. Background fills
// advance the real native cursor past the logically consumed position, so
// the adapter keeps a logical cursor and reconciles the real one back to it
// lazily, only when switching from reading to a write or seek. All
// operations on one AsyncFile are serialized by its mutex; two native calls
// never run concurrently on the same handle.
type AsyncFile struct {
	mu    sync.Mutex
	file  *File
	pool  *pool.Pool
	chunk int

	// logical is the position the caller has consumed up to. While buf is
	// non-empty or a fill is outstanding, the real native cursor is ahead of
	// it by the buffered amount.
	logical int64
	buf     []byte
	bufErr  error           // delivered after buf drains, usually io.EOF
	fill    chan fillResult // outstanding background read-ahead, nil if none

	dirty  bool
	closed bool
}

type fillResult struct {
	data []byte
	err  error
}

func newAsyncFile(file *File, p *pool.Pool, chunkSize int) *AsyncFile {
	return &AsyncFile{file: file, pool: p, chunk: chunkSize}
}

// Path returns the path the underlying file was opened with.
func (a *AsyncFile) Path() string {
	return a.file.Path()
}

// Read copies buffered read-ahead bytes into p when it can, and otherwise
// fetches the next chunk through the worker pool. When a read drains the
// buffer it kicks off a background fill for the chunk after it, so a
// sequential reader rarely waits on the native call itself.
func (a *AsyncFile) Read(ctx context.Context, p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, closedError("read", a.file.Path())
	}

	for {
		if len(a.buf) > 0 {
			n := copy(p, a.buf)
			a.buf = a.buf[n:]
			a.logical += int64(n)
			if len(a.buf) == 0 && a.bufErr == nil {
				a.scheduleFill()
			}
			return n, nil
		}
		if a.bufErr != nil {
			err := a.bufErr
			a.bufErr = nil
			return 0, err
		}
		if a.fill != nil {
			if err := a.absorbFill(ctx); err != nil {
				return 0, err
			}
			continue
		}

		// Nothing buffered and nothing in flight: the real cursor sits at
		// the logical position.
		if a.chunk <= 0 {
			// Read-ahead disabled; read straight into the caller's buffer.
			var n int
			err := a.pool.Do(ctx, func() error {
				var rerr error
				n, rerr = a.file.Read(p)
				return rerr
			})
			if err != nil {
				return 0, err
			}
			a.logical += int64(n)
			return n, nil
		}

		buf := make([]byte, a.chunk)
		var n int
		err := a.pool.Do(ctx, func() error {
			var rerr error
			n, rerr = a.file.Read(buf)
			return rerr
		})
		if err != nil {
			return 0, err
		}
		a.buf = buf[:n]
	}
}

// Write repositions the real cursor back to the logical one if reads ran
// ahead, then writes through the worker pool and marks the file dirty.
func (a *AsyncFile) Write(ctx context.Context, p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, closedError("write", a.file.Path())
	}
	if err := a.reconcile(ctx); err != nil {
		return 0, err
	}

	var n int
	err := a.pool.Do(ctx, func() error {
		var werr error
		n, werr = a.file.Write(p)
		return werr
	})
	if err != nil {
		return 0, err
	}
	a.logical += int64(n)
	a.dirty = true
	return n, nil
}

// Seek reconciles the real cursor to the logical one first, so relative
// seeks are computed from the position the caller actually consumed up to,
// then delegates to the underlying file through the worker pool.
func (a *AsyncFile) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, closedError("seek", a.file.Path())
	}
	if err := a.reconcile(ctx); err != nil {
		return 0, err
	}

	var abs int64
	err := a.pool.Do(ctx, func() error {
		var serr error
		abs, serr = a.file.Seek(offset, whence)
		return serr
	})
	if err != nil {
		return 0, err
	}
	a.logical = abs
	return abs, nil
}

// Flush pushes buffered writes out through the worker pool. It is a no-op
// unless a write happened since the last successful flush.
func (a *AsyncFile) Flush(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return closedError("flush", a.file.Path())
	}
	if err := a.settleFill(); err != nil {
		return err
	}
	if !a.dirty {
		return nil
	}
	if err := a.pool.Do(ctx, a.file.Flush); err != nil {
		return err
	}
	a.dirty = false
	return nil
}

// Close waits out any in-flight read-ahead and releases the underlying file.
// Like File.Close it reports nothing: the handle is gone either way. A
// second Close is a no-op.
func (a *AsyncFile) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.settleFill(); err != nil && !errors.Is(err, io.EOF) {
		a.file.client.logger.Warn().Err(err).Str("path", a.file.Path()).Msg("read-ahead failed during close")
	}
	a.buf, a.bufErr = nil, nil
	return a.pool.Do(ctx, a.file.Close)
}

// scheduleFill starts a background read of the next chunk at the current
// real cursor. Callers must only invoke it when buf is empty and no fill is
// outstanding, i.e. when the real cursor equals the logical one.
func (a *AsyncFile) scheduleFill() {
	if a.chunk <= 0 {
		return
	}
	ch := make(chan fillResult, 1)
	a.fill = ch
	file, chunk := a.file, a.chunk
	a.pool.Submit(func() {
		buf := make([]byte, chunk)
		n, err := file.Read(buf)
		ch <- fillResult{data: buf[:n], err: err}
	})
}

// absorbFill waits for the outstanding fill and folds its result into the
// buffer. A cancelled context abandons the wait but leaves the fill pending;
// the next operation will wait for it again.
func (a *AsyncFile) absorbFill(ctx context.Context) error {
	select {
	case r := <-a.fill:
		a.fill = nil
		a.buf = r.data
		a.bufErr = r.err
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settleFill blocks until no fill is outstanding. Used on the paths that
// must not race the native handle and cannot be abandoned (reconcile,
// flush, close); the dispatched native read is not cancellable anyway.
func (a *AsyncFile) settleFill() error {
	if a.fill == nil {
		return nil
	}
	r := <-a.fill
	a.fill = nil
	a.buf = r.data
	a.bufErr = r.err
	return nil
}

// reconcile discards the read-ahead state and moves the real native cursor
// back to the logical position. Paying one seek here, only when switching
// out of read mode, is what lets the read path skip repositioning entirely.
func (a *AsyncFile) reconcile(ctx context.Context) error {
	if err := a.settleFill(); err != nil {
		return err
	}
	if len(a.buf) == 0 && a.bufErr == nil {
		// Real cursor already equals the logical one.
		return nil
	}
	if err := a.pool.Do(ctx, func() error {
		_, err := a.file.Seek(a.logical, io.SeekStart)
		return err
	}); err != nil {
		// Keep the buffered state: the cursor was not (or may not have
		// been) repositioned, so the next mode switch must retry the seek.
		return err
	}
	a.buf, a.bufErr = nil, nil
	return nil
}
