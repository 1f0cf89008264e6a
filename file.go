package hdfs

import (
	"io"
	"syscall"

	"github.com/brettbedarf/hdfs/internal/native"
)

// File is positional byte-stream I/O over one open native handle. The handle
// is exclusively owned: it is never duplicated or shared, and it is released
// exactly once by Close. The client that produced the File must outlive it —
// File only borrows the connection handle.
//
// A File assumes a single writer; the read/seek cursor is the native
// handle's own and is not synchronized by this layer.
type File struct {
	client *Client
	f      native.File // zeroed by Close; every operation checks the sentinel
	path   string
}

func newFile(c *Client, f native.File, path string) *File {
	return &File{client: c, f: f, path: path}
}

// Path returns the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// Read reads up to len(p) bytes into p from the current position. Requests
// larger than the native single-call limit are clamped, so short reads are
// routine; io.EOF is returned at end of file per the io.Reader contract.
func (f *File) Read(p []byte) (int, error) {
	if f.f == 0 {
		return 0, closedError("read", f.path)
	}
	n, errno := f.client.api.Read(f.client.fs, f.f, clamp(p))
	if n < 0 {
		return 0, opError("read", f.path, errno)
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return int(n), nil
}

// Write writes up to len(p) bytes from p at the current position. Requests
// are clamped to the native single-call limit and the native layer may
// itself write short; callers needing full delivery must retry, e.g. via
// a buffering wrapper.
func (f *File) Write(p []byte) (int, error) {
	if f.f == 0 {
		return 0, closedError("write", f.path)
	}
	n, errno := f.client.api.Write(f.client.fs, f.f, clamp(p))
	if n < 0 {
		return 0, opError("write", f.path, errno)
	}
	return int(n), nil
}

// Seek implements io.Seeker over the native handle's absolute-offset seek.
//
// io.SeekCurrent needs a native position query first, so it is two native
// calls and not atomic against another writer on the same handle (a single
// writer per handle is assumed). io.SeekEnd has no native primitive at all:
// the length comes from a metadata lookup by path, which is inherently racy
// against concurrent appenders. That race is a documented limitation of the
// native layer, not something this layer can close.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.f == 0 {
		return 0, closedError("seek", f.path)
	}

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		cur, errno := f.client.api.Tell(f.client.fs, f.f)
		if cur < 0 {
			return 0, opError("seek", f.path, errno)
		}
		abs = cur + offset
	case io.SeekEnd:
		m, err := f.client.Stat(f.path)
		if err != nil {
			return 0, err
		}
		abs = int64(m.Len()) + offset
	default:
		return 0, opError("seek", f.path, syscall.EINVAL)
	}

	if abs < 0 {
		return 0, opError("seek", f.path, syscall.EINVAL)
	}
	if errno := f.client.api.Seek(f.client.fs, f.f, abs); errno != 0 {
		return 0, opError("seek", f.path, errno)
	}
	return abs, nil
}

// Flush forces buffered writes out to the native layer.
func (f *File) Flush() error {
	if f.f == 0 {
		return closedError("flush", f.path)
	}
	if errno := f.client.api.Flush(f.client.fs, f.f); errno != 0 {
		return opError("flush", f.path, errno)
	}
	return nil
}

// Close releases the native handle exactly once. The native layer guarantees
// the handle is invalidated whether or not its close call succeeds, so a
// close failure is logged and swallowed rather than surfaced; a second Close
// is a no-op. Close always returns nil and exists to satisfy io.Closer.
func (f *File) Close() error {
	if f.f == 0 {
		return nil
	}
	h := f.f
	f.f = 0
	if errno := f.client.api.CloseFile(f.client.fs, h); errno != 0 {
		f.client.logger.Warn().Err(errno).Str("path", f.path).Msg("native close failed; handle released regardless")
	} else {
		f.client.logger.Debug().Str("path", f.path).Msg("closed file")
	}
	return nil
}

// clamp limits a single I/O request to what the native call width allows.
func clamp(p []byte) []byte {
	if len(p) > native.MaxIOBytes {
		return p[:native.MaxIOBytes]
	}
	return p
}

var (
	_ io.Reader = (*File)(nil)
	_ io.Writer = (*File)(nil)
	_ io.Seeker = (*File)(nil)
	_ io.Closer = (*File)(nil)
)
