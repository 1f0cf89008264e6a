package hdfs

import (
	"context"
	"math"
	"syscall"
)

// OpenOptions configures how a [File] is opened and which operations are
// permitted on it. Options are validated and translated into a single native
// open call; invalid combinations are rejected before the native layer is
// touched.
//
// Opening a file to read:
//
//	f, err := client.OpenFile().Read(true).Open("/tmp/foo.txt")
//
// Opening for reading and writing, creating it if missing:
//
//	f, err := client.OpenFile().Read(true).Write(true).Create(true).Open("/tmp/foo.txt")
type OpenOptions struct {
	client *Client

	read      bool
	write     bool
	append    bool
	truncate  bool
	create    bool
	createNew bool

	bufferSize  int
	replication int
	blockSize   int64
}

func newOpenOptions(c *Client) *OpenOptions {
	return &OpenOptions{client: c}
}

// Read sets the option for read access.
func (o *OpenOptions) Read(read bool) *OpenOptions {
	o.read = read
	return o
}

// Write sets the option for write access. If the file already exists, writes
// overwrite its contents from the current position without truncating.
func (o *OpenOptions) Write(write bool) *OpenOptions {
	o.write = write
	return o
}

// Append makes writes go to the end of the file instead of overwriting.
// Setting Write(true).Append(true) is equivalent to Append(true) alone.
// Append does not create a missing file; combine with Create for that.
func (o *OpenOptions) Append(append bool) *OpenOptions {
	o.append = append
	return o
}

// Truncate truncates the file to zero length on open. Requires write access.
func (o *OpenOptions) Truncate(truncate bool) *OpenOptions {
	o.truncate = truncate
	return o
}

// Create creates the file if it does not exist, or opens the existing one.
// Requires write or append access.
func (o *OpenOptions) Create(create bool) *OpenOptions {
	o.create = create
	return o
}

// CreateNew creates a new file, failing if anything already exists at the
// target (including a dangling link). The check and the creation are one
// atomic native operation, so the opened file is guaranteed fresh — there is
// no window for a concurrent creator to slip in. When set, Create and
// Truncate are ignored.
func (o *OpenOptions) CreateNew(createNew bool) *OpenOptions {
	o.createNew = createNew
	return o
}

// BufferSize overrides the native I/O buffer size. Zero keeps the native
// default.
func (o *OpenOptions) BufferSize(n int) *OpenOptions {
	o.bufferSize = n
	return o
}

// Replication overrides the replica count for newly created files. Zero
// keeps the native default.
func (o *OpenOptions) Replication(n int) *OpenOptions {
	o.replication = n
	return o
}

// BlockSize overrides the block size for newly created files. Zero keeps
// the native default.
func (o *OpenOptions) BlockSize(n int64) *OpenOptions {
	o.blockSize = n
	return o
}

// accessMode maps (read, write, append) to exactly one native access mode.
func (o *OpenOptions) accessMode() (int, syscall.Errno) {
	switch {
	case o.read && !o.write && !o.append:
		return syscall.O_RDONLY, 0
	case !o.read && o.write && !o.append:
		return syscall.O_WRONLY, 0
	case o.read && o.write && !o.append:
		return syscall.O_RDWR, 0
	case !o.read && o.append:
		return syscall.O_WRONLY | syscall.O_APPEND, 0
	case o.read && o.append:
		return syscall.O_RDWR | syscall.O_APPEND, 0
	default: // no access mode at all
		return 0, syscall.EINVAL
	}
}

// creationMode maps (create, truncate, createNew) to native creation flags,
// rejecting combinations that make no sense without write access.
func (o *OpenOptions) creationMode() (int, syscall.Errno) {
	switch {
	case !o.write && !o.append:
		if o.truncate || o.create || o.createNew {
			return 0, syscall.EINVAL
		}
	case o.append:
		if o.truncate && !o.createNew {
			return 0, syscall.EINVAL
		}
	}

	switch {
	case o.createNew:
		return syscall.O_CREAT | syscall.O_EXCL, 0
	case o.create && o.truncate:
		return syscall.O_CREAT | syscall.O_TRUNC, 0
	case o.create:
		return syscall.O_CREAT, 0
	case o.truncate:
		return syscall.O_TRUNC, 0
	default:
		return 0, 0
	}
}

// nativeSizes validates the numeric overrides against the widths the native
// open call actually accepts. Overflow is rejected here, before any native
// call, never silently truncated.
func (o *OpenOptions) nativeSizes() (bufferSize int32, replication int16, blockSize int32, errno syscall.Errno) {
	if o.bufferSize < 0 || o.bufferSize > math.MaxInt32 {
		return 0, 0, 0, syscall.EINVAL
	}
	if o.replication < 0 || o.replication > math.MaxInt16 {
		return 0, 0, 0, syscall.EINVAL
	}
	if o.blockSize < 0 || o.blockSize > math.MaxInt32 {
		return 0, 0, 0, syscall.EINVAL
	}
	return int32(o.bufferSize), int16(o.replication), int32(o.blockSize), 0
}

// Open opens path with the options set on o.
//
// Failures map onto the standard sentinels: a missing file without Create is
// fs.ErrNotExist, CreateNew against an existing file is fs.ErrExist, lacking
// permissions is fs.ErrPermission, and invalid option combinations are
// EINVAL raised before any native call.
func (o *OpenOptions) Open(path string) (*File, error) {
	flags, errno := o.flags()
	if errno != 0 {
		return nil, opError("open", path, errno)
	}
	bufferSize, replication, blockSize, errno := o.nativeSizes()
	if errno != 0 {
		return nil, opError("open", path, errno)
	}

	c := o.client
	f, errno := c.api.OpenFile(c.fs, path, flags, bufferSize, replication, blockSize)
	if f == 0 {
		return nil, opError("open", path, errno)
	}
	c.logger.Debug().Str("path", path).Int("flags", flags).Msg("opened file")
	return newFile(c, f, path), nil
}

// OpenAsync opens path like Open but performs the flag resolution and the
// blocking native open on the worker pool, returning an [AsyncFile]. The
// context applies only while waiting for the pool; a native open already
// dispatched always runs to completion, and a file opened after the caller
// gave up is closed rather than leaked.
func (o *OpenOptions) OpenAsync(ctx context.Context, path string) (*AsyncFile, error) {
	c := o.client

	var (
		file    *File
		openErr error
	)
	done := make(chan struct{})
	c.pool.Submit(func() {
		defer close(done)
		file, openErr = o.Open(path)
	})

	select {
	case <-done:
	case <-ctx.Done():
		// The open may still succeed in the background; make sure an
		// orphaned handle is released rather than leaked.
		go func() {
			<-done
			if openErr == nil {
				file.Close()
			}
		}()
		return nil, ctx.Err()
	}

	if openErr != nil {
		return nil, openErr
	}
	return newAsyncFile(file, c.pool, c.cfg.ReadAheadChunkSize), nil
}

func (o *OpenOptions) flags() (int, syscall.Errno) {
	access, errno := o.accessMode()
	if errno != 0 {
		return 0, errno
	}
	creation, errno := o.creationMode()
	if errno != 0 {
		return 0, errno
	}
	return syscall.O_CLOEXEC | access | creation, 0
}
