// Package native defines the contract the client core needs from the libhdfs
// client library: opaque connection and file handles, raw file-status records,
// and the errno convention used to report failures.
//
// Every call that can fail reports a [syscall.Errno] captured immediately
// after the underlying native call returns, before any other native call has
// a chance to overwrite the process-global error slot. A zero Errno means the
// call did not record an error; for calls where a null result is ambiguous
// (see [API.ListDirectory]) the zero Errno is the signal that the result is
// legitimately empty.
//
// The real binding (libhdfs via cgo) is compiled behind the hdfscgo build
// tag. Tests run against the in-memory implementation in internal/nativetest.
package native

import "syscall"

// FS is an opaque handle to a connected filesystem (hdfsFS). The native
// library caches and shares these handles internally per target, so an FS
// is never disconnected by this layer once handed out.
type FS uintptr

// File is an opaque handle to an open file stream (hdfsFile). Each File is
// exclusively owned by exactly one logical open file and must be closed
// exactly once.
type File uintptr

// InfoRef is an opaque reference to a native-allocated array of file-status
// records. It must be released with [API.FreeFileInfo] exactly once,
// regardless of whether decoding the records succeeds.
type InfoRef uintptr

// MaxIOBytes is the largest length a single native read or write accepts
// (tSize is a signed 32-bit integer; libhdfs rejects larger requests).
// Callers must clamp their buffers to this size.
const MaxIOBytes = 1 << 30

// Kind discriminates file-status records (tObjectKind).
type Kind uint32

const (
	KindFile      Kind = 'F'
	KindDirectory Kind = 'D'
)

// RawFileInfo is one decoded-but-unvalidated file-status record
// (hdfsFileInfo). Text fields are raw bytes copied out of native memory;
// the core validates them as UTF-8 so a malformed native string surfaces as
// a recoverable error instead of corrupt text.
type RawFileInfo struct {
	Kind        Kind
	Name        []byte
	LastMod     int64
	Size        int64
	Replication int16
	BlockSize   int64
	Owner       []byte
	Group       []byte
	Permissions int16
	LastAccess  int64
}

// ConnectParams carries everything a connect call accepts. NameNode may be
// the literal "default", in which case the native library resolves the
// endpoint from its own configuration discovery.
type ConnectParams struct {
	NameNode        string
	Port            uint16
	User            string
	TicketCachePath string
}

// API is the native client surface. Implementations must be safe for
// concurrent use across independent handles; serialization of operations on
// a single File handle is the caller's responsibility.
type API interface {
	// Connect resolves and connects to a filesystem. A zero FS plus errno
	// reports failure.
	Connect(p ConnectParams) (FS, syscall.Errno)

	// OpenFile opens path with POSIX-style flags. bufferSize, replication
	// and blockSize are pass-through tuning values; zero means the native
	// default. A zero File plus errno reports failure.
	OpenFile(fs FS, path string, flags int, bufferSize int32, replication int16, blockSize int32) (File, syscall.Errno)

	// CloseFile releases a file handle. The handle is invalid after the
	// call returns regardless of the reported errno.
	CloseFile(fs FS, f File) syscall.Errno

	// Read reads up to len(p) bytes (len(p) <= MaxIOBytes) from the
	// handle's current position. Returns 0 with a zero errno at EOF.
	Read(fs FS, f File, p []byte) (int32, syscall.Errno)

	// Write writes up to len(p) bytes (len(p) <= MaxIOBytes). Short writes
	// are legal.
	Write(fs FS, f File, p []byte) (int32, syscall.Errno)

	// Seek repositions the handle to an absolute offset.
	Seek(fs FS, f File, offset int64) syscall.Errno

	// Tell reports the handle's current position.
	Tell(fs FS, f File) (int64, syscall.Errno)

	// Flush forces buffered writes out to the filesystem.
	Flush(fs FS, f File) syscall.Errno

	// GetPathInfo stats a single path. On success the InfoRef holds exactly
	// one record and must be freed with FreeFileInfo(ref, 1).
	GetPathInfo(fs FS, path string) (InfoRef, syscall.Errno)

	// ListDirectory lists a directory. A zero InfoRef is ambiguous: a zero
	// errno means the directory is legitimately empty, any other errno is a
	// real failure. A non-zero InfoRef holds count records and must be
	// freed with FreeFileInfo(ref, count).
	ListDirectory(fs FS, path string) (ref InfoRef, count int, errno syscall.Errno)

	// FileInfoAt copies record i out of a live InfoRef.
	FileInfoAt(ref InfoRef, i int) RawFileInfo

	// FreeFileInfo releases a record array. Must be called exactly once per
	// non-zero InfoRef.
	FreeFileInfo(ref InfoRef, count int)

	// Delete removes a path. Non-recursive delete of a non-empty directory
	// fails with ENOTEMPTY.
	Delete(fs FS, path string, recursive bool) syscall.Errno

	// Rename moves oldPath to newPath. The destination's parent directory
	// must already exist.
	Rename(fs FS, oldPath, newPath string) syscall.Errno

	// CreateDirectory creates a directory and any missing ancestors
	// (mkdir -p semantics); succeeds if the directory already exists.
	CreateDirectory(fs FS, path string) syscall.Errno
}
