package hdfs

import (
	"errors"
	"io/fs"
	"syscall"
)

// ErrInvalidText reports that a native string field (path, owner, group) was
// not valid UTF-8. The record it came from is still freed; the error is
// recoverable and never crashes the process.
var ErrInvalidText = errors.New("native string field is not valid utf-8")

// opError converts the errno captured after a failed native call into a
// structured error. Wrapping a [syscall.Errno] in a [fs.PathError] keeps the
// raw native code recoverable while making errors.Is work against the
// standard sentinels:
//
//	ENOENT    -> fs.ErrNotExist
//	EEXIST    -> fs.ErrExist
//	EACCES    -> fs.ErrPermission
//	ENOTEMPTY -> fs.ErrExist
//
// EINVAL, ENOTDIR and the rest stay matchable via errors.Is against the
// errno itself; anything the native layer reports without a specific code
// surfaces as EIO.
func opError(op, path string, errno syscall.Errno) error {
	if errno == 0 {
		errno = syscall.EIO
	}
	return &fs.PathError{Op: op, Path: path, Err: errno}
}

// decodeError wraps a record-decoding failure for a path operation.
func decodeError(op, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// closedError reports an operation on a file whose handle was already
// released.
func closedError(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: fs.ErrClosed}
}
