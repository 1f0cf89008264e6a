//go:build hdfscgo

package native

/*
#cgo LDFLAGS: -lhdfs
#include <errno.h>
#include <stdlib.h>
#include <string.h>
#include "hdfs.h"

// A NULL result from hdfsListDirectory is ambiguous between "empty directory"
// and "failure"; only errno tells them apart. Clear it going in so a stale
// value from an earlier call cannot masquerade as a listing failure.
static hdfsFileInfo *listDirectoryErrno(hdfsFS fs, const char *path, int *numEntries) {
	errno = 0;
	return hdfsListDirectory(fs, path, numEntries);
}
*/
import "C"

import (
	"syscall"
	"unsafe"
)

// libAPI is the real binding against libhdfs. All methods use cgo's
// two-result call form so errno is captured by the runtime immediately after
// the C call returns, before any other native call can overwrite it.
type libAPI struct{}

// Default returns the libhdfs-backed implementation of the native contract.
func Default() (API, error) {
	return libAPI{}, nil
}

func cgoErrno(err error) syscall.Errno {
	if err == nil {
		// The native layer signalled failure without recording an errno.
		return syscall.EIO
	}
	if e, ok := err.(syscall.Errno); ok {
		return e
	}
	return syscall.EIO
}

func cfs(fs FS) C.hdfsFS      { return C.hdfsFS(unsafe.Pointer(fs)) }
func cfile(f File) C.hdfsFile { return C.hdfsFile(unsafe.Pointer(f)) }

func goBytes(s *C.char) []byte {
	if s == nil {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(s), C.int(C.strlen(s)))
}

func (libAPI) Connect(p ConnectParams) (FS, syscall.Errno) {
	bld, err := C.hdfsNewBuilder()
	if bld == nil {
		return 0, cgoErrno(err)
	}

	nn := C.CString(p.NameNode)
	defer C.free(unsafe.Pointer(nn))
	C.hdfsBuilderSetNameNode(bld, nn)
	if p.Port != 0 {
		C.hdfsBuilderSetNameNodePort(bld, C.tPort(p.Port))
	}
	if p.User != "" {
		user := C.CString(p.User)
		defer C.free(unsafe.Pointer(user))
		C.hdfsBuilderSetUserName(bld, user)
	}
	if p.TicketCachePath != "" {
		tc := C.CString(p.TicketCachePath)
		defer C.free(unsafe.Pointer(tc))
		C.hdfsBuilderSetKerbTicketCachePath(bld, tc)
	}

	// hdfsBuilderConnect consumes the builder, no separate free.
	fs, err := C.hdfsBuilderConnect(bld)
	if fs == nil {
		return 0, cgoErrno(err)
	}
	return FS(uintptr(unsafe.Pointer(fs))), 0
}

func (libAPI) OpenFile(fs FS, path string, flags int, bufferSize int32, replication int16, blockSize int32) (File, syscall.Errno) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	f, err := C.hdfsOpenFile(cfs(fs), cpath, C.int(flags), C.int(bufferSize), C.short(replication), C.tSize(blockSize))
	if f == nil {
		return 0, cgoErrno(err)
	}
	return File(uintptr(unsafe.Pointer(f))), 0
}

func (libAPI) CloseFile(fs FS, f File) syscall.Errno {
	ret, err := C.hdfsCloseFile(cfs(fs), cfile(f))
	if ret != 0 {
		return cgoErrno(err)
	}
	return 0
}

func (libAPI) Read(fs FS, f File, p []byte) (int32, syscall.Errno) {
	if len(p) == 0 {
		return 0, 0
	}
	n, err := C.hdfsRead(cfs(fs), cfile(f), unsafe.Pointer(&p[0]), C.tSize(len(p)))
	if n < 0 {
		return -1, cgoErrno(err)
	}
	return int32(n), 0
}

func (libAPI) Write(fs FS, f File, p []byte) (int32, syscall.Errno) {
	if len(p) == 0 {
		return 0, 0
	}
	n, err := C.hdfsWrite(cfs(fs), cfile(f), unsafe.Pointer(&p[0]), C.tSize(len(p)))
	if n < 0 {
		return -1, cgoErrno(err)
	}
	return int32(n), 0
}

func (libAPI) Seek(fs FS, f File, offset int64) syscall.Errno {
	ret, err := C.hdfsSeek(cfs(fs), cfile(f), C.tOffset(offset))
	if ret != 0 {
		return cgoErrno(err)
	}
	return 0
}

func (libAPI) Tell(fs FS, f File) (int64, syscall.Errno) {
	pos, err := C.hdfsTell(cfs(fs), cfile(f))
	if pos < 0 {
		return -1, cgoErrno(err)
	}
	return int64(pos), 0
}

func (libAPI) Flush(fs FS, f File) syscall.Errno {
	ret, err := C.hdfsFlush(cfs(fs), cfile(f))
	if ret != 0 {
		return cgoErrno(err)
	}
	return 0
}

func (libAPI) GetPathInfo(fs FS, path string) (InfoRef, syscall.Errno) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	info, err := C.hdfsGetPathInfo(cfs(fs), cpath)
	if info == nil {
		return 0, cgoErrno(err)
	}
	return InfoRef(uintptr(unsafe.Pointer(info))), 0
}

func (libAPI) ListDirectory(fs FS, path string) (InfoRef, int, syscall.Errno) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var n C.int
	infos, err := C.listDirectoryErrno(cfs(fs), cpath, &n)
	if infos == nil {
		if err == nil {
			// Legitimately empty directory, not a failure.
			return 0, 0, 0
		}
		return 0, 0, cgoErrno(err)
	}
	return InfoRef(uintptr(unsafe.Pointer(infos))), int(n), 0
}

func (libAPI) FileInfoAt(ref InfoRef, i int) RawFileInfo {
	rec := (*C.hdfsFileInfo)(unsafe.Pointer(uintptr(ref) + uintptr(i)*C.sizeof_hdfsFileInfo))
	return RawFileInfo{
		Kind:        Kind(rec.mKind),
		Name:        goBytes(rec.mName),
		LastMod:     int64(rec.mLastMod),
		Size:        int64(rec.mSize),
		Replication: int16(rec.mReplication),
		BlockSize:   int64(rec.mBlockSize),
		Owner:       goBytes(rec.mOwner),
		Group:       goBytes(rec.mGroup),
		Permissions: int16(rec.mPermissions),
		LastAccess:  int64(rec.mLastAccess),
	}
}

func (libAPI) FreeFileInfo(ref InfoRef, count int) {
	C.hdfsFreeFileInfo((*C.hdfsFileInfo)(unsafe.Pointer(uintptr(ref))), C.int(count))
}

func (libAPI) Delete(fs FS, path string, recursive bool) syscall.Errno {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	rec := C.int(0)
	if recursive {
		rec = 1
	}
	ret, err := C.hdfsDelete(cfs(fs), cpath, rec)
	if ret != 0 {
		return cgoErrno(err)
	}
	return 0
}

func (libAPI) Rename(fs FS, oldPath, newPath string) syscall.Errno {
	cold := C.CString(oldPath)
	defer C.free(unsafe.Pointer(cold))
	cnew := C.CString(newPath)
	defer C.free(unsafe.Pointer(cnew))

	ret, err := C.hdfsRename(cfs(fs), cold, cnew)
	if ret != 0 {
		return cgoErrno(err)
	}
	return 0
}

func (libAPI) CreateDirectory(fs FS, path string) syscall.Errno {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	ret, err := C.hdfsCreateDirectory(cfs(fs), cpath)
	if ret != 0 {
		return cgoErrno(err)
	}
	return 0
}
