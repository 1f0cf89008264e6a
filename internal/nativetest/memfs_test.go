package nativetest

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/hdfs/internal/native"
)

func connect(t *testing.T, m *MemFS) native.FS {
	t.Helper()
	fs, errno := m.Connect(native.ConnectParams{NameNode: "test", Port: 9000, User: "tester"})
	require.Zero(t, errno)
	require.NotZero(t, fs)
	return fs
}

func create(t *testing.T, m *MemFS, fs native.FS, path string, data []byte) {
	t.Helper()
	f, errno := m.OpenFile(fs, path, syscall.O_WRONLY|syscall.O_CREAT, 0, 0, 0)
	require.Zero(t, errno)
	n, errno := m.Write(fs, f, data)
	require.Zero(t, errno)
	require.Equal(t, int32(len(data)), n)
	require.Zero(t, m.CloseFile(fs, f))
}

func TestOpenFlagSemantics(t *testing.T) {
	m := NewMemFS()
	fs := connect(t, m)

	// Missing file without O_CREAT.
	_, errno := m.OpenFile(fs, "/missing", syscall.O_RDONLY, 0, 0, 0)
	assert.Equal(t, syscall.ENOENT, errno)

	create(t, m, fs, "/f", []byte("data"))

	// Exclusive create against an existing file.
	_, errno = m.OpenFile(fs, "/f", syscall.O_WRONLY|syscall.O_CREAT|syscall.O_EXCL, 0, 0, 0)
	assert.Equal(t, syscall.EEXIST, errno)

	// Opening a directory as a file.
	require.Zero(t, m.CreateDirectory(fs, "/d"))
	_, errno = m.OpenFile(fs, "/d", syscall.O_RDONLY, 0, 0, 0)
	assert.Equal(t, syscall.EISDIR, errno)

	// O_CREAT creates missing parents, like the real library.
	f, errno := m.OpenFile(fs, "/deep/nested/file", syscall.O_WRONLY|syscall.O_CREAT, 0, 0, 0)
	require.Zero(t, errno)
	require.Zero(t, m.CloseFile(fs, f))
	_, errno = m.GetPathInfo(fs, "/deep/nested")
	assert.Zero(t, errno)
}

func TestReadAtEOFIsZeroNotError(t *testing.T) {
	m := NewMemFS()
	fs := connect(t, m)
	create(t, m, fs, "/f", []byte("abc"))

	f, errno := m.OpenFile(fs, "/f", syscall.O_RDONLY, 0, 0, 0)
	require.Zero(t, errno)
	defer m.CloseFile(fs, f)

	buf := make([]byte, 8)
	n, errno := m.Read(fs, f, buf)
	require.Zero(t, errno)
	require.Equal(t, int32(3), n)

	n, errno = m.Read(fs, f, buf)
	assert.Zero(t, errno, "EOF is not an error at this layer")
	assert.Zero(t, n)
}

func TestSeekBounds(t *testing.T) {
	m := NewMemFS()
	fs := connect(t, m)
	create(t, m, fs, "/f", []byte("0123456789"))

	f, errno := m.OpenFile(fs, "/f", syscall.O_RDONLY, 0, 0, 0)
	require.Zero(t, errno)
	defer m.CloseFile(fs, f)

	assert.Zero(t, m.Seek(fs, f, 10))
	assert.Equal(t, syscall.EINVAL, m.Seek(fs, f, 11))
	assert.Equal(t, syscall.EINVAL, m.Seek(fs, f, -1))

	pos, errno := m.Tell(fs, f)
	require.Zero(t, errno)
	assert.Equal(t, int64(10), pos)
}

func TestListDirectoryEmptyIsAmbiguousNull(t *testing.T) {
	m := NewMemFS()
	fs := connect(t, m)
	require.Zero(t, m.CreateDirectory(fs, "/empty"))

	ref, count, errno := m.ListDirectory(fs, "/empty")
	assert.Zero(t, ref, "empty directory returns the null ref")
	assert.Zero(t, count)
	assert.Zero(t, errno, "with no recorded error")

	_, _, errno = m.ListDirectory(fs, "/missing")
	assert.Equal(t, syscall.ENOENT, errno)
}

func TestRecordLifetimeStrictness(t *testing.T) {
	m := NewMemFS()
	fs := connect(t, m)
	create(t, m, fs, "/f", nil)

	ref, errno := m.GetPathInfo(fs, "/f")
	require.Zero(t, errno)
	require.Equal(t, 1, m.LiveInfoRefs())

	m.FileInfoAt(ref, 0)
	assert.Panics(t, func() { m.FreeFileInfo(ref, 2) }, "wrong count")

	m.FreeFileInfo(ref, 1)
	assert.Zero(t, m.LiveInfoRefs())

	assert.Panics(t, func() { m.FreeFileInfo(ref, 1) }, "double free")
	assert.Panics(t, func() { m.FileInfoAt(ref, 0) }, "use after free")
}

func TestRecordsAreCopies(t *testing.T) {
	m := NewMemFS()
	fs := connect(t, m)
	create(t, m, fs, "/f", nil)

	ref, errno := m.GetPathInfo(fs, "/f")
	require.Zero(t, errno)
	rec := m.FileInfoAt(ref, 0)
	m.FreeFileInfo(ref, 1)

	// The copy stays valid after the free.
	assert.NotEmpty(t, rec.Name)
	assert.Equal(t, native.KindFile, rec.Kind)
}

func TestDeleteNonEmptyDirectory(t *testing.T) {
	m := NewMemFS()
	fs := connect(t, m)
	require.Zero(t, m.CreateDirectory(fs, "/d"))
	create(t, m, fs, "/d/child", []byte("x"))

	assert.Equal(t, syscall.ENOTEMPTY, m.Delete(fs, "/d", false))
	assert.Zero(t, m.Delete(fs, "/d", true))

	_, errno := m.GetPathInfo(fs, "/d")
	assert.Equal(t, syscall.ENOENT, errno)
}

func TestRenameRequiresExistingDestinationParent(t *testing.T) {
	m := NewMemFS()
	fs := connect(t, m)
	create(t, m, fs, "/src", []byte("x"))

	assert.Equal(t, syscall.ENOENT, m.Rename(fs, "/src", "/nodir/dst"))

	require.Zero(t, m.CreateDirectory(fs, "/dir"))
	assert.Zero(t, m.Rename(fs, "/src", "/dir/dst"))

	_, errno := m.GetPathInfo(fs, "/src")
	assert.Equal(t, syscall.ENOENT, errno)
	_, errno = m.GetPathInfo(fs, "/dir/dst")
	assert.Zero(t, errno)
}

func TestNamespaceSharedAcrossConnections(t *testing.T) {
	m := NewMemFS()
	fs1 := connect(t, m)
	fs2, errno := m.Connect(native.ConnectParams{NameNode: "test", Port: 9000, User: "someone-else"})
	require.Zero(t, errno)
	require.NotEqual(t, fs1, fs2, "each connect hands out a fresh handle")

	create(t, m, fs1, "/shared", []byte("x"))
	_, errno = m.GetPathInfo(fs2, "/shared")
	assert.Zero(t, errno, "both handles see the same namespace")

	// A different endpoint is a different namespace.
	fs3, errno := m.Connect(native.ConnectParams{NameNode: "other", Port: 9000})
	require.Zero(t, errno)
	_, errno = m.GetPathInfo(fs3, "/shared")
	assert.Equal(t, syscall.ENOENT, errno)
}

func TestStatusRecordNameQualification(t *testing.T) {
	m := NewMemFS()
	fs := connect(t, m)
	create(t, m, fs, "/qualified", nil)

	ref, errno := m.GetPathInfo(fs, "/qualified")
	require.Zero(t, errno)
	rec := m.FileInfoAt(ref, 0)
	m.FreeFileInfo(ref, 1)
	assert.Equal(t, "hdfs://test:9000/qualified", string(rec.Name))

	// The default endpoint reports bare absolute paths.
	dfs, errno := m.Connect(native.ConnectParams{NameNode: "default"})
	require.Zero(t, errno)
	f, errno := m.OpenFile(dfs, "/plain", syscall.O_WRONLY|syscall.O_CREAT, 0, 0, 0)
	require.Zero(t, errno)
	require.Zero(t, m.CloseFile(dfs, f))

	ref, errno = m.GetPathInfo(dfs, "/plain")
	require.Zero(t, errno)
	rec = m.FileInfoAt(ref, 0)
	m.FreeFileInfo(ref, 1)
	assert.Equal(t, "/plain", string(rec.Name))
}
