package mocks

import (
	"syscall"

	"github.com/stretchr/testify/mock"

	"github.com/brettbedarf/hdfs/internal/native"
)

// MockNativeAPI implements native.API for lifetime-protocol tests across
// packages: call-count assertions prove handles and record arrays are
// released exactly once, including on error paths.
type MockNativeAPI struct {
	mock.Mock
}

func (m *MockNativeAPI) Connect(p native.ConnectParams) (native.FS, syscall.Errno) {
	args := m.Called(p)
	return args.Get(0).(native.FS), args.Get(1).(syscall.Errno)
}

func (m *MockNativeAPI) OpenFile(fs native.FS, path string, flags int, bufferSize int32, replication int16, blockSize int32) (native.File, syscall.Errno) {
	args := m.Called(fs, path, flags, bufferSize, replication, blockSize)
	return args.Get(0).(native.File), args.Get(1).(syscall.Errno)
}

func (m *MockNativeAPI) CloseFile(fs native.FS, f native.File) syscall.Errno {
	args := m.Called(fs, f)
	return args.Get(0).(syscall.Errno)
}

func (m *MockNativeAPI) Read(fs native.FS, f native.File, p []byte) (int32, syscall.Errno) {
	args := m.Called(fs, f, p)

	// Handle function return types (for tests that fill the buffer)
	if fn, ok := args.Get(0).(func([]byte) int32); ok {
		return fn(p), args.Get(1).(syscall.Errno)
	}
	return args.Get(0).(int32), args.Get(1).(syscall.Errno)
}

func (m *MockNativeAPI) Write(fs native.FS, f native.File, p []byte) (int32, syscall.Errno) {
	args := m.Called(fs, f, p)
	return args.Get(0).(int32), args.Get(1).(syscall.Errno)
}

func (m *MockNativeAPI) Seek(fs native.FS, f native.File, offset int64) syscall.Errno {
	args := m.Called(fs, f, offset)
	return args.Get(0).(syscall.Errno)
}

func (m *MockNativeAPI) Tell(fs native.FS, f native.File) (int64, syscall.Errno) {
	args := m.Called(fs, f)
	return args.Get(0).(int64), args.Get(1).(syscall.Errno)
}

func (m *MockNativeAPI) Flush(fs native.FS, f native.File) syscall.Errno {
	args := m.Called(fs, f)
	return args.Get(0).(syscall.Errno)
}

func (m *MockNativeAPI) GetPathInfo(fs native.FS, path string) (native.InfoRef, syscall.Errno) {
	args := m.Called(fs, path)
	return args.Get(0).(native.InfoRef), args.Get(1).(syscall.Errno)
}

func (m *MockNativeAPI) ListDirectory(fs native.FS, path string) (native.InfoRef, int, syscall.Errno) {
	args := m.Called(fs, path)
	return args.Get(0).(native.InfoRef), args.Int(1), args.Get(2).(syscall.Errno)
}

func (m *MockNativeAPI) FileInfoAt(ref native.InfoRef, i int) native.RawFileInfo {
	args := m.Called(ref, i)
	return args.Get(0).(native.RawFileInfo)
}

func (m *MockNativeAPI) FreeFileInfo(ref native.InfoRef, count int) {
	m.Called(ref, count)
}

func (m *MockNativeAPI) Delete(fs native.FS, path string, recursive bool) syscall.Errno {
	args := m.Called(fs, path, recursive)
	return args.Get(0).(syscall.Errno)
}

func (m *MockNativeAPI) Rename(fs native.FS, oldPath, newPath string) syscall.Errno {
	args := m.Called(fs, oldPath, newPath)
	return args.Get(0).(syscall.Errno)
}

func (m *MockNativeAPI) CreateDirectory(fs native.FS, path string) syscall.Errno {
	args := m.Called(fs, path)
	return args.Get(0).(syscall.Errno)
}

var _ native.API = (*MockNativeAPI)(nil)
