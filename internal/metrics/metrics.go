// Package metrics instruments the native client boundary with Prometheus
// counters. Every native call the core issues flows through the decorator
// returned by [Instrument], so operation counts, error counts by errno, and
// byte totals are observed in one place instead of being sprinkled through
// the client code.
package metrics

import (
	"strconv"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brettbedarf/hdfs/internal/native"
)

const namespace = "hdfs"

var (
	registerOnce sync.Once

	nativeCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "native",
		Name:      "calls_total",
		Help:      "Native client calls by operation.",
	}, []string{"op"})

	nativeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "native",
		Name:      "errors_total",
		Help:      "Failed native client calls by operation and errno.",
	}, []string{"op", "errno"})

	bytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "read_bytes_total",
		Help:      "Bytes read from the filesystem.",
	})

	bytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "written_bytes_total",
		Help:      "Bytes written to the filesystem.",
	})

	openFiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "open_files",
		Help:      "Native file handles currently open.",
	})
)

// Register registers the collectors with reg. Safe to call more than once;
// only the first call registers. Pass prometheus.DefaultRegisterer to expose
// the metrics on the default registry.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(nativeCalls, nativeErrors, bytesRead, bytesWritten, openFiles)
	})
}

func observe(op string, errno syscall.Errno) {
	nativeCalls.WithLabelValues(op).Inc()
	if errno != 0 {
		nativeErrors.WithLabelValues(op, strconv.Itoa(int(errno))).Inc()
	}
}

// instrumented decorates a native.API, recording every call.
type instrumented struct {
	api native.API
}

// Instrument wraps api so all calls through it are counted. The wrapped API
// is what the client core holds; direct holders of the inner API bypass
// instrumentation.
func Instrument(api native.API) native.API {
	return &instrumented{api: api}
}

func (m *instrumented) Connect(p native.ConnectParams) (native.FS, syscall.Errno) {
	fs, errno := m.api.Connect(p)
	observe("connect", errno)
	return fs, errno
}

func (m *instrumented) OpenFile(fs native.FS, path string, flags int, bufferSize int32, replication int16, blockSize int32) (native.File, syscall.Errno) {
	f, errno := m.api.OpenFile(fs, path, flags, bufferSize, replication, blockSize)
	observe("open", errno)
	if errno == 0 {
		openFiles.Inc()
	}
	return f, errno
}

func (m *instrumented) CloseFile(fs native.FS, f native.File) syscall.Errno {
	errno := m.api.CloseFile(fs, f)
	observe("close", errno)
	openFiles.Dec()
	return errno
}

func (m *instrumented) Read(fs native.FS, f native.File, p []byte) (int32, syscall.Errno) {
	n, errno := m.api.Read(fs, f, p)
	observe("read", errno)
	if n > 0 {
		bytesRead.Add(float64(n))
	}
	return n, errno
}

func (m *instrumented) Write(fs native.FS, f native.File, p []byte) (int32, syscall.Errno) {
	n, errno := m.api.Write(fs, f, p)
	observe("write", errno)
	if n > 0 {
		bytesWritten.Add(float64(n))
	}
	return n, errno
}

func (m *instrumented) Seek(fs native.FS, f native.File, offset int64) syscall.Errno {
	errno := m.api.Seek(fs, f, offset)
	observe("seek", errno)
	return errno
}

func (m *instrumented) Tell(fs native.FS, f native.File) (int64, syscall.Errno) {
	pos, errno := m.api.Tell(fs, f)
	observe("tell", errno)
	return pos, errno
}

func (m *instrumented) Flush(fs native.FS, f native.File) syscall.Errno {
	errno := m.api.Flush(fs, f)
	observe("flush", errno)
	return errno
}

func (m *instrumented) GetPathInfo(fs native.FS, path string) (native.InfoRef, syscall.Errno) {
	ref, errno := m.api.GetPathInfo(fs, path)
	observe("stat", errno)
	return ref, errno
}

func (m *instrumented) ListDirectory(fs native.FS, path string) (native.InfoRef, int, syscall.Errno) {
	ref, count, errno := m.api.ListDirectory(fs, path)
	observe("readdir", errno)
	return ref, count, errno
}

func (m *instrumented) FileInfoAt(ref native.InfoRef, i int) native.RawFileInfo {
	return m.api.FileInfoAt(ref, i)
}

func (m *instrumented) FreeFileInfo(ref native.InfoRef, count int) {
	m.api.FreeFileInfo(ref, count)
}

func (m *instrumented) Delete(fs native.FS, path string, recursive bool) syscall.Errno {
	errno := m.api.Delete(fs, path, recursive)
	observe("delete", errno)
	return errno
}

func (m *instrumented) Rename(fs native.FS, oldPath, newPath string) syscall.Errno {
	errno := m.api.Rename(fs, oldPath, newPath)
	observe("rename", errno)
	return errno
}

func (m *instrumented) CreateDirectory(fs native.FS, path string) syscall.Errno {
	errno := m.api.CreateDirectory(fs, path)
	observe("mkdir", errno)
	return errno
}

var _ native.API = (*instrumented)(nil)
