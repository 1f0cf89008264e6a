// Package hdfs is a safe client for the Hadoop distributed filesystem built
// on the native libhdfs library. It wraps the native layer's raw handles and
// process-global error slot behind ordinary Go values: connections and open
// files own their handles, release them exactly once, and surface every
// native failure as an *fs.PathError wrapping a syscall.Errno.
//
// Typical use:
//
//	client, err := hdfs.Connect("default")
//	if err != nil {
//		// ...
//	}
//
//	f, err := client.OpenFile().Create(true).Write(true).Open("/tmp/hello.txt")
//	if err != nil {
//		// ...
//	}
//	if _, err := f.Write([]byte("Hello, World!")); err != nil {
//		// ...
//	}
//	if err := f.Flush(); err != nil {
//		// ...
//	}
//	f.Close()
//
// The native binding is compiled in with the hdfscgo build tag and needs
// libhdfs plus a JVM at runtime. Without the tag, Connect fails with a
// descriptive error; tests run against an in-memory native layer instead.
package hdfs

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brettbedarf/hdfs/internal/metrics"
)

// RegisterMetrics registers the client's Prometheus collectors (native call
// and error counts, byte totals, open file handles) with reg. Safe to call
// more than once; only the first call registers.
func RegisterMetrics(reg prometheus.Registerer) {
	metrics.Register(reg)
}

// Connect connects to the cluster named by target using the builder
// defaults. Target is either "default", which defers namenode selection to
// the native layer's own configuration, or "host:port", with an optional
// hdfs:// prefix.
//
// Connections are cached per endpoint and user: connecting twice to the
// same target returns clients sharing one native handle.
func Connect(target string) (*Client, error) {
	return NewClientBuilder(target).Connect()
}
