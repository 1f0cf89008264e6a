//go:build !hdfscgo

package native

import "errors"

// Default reports that no native binding is compiled in. Build with the
// hdfscgo tag (and libhdfs available at link time) to get the real client.
func Default() (API, error) {
	return nil, errors.New("hdfs: built without the libhdfs binding (rebuild with -tags hdfscgo)")
}
