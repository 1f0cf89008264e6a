package hdfs

import (
	"math"
	"syscall"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/hdfs/internal/nativetest"
)

func TestOpenOptionsFlags(t *testing.T) {
	tests := []struct {
		name    string
		opts    func(*OpenOptions) *OpenOptions
		want    int
		invalid bool
	}{
		{
			name: "read only",
			opts: func(o *OpenOptions) *OpenOptions { return o.Read(true) },
			want: syscall.O_RDONLY,
		},
		{
			name: "write only",
			opts: func(o *OpenOptions) *OpenOptions { return o.Write(true) },
			want: syscall.O_WRONLY,
		},
		{
			name: "read write",
			opts: func(o *OpenOptions) *OpenOptions { return o.Read(true).Write(true) },
			want: syscall.O_RDWR,
		},
		{
			name: "append implies write",
			opts: func(o *OpenOptions) *OpenOptions { return o.Append(true) },
			want: syscall.O_WRONLY | syscall.O_APPEND,
		},
		{
			name: "append with explicit write",
			opts: func(o *OpenOptions) *OpenOptions { return o.Write(true).Append(true) },
			want: syscall.O_WRONLY | syscall.O_APPEND,
		},
		{
			name: "read append",
			opts: func(o *OpenOptions) *OpenOptions { return o.Read(true).Append(true) },
			want: syscall.O_RDWR | syscall.O_APPEND,
		},
		{
			name: "create requires write",
			opts: func(o *OpenOptions) *OpenOptions { return o.Write(true).Create(true) },
			want: syscall.O_WRONLY | syscall.O_CREAT,
		},
		{
			name: "create truncate",
			opts: func(o *OpenOptions) *OpenOptions { return o.Write(true).Create(true).Truncate(true) },
			want: syscall.O_WRONLY | syscall.O_CREAT | syscall.O_TRUNC,
		},
		{
			name: "truncate alone",
			opts: func(o *OpenOptions) *OpenOptions { return o.Write(true).Truncate(true) },
			want: syscall.O_WRONLY | syscall.O_TRUNC,
		},
		{
			name: "create new",
			opts: func(o *OpenOptions) *OpenOptions { return o.Write(true).CreateNew(true) },
			want: syscall.O_WRONLY | syscall.O_CREAT | syscall.O_EXCL,
		},
		{
			// CreateNew wins over Create and Truncate; no O_TRUNC sneaks in.
			name: "create new overrides create and truncate",
			opts: func(o *OpenOptions) *OpenOptions {
				return o.Write(true).Create(true).Truncate(true).CreateNew(true)
			},
			want: syscall.O_WRONLY | syscall.O_CREAT | syscall.O_EXCL,
		},
		{
			name:    "no access mode",
			opts:    func(o *OpenOptions) *OpenOptions { return o },
			invalid: true,
		},
		{
			name:    "creation flags without access mode",
			opts:    func(o *OpenOptions) *OpenOptions { return o.Create(true) },
			invalid: true,
		},
		{
			name:    "truncate without write",
			opts:    func(o *OpenOptions) *OpenOptions { return o.Read(true).Truncate(true) },
			invalid: true,
		},
		{
			name:    "create without write",
			opts:    func(o *OpenOptions) *OpenOptions { return o.Read(true).Create(true) },
			invalid: true,
		},
		{
			name:    "append with truncate",
			opts:    func(o *OpenOptions) *OpenOptions { return o.Append(true).Truncate(true) },
			invalid: true,
		},
		{
			name: "append truncate create new is allowed",
			opts: func(o *OpenOptions) *OpenOptions {
				return o.Append(true).Truncate(true).CreateNew(true)
			},
			want: syscall.O_WRONLY | syscall.O_APPEND | syscall.O_CREAT | syscall.O_EXCL,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, errno := tt.opts(newOpenOptions(nil)).flags()
			if tt.invalid {
				assert.Equal(t, syscall.EINVAL, errno)
				return
			}
			require.Zero(t, errno)
			assert.Equal(t, syscall.O_CLOEXEC|tt.want, flags)
		})
	}
}

// TestOpenInvalidOptionsNoNativeCall pins the ordering: validation failures
// happen before the native layer is touched, so no handle can leak.
func TestOpenInvalidOptionsNoNativeCall(t *testing.T) {
	mem := nativetest.NewMemFS()
	c := newTestClient(t, mem)
	path := "/never-" + uuid.NewString()

	_, err := c.OpenFile().Open(path)
	assert.ErrorIs(t, err, syscall.EINVAL)

	_, err = c.OpenFile().Read(true).Truncate(true).Open(path)
	assert.ErrorIs(t, err, syscall.EINVAL)

	assert.Zero(t, mem.OpenHandles())
	_, err = c.Stat(path)
	assert.Error(t, err, "validation failed before anything was created")
}

func TestOpenOptionsSizeOverflow(t *testing.T) {
	mem := nativetest.NewMemFS()
	c := newTestClient(t, mem)
	path := "/sized-" + uuid.NewString()

	_, err := c.OpenFile().Write(true).Create(true).
		Replication(math.MaxInt16 + 1).
		Open(path)
	assert.ErrorIs(t, err, syscall.EINVAL)

	_, err = c.OpenFile().Write(true).Create(true).
		BlockSize(math.MaxInt32 + 1).
		Open(path)
	assert.ErrorIs(t, err, syscall.EINVAL)

	_, err = c.OpenFile().Write(true).Create(true).
		BufferSize(-1).
		Open(path)
	assert.ErrorIs(t, err, syscall.EINVAL)

	assert.Zero(t, mem.OpenHandles())

	// In-range overrides pass through to the native open.
	f, err := c.OpenFile().Write(true).Create(true).
		Replication(2).
		BlockSize(64 * 1024 * 1024).
		Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	m, err := c.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int16(2), m.Replication())
	assert.Equal(t, int64(64*1024*1024), m.BlockSize())
}

func TestOpenAppendWritesAtEnd(t *testing.T) {
	mem := nativetest.NewMemFS()
	c := newTestClient(t, mem)
	path := "/append-" + uuid.NewString()
	writeFile(t, c, path, []byte("head,"))

	f, err := c.OpenFile().Append(true).Open(path)
	require.NoError(t, err)
	_, err = f.Write([]byte("tail"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := c.OpenFile().Read(true).Open(path)
	require.NoError(t, err)
	defer r.Close()
	got := make([]byte, 16)
	n, err := r.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "head,tail", string(got[:n]))
}

func TestOpenTruncateDiscardsContent(t *testing.T) {
	mem := nativetest.NewMemFS()
	c := newTestClient(t, mem)
	path := "/trunc-" + uuid.NewString()
	writeFile(t, c, path, []byte("previous content"))

	f, err := c.OpenFile().Write(true).Truncate(true).Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	m, err := c.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}

func TestOpenMissingWithoutCreate(t *testing.T) {
	mem := nativetest.NewMemFS()
	c := newTestClient(t, mem)

	_, err := c.OpenFile().Read(true).Open("/absent-" + uuid.NewString())
	assert.ErrorIs(t, err, syscall.ENOENT)
	assert.Zero(t, mem.OpenHandles())
}
