package hdfs

import (
	"strconv"
	"strings"
	"syscall"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/hdfs/config"
	"github.com/brettbedarf/hdfs/internal/metrics"
	"github.com/brettbedarf/hdfs/internal/native"
	"github.com/brettbedarf/hdfs/internal/pool"
	"github.com/brettbedarf/hdfs/internal/util"
)

// fsCacheKey identifies a native connection handle by everything that went
// into establishing it.
type fsCacheKey struct {
	api    native.API
	host   string
	port   uint16
	user   string
	ticket string
}

// fsCache holds connection handles already obtained from the native layer,
// keyed by target. The native library keeps its own handle cache and may
// hand the same underlying handle to several logical clients, which is why
// Client never disconnects: releasing a handle under one owner would
// invalidate every other client still using it. Handles live for the rest of
// the process.
var fsCache = xsync.NewMap[fsCacheKey, native.FS]()

// Client is one authenticated session to a remote filesystem and the factory
// for all path operations. It is safe to share across goroutines without
// external synchronization; the native layer serializes access as needed.
type Client struct {
	api    native.API
	fs     native.FS
	cfg    *config.Config
	pool   *pool.Pool
	logger util.Logger
}

// ClientBuilder accumulates optional connection settings before connecting.
type ClientBuilder struct {
	target string
	user   string
	ticket string
	cfg    *config.Config
	api    native.API
}

// NewClientBuilder starts a builder for target. Target may be "default" (the
// native layer resolves the endpoint from its own configuration discovery),
// a bare host, a "host:port" pair, or an "hdfs://host:port" URI.
func NewClientBuilder(target string) *ClientBuilder {
	return &ClientBuilder{target: target}
}

// WithUser sets the user the session authenticates as.
func (b *ClientBuilder) WithUser(user string) *ClientBuilder {
	b.user = user
	return b
}

// WithTicketCachePath sets the Kerberos ticket cache the native layer should
// read credentials from. Pass-through; this layer does no authentication
// itself.
func (b *ClientBuilder) WithTicketCachePath(path string) *ClientBuilder {
	b.ticket = path
	return b
}

// WithConfig sets the runtime configuration. Defaults are used when omitted.
func (b *ClientBuilder) WithConfig(cfg *config.Config) *ClientBuilder {
	b.cfg = cfg
	return b
}

// withNativeAPI substitutes the native binding. Used by tests to run against
// the in-memory implementation.
func (b *ClientBuilder) withNativeAPI(api native.API) *ClientBuilder {
	b.api = api
	return b
}

// Connect resolves the target and establishes (or reuses) the native
// connection handle.
func (b *ClientBuilder) Connect() (*Client, error) {
	api := b.api
	if api == nil {
		def, err := native.Default()
		if err != nil {
			return nil, err
		}
		api = def
	}

	cfg := b.cfg
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("client")

	host, port, err := splitTarget(b.target)
	if err != nil {
		return nil, err
	}

	key := fsCacheKey{api: api, host: host, port: port, user: b.user, ticket: b.ticket}
	fs, ok := fsCache.Load(key)
	if !ok {
		logger.Debug().Str("host", host).Uint16("port", port).Str("user", b.user).Msg("connecting")
		var errno syscall.Errno
		fs, errno = api.Connect(native.ConnectParams{
			NameNode:        host,
			Port:            port,
			User:            b.user,
			TicketCachePath: b.ticket,
		})
		if fs == 0 {
			return nil, opError("connect", b.target, errno)
		}
		if cached, loaded := fsCache.LoadOrStore(key, fs); loaded {
			// Lost a connect race. The spare handle stays with the native
			// layer's own cache; it is never disconnected by design.
			logger.Debug().Str("host", host).Msg("concurrent connect; reusing cached handle")
			fs = cached
		}
	}

	logger.Debug().Str("host", host).Uint16("port", port).Msg("connected")
	return &Client{
		api:    metrics.Instrument(api),
		fs:     fs,
		cfg:    cfg,
		pool:   pool.New(cfg.PoolSize),
		logger: logger,
	}, nil
}

// splitTarget parses a connect target into the pieces the native layer
// wants. "default" is passed through untouched so the native configuration
// discovery can resolve it.
func splitTarget(target string) (string, uint16, error) {
	host := strings.TrimPrefix(target, "hdfs://")
	if host == "" {
		return "", 0, opError("connect", target, syscall.EINVAL)
	}
	if host == "default" {
		return host, 0, nil
	}
	h, p, ok := strings.Cut(host, ":")
	if !ok {
		return host, 0, nil
	}
	port, err := strconv.ParseUint(p, 10, 16)
	if err != nil || h == "" {
		return "", 0, opError("connect", target, syscall.EINVAL)
	}
	return h, uint16(port), nil
}

// OpenFile returns a fresh set of open options bound to this client. Cheap;
// no native call is made until Open.
func (c *Client) OpenFile() *OpenOptions {
	return newOpenOptions(c)
}

// Stat returns the metadata of path. A missing path reports an error
// matching fs.ErrNotExist.
func (c *Client) Stat(path string) (Metadata, error) {
	ref, errno := c.api.GetPathInfo(c.fs, path)
	if ref == 0 {
		return Metadata{}, opError("stat", path, errno)
	}
	// Freed exactly once, decoded or not.
	defer c.api.FreeFileInfo(ref, 1)

	m, err := newMetadata(c.api.FileInfoAt(ref, 0))
	if err != nil {
		return Metadata{}, decodeError("stat", path, err)
	}
	return m, nil
}

// ReadDir lists the entries of the directory at path. An empty directory is
// a valid zero-length listing, not an error.
func (c *Client) ReadDir(path string) (*Readdir, error) {
	ref, count, errno := c.api.ListDirectory(c.fs, path)
	if ref == 0 {
		if errno == 0 {
			// A null listing with no recorded error means "empty", see the
			// native contract.
			return newReaddir(nil), nil
		}
		return nil, opError("readdir", path, errno)
	}
	defer c.api.FreeFileInfo(ref, count)

	entries := make([]Metadata, 0, count)
	for i := 0; i < count; i++ {
		m, err := newMetadata(c.api.FileInfoAt(ref, i))
		if err != nil {
			return nil, decodeError("readdir", path, err)
		}
		entries = append(entries, m)
	}
	return newReaddir(entries), nil
}

// MkdirAll creates the directory at path along with any missing ancestors.
// Succeeds if the directory already exists.
func (c *Client) MkdirAll(path string) error {
	if errno := c.api.CreateDirectory(c.fs, path); errno != 0 {
		return opError("mkdir", path, errno)
	}
	c.logger.Debug().Str("path", path).Msg("created directory")
	return nil
}

// Rename moves oldPath to newPath. The destination's parent directory must
// already exist; the native layer does not create intermediate directories.
func (c *Client) Rename(oldPath, newPath string) error {
	if errno := c.api.Rename(c.fs, oldPath, newPath); errno != 0 {
		return opError("rename", oldPath, errno)
	}
	c.logger.Debug().Str("from", oldPath).Str("to", newPath).Msg("renamed")
	return nil
}

// RemoveFile removes the file at path.
func (c *Client) RemoveFile(path string) error {
	return c.remove(path, false)
}

// RemoveDir removes the directory at path. Removing a non-empty directory
// fails; use RemoveAll for recursive removal.
func (c *Client) RemoveDir(path string) error {
	return c.remove(path, false)
}

// RemoveAll removes path and, if it is a directory, everything below it.
func (c *Client) RemoveAll(path string) error {
	return c.remove(path, true)
}

func (c *Client) remove(path string, recursive bool) error {
	if errno := c.api.Delete(c.fs, path, recursive); errno != 0 {
		return opError("remove", path, errno)
	}
	c.logger.Debug().Str("path", path).Bool("recursive", recursive).Msg("removed")
	return nil
}
