package hdfs

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brettbedarf/hdfs/internal/native"
)

// Metadata is an immutable snapshot of a path's file status. It is decoded
// eagerly from a native status record; the record's native allocation is
// freed by the caller before Metadata is returned, so Metadata owns no
// native resource.
type Metadata struct {
	path        string
	size        int64
	kind        native.Kind
	permissions int16
	replication int16
	blockSize   int64
	owner       string
	group       string
	lastMod     int64
	lastAccess  int64
}

// newMetadata validates and decodes a raw status record. The caller remains
// responsible for freeing the native record whether or not decoding
// succeeds.
func newMetadata(raw native.RawFileInfo) (Metadata, error) {
	p, err := decodeText("path", raw.Name)
	if err != nil {
		return Metadata{}, err
	}
	owner, err := decodeText("owner", raw.Owner)
	if err != nil {
		return Metadata{}, err
	}
	group, err := decodeText("group", raw.Group)
	if err != nil {
		return Metadata{}, err
	}
	normalized, err := normalizePath(p)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		path:        normalized,
		size:        raw.Size,
		kind:        raw.Kind,
		permissions: raw.Permissions,
		replication: raw.Replication,
		blockSize:   raw.BlockSize,
		owner:       owner,
		group:       group,
		lastMod:     raw.LastMod,
		lastAccess:  raw.LastAccess,
	}, nil
}

func decodeText(field string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%s %q: %w", field, b, ErrInvalidText)
	}
	return string(b), nil
}

// normalizePath strips the scheme/authority prefix a native record may carry
// so all three native spellings collapse to the same canonical form:
//
//	/path/to/file                       -> /path/to/file
//	file:/path/to/file                  -> /path/to/file
//	hdfs://127.0.0.1:9000/path/to/file  -> /path/to/file
func normalizePath(p string) (string, error) {
	idx := strings.IndexByte(p, ':')
	if idx < 0 {
		return p, nil
	}
	if p[:idx] == "file" {
		return p[idx+1:], nil
	}
	rest := p[idx+1:]
	authority, ok := strings.CutPrefix(rest, "//")
	if !ok {
		return "", fmt.Errorf("unrecognized native path form %q", p)
	}
	slash := strings.IndexByte(authority, '/')
	if slash < 0 {
		return "", fmt.Errorf("native path %q has no absolute path component", p)
	}
	return authority[slash:], nil
}

// Path returns the absolute path with any scheme/authority prefix removed.
func (m Metadata) Path() string {
	return m.path
}

// Len returns the size of the file in bytes.
func (m Metadata) Len() uint64 {
	return uint64(m.size)
}

// IsDir reports whether the path is a directory.
func (m Metadata) IsDir() bool {
	return m.kind == native.KindDirectory
}

// IsFile reports whether the path is a regular file.
func (m Metadata) IsFile() bool {
	return m.kind == native.KindFile
}

// Permissions returns the permission bits associated with the path.
func (m Metadata) Permissions() int16 {
	return m.permissions
}

// Replication returns the replica count. Zero for directories.
func (m Metadata) Replication() int16 {
	return m.replication
}

// BlockSize returns the block size of the file in bytes.
func (m Metadata) BlockSize() int64 {
	return m.blockSize
}

// Owner returns the owner of the path.
func (m Metadata) Owner() string {
	return m.owner
}

// Group returns the group associated with the path.
func (m Metadata) Group() string {
	return m.group
}

// Modified returns the last modification time.
func (m Metadata) Modified() time.Time {
	return time.Unix(m.lastMod, 0)
}

// Accessed returns the last access time.
func (m Metadata) Accessed() time.Time {
	return time.Unix(m.lastAccess, 0)
}
