// Package nativetest provides an in-memory implementation of the native
// client contract so the lifetime protocol (handle ownership, record
// free-exactly-once, the NULL-vs-empty listing ambiguity) can be exercised
// in unit tests without a live cluster.
//
// The implementation is deliberately strict about resource misuse: touching
// or freeing a record array twice panics, so a test that mismanages a
// lifetime fails loudly instead of silently passing.
package nativetest

import (
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/hdfs/internal/native"
)

const (
	defaultBlockSize   = 128 * 1024 * 1024
	defaultReplication = 3
	defaultGroup       = "supergroup"
)

// MemFS implements native.API backed by in-memory namespaces, one per
// namenode endpoint. Connecting twice to the same endpoint yields distinct
// FS handles over the same namespace, matching how the real library hands
// out cached connections keyed by target.
type MemFS struct {
	mu         sync.Mutex
	namespaces map[string]*namespace
	conns      map[native.FS]*conn
	files      map[native.File]*openFile

	infos    *xsync.Map[native.InfoRef, *infoAlloc]
	nextFS   atomic.Uintptr
	nextFile atomic.Uintptr
	nextInfo atomic.Uintptr
	liveRefs atomic.Int64
}

type namespace struct {
	host string
	port uint16
	root *memNode
}

type conn struct {
	ns   *namespace
	user string
}

type memNode struct {
	name        string
	dir         bool
	data        []byte
	children    map[string]*memNode
	perm        int16
	owner       string
	group       string
	replication int16
	blockSize   int64
	mtime       int64
	atime       int64
}

type openFile struct {
	c        *conn
	node     *memNode
	pos      int64
	readable bool
	writable bool
	appendTo bool
}

type infoAlloc struct {
	recs  []native.RawFileInfo
	freed bool
}

// NewMemFS returns an empty in-memory native layer.
func NewMemFS() *MemFS {
	return &MemFS{
		namespaces: make(map[string]*namespace),
		conns:      make(map[native.FS]*conn),
		files:      make(map[native.File]*openFile),
		infos:      xsync.NewMap[native.InfoRef, *infoAlloc](),
	}
}

// LiveInfoRefs reports record arrays handed out but not yet freed. Tests use
// it to assert the free-exactly-once invariant.
func (m *MemFS) LiveInfoRefs() int {
	return int(m.liveRefs.Load())
}

// OpenHandles reports file handles opened but not yet closed.
func (m *MemFS) OpenHandles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func newDirNode(name, owner string) *memNode {
	now := time.Now().Unix()
	return &memNode{
		name:     name,
		dir:      true,
		children: make(map[string]*memNode),
		perm:     0o755,
		owner:    owner,
		group:    defaultGroup,
		mtime:    now,
		atime:    now,
	}
}

func newFileNode(name, owner string, replication int16, blockSize int64) *memNode {
	now := time.Now().Unix()
	if replication == 0 {
		replication = defaultReplication
	}
	if blockSize == 0 {
		blockSize = defaultBlockSize
	}
	return &memNode{
		name:        name,
		perm:        0o644,
		owner:       owner,
		group:       defaultGroup,
		replication: replication,
		blockSize:   blockSize,
		mtime:       now,
		atime:       now,
	}
}

func splitPath(p string) []string {
	p = path.Clean("/" + p)
	if p == "/" {
		return nil
	}
	return strings.Split(p[1:], "/")
}

// lookup walks the namespace tree. Returns the node and its parent, or nil
// if any component is missing.
func (ns *namespace) lookup(p string) (node, parent *memNode) {
	cur := ns.root
	var par *memNode
	for _, name := range splitPath(p) {
		if !cur.dir {
			return nil, nil
		}
		child, ok := cur.children[name]
		if !ok {
			return nil, cur
		}
		par, cur = cur, child
	}
	return cur, par
}

// mkdirAll walks the path creating missing directories, the same
// recursive-create semantics CreateDirectory exposes.
func (ns *namespace) mkdirAll(p, owner string) (*memNode, syscall.Errno) {
	cur := ns.root
	for _, name := range splitPath(p) {
		if !cur.dir {
			return nil, syscall.ENOTDIR
		}
		child, ok := cur.children[name]
		if !ok {
			child = newDirNode(name, owner)
			cur.children[name] = child
		}
		cur = child
	}
	if !cur.dir {
		return nil, syscall.ENOTDIR
	}
	return cur, 0
}

// fullName renders the path the way the native layer reports it in status
// records: absolute for the default endpoint, scheme-qualified otherwise.
func (ns *namespace) fullName(p string) string {
	p = path.Clean("/" + p)
	if ns.host == "default" {
		return p
	}
	return "hdfs://" + ns.host + ":" + strconv.Itoa(int(ns.port)) + p
}

func (m *MemFS) Connect(p native.ConnectParams) (native.FS, syscall.Errno) {
	if p.NameNode == "" {
		return 0, syscall.EINVAL
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := p.NameNode + ":" + strconv.Itoa(int(p.Port))
	ns, ok := m.namespaces[key]
	if !ok {
		ns = &namespace{host: p.NameNode, port: p.Port, root: newDirNode("", p.User)}
		m.namespaces[key] = ns
	}

	user := p.User
	if user == "" {
		user = "hdfs"
	}
	fs := native.FS(m.nextFS.Add(1))
	m.conns[fs] = &conn{ns: ns, user: user}
	return fs, 0
}

func (m *MemFS) conn(fs native.FS) (*conn, syscall.Errno) {
	c, ok := m.conns[fs]
	if !ok {
		return nil, syscall.EBADF
	}
	return c, 0
}

func (m *MemFS) OpenFile(fs native.FS, p string, flags int, bufferSize int32, replication int16, blockSize int32) (native.File, syscall.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, errno := m.conn(fs)
	if errno != 0 {
		return 0, errno
	}
	if bufferSize < 0 || replication < 0 || blockSize < 0 {
		return 0, syscall.EINVAL
	}

	acc := flags & syscall.O_ACCMODE
	readable := acc == syscall.O_RDONLY || acc == syscall.O_RDWR
	writable := acc == syscall.O_WRONLY || acc == syscall.O_RDWR || flags&syscall.O_APPEND != 0

	node, _ := c.ns.lookup(p)
	switch {
	case node != nil && node.dir:
		return 0, syscall.EISDIR
	case node != nil && flags&(syscall.O_CREAT|syscall.O_EXCL) == syscall.O_CREAT|syscall.O_EXCL:
		return 0, syscall.EEXIST
	case node == nil && flags&syscall.O_CREAT == 0:
		return 0, syscall.ENOENT
	case node == nil:
		dir, name := path.Split(path.Clean("/" + p))
		parent, perrno := c.ns.mkdirAll(dir, c.user)
		if perrno != 0 {
			return 0, perrno
		}
		node = newFileNode(name, c.user, replication, int64(blockSize))
		parent.children[name] = node
	}

	if flags&syscall.O_TRUNC != 0 && writable {
		node.data = nil
	}

	of := &openFile{c: c, node: node, readable: readable, writable: writable, appendTo: flags&syscall.O_APPEND != 0}
	if of.appendTo {
		of.pos = int64(len(node.data))
	}
	f := native.File(m.nextFile.Add(1))
	m.files[f] = of
	return f, 0
}

func (m *MemFS) file(f native.File) (*openFile, syscall.Errno) {
	of, ok := m.files[f]
	if !ok {
		return nil, syscall.EBADF
	}
	return of, 0
}

func (m *MemFS) CloseFile(fs native.FS, f native.File) syscall.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[f]; !ok {
		return syscall.EBADF
	}
	delete(m.files, f)
	return 0
}

func (m *MemFS) Read(fs native.FS, f native.File, p []byte) (int32, syscall.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	of, errno := m.file(f)
	if errno != 0 {
		return -1, errno
	}
	if !of.readable {
		return -1, syscall.EBADF
	}
	if of.pos >= int64(len(of.node.data)) {
		return 0, 0 // EOF is a zero count, not an error
	}
	n := copy(p, of.node.data[of.pos:])
	of.pos += int64(n)
	of.node.atime = time.Now().Unix()
	return int32(n), 0
}

func (m *MemFS) Write(fs native.FS, f native.File, p []byte) (int32, syscall.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	of, errno := m.file(f)
	if errno != 0 {
		return -1, errno
	}
	if !of.writable {
		return -1, syscall.EBADF
	}
	if of.appendTo {
		of.pos = int64(len(of.node.data))
	}
	end := of.pos + int64(len(p))
	if end > int64(len(of.node.data)) {
		grown := make([]byte, end)
		copy(grown, of.node.data)
		of.node.data = grown
	}
	copy(of.node.data[of.pos:], p)
	of.pos = end
	of.node.mtime = time.Now().Unix()
	return int32(len(p)), 0
}

func (m *MemFS) Seek(fs native.FS, f native.File, offset int64) syscall.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()

	of, errno := m.file(f)
	if errno != 0 {
		return errno
	}
	if offset < 0 || offset > int64(len(of.node.data)) {
		return syscall.EINVAL
	}
	of.pos = offset
	return 0
}

func (m *MemFS) Tell(fs native.FS, f native.File) (int64, syscall.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	of, errno := m.file(f)
	if errno != 0 {
		return -1, errno
	}
	return of.pos, 0
}

func (m *MemFS) Flush(fs native.FS, f native.File) syscall.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, errno := m.file(f)
	return errno
}

func (m *MemFS) record(ns *namespace, p string, node *memNode) native.RawFileInfo {
	kind := native.KindFile
	if node.dir {
		kind = native.KindDirectory
	}
	return native.RawFileInfo{
		Kind:        kind,
		Name:        []byte(ns.fullName(p)),
		LastMod:     node.mtime,
		Size:        int64(len(node.data)),
		Replication: node.replication,
		BlockSize:   node.blockSize,
		Owner:       []byte(node.owner),
		Group:       []byte(node.group),
		Permissions: node.perm,
		LastAccess:  node.atime,
	}
}

func (m *MemFS) alloc(recs []native.RawFileInfo) native.InfoRef {
	ref := native.InfoRef(m.nextInfo.Add(1))
	m.infos.Store(ref, &infoAlloc{recs: recs})
	m.liveRefs.Add(1)
	return ref
}

func (m *MemFS) GetPathInfo(fs native.FS, p string) (native.InfoRef, syscall.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, errno := m.conn(fs)
	if errno != 0 {
		return 0, errno
	}
	node, _ := c.ns.lookup(p)
	if node == nil {
		return 0, syscall.ENOENT
	}
	return m.alloc([]native.RawFileInfo{m.record(c.ns, p, node)}), 0
}

func (m *MemFS) ListDirectory(fs native.FS, p string) (native.InfoRef, int, syscall.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, errno := m.conn(fs)
	if errno != 0 {
		return 0, 0, errno
	}
	node, _ := c.ns.lookup(p)
	if node == nil {
		return 0, 0, syscall.ENOENT
	}
	if !node.dir {
		return 0, 0, syscall.ENOTDIR
	}
	if len(node.children) == 0 {
		// The ambiguous NULL: no records and no error.
		return 0, 0, 0
	}
	recs := make([]native.RawFileInfo, 0, len(node.children))
	for name, child := range node.children {
		recs = append(recs, m.record(c.ns, path.Join("/", p, name), child))
	}
	return m.alloc(recs), len(recs), 0
}

func (m *MemFS) FileInfoAt(ref native.InfoRef, i int) native.RawFileInfo {
	a, ok := m.infos.Load(ref)
	if !ok {
		panic("nativetest: FileInfoAt on unknown record array")
	}
	if a.freed {
		panic("nativetest: FileInfoAt on freed record array")
	}
	rec := a.recs[i]
	// Hand out copies so the caller cannot alias freed native memory.
	rec.Name = append([]byte(nil), rec.Name...)
	rec.Owner = append([]byte(nil), rec.Owner...)
	rec.Group = append([]byte(nil), rec.Group...)
	return rec
}

func (m *MemFS) FreeFileInfo(ref native.InfoRef, count int) {
	a, ok := m.infos.Load(ref)
	if !ok {
		panic("nativetest: free of unknown record array")
	}
	if a.freed {
		panic("nativetest: double free of record array")
	}
	if count != len(a.recs) {
		panic("nativetest: free with wrong record count")
	}
	a.freed = true
	m.liveRefs.Add(-1)
}

func (m *MemFS) Delete(fs native.FS, p string, recursive bool) syscall.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, errno := m.conn(fs)
	if errno != 0 {
		return errno
	}
	node, parent := c.ns.lookup(p)
	if node == nil || parent == nil {
		return syscall.ENOENT
	}
	if node.dir && len(node.children) > 0 && !recursive {
		return syscall.ENOTEMPTY
	}
	delete(parent.children, node.name)
	return 0
}

func (m *MemFS) Rename(fs native.FS, oldPath, newPath string) syscall.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, errno := m.conn(fs)
	if errno != 0 {
		return errno
	}
	node, parent := c.ns.lookup(oldPath)
	if node == nil || parent == nil {
		return syscall.ENOENT
	}
	dir, name := path.Split(path.Clean("/" + newPath))
	destParent, _ := c.ns.lookup(dir)
	if destParent == nil || !destParent.dir {
		// The native layer does not create intermediate directories.
		return syscall.ENOENT
	}
	if _, exists := destParent.children[name]; exists {
		return syscall.EEXIST
	}
	delete(parent.children, node.name)
	node.name = name
	destParent.children[name] = node
	return 0
}

func (m *MemFS) CreateDirectory(fs native.FS, p string) syscall.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, errno := m.conn(fs)
	if errno != 0 {
		return errno
	}
	_, errno = c.ns.mkdirAll(p, c.user)
	return errno
}

var _ native.API = (*MemFS)(nil)
