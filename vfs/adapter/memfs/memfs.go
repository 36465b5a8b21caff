// Package memfs is a deterministic in-memory vfs.Host used by the
// operations engine's unit tests, so that CopyingJob/DeletionJob/... can
// be exercised without touching disk. It implements the full vfs.Host
// contract against a simple path-keyed node map.
package memfs

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/corefs/engine/vfs"
)

type node struct {
	mode    vfs.Mode
	data    []byte
	target  string // symlink value
	uid, gid uint32
	flags   uint32
	mtime   time.Time
	atime   time.Time
	ctime   time.Time
	xattrs  map[string][]byte
}

// FS is an in-memory vfs.Host.
type FS struct {
	mu        sync.Mutex
	tag       string
	nodes     map[string]*node
	caseFold  bool
	features  vfs.Features
}

// New creates an empty in-memory host rooted at "/".
func New(tag string) *FS {
	f := &FS{
		tag:   tag,
		nodes: map[string]*node{},
		features: vfs.FeatureSetTimes | vfs.FeatureSetOwnership |
			vfs.FeatureSetPermissions | vfs.FeatureSetFlags |
			vfs.FeatureXAttrs | vfs.FeatureSymlinks | vfs.FeatureHardlinks,
	}
	now := time.Now()
	f.nodes["/"] = &node{mode: vfs.ModeDir | 0755, mtime: now, atime: now, ctime: now}
	return f
}

func clean(p string) string {
	p = path.Clean("/" + p)
	return p
}

func (f *FS) key(p string) string {
	p = clean(p)
	if f.caseFold {
		return strings.ToLower(p)
	}
	return p
}

func (f *FS) Tag() string { return f.tag }

func (f *FS) IsNativeFS() bool { return false }

func (f *FS) IsCaseSensitiveAtPath(ctx context.Context, path string) bool { return !f.caseFold }

func (f *FS) Features() vfs.Features { return f.features }

func (f *FS) Stat(ctx context.Context, p string, flags vfs.StatFlags) (vfs.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok {
		return vfs.Stat{}, vfs.NewError(p, vfs.CodeNotFound)
	}
	return vfs.Stat{
		Mode:  n.mode,
		Size:  uint64(len(n.data)),
		UID:   n.uid,
		GID:   n.gid,
		Flags: n.flags,
		ATime: n.atime,
		MTime: n.mtime,
		CTime: n.ctime,
		Inode: inodeOf(f.key(p)),
		Dev:   1,
		Meaning: vfs.MeaningSize | vfs.MeaningMode | vfs.MeaningUID | vfs.MeaningGID |
			vfs.MeaningDev | vfs.MeaningInode | vfs.MeaningFlags |
			vfs.MeaningATime | vfs.MeaningMTime | vfs.MeaningCTime,
	}, nil
}

// inodeOf derives a stable pseudo-inode from a path so that SameInode
// comparisons behave sensibly in tests (e.g. rename-to-self).
func inodeOf(key string) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= 1099511628211
	}
	return h
}

func (f *FS) Exists(ctx context.Context, p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.nodes[f.key(p)]
	return ok
}

func (f *FS) IterateDirectoryListing(ctx context.Context, dir string, cb vfs.DirEntryCallback) error {
	f.mu.Lock()
	dirKey := f.key(dir)
	prefix := dirKey
	if prefix != "/" {
		prefix += "/"
	}
	var names []string
	for k := range f.nodes {
		if k == dirKey {
			continue
		}
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		names = append(names, rest)
	}
	sort.Strings(names)
	items := make([]vfs.ListingItem, 0, len(names))
	for _, name := range names {
		n := f.nodes[prefix+name]
		items = append(items, vfs.ListingItem{
			Filename:  name,
			Dir:       dir,
			Host:      f,
			IsReg:     n.mode.IsRegular(),
			IsDir:     n.mode.IsDir(),
			IsSymlink: n.mode.IsSymlink(),
			Inode:     inodeOf(prefix + name),
			Size:      uint64(len(n.data)),
		})
	}
	f.mu.Unlock()

	for _, item := range items {
		if err := cb(item); err != nil {
			return err
		}
	}
	return nil
}

type handle struct {
	fs   *FS
	key  string
	pos  int64
	flags vfs.OpenFlags
}

func (f *FS) CreateFile(ctx context.Context, p string) (vfs.File, error) {
	return f.Open(ctx, p, vfs.OFWrite|vfs.OFCreate|vfs.OFTruncate|vfs.OFExcl, 0644)
}

func (f *FS) Open(ctx context.Context, p string, flags vfs.OpenFlags, perm vfs.Mode) (vfs.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(p)
	n, ok := f.nodes[k]
	if !ok {
		if flags&vfs.OFCreate == 0 {
			return nil, vfs.NewError(p, vfs.CodeNotFound)
		}
		now := time.Now()
		n = &node{mode: vfs.ModeRegular | perm, mtime: now, atime: now, ctime: now}
		f.nodes[k] = n
	} else if flags&(vfs.OFCreate|vfs.OFExcl) == vfs.OFCreate|vfs.OFExcl {
		return nil, vfs.NewError(p, vfs.CodeAlreadyExists)
	}
	if flags&vfs.OFTruncate != 0 {
		n.data = nil
	}
	h := &handle{fs: f, key: k, flags: flags}
	if flags&vfs.OFAppend != 0 {
		h.pos = int64(len(n.data))
	}
	return h, nil
}

func (h *handle) Read(p []byte) (int, error) {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()
	n := h.fs.nodes[h.key]
	if h.pos >= int64(len(n.data)) {
		return 0, io.EOF
	}
	m := copy(p, n.data[h.pos:])
	h.pos += int64(m)
	return m, nil
}

func (h *handle) Write(p []byte) (int, error) {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()
	n := h.fs.nodes[h.key]
	end := h.pos + int64(len(p))
	if end > int64(len(n.data)) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[h.pos:end], p)
	h.pos = end
	n.mtime = time.Now()
	return len(p), nil
}

func (h *handle) Close() error { return nil }

func (h *handle) Seek(offset int64, whence vfs.Whence) (int64, error) {
	h.fs.mu.Lock()
	n := h.fs.nodes[h.key]
	size := int64(len(n.data))
	h.fs.mu.Unlock()
	switch whence {
	case 0:
		h.pos = offset
	case 1:
		h.pos += offset
	case 2:
		h.pos = size + offset
	}
	return h.pos, nil
}

func (h *handle) Pos() int64 { return h.pos }

func (h *handle) Size() int64 {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()
	return int64(len(h.fs.nodes[h.key].data))
}

func (h *handle) PreferredIOSize() int { return 64 * 1024 }

func (h *handle) LastError() error { return nil }

func (h *handle) XAttrCount() int {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()
	return len(h.fs.nodes[h.key].xattrs)
}

func (h *handle) XAttrGet(name string) ([]byte, error) {
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()
	n := h.fs.nodes[h.key]
	v, ok := n.xattrs[name]
	if !ok {
		return nil, vfs.NewError(h.key, vfs.CodeNotFound)
	}
	return v, nil
}

func (h *handle) XAttrIterateNames(cb func(name string) error) error {
	h.fs.mu.Lock()
	n := h.fs.nodes[h.key]
	names := make([]string, 0, len(n.xattrs))
	for k := range n.xattrs {
		names = append(names, k)
	}
	h.fs.mu.Unlock()
	sort.Strings(names)
	for _, name := range names {
		if err := cb(name); err != nil {
			return err
		}
	}
	return nil
}

func (f *FS) Rename(ctx context.Context, oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ok := f.key(oldPath)
	nk := f.key(newPath)
	n, found := f.nodes[ok]
	if !found {
		return vfs.NewError(oldPath, vfs.CodeNotFound)
	}
	if ok == nk {
		return nil
	}
	// move the subtree in case oldPath is a directory
	prefix := ok
	if prefix != "/" {
		prefix += "/"
	}
	for k, v := range f.nodes {
		if k == ok || strings.HasPrefix(k, prefix) {
			suffix := strings.TrimPrefix(k, ok)
			delete(f.nodes, k)
			f.nodes[nk+suffix] = v
		}
	}
	_ = n
	return nil
}

func (f *FS) Unlink(ctx context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(p)
	if _, ok := f.nodes[k]; !ok {
		return vfs.NewError(p, vfs.CodeNotFound)
	}
	delete(f.nodes, k)
	return nil
}

func (f *FS) Trash(ctx context.Context, p string) error { return f.Unlink(ctx, p) }

func (f *FS) CreateDirectory(ctx context.Context, p string, mode vfs.Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(p)
	if _, ok := f.nodes[k]; ok {
		return vfs.NewError(p, vfs.CodeAlreadyExists)
	}
	now := time.Now()
	f.nodes[k] = &node{mode: vfs.ModeDir | mode, mtime: now, atime: now, ctime: now}
	return nil
}

func (f *FS) RemoveDirectory(ctx context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(p)
	n, ok := f.nodes[k]
	if !ok {
		return vfs.NewError(p, vfs.CodeNotFound)
	}
	if !n.mode.IsDir() {
		return vfs.NewError(p, vfs.CodeNotADirectory)
	}
	prefix := k
	if prefix != "/" {
		prefix += "/"
	}
	for other := range f.nodes {
		if other != k && strings.HasPrefix(other, prefix) {
			if !f.features.Has(vfs.FeatureNonEmptyRmDir) {
				return vfs.NewError(p, vfs.CodeDirectoryNotEmpty)
			}
		}
	}
	delete(f.nodes, k)
	return nil
}

func (f *FS) CreateSymlink(ctx context.Context, p, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(p)
	if _, ok := f.nodes[k]; ok {
		return vfs.NewError(p, vfs.CodeAlreadyExists)
	}
	now := time.Now()
	f.nodes[k] = &node{mode: vfs.ModeSymlink | 0777, target: value, mtime: now, atime: now, ctime: now}
	return nil
}

func (f *FS) ReadSymlink(ctx context.Context, p string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok || !n.mode.IsSymlink() {
		return "", vfs.NewError(p, vfs.CodeNotFound)
	}
	return n.target, nil
}

func (f *FS) CreateHardlink(ctx context.Context, p, existingPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.nodes[f.key(existingPath)]
	if !ok {
		return vfs.NewError(existingPath, vfs.CodeNotFound)
	}
	k := f.key(p)
	if _, exists := f.nodes[k]; exists {
		return vfs.NewError(p, vfs.CodeAlreadyExists)
	}
	// memfs hardlinks alias the same underlying data slice header; a real
	// hardlink shares the inode, which our Rename/Unlink semantics do not
	// model precisely, but this is sufficient for LinkageJob unit tests.
	copyNode := *src
	f.nodes[k] = &copyNode
	return nil
}

func (f *FS) SetPermissions(ctx context.Context, p string, mode vfs.Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok {
		return vfs.NewError(p, vfs.CodeNotFound)
	}
	n.mode = (n.mode &^ 07777) | (mode & 07777)
	return nil
}

func (f *FS) SetOwnership(ctx context.Context, p string, uid, gid uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok {
		return vfs.NewError(p, vfs.CodeNotFound)
	}
	n.uid, n.gid = uid, gid
	return nil
}

func (f *FS) SetFlags(ctx context.Context, p string, flags uint32, noFollow bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok {
		return vfs.NewError(p, vfs.CodeNotFound)
	}
	n.flags = flags
	return nil
}

func (f *FS) SetTimes(ctx context.Context, p string, atime, mtime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok {
		return vfs.NewError(p, vfs.CodeNotFound)
	}
	n.atime, n.mtime = atime, mtime
	return nil
}

func (f *FS) XAttrNames(ctx context.Context, p string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok {
		return nil, vfs.NewError(p, vfs.CodeNotFound)
	}
	names := make([]string, 0, len(n.xattrs))
	for k := range n.xattrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FS) XAttrGet(ctx context.Context, p, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok {
		return nil, vfs.NewError(p, vfs.CodeNotFound)
	}
	v, ok := n.xattrs[name]
	if !ok {
		return nil, vfs.NewError(p, vfs.CodeNotFound)
	}
	return v, nil
}

func (f *FS) XAttrSet(ctx context.Context, p, name string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok {
		return vfs.NewError(p, vfs.CodeNotFound)
	}
	if n.xattrs == nil {
		n.xattrs = map[string][]byte{}
	}
	n.xattrs[name] = append([]byte(nil), value...)
	return nil
}

func (f *FS) XAttrRemoveAll(ctx context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[f.key(p)]
	if !ok {
		return vfs.NewError(p, vfs.CodeNotFound)
	}
	n.xattrs = nil
	return nil
}

// SetCaseFold controls whether this host reports itself (and behaves) as
// case-insensitive, for exercising CopyingJob's case-renaming detection.
func (f *FS) SetCaseFold(v bool) { f.caseFold = v }
