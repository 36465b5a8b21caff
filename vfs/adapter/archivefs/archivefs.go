// Package archivefs is a read-only vfs.Host over a ZIP archive,
// exposing its entries as a directory tree the operations engine can
// copy out of. It mirrors the way backend/archive/base wraps an
// underlying fs.Fs with a VFS and a node index, but here the backing
// store is always a local *zip.Reader rather than a remote fs.Fs.
package archivefs

import (
	"archive/zip"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/corefs/engine/vfs"
)

type entry struct {
	name     string // full path, "/"-rooted
	isDir    bool
	size     uint64
	modTime  time.Time
	children []string // direct children's full paths, dirs only
	zf       *zip.File // nil for synthesized directories
}

// FS is a read-only vfs.Host backed by an opened ZIP archive.
type FS struct {
	tag     string
	rc      *zip.ReadCloser
	entries map[string]*entry
}

// Open opens the ZIP file at archivePath and indexes its entries.
func Open(tag, archivePath string) (*FS, error) {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, vfs.WrapError(archivePath, err)
	}
	f := &FS{tag: tag, rc: rc, entries: map[string]*entry{}}
	f.entries["/"] = &entry{name: "/", isDir: true}
	for _, zf := range rc.File {
		f.index(zf)
	}
	return f, nil
}

func (f *FS) index(zf *zip.File) {
	name := "/" + strings.TrimSuffix(strings.TrimPrefix(zf.Name, "/"), "/")
	isDir := zf.FileInfo().IsDir()
	f.ensureParents(path.Dir(name))
	e, ok := f.entries[name]
	if !ok {
		e = &entry{name: name}
		f.entries[name] = e
	}
	e.isDir = e.isDir || isDir
	e.size = zf.FileInfo().Size()
	e.modTime = zf.Modified
	e.zf = zf
	f.linkChild(name)
}

// ensureParents synthesizes directory entries for every ancestor of dir
// that the ZIP's central directory didn't list explicitly (many ZIP
// writers omit directory entries for implied parents).
func (f *FS) ensureParents(dir string) {
	if dir == "/" || dir == "." || dir == "" {
		return
	}
	if _, ok := f.entries[dir]; ok {
		return
	}
	f.entries[dir] = &entry{name: dir, isDir: true}
	f.ensureParents(path.Dir(dir))
	f.linkChild(dir)
}

func (f *FS) linkChild(childPath string) {
	parent := path.Dir(childPath)
	if parent == "." {
		parent = "/"
	}
	pe := f.entries[parent]
	if pe == nil {
		return
	}
	for _, c := range pe.children {
		if c == childPath {
			return
		}
	}
	pe.children = append(pe.children, childPath)
}

func (f *FS) Tag() string { return f.tag }

func (f *FS) IsNativeFS() bool { return false }

func (f *FS) IsCaseSensitiveAtPath(ctx context.Context, p string) bool { return true }

func (f *FS) Features() vfs.Features { return 0 }

func clean(p string) string { return path.Clean("/" + p) }

func (f *FS) Stat(ctx context.Context, p string, flags vfs.StatFlags) (vfs.Stat, error) {
	e, ok := f.entries[clean(p)]
	if !ok {
		return vfs.Stat{}, vfs.NewError(p, vfs.CodeNotFound)
	}
	mode := vfs.ModeRegular | 0444
	if e.isDir {
		mode = vfs.ModeDir | 0555
	}
	return vfs.Stat{
		Mode:    mode,
		Size:    e.size,
		MTime:   e.modTime,
		Meaning: vfs.MeaningSize | vfs.MeaningMode | vfs.MeaningMTime,
	}, nil
}

func (f *FS) Exists(ctx context.Context, p string) bool {
	_, ok := f.entries[clean(p)]
	return ok
}

func (f *FS) IterateDirectoryListing(ctx context.Context, dir string, cb vfs.DirEntryCallback) error {
	e, ok := f.entries[clean(dir)]
	if !ok || !e.isDir {
		return vfs.NewError(dir, vfs.CodeNotADirectory)
	}
	children := append([]string(nil), e.children...)
	sort.Strings(children)
	for _, c := range children {
		ce := f.entries[c]
		item := vfs.ListingItem{
			Filename: path.Base(c),
			Dir:      dir,
			Host:     f,
			IsReg:    !ce.isDir,
			IsDir:    ce.isDir,
			Size:     ce.size,
		}
		if err := cb(item); err != nil {
			return err
		}
	}
	return nil
}

// zipFile adapts a zip.File's reader to vfs.File, read-only.
type zipFile struct {
	rc   io.ReadCloser
	size int64
	pos  int64
}

func (z *zipFile) Read(p []byte) (int, error) {
	n, err := z.rc.Read(p)
	z.pos += int64(n)
	return n, err
}

func (z *zipFile) Write(p []byte) (int, error) { return 0, vfs.NewError("", vfs.CodeNotSupported) }
func (z *zipFile) Close() error                { return z.rc.Close() }
func (z *zipFile) Seek(offset int64, whence int) (int64, error) {
	return 0, vfs.NewError("", vfs.CodeNotSupported)
}
func (z *zipFile) Pos() int64            { return z.pos }
func (z *zipFile) Size() int64           { return z.size }
func (z *zipFile) PreferredIOSize() int  { return 64 * 1024 }
func (z *zipFile) LastError() error      { return nil }
func (z *zipFile) XAttrCount() int       { return 0 }
func (z *zipFile) XAttrGet(name string) ([]byte, error) {
	return nil, vfs.NewError("", vfs.CodeNotSupported)
}
func (z *zipFile) XAttrIterateNames(cb func(name string) error) error { return nil }

func (f *FS) Open(ctx context.Context, p string, flags vfs.OpenFlags, perm vfs.Mode) (vfs.File, error) {
	if flags&vfs.OFWrite != 0 {
		return nil, vfs.NewError(p, vfs.CodeNotSupported)
	}
	e, ok := f.entries[clean(p)]
	if !ok || e.zf == nil {
		return nil, vfs.NewError(p, vfs.CodeNotFound)
	}
	rc, err := e.zf.Open()
	if err != nil {
		return nil, vfs.WrapError(p, err)
	}
	return &zipFile{rc: rc, size: int64(e.size)}, nil
}

func (f *FS) CreateFile(ctx context.Context, p string) (vfs.File, error) {
	return nil, vfs.NewError(p, vfs.CodeNotSupported)
}

func (f *FS) Rename(ctx context.Context, oldPath, newPath string) error {
	return vfs.NewError(oldPath, vfs.CodeNotSupported)
}
func (f *FS) Unlink(ctx context.Context, p string) error { return vfs.NewError(p, vfs.CodeNotSupported) }
func (f *FS) Trash(ctx context.Context, p string) error  { return vfs.NewError(p, vfs.CodeNotSupported) }
func (f *FS) CreateDirectory(ctx context.Context, p string, mode vfs.Mode) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) RemoveDirectory(ctx context.Context, p string) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) CreateSymlink(ctx context.Context, p, value string) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) ReadSymlink(ctx context.Context, p string) (string, error) {
	return "", vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) CreateHardlink(ctx context.Context, p, existingPath string) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) SetPermissions(ctx context.Context, p string, mode vfs.Mode) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) SetOwnership(ctx context.Context, p string, uid, gid uint32) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) SetFlags(ctx context.Context, p string, flags uint32, noFollow bool) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) SetTimes(ctx context.Context, p string, atime, mtime time.Time) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) XAttrNames(ctx context.Context, p string) ([]string, error) { return nil, nil }
func (f *FS) XAttrGet(ctx context.Context, p, name string) ([]byte, error) {
	return nil, vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) XAttrSet(ctx context.Context, p, name string, value []byte) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) XAttrRemoveAll(ctx context.Context, p string) error { return nil }

// Close releases the underlying ZIP reader.
func (f *FS) Close() error { return f.rc.Close() }
