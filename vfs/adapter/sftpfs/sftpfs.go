// Package sftpfs is a vfs.Host backed by an SSH/SFTP connection,
// grounded on backend/sftp's use of github.com/pkg/sftp and
// golang.org/x/crypto/ssh. Stat results are cached briefly with
// github.com/patrickmn/go-cache to absorb the round-trip cost of the
// operations engine's repeated-stat access patterns (scan, verify,
// conflict resolution) over a high-latency link.
package sftpfs

import (
	"context"
	"io"
	"os"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/corefs/engine/vfs"
)

// Config dials an SFTP host over SSH.
type Config struct {
	Addr     string
	User     string
	Password string // used only if no AuthMethods supplied
	AuthMethods []ssh.AuthMethod
	HostKeyCallback ssh.HostKeyCallback
}

// FS is a vfs.Host talking to a remote SFTP server.
type FS struct {
	tag    string
	conn   *ssh.Client
	client *sftp.Client
	stats  *gocache.Cache
}

// Dial connects and opens an SFTP session.
func Dial(tag string, cfg Config) (*FS, error) {
	auth := cfg.AuthMethods
	if len(auth) == 0 && cfg.Password != "" {
		auth = []ssh.AuthMethod{ssh.Password(cfg.Password)}
	}
	hostKeyCallback := cfg.HostKeyCallback
	if hostKeyCallback == nil {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	conn, err := ssh.Dial("tcp", cfg.Addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         30 * time.Second,
	})
	if err != nil {
		return nil, vfs.WrapError(cfg.Addr, err)
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, vfs.WrapError(cfg.Addr, err)
	}
	return &FS{
		tag:    tag,
		conn:   conn,
		client: client,
		stats:  gocache.New(2*time.Second, 10*time.Second),
	}, nil
}

// Close tears down the SFTP session and SSH connection.
func (f *FS) Close() error {
	f.client.Close()
	return f.conn.Close()
}

func (f *FS) Tag() string { return f.tag }

func (f *FS) IsNativeFS() bool { return false }

func (f *FS) IsCaseSensitiveAtPath(ctx context.Context, p string) bool { return true }

func (f *FS) Features() vfs.Features {
	return vfs.FeatureSetTimes | vfs.FeatureSetPermissions | vfs.FeatureSymlinks | vfs.FeatureHardlinks
}

func (f *FS) invalidate(p string) { f.stats.Delete(path.Clean(p)) }

func (f *FS) Stat(ctx context.Context, p string, flags vfs.StatFlags) (vfs.Stat, error) {
	key := path.Clean(p)
	if flags&vfs.FNoFollow == 0 {
		if v, ok := f.stats.Get(key); ok {
			return v.(vfs.Stat), nil
		}
	}
	var (
		info os.FileInfo
		err  error
	)
	if flags&vfs.FNoFollow != 0 {
		info, err = f.client.Lstat(key)
	} else {
		info, err = f.client.Stat(key)
	}
	if err != nil {
		return vfs.Stat{}, vfs.WrapError(p, err)
	}
	st := statFromSFTP(info)
	if flags&vfs.FNoFollow == 0 {
		f.stats.Set(key, st, gocache.DefaultExpiration)
	}
	return st, nil
}

func statFromSFTP(info os.FileInfo) vfs.Stat {
	mode := vfs.ModeRegular
	switch {
	case info.IsDir():
		mode = vfs.ModeDir
	case info.Mode()&os.ModeSymlink != 0:
		mode = vfs.ModeSymlink
	}
	mode |= vfs.Mode(info.Mode().Perm())
	return vfs.Stat{
		Mode:    mode,
		Size:    uint64(info.Size()),
		MTime:   info.ModTime(),
		Meaning: vfs.MeaningSize | vfs.MeaningMode | vfs.MeaningMTime,
	}
}

func (f *FS) Exists(ctx context.Context, p string) bool {
	_, err := f.Stat(ctx, p, 0)
	return err == nil
}

func (f *FS) IterateDirectoryListing(ctx context.Context, dir string, cb vfs.DirEntryCallback) error {
	entries, err := f.client.ReadDir(dir)
	if err != nil {
		return vfs.WrapError(dir, err)
	}
	for _, e := range entries {
		item := vfs.ListingItem{
			Filename: e.Name(),
			Dir:      dir,
			Host:     f,
			IsReg:    e.Mode().IsRegular(),
			IsDir:    e.IsDir(),
			Size:     uint64(e.Size()),
		}
		if err := cb(item); err != nil {
			return err
		}
	}
	return nil
}

// sftpHandle adapts *sftp.File to vfs.File.
type sftpHandle struct {
	f    *sftp.File
	pos  int64
	size int64
}

func (h *sftpHandle) Read(p []byte) (int, error) {
	n, err := h.f.Read(p)
	h.pos += int64(n)
	return n, err
}
func (h *sftpHandle) Write(p []byte) (int, error) {
	n, err := h.f.Write(p)
	h.pos += int64(n)
	return n, err
}
func (h *sftpHandle) Close() error { return h.f.Close() }
func (h *sftpHandle) Seek(offset int64, whence int) (int64, error) {
	n, err := h.f.Seek(offset, whence)
	h.pos = n
	return n, err
}
func (h *sftpHandle) Pos() int64           { return h.pos }
func (h *sftpHandle) Size() int64          { return h.size }
func (h *sftpHandle) PreferredIOSize() int { return 256 * 1024 }
func (h *sftpHandle) LastError() error     { return nil }
func (h *sftpHandle) XAttrCount() int      { return 0 }
func (h *sftpHandle) XAttrGet(name string) ([]byte, error) {
	return nil, vfs.NewError("", vfs.CodeNotSupported)
}
func (h *sftpHandle) XAttrIterateNames(cb func(name string) error) error { return nil }

func (f *FS) CreateFile(ctx context.Context, p string) (vfs.File, error) {
	fh, err := f.client.Create(p)
	if err != nil {
		return nil, vfs.WrapError(p, err)
	}
	f.invalidate(path.Dir(p))
	return &sftpHandle{f: fh}, nil
}

func (f *FS) Open(ctx context.Context, p string, flags vfs.OpenFlags, perm vfs.Mode) (vfs.File, error) {
	sftpFlags := 0
	if flags&vfs.OFWrite != 0 {
		sftpFlags |= os.O_WRONLY
	} else {
		sftpFlags |= os.O_RDONLY
	}
	if flags&vfs.OFCreate != 0 {
		sftpFlags |= os.O_CREATE
	}
	if flags&vfs.OFTruncate != 0 {
		sftpFlags |= os.O_TRUNC
	}
	if flags&vfs.OFAppend != 0 {
		sftpFlags |= os.O_APPEND
	}
	fh, err := f.client.OpenFile(p, sftpFlags)
	if err != nil {
		return nil, vfs.WrapError(p, err)
	}
	size := int64(0)
	if st, err := f.client.Stat(p); err == nil {
		size = st.Size()
	}
	return &sftpHandle{f: fh, size: size}, nil
}

func (f *FS) Rename(ctx context.Context, oldPath, newPath string) error {
	err := f.client.PosixRename(oldPath, newPath)
	f.invalidate(oldPath)
	f.invalidate(newPath)
	if err != nil {
		return vfs.WrapError(oldPath, err)
	}
	return nil
}

func (f *FS) Unlink(ctx context.Context, p string) error {
	err := f.client.Remove(p)
	f.invalidate(p)
	if err != nil {
		return vfs.WrapError(p, err)
	}
	return nil
}

// Trash has no SFTP equivalent and always reports CodeNotSupported.
// There is no automatic fallback to permanent deletion: deletion.New
// refuses the Trash type for non-native hosts.
func (f *FS) Trash(ctx context.Context, p string) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}

func (f *FS) CreateDirectory(ctx context.Context, p string, mode vfs.Mode) error {
	err := f.client.Mkdir(p)
	f.invalidate(path.Dir(p))
	if err != nil {
		return vfs.WrapError(p, err)
	}
	return f.client.Chmod(p, toOSMode(mode))
}

func (f *FS) RemoveDirectory(ctx context.Context, p string) error {
	err := f.client.RemoveDirectory(p)
	f.invalidate(p)
	if err != nil {
		return vfs.WrapError(p, err)
	}
	return nil
}

func (f *FS) CreateSymlink(ctx context.Context, p, value string) error {
	if err := f.client.Symlink(value, p); err != nil {
		return vfs.WrapError(p, err)
	}
	return nil
}

func (f *FS) ReadSymlink(ctx context.Context, p string) (string, error) {
	v, err := f.client.ReadLink(p)
	if err != nil {
		return "", vfs.WrapError(p, err)
	}
	return v, nil
}

func (f *FS) CreateHardlink(ctx context.Context, p, existingPath string) error {
	if err := f.client.Link(existingPath, p); err != nil {
		return vfs.WrapError(p, err)
	}
	return nil
}

func (f *FS) SetPermissions(ctx context.Context, p string, mode vfs.Mode) error {
	if err := f.client.Chmod(p, toOSMode(mode)); err != nil {
		return vfs.WrapError(p, err)
	}
	f.invalidate(p)
	return nil
}

func (f *FS) SetOwnership(ctx context.Context, p string, uid, gid uint32) error {
	if err := f.client.Chown(p, int(uid), int(gid)); err != nil {
		return vfs.WrapError(p, err)
	}
	f.invalidate(p)
	return nil
}

func (f *FS) SetFlags(ctx context.Context, p string, flags uint32, noFollow bool) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}

func (f *FS) SetTimes(ctx context.Context, p string, atime, mtime time.Time) error {
	if err := f.client.Chtimes(p, atime, mtime); err != nil {
		return vfs.WrapError(p, err)
	}
	f.invalidate(p)
	return nil
}

func (f *FS) XAttrNames(ctx context.Context, p string) ([]string, error) { return nil, nil }
func (f *FS) XAttrGet(ctx context.Context, p, name string) ([]byte, error) {
	return nil, vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) XAttrSet(ctx context.Context, p, name string, value []byte) error {
	return vfs.NewError(p, vfs.CodeNotSupported)
}
func (f *FS) XAttrRemoveAll(ctx context.Context, p string) error { return nil }

func toOSMode(m vfs.Mode) os.FileMode { return os.FileMode(m.Perm()) }

var _ io.Closer = (*FS)(nil)
