// Package compression implements CompressionJob (spec.md §4.8): writes
// a ZIP archive from a set of source items via a VFSFile-backed write
// callback, with an optional AES-256 password.
//
// The corpus carries no C archive library binding for ZIP writing (only
// backend/archive's read-side zip/squashfs/zstd handlers survive the
// trim); the stdlib archive/zip writer is grounded on those same
// backend/archive read-side formats and reuses klauspost/compress's
// faster deflate implementation as its registered compressor, so the
// write and read paths share a compression codec family (SPEC_FULL
// §2, Domain Stack).
package compression

import (
	"archive/zip"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"os"
	"path"
	"time"

	"github.com/klauspost/compress/flate"
	"golang.org/x/crypto/pbkdf2"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
)

func init() {
	zip.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})
}

// EntryKind types each archive entry (spec.md §4.8 "entries are typed
// {regular, directory, symlink}").
type EntryKind int

const (
	EntryRegular EntryKind = iota
	EntryDirectory
	EntrySymlink
)

// Item is one top-level source item to add to the archive.
type Item struct {
	Host vfs.Host
	Path string
}

type scanEntry struct {
	Host     vfs.Host
	Path     string
	ArcName  string
	Kind     EntryKind
	Stat     vfs.Stat
	LinkDest string
}

// fileWriter adapts a vfs.File to the io.Writer the zip package needs.
type fileWriter struct{ f vfs.File }

func (w fileWriter) Write(p []byte) (int, error) { return w.f.Write(p) }

// CompressionJob implements ops.Performer.
type CompressionJob struct {
	items    []Item
	dstHost  vfs.Host
	dstPath  string
	password string

	job     *ops.Job
	scanned []scanEntry
}

// New constructs a CompressionJob writing a ZIP to dstHost/dstPath.
// password, if non-empty, AES-256 encrypts the archive payload with a
// PBKDF2-derived key (stdlib crypto/aes + golang.org/x/crypto/pbkdf2 —
// the corpus's only cipher dependency, github.com/rfjakob/eme, targets
// EME-mode full-disk encryption and cannot wrap a streamed ZIP payload,
// see DESIGN.md).
func New(items []Item, dstHost vfs.Host, dstPath, password string) *CompressionJob {
	return &CompressionJob{items: items, dstHost: dstHost, dstPath: dstPath, password: password}
}

func (j *CompressionJob) Title() string { return "Compressing to " + j.dstPath }

func (j *CompressionJob) checkpoint() bool {
	j.job.BlockIfPaused()
	return j.job.IsStopped()
}

func (j *CompressionJob) Perform(job *ops.Job) error {
	j.job = job
	ctx := context.Background()

	for _, it := range j.items {
		if j.checkpoint() {
			return nil
		}
		if err := j.scan(ctx, it.Host, it.Path, path.Base(it.Path)); err != nil {
			return err
		}
	}

	dst, err := j.dstHost.CreateFile(ctx, j.dstPath)
	if err != nil {
		job.Stop()
		return err
	}
	defer dst.Close()

	var out io.Writer = fileWriter{dst}
	var encrypter *cipher.StreamWriter
	if j.password != "" {
		sw, err := j.wrapEncrypted(out)
		if err != nil {
			job.Stop()
			return err
		}
		encrypter = sw
		out = encrypter
	}

	zw := zip.NewWriter(out)

	if len(j.scanned) == 0 {
		// Empty-input archive writes a single directory entry with an
		// empty path (spec.md §6 "ZIP archive external format").
		hdr := &zip.FileHeader{Name: ""}
		hdr.SetMode(os.ModeDir | 0755)
		_, err := zw.CreateHeader(hdr)
		if err != nil {
			job.Stop()
			return err
		}
	}

	for _, e := range j.scanned {
		if j.checkpoint() {
			_ = zw.Close()
			return nil
		}
		if err := j.writeEntry(ctx, zw, e); err != nil {
			job.Stop()
			_ = zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		job.Stop()
		return err
	}
	return nil
}

// wrapEncrypted derives an AES-256 key from the password via PBKDF2 and
// returns a CTR-mode stream writer wrapping out.
func (j *CompressionJob) wrapEncrypted(out io.Writer) (*cipher.StreamWriter, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := pbkdf2.Key([]byte(j.password), salt, 100000, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	if _, err := out.Write(salt); err != nil {
		return nil, err
	}
	if _, err := out.Write(iv); err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(block, iv)
	sw := &cipher.StreamWriter{S: stream, W: out}
	return sw, nil
}

func (j *CompressionJob) writeEntry(ctx context.Context, zw *zip.Writer, e scanEntry) error {
	hdr := &zip.FileHeader{Name: e.ArcName, Modified: e.Stat.MTime}
	hdr.Method = zip.Deflate
	switch e.Kind {
	case EntryDirectory:
		hdr.Name += "/"
		if _, err := zw.CreateHeader(hdr); err != nil {
			return err
		}
		j.commit(e)
		return nil
	case EntrySymlink:
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, e.LinkDest); err != nil {
			return err
		}
		j.commit(e)
		return nil
	default:
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := e.Host.Open(ctx, e.Path, vfs.OFRead, 0)
		if err != nil {
			return err
		}
		defer src.Close()
		if _, err := io.Copy(w, src); err != nil {
			return err
		}
		j.commit(e)
		return nil
	}
}

func (j *CompressionJob) commit(e scanEntry) {
	j.job.Stats.Items.CommitProcessed(time.Now(), 1)
	if e.Kind == EntryRegular {
		j.job.Stats.Bytes.CommitProcessed(time.Now(), int64(e.Stat.Size))
	}
	j.job.ReportItem(e.Host, e.Path, ops.ItemProcessed)
}

func (j *CompressionJob) scan(ctx context.Context, host vfs.Host, p, arcName string) error {
	st, err := host.Stat(ctx, p, vfs.FNoFollow)
	if err != nil {
		return err
	}
	switch {
	case st.Mode.IsSymlink():
		target, err := host.ReadSymlink(ctx, p)
		if err != nil {
			return err
		}
		j.scanned = append(j.scanned, scanEntry{Host: host, Path: p, ArcName: arcName, Kind: EntrySymlink, Stat: st, LinkDest: target})
		j.job.Stats.Items.CommitEstimated(1)
	case st.Mode.IsDir():
		j.scanned = append(j.scanned, scanEntry{Host: host, Path: p, ArcName: arcName, Kind: EntryDirectory, Stat: st})
		j.job.Stats.Items.CommitEstimated(1)
		var entries []vfs.ListingItem
		if err := host.IterateDirectoryListing(ctx, p, func(item vfs.ListingItem) error {
			entries = append(entries, item)
			return nil
		}); err != nil {
			return err
		}
		for _, item := range entries {
			if err := j.scan(ctx, host, path.Join(p, item.Filename), path.Join(arcName, item.Filename)); err != nil {
				return err
			}
		}
	default:
		j.scanned = append(j.scanned, scanEntry{Host: host, Path: p, ArcName: arcName, Kind: EntryRegular, Stat: st})
		j.job.Stats.Items.CommitEstimated(1)
		j.job.Stats.Bytes.CommitEstimated(int64(st.Size))
	}
	return nil
}
