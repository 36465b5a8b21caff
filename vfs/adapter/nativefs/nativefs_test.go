package nativefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/corefs/engine/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSCreateWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	p := filepath.Join(dir, "a.txt")

	f, err := fs.CreateFile(context.Background(), p)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f2, err := fs.Open(context.Background(), p, vfs.OFRead, 0)
	require.NoError(t, err)
	defer f2.Close()
	buf := make([]byte, 5)
	_, err = f2.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

func TestFSStatRegularFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("xyz"), 0644))

	fs := New("local")
	st, err := fs.Stat(context.Background(), p, 0)
	require.NoError(t, err)
	assert.True(t, st.Mode.IsRegular())
	assert.EqualValues(t, 3, st.Size)
}

func TestFSStatMissingReturnsNotFound(t *testing.T) {
	fs := New("local")
	_, err := fs.Stat(context.Background(), filepath.Join(t.TempDir(), "missing"), 0)
	assert.True(t, vfs.IsNotExist(err))
}

func TestFSCreateDirectoryAndListing(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, fs.CreateDirectory(context.Background(), sub, vfs.ModeDir|0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "f.txt"), []byte("x"), 0644))

	var names []string
	err := fs.IterateDirectoryListing(context.Background(), sub, func(item vfs.ListingItem) error {
		names = append(names, item.Filename)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"f.txt"}, names)
}

func TestFSRenameMovesFile(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	require.NoError(t, fs.Rename(context.Background(), src, dst))
	assert.True(t, fs.Exists(context.Background(), dst))
	assert.False(t, fs.Exists(context.Background(), src))
}

func TestFSUnlinkRemovesFile(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))

	require.NoError(t, fs.Unlink(context.Background(), p))
	assert.False(t, fs.Exists(context.Background(), p))
}

func TestFSTrashMovesIntoTrashDirBesideItem(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))

	require.NoError(t, fs.Trash(context.Background(), p))
	assert.False(t, fs.Exists(context.Background(), p))

	trashed := filepath.Join(dir, ".corefs-trash", "a.txt")
	assert.True(t, fs.Exists(context.Background(), trashed))
}

func TestFSTrashCollisionGetsUniqueSuffix(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	trashDir := filepath.Join(dir, ".corefs-trash")
	require.NoError(t, os.MkdirAll(trashDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(trashDir, "a.txt"), []byte("old"), 0644))

	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("new"), 0644))
	require.NoError(t, fs.Trash(context.Background(), p))

	assert.True(t, fs.Exists(context.Background(), filepath.Join(trashDir, "a 2.txt")))
}

func TestFSSymlinkCreateAndRead(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	link := filepath.Join(dir, "link")

	require.NoError(t, fs.CreateSymlink(context.Background(), link, "/target"))
	got, err := fs.ReadSymlink(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, "/target", got)
}

func TestFSHardlinkSharesContent(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	src := filepath.Join(dir, "a.txt")
	link := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(src, []byte("shared"), 0644))

	require.NoError(t, fs.CreateHardlink(context.Background(), link, src))
	b, err := os.ReadFile(link)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(b))
}

func TestFSSetPermissions(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))

	require.NoError(t, fs.SetPermissions(context.Background(), p, 0600))
	st, err := fs.Stat(context.Background(), p, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0600, st.Mode.Perm())
}

func TestFSSetTimes(t *testing.T) {
	dir := t.TempDir()
	fs := New("local")
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))

	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, fs.SetTimes(context.Background(), p, mtime, mtime))
	st, err := fs.Stat(context.Background(), p, 0)
	require.NoError(t, err)
	assert.True(t, st.MTime.Equal(mtime))
}

func TestFSIsNativeFSTrue(t *testing.T) {
	assert.True(t, New("local").IsNativeFS())
}

func TestFSFeaturesAdvertisesFullCapabilitySet(t *testing.T) {
	f := New("local").Features()
	assert.True(t, f.Has(vfs.FeatureSymlinks|vfs.FeatureHardlinks|vfs.FeatureXAttrs))
}
