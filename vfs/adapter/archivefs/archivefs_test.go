package archivefs

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/corefs/engine/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFixtureZip(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "fixture.zip")

	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("dir/file.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("contents"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return zipPath
}

func TestArchiveFSStatRegularAndSynthesizedDirectory(t *testing.T) {
	fs, err := Open("zip", buildFixtureZip(t))
	require.NoError(t, err)
	defer fs.Close()

	st, err := fs.Stat(context.Background(), "/dir/file.txt", 0)
	require.NoError(t, err)
	assert.True(t, st.Mode.IsRegular())
	assert.EqualValues(t, len("contents"), st.Size)

	dst, err := fs.Stat(context.Background(), "/dir", 0)
	require.NoError(t, err, "the implied parent directory must be synthesized even without an explicit zip entry")
	assert.True(t, dst.Mode.IsDir())
}

func TestArchiveFSStatMissingReturnsNotFound(t *testing.T) {
	fs, err := Open("zip", buildFixtureZip(t))
	require.NoError(t, err)
	defer fs.Close()

	_, err = fs.Stat(context.Background(), "/missing", 0)
	assert.True(t, vfs.IsNotExist(err))
}

func TestArchiveFSIterateDirectoryListing(t *testing.T) {
	fs, err := Open("zip", buildFixtureZip(t))
	require.NoError(t, err)
	defer fs.Close()

	var names []string
	err = fs.IterateDirectoryListing(context.Background(), "/dir", func(item vfs.ListingItem) error {
		names = append(names, item.Filename)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"file.txt"}, names)
}

func TestArchiveFSOpenReadsContent(t *testing.T) {
	fs, err := Open("zip", buildFixtureZip(t))
	require.NoError(t, err)
	defer fs.Close()

	f, err := fs.Open(context.Background(), "/dir/file.txt", vfs.OFRead, 0)
	require.NoError(t, err)
	defer f.Close()

	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(b))
}

func TestArchiveFSOpenForWriteIsNotSupported(t *testing.T) {
	fs, err := Open("zip", buildFixtureZip(t))
	require.NoError(t, err)
	defer fs.Close()

	_, err = fs.Open(context.Background(), "/dir/file.txt", vfs.OFWrite, 0)
	assert.Error(t, err)
}

func TestArchiveFSMutatingCallsAreNotSupported(t *testing.T) {
	fs, err := Open("zip", buildFixtureZip(t))
	require.NoError(t, err)
	defer fs.Close()

	ctx := context.Background()
	assert.Error(t, fs.Unlink(ctx, "/dir/file.txt"))
	assert.Error(t, fs.Rename(ctx, "/dir/file.txt", "/dir/other.txt"))
	assert.Error(t, fs.CreateDirectory(ctx, "/new", vfs.ModeDir|0755))
	_, err = fs.CreateFile(ctx, "/new.txt")
	assert.Error(t, err)
}

func TestArchiveFSIsNativeFSFalse(t *testing.T) {
	fs, err := Open("zip", buildFixtureZip(t))
	require.NoError(t, err)
	defer fs.Close()
	assert.False(t, fs.IsNativeFS())
}
