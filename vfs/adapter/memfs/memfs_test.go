package memfs

import (
	"context"
	"io"
	"testing"

	"github.com/corefs/engine/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSCreateWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := New("mem")

	f, err := fs.CreateFile(ctx, "/a.txt")
	require.NoError(t, err)
	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, f.Close())

	f2, err := fs.Open(ctx, "/a.txt", vfs.OFRead, 0)
	require.NoError(t, err)
	defer f2.Close()
	buf, err := io.ReadAll(f2)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

func TestFSStatMissingReturnsNotFound(t *testing.T) {
	fs := New("mem")
	_, err := fs.Stat(context.Background(), "/missing", 0)
	require.Error(t, err)
	assert.True(t, vfs.IsNotExist(err))
}

func TestFSCreateDirectoryAndListing(t *testing.T) {
	ctx := context.Background()
	fs := New("mem")
	require.NoError(t, fs.CreateDirectory(ctx, "/dir", vfs.ModeDir|0755))

	f, err := fs.CreateFile(ctx, "/dir/one.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var names []string
	err = fs.IterateDirectoryListing(ctx, "/dir", func(item vfs.ListingItem) error {
		names = append(names, item.Filename)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one.txt"}, names)
}

func TestFSRenameMovesNode(t *testing.T) {
	ctx := context.Background()
	fs := New("mem")
	f, err := fs.CreateFile(ctx, "/old.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, fs.Rename(ctx, "/old.txt", "/new.txt"))
	assert.False(t, fs.Exists(ctx, "/old.txt"))
	assert.True(t, fs.Exists(ctx, "/new.txt"))
}

func TestFSUnlinkRemovesFile(t *testing.T) {
	ctx := context.Background()
	fs := New("mem")
	f, err := fs.CreateFile(ctx, "/gone.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, fs.Unlink(ctx, "/gone.txt"))
	assert.False(t, fs.Exists(ctx, "/gone.txt"))
}

func TestFSSymlinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := New("mem")
	require.NoError(t, fs.CreateSymlink(ctx, "/link", "/target"))
	target, err := fs.ReadSymlink(ctx, "/link")
	require.NoError(t, err)
	assert.Equal(t, "/target", target)
}

func TestFSCaseFoldMakesLookupsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	fs := New("mem")
	fs.SetCaseFold(true)
	f, err := fs.CreateFile(ctx, "/Mixed.TXT")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.True(t, fs.Exists(ctx, "/mixed.txt"))
}

func TestFSXAttrSetGetRemove(t *testing.T) {
	ctx := context.Background()
	fs := New("mem")
	f, err := fs.CreateFile(ctx, "/x.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, fs.XAttrSet(ctx, "/x.txt", "user.note", []byte("v")))
	got, err := fs.XAttrGet(ctx, "/x.txt", "user.note")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, fs.XAttrRemoveAll(ctx, "/x.txt"))
	names, err := fs.XAttrNames(ctx, "/x.txt")
	require.NoError(t, err)
	assert.Empty(t, names)
}
