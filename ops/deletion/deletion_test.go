package deletion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
	"github.com/corefs/engine/vfs/adapter/memfs"
	"github.com/corefs/engine/vfs/adapter/nativefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkfile(t *testing.T, host vfs.Host, p string) {
	t.Helper()
	f, err := host.CreateFile(context.Background(), p)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func runToCompletion(t *testing.T, dj *DeletionJob) error {
	t.Helper()
	job := ops.NewJob(dj, time.Now(), dj.Title())
	job.Run()
	return job.Err()
}

func TestDeletionJobPermanentRemovesFile(t *testing.T) {
	host := memfs.New("mem")
	mkfile(t, host, "/a.txt")

	dj := New([]Item{{Host: host, Path: "/a.txt"}}, Options{Type: Permanent}, &Callbacks{})
	require.NoError(t, runToCompletion(t, dj))
	assert.False(t, host.Exists(context.Background(), "/a.txt"))
}

func TestDeletionJobTrashMovesFileOnNativeHost(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))

	host := nativefs.New("local")
	dj := New([]Item{{Host: host, Path: p}}, Options{Type: Trash}, &Callbacks{})
	require.NoError(t, runToCompletion(t, dj))

	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err), "trashed file must no longer exist at its original path")
}

func TestDeletionJobTrashOnNonNativeHostPanics(t *testing.T) {
	host := memfs.New("mem") // IsNativeFS() is false
	assert.Panics(t, func() {
		New([]Item{{Host: host, Path: "/a.txt"}}, Options{Type: Trash}, &Callbacks{})
	})
}

func TestDeletionJobRecursesIntoDirectories(t *testing.T) {
	host := memfs.New("mem")
	require.NoError(t, host.CreateDirectory(context.Background(), "/dir", vfs.ModeDir|0755))
	mkfile(t, host, "/dir/a.txt")
	mkfile(t, host, "/dir/b.txt")

	dj := New([]Item{{Host: host, Path: "/dir"}}, Options{Type: Permanent}, &Callbacks{})
	require.NoError(t, runToCompletion(t, dj))
	assert.False(t, host.Exists(context.Background(), "/dir"))
}

func TestDeletionJobScansDirectoryPlusChildrenIntoEstimate(t *testing.T) {
	host := memfs.New("mem")
	require.NoError(t, host.CreateDirectory(context.Background(), "/dir", vfs.ModeDir|0755))
	mkfile(t, host, "/dir/a.txt")
	mkfile(t, host, "/dir/b.txt")

	dj := New([]Item{{Host: host, Path: "/dir"}}, Options{Type: Permanent}, &Callbacks{})
	job := ops.NewJob(dj, time.Now(), dj.Title())
	job.Run()
	assert.EqualValues(t, 3, job.Stats.Items.Estimated(), "the directory plus its two children must all be scanned")
	assert.Zero(t, dj.ItemsInScript(), "the LIFO stack must be fully drained once the job completes")
}

func TestDeletionJobTitleReflectsType(t *testing.T) {
	host := memfs.New("mem")
	trash := New([]Item{{Host: host, Path: "/a"}}, Options{Type: Trash}, &Callbacks{})
	assert.Contains(t, trash.Title(), "Trash")

	perm := New(nil, Options{Type: Permanent}, &Callbacks{})
	assert.Contains(t, perm.Title(), "Deleting")
}

func TestDeletionJobScanErrorDefaultsToStopWithoutCallback(t *testing.T) {
	host := memfs.New("mem")
	// deleting a nonexistent path triggers a ReadDir-class error at scan time
	dj := New([]Item{{Host: host, Path: "/missing.txt"}}, Options{Type: Permanent}, &Callbacks{})
	err := runToCompletion(t, dj)
	assert.Error(t, err, "with no ReadDir callback installed, a scan error must stop the job")
}
