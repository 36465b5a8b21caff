package directorycreation

import (
	"context"
	"testing"
	"time"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
	"github.com/corefs/engine/vfs/adapter/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runToCompletion(t *testing.T, j *DirectoryCreationJob) error {
	t.Helper()
	job := ops.NewJob(j, time.Now(), j.Title())
	job.Run()
	return job.Err()
}

func TestDirectoryCreationJobCreatesNestedPath(t *testing.T) {
	host := memfs.New("mem")
	j := New(host, "/", "a/b/c", vfs.ModeDir|0755, &Callbacks{})
	require.NoError(t, runToCompletion(t, j))

	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		st, err := host.Stat(context.Background(), p, 0)
		require.NoError(t, err)
		assert.True(t, st.Mode.IsDir())
	}
}

func TestDirectoryCreationJobExistingDirIsSkippedNotFatal(t *testing.T) {
	host := memfs.New("mem")
	require.NoError(t, host.CreateDirectory(context.Background(), "/a", vfs.ModeDir|0755))

	j := New(host, "/", "a/b", vfs.ModeDir|0755, &Callbacks{})
	require.NoError(t, runToCompletion(t, j))
	assert.True(t, host.Exists(context.Background(), "/a/b"))
}

func TestDirectoryCreationJobExistingNonDirectoryIsFatal(t *testing.T) {
	host := memfs.New("mem")
	f, err := host.CreateFile(context.Background(), "/a")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	j := New(host, "/", "a/b", vfs.ModeDir|0755, &Callbacks{})
	err = runToCompletion(t, j)
	assert.Error(t, err, "creating a directory where a regular file already exists must fail")
}

func TestDirectoryCreationJobTrimsLeadingTrailingSlashes(t *testing.T) {
	host := memfs.New("mem")
	j := New(host, "/", "/a/b/", vfs.ModeDir|0755, &Callbacks{})
	require.NoError(t, runToCompletion(t, j))
	assert.True(t, host.Exists(context.Background(), "/a/b"))
}
