package copying

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
	"github.com/corefs/engine/vfs/adapter/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, host vfs.Host, p, content string) {
	t.Helper()
	f, err := host.CreateFile(context.Background(), p)
	require.NoError(t, err)
	_, err = f.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func readFile(t *testing.T, host vfs.Host, p string) string {
	t.Helper()
	f, err := host.Open(context.Background(), p, vfs.OFRead, 0)
	require.NoError(t, err)
	defer f.Close()
	buf, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(buf)
}

func runToCompletion(t *testing.T, cj *CopyingJob) error {
	t.Helper()
	job := ops.NewJob(cj, time.Now(), cj.Title())
	job.Run()
	return job.Err()
}

func TestCopyingJobCopiesSingleFile(t *testing.T) {
	host := memfs.New("mem")
	writeFile(t, host, "/src.txt", "payload")

	cj := New([]Source{{Host: host, Path: "/src.txt"}}, host, "/dst.txt", DefaultOptions(), &Callbacks{})
	require.NoError(t, runToCompletion(t, cj))

	assert.Equal(t, "payload", readFile(t, host, "/dst.txt"))
	assert.True(t, host.Exists(context.Background(), "/src.txt"), "a copy must leave the source intact")
}

func TestCopyingJobMoveRemovesSource(t *testing.T) {
	host := memfs.New("mem")
	writeFile(t, host, "/src.txt", "payload")

	opts := DefaultOptions()
	opts.DoCopy = false
	cj := New([]Source{{Host: host, Path: "/src.txt"}}, host, "/dst.txt", opts, &Callbacks{})
	require.NoError(t, runToCompletion(t, cj))

	assert.Equal(t, "payload", readFile(t, host, "/dst.txt"))
	assert.False(t, host.Exists(context.Background(), "/src.txt"), "a move must remove the source once committed")
}

func TestCopyingJobCrossHostMoveRemovesSource(t *testing.T) {
	src := memfs.New("mem-src")
	dst := memfs.New("mem-dst")
	writeFile(t, src, "/src.txt", "payload")

	opts := DefaultOptions()
	opts.DoCopy = false
	cj := New([]Source{{Host: src, Path: "/src.txt"}}, dst, "/dst.txt", opts, &Callbacks{})
	require.NoError(t, runToCompletion(t, cj))

	assert.Equal(t, "payload", readFile(t, dst, "/dst.txt"))
	assert.False(t, src.Exists(context.Background(), "/src.txt"), "a cross-host move must delete the source once the copy commits, not silently degrade to a copy")
}

func TestCopyingJobMoveOntoExistingDirectoryOverwriteDeletesSourceTree(t *testing.T) {
	host := memfs.New("mem")
	require.NoError(t, host.CreateDirectory(context.Background(), "/src", vfs.ModeDir|0755))
	writeFile(t, host, "/src/a.txt", "A")
	require.NoError(t, host.CreateDirectory(context.Background(), "/dst", vfs.ModeDir|0755))
	// A pre-existing "/dst/src" is what the moved directory collides
	// with once path-prefix composition joins dstPath with its name.
	require.NoError(t, host.CreateDirectory(context.Background(), "/dst/src", vfs.ModeDir|0755))

	opts := DefaultOptions()
	opts.DoCopy = false
	callbacks := &Callbacks{
		RenameDestinationAlreadyExists: func(srcPath, dstPath string, dst vfs.Stat) RenameExistsResolution {
			return RenameExistsOverwrite
		},
	}
	cj := New([]Source{{Host: host, Path: "/src"}}, host, "/dst", opts, callbacks)
	require.NoError(t, runToCompletion(t, cj))

	assert.Equal(t, "A", readFile(t, host, "/dst/src/a.txt"))
	assert.False(t, host.Exists(context.Background(), "/src"), "moving a directory onto an existing directory must remove the source directory tree, not just merge into the destination")
}

func TestCopyingJobMultipleSourcesIntoDirectory(t *testing.T) {
	host := memfs.New("mem")
	require.NoError(t, host.CreateDirectory(context.Background(), "/out", vfs.ModeDir|0755))
	writeFile(t, host, "/a.txt", "A")
	writeFile(t, host, "/b.txt", "B")

	cj := New([]Source{
		{Host: host, Path: "/a.txt"},
		{Host: host, Path: "/b.txt"},
	}, host, "/out", DefaultOptions(), &Callbacks{})
	require.NoError(t, runToCompletion(t, cj))

	assert.Equal(t, "A", readFile(t, host, "/out/a.txt"))
	assert.Equal(t, "B", readFile(t, host, "/out/b.txt"))
}

func TestCopyingJobExistAskDefaultsToStopWhenNoCallback(t *testing.T) {
	host := memfs.New("mem")
	writeFile(t, host, "/src.txt", "new")
	writeFile(t, host, "/dst.txt", "old")

	cj := New([]Source{{Host: host, Path: "/src.txt"}}, host, "/dst.txt", DefaultOptions(), &Callbacks{})
	job := ops.NewJob(cj, time.Now(), cj.Title())
	job.Run()

	assert.Equal(t, "old", readFile(t, host, "/dst.txt"), "with ExistAsk and no callback the conflict must default to Stop, never silently overwrite")
}

func TestCopyingJobExistOverwriteAllReplacesDestination(t *testing.T) {
	host := memfs.New("mem")
	writeFile(t, host, "/src.txt", "new")
	writeFile(t, host, "/dst.txt", "old")

	opts := DefaultOptions()
	opts.ExistBehavior = ExistOverwriteAll
	cj := New([]Source{{Host: host, Path: "/src.txt"}}, host, "/dst.txt", opts, &Callbacks{})
	require.NoError(t, runToCompletion(t, cj))

	assert.Equal(t, "new", readFile(t, host, "/dst.txt"))
}

func TestCopyingJobTitleReflectsCountAndVerb(t *testing.T) {
	host := memfs.New("mem")
	single := New([]Source{{Host: host, Path: "/a.txt"}}, host, "/dst", DefaultOptions(), &Callbacks{})
	assert.Contains(t, single.Title(), "Copying")
	assert.Contains(t, single.Title(), "a.txt")

	opts := DefaultOptions()
	opts.DoCopy = false
	moved := New([]Source{{Host: host, Path: "/a.txt"}, {Host: host, Path: "/b.txt"}}, host, "/dst", opts, &Callbacks{})
	assert.Contains(t, moved.Title(), "Moving")
	assert.Contains(t, moved.Title(), "2 items")
}

func TestCopyingJobDestinationPathMustBeAbsolute(t *testing.T) {
	host := memfs.New("mem")
	assert.Panics(t, func() {
		New([]Source{{Host: host, Path: "/a.txt"}}, host, "relative", DefaultOptions(), &Callbacks{})
	})
}
