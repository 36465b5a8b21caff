package attrschanging

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

func runToCompletion(t *testing.T, j *AttrsChangingJob) error {
	t.Helper()
	job := ops.NewJob(j, time.Now(), j.Title())
	job.Run()
	return job.Err()
}

func TestAttrsChangingJobSetsPermissions(t *testing.T) {
	host := memfs.New("mem")
	f, err := host.CreateFile(context.Background(), "/a.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, host.SetPermissions(context.Background(), "/a.txt", 0644))

	j := New([]Item{{Host: host, Path: "/a.txt"}}, Options{
		Permissions: Mask{Bits: 0777, Value: 0600},
	}, &Callbacks{})
	require.NoError(t, runToCompletion(t, j))

	st, err := host.Stat(context.Background(), "/a.txt", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0600, st.Mode.Perm())
}

func TestAttrsChangingJobMaskLeavesUntouchedBitsAlone(t *testing.T) {
	host := memfs.New("mem")
	f, err := host.CreateFile(context.Background(), "/a.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, host.SetPermissions(context.Background(), "/a.txt", 0755))

	// only touch the "other" bits; owner/group bits must survive untouched
	j := New([]Item{{Host: host, Path: "/a.txt"}}, Options{
		Permissions: Mask{Bits: 0007, Value: 0000},
	}, &Callbacks{})
	require.NoError(t, runToCompletion(t, j))

	st, err := host.Stat(context.Background(), "/a.txt", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0750, st.Mode.Perm())
}

func TestAttrsChangingJobRecursesIntoDirectoryWhenOptionSet(t *testing.T) {
	host := memfs.New("mem")
	require.NoError(t, host.CreateDirectory(context.Background(), "/dir", vfs.ModeDir|0755))
	f, err := host.CreateFile(context.Background(), "/dir/child.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, host.SetPermissions(context.Background(), "/dir/child.txt", 0644))

	j := New([]Item{{Host: host, Path: "/dir"}}, Options{
		Permissions: Mask{Bits: 0777, Value: 0600},
		Recursive:   true,
	}, &Callbacks{})
	require.NoError(t, runToCompletion(t, j))

	st, err := host.Stat(context.Background(), "/dir/child.txt", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0600, st.Mode.Perm())
}

func TestAttrsChangingJobNonRecursiveLeavesChildrenAlone(t *testing.T) {
	host := memfs.New("mem")
	require.NoError(t, host.CreateDirectory(context.Background(), "/dir", vfs.ModeDir|0755))
	f, err := host.CreateFile(context.Background(), "/dir/child.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, host.SetPermissions(context.Background(), "/dir/child.txt", 0644))

	j := New([]Item{{Host: host, Path: "/dir"}}, Options{
		Permissions: Mask{Bits: 0777, Value: 0600},
	}, &Callbacks{})
	require.NoError(t, runToCompletion(t, j))

	st, err := host.Stat(context.Background(), "/dir/child.txt", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0644, st.Mode.Perm(), "without Recursive, children must be untouched")
}

func TestMaskApplyReportsNoChangeWhenAlreadyEqual(t *testing.T) {
	m := Mask{Bits: 0777, Value: 0644}
	next, changed := m.apply(0644)
	assert.EqualValues(t, 0644, next)
	assert.False(t, changed)
}

func TestAttrsChangingJobStatErrorDefaultsToStop(t *testing.T) {
	host := memfs.New("mem")
	j := New([]Item{{Host: host, Path: "/missing"}}, Options{
		Permissions: Mask{Bits: 0777, Value: 0600},
	}, &Callbacks{})
	err := runToCompletion(t, j)
	assert.Error(t, err)
}
