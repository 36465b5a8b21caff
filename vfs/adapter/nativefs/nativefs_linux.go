//go:build linux

package nativefs

import (
	"context"
	"os"

	"golang.org/x/sys/unix"

	"github.com/corefs/engine/vfs"
)

// Linux has no BSD st_flags; the closest analogue is the ext2/btrfs
// FS_IMMUTABLE_FL inode attribute, set/read via the FS_IOC_*FLAGS ioctls.
// We map that single bit onto vfs.FlagImmutable and leave the rest of the
// BSD flag space unset, which is enough to exercise the locked-item
// pipeline (§4.6/§4.7) on this platform.
const linuxImmutableFlag = 0x00000010 // FS_IMMUTABLE_FL

func getFileFlags(path string, noFollow bool) (uint32, error) {
	fd, err := openFlagsFD(path, noFollow)
	if err != nil {
		return 0, err
	}
	defer unix.Close(fd)
	attrs, err := unix.IoctlGetInt(fd, unix.FS_IOC_GETFLAGS)
	if err != nil {
		return 0, err
	}
	var out uint32
	if attrs&linuxImmutableFlag != 0 {
		out |= vfs.FlagImmutable
	}
	return out, nil
}

func setFileFlags(path string, flags uint32, noFollow bool) error {
	fd, err := openFlagsFD(path, noFollow)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	attrs, err := unix.IoctlGetInt(fd, unix.FS_IOC_GETFLAGS)
	if err != nil {
		return err
	}
	if flags&vfs.FlagImmutable != 0 {
		attrs |= linuxImmutableFlag
	} else {
		attrs &^= linuxImmutableFlag
	}
	return unix.IoctlSetInt(fd, unix.FS_IOC_SETFLAGS, attrs)
}

func openFlagsFD(path string, noFollow bool) (int, error) {
	flags := unix.O_RDONLY
	if noFollow {
		flags |= unix.O_NOFOLLOW
	}
	return unix.Open(path, flags, 0)
}

func (f *FS) SetFlags(ctx context.Context, path string, flags uint32, noFollow bool) error {
	path = f.normalize(path)
	if err := setFileFlags(path, flags, noFollow); err != nil {
		return vfs.WrapError(path, err)
	}
	return nil
}

// applyNoCacheHint asks the kernel to drop cached pages for fd as they
// are written, the nearest Linux analogue to OFNoCache/F_NOCACHE.
func applyNoCacheHint(fd *os.File) {
	_ = unix.Fadvise(int(fd.Fd()), 0, 0, unix.FADV_DONTNEED)
}

// preferredIOSize reports the filesystem's preferred block size
// (st_blksize), used by CopyingJob to size its I/O buffers (§4.6).
func preferredIOSize(fd *os.File) int {
	var st unix.Stat_t
	if err := unix.Fstat(int(fd.Fd()), &st); err != nil {
		return 64 * 1024
	}
	if st.Blksize <= 0 {
		return 64 * 1024
	}
	return int(st.Blksize)
}

// preallocateHandle reserves the first size bytes of the file with
// fallocate (mode 0, offset 0), the Linux analogue of F_ALLOCATECONTIG/F_ALLOCATEALL
// (§4.6 "Preallocation"). fallocate already zero-fills, so unlike
// HFS+ no follow-up ftruncate is required — closer to the APFS case
// described in the Design Notes.
func preallocateHandle(fd *os.File, size int64) error {
	return unix.Fallocate(int(fd.Fd()), 0, 0, size)
}
