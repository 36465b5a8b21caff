//go:build !linux && !darwin

package nativefs

import (
	"context"
	"os"

	"github.com/corefs/engine/vfs"
)

func getFileFlags(path string, noFollow bool) (uint32, error) { return 0, nil }

func setFileFlags(path string, flags uint32, noFollow bool) error {
	return vfs.NewError(path, vfs.CodeNotSupported)
}

func applyNoCacheHint(fd *os.File) {}

func preferredIOSize(fd *os.File) int { return 64 * 1024 }

func preallocateHandle(fd *os.File, size int64) error { return nil }

func (f *FS) SetFlags(ctx context.Context, path string, flags uint32, noFollow bool) error {
	return vfs.NewError(path, vfs.CodeNotSupported)
}
