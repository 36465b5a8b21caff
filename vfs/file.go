package vfs

import "io"

// Whence matches io.Seek* for Seek.
type Whence = int

// File is an opened handle returned by Host.CreateFile/Open (spec.md §3
// "VFSFile").
type File interface {
	io.Reader
	io.Writer
	io.Closer

	Seek(offset int64, whence Whence) (int64, error)
	Pos() int64
	Size() int64

	// PreferredIOSize is the host's preferred I/O chunk size, used by
	// CopyingJob's read/write loop to size its buffers (spec.md §4.6).
	PreferredIOSize() int

	LastError() error

	XAttrCount() int
	XAttrGet(name string) ([]byte, error)
	XAttrIterateNames(cb func(name string) error) error
}
