package vfs

import (
	"context"
	"time"
)

// StatFlags modify Stat's behaviour.
type StatFlags uint32

const (
	// FNoFollow selects lstat-style behaviour: report the symlink itself
	// rather than its target.
	FNoFollow StatFlags = 1 << iota
)

// Features is a bitmap of optional capabilities a Host advertises.
type Features uint32

const (
	FeatureSetTimes Features = 1 << iota
	FeatureSetOwnership
	FeatureSetPermissions
	FeatureSetFlags
	FeatureNonEmptyRmDir
	FeatureXAttrs
	FeatureHardlinks
	FeatureSymlinks
)

// Has reports whether all of the given feature bits are present.
func (f Features) Has(bits Features) bool { return f&bits == bits }

// DirEntryCallback is invoked once per entry of a directory listing.
// Returning a non-nil error aborts the iteration and is propagated to the
// caller of IterateDirectoryListing.
type DirEntryCallback func(item ListingItem) error

// Host is the abstract filesystem contract every backend (native, archive,
// FTP/SFTP, in-memory test double, ...) implements. It is the Go rendering
// of spec.md §3 "VFSHost (capability interface)".
type Host interface {
	// Tag returns a short stable identifier for this host instance, used
	// to detect "same host" dispatch decisions in CopyingJob.
	Tag() string

	Stat(ctx context.Context, path string, flags StatFlags) (Stat, error)
	IterateDirectoryListing(ctx context.Context, path string, cb DirEntryCallback) error
	Exists(ctx context.Context, path string) bool

	CreateFile(ctx context.Context, path string) (File, error)
	Open(ctx context.Context, path string, flags OpenFlags, perm Mode) (File, error)

	Rename(ctx context.Context, oldPath, newPath string) error
	Unlink(ctx context.Context, path string) error
	Trash(ctx context.Context, path string) error

	CreateDirectory(ctx context.Context, path string, mode Mode) error
	RemoveDirectory(ctx context.Context, path string) error

	CreateSymlink(ctx context.Context, path, value string) error
	ReadSymlink(ctx context.Context, path string) (string, error)
	CreateHardlink(ctx context.Context, path, existingPath string) error

	SetPermissions(ctx context.Context, path string, mode Mode) error
	SetOwnership(ctx context.Context, path string, uid, gid uint32) error
	SetFlags(ctx context.Context, path string, flags uint32, noFollow bool) error
	SetTimes(ctx context.Context, path string, atime, mtime time.Time) error

	XAttrNames(ctx context.Context, path string) ([]string, error)
	XAttrGet(ctx context.Context, path, name string) ([]byte, error)
	XAttrSet(ctx context.Context, path, name string, value []byte) error
	XAttrRemoveAll(ctx context.Context, path string) error

	IsNativeFS() bool
	IsCaseSensitiveAtPath(ctx context.Context, path string) bool
	Features() Features
}

// OpenFlags mirror the VFSFile open flags of spec.md §3.
type OpenFlags uint32

const (
	OFRead OpenFlags = 1 << iota
	OFWrite
	OFCreate
	OFTruncate
	OFAppend
	OFNoCache
	OFShLock
	OFDirectory
	OFExcl
)
