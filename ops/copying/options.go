// Package copying implements CopyingJob, the deepest component of the
// operations engine (spec.md §4.6): scan → process → verify → cleanup
// across any pair of vfs.Host backends, with conflict resolution,
// checksum verification, and locked-item handling.
package copying

// ExistBehavior controls what happens when a destination path already
// exists (spec.md §4.6 Options).
type ExistBehavior int

const (
	ExistAsk ExistBehavior = iota
	ExistSkipAll
	ExistOverwriteAll
	ExistOverwriteOld
	ExistAppendAll
	ExistStop
	ExistKeepBoth
)

// LockedItemsBehaviour controls the default reaction to a locked
// (UF_IMMUTABLE) item without prompting.
type LockedItemsBehaviour int

const (
	LockedAsk LockedItemsBehaviour = iota
	LockedSkipAll
	LockedUnlockAll
	LockedStop
)

// VerificationMode selects when the post-copy MD5 re-read verification
// pass runs.
type VerificationMode int

const (
	VerificationNever VerificationMode = iota
	VerificationWhenMoves
	VerificationAlways
)

// Options configures a CopyingJob (spec.md §4.6 "Options").
type Options struct {
	DoCopy             bool // false => rename/move
	PreserveSymlinks   bool
	CopyXAttrs         bool
	CopyFileTimes      bool
	CopyUnixFlags      bool
	CopyUnixOwners     bool
	DisableSystemCache bool
	Verification       VerificationMode
	ExistBehavior      ExistBehavior
	LockedItems        LockedItemsBehaviour
}

// DefaultOptions matches the teacher's conservative defaults: copy (not
// move), preserve everything copyable, verify only on moves, ask on
// conflict.
func DefaultOptions() Options {
	return Options{
		DoCopy:           true,
		PreserveSymlinks: true,
		CopyXAttrs:       true,
		CopyFileTimes:    true,
		CopyUnixFlags:    true,
		Verification:     VerificationWhenMoves,
		ExistBehavior:    ExistAsk,
		LockedItems:      LockedAsk,
	}
}

// ioBufferSize is the fixed 2 MiB double-buffer size of the regular-file
// copy engine (spec.md §4.6 "I/O loop: two equal-sized buffers of 2 MiB").
const ioBufferSize = 2 * 1024 * 1024

// maxConsecutiveZeroReads is the error threshold for the I/O loop
// (spec.md §4.6 "Treat more than 5 consecutive zero-byte results as an
// error").
const maxConsecutiveZeroReads = 5
