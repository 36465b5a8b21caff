package vfs

import (
	"errors"
	"fmt"
	"syscall"
)

// Domain classifies where an Error originated.
type Domain int

const (
	DomainPOSIX Domain = iota
	DomainVFS
)

// VFS-domain codes, independent of errno.
const (
	CodeOK Code = iota
	CodeGenericError
	CodeNotFound
	CodeNotSupported
	CodeNotImplemented
	CodeAlreadyExists
	CodeNotADirectory
	CodeIsADirectory
	CodeDirectoryNotEmpty
	CodeCanceled
)

// Code is an error code, meaningful within its Domain.
type Code int32

// Error is the uniform error currency returned by every Host/File call
// (spec.md §6 "VFSHost error model"). POSIX errors carry the host errno
// in Code; VFS errors use the small enumeration above.
type Error struct {
	Domain Domain
	Code   Code
	Path   string
	Err    error // underlying error, if any, for Unwrap
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.message())
	}
	return e.message()
}

func (e *Error) message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	switch e.Domain {
	case DomainPOSIX:
		return syscall.Errno(e.Code).Error()
	default:
		switch e.Code {
		case CodeOK:
			return "ok"
		case CodeNotFound:
			return "not found"
		case CodeNotSupported:
			return "not supported by this host"
		case CodeNotImplemented:
			return "not implemented"
		case CodeAlreadyExists:
			return "already exists"
		case CodeNotADirectory:
			return "not a directory"
		case CodeIsADirectory:
			return "is a directory"
		case CodeDirectoryNotEmpty:
			return "directory not empty"
		case CodeCanceled:
			return "operation canceled"
		default:
			return "generic vfs error"
		}
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewPOSIXError wraps an errno observed from a native syscall.
func NewPOSIXError(path string, errno syscall.Errno) *Error {
	return &Error{Domain: DomainPOSIX, Code: Code(errno), Path: path, Err: errno}
}

// NewError builds a VFS-domain error.
func NewError(path string, code Code) *Error {
	return &Error{Domain: DomainVFS, Code: code, Path: path}
}

// WrapError classifies a generic Go error (typically from the os package)
// into a *Error, unwrapping syscall.Errno when present. Mirrors the way
// fserrors.Cause/fserrors.NoRetryError classify errors in the teacher.
func WrapError(path string, err error) *Error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return ve
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return NewPOSIXError(path, errno)
	}
	return &Error{Domain: DomainVFS, Code: CodeGenericError, Path: path, Err: err}
}

// Is lets errors.Is(err, vfs.ErrNotFound) style comparisons work against
// the sentinel codes below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Domain == t.Domain && e.Code == t.Code
}

// Sentinel errors usable with errors.Is.
var (
	ErrNotFound      = &Error{Domain: DomainVFS, Code: CodeNotFound}
	ErrAlreadyExists = &Error{Domain: DomainVFS, Code: CodeAlreadyExists}
	ErrNotADirectory = &Error{Domain: DomainVFS, Code: CodeNotADirectory}
	ErrNotSupported  = &Error{Domain: DomainVFS, Code: CodeNotSupported}
)

// IsNotExist reports whether err indicates a missing path, across both
// POSIX ENOENT and the VFS-domain CodeNotFound.
func IsNotExist(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		if e.Domain == DomainVFS && e.Code == CodeNotFound {
			return true
		}
		if e.Domain == DomainPOSIX && syscall.Errno(e.Code) == syscall.ENOENT {
			return true
		}
	}
	return false
}

// IsPermissionLocked reports the EPERM+UF_IMMUTABLE combination that
// triggers the locked-item callback pipeline (spec.md §4.6/§4.7).
func IsPermissionLocked(err error, flags uint32) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Domain != DomainPOSIX || syscall.Errno(e.Code) != syscall.EPERM {
		return false
	}
	return flags&FlagImmutable != 0
}
