package vfs

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorErrorMessageIncludesPath(t *testing.T) {
	err := NewError("/a/b", CodeNotFound)
	assert.Equal(t, "/a/b: not found", err.Error())
}

func TestErrorErrorMessageWithoutPath(t *testing.T) {
	err := NewError("", CodeAlreadyExists)
	assert.Equal(t, "already exists", err.Error())
}

func TestNewPOSIXErrorWrapsErrno(t *testing.T) {
	err := NewPOSIXError("/x", syscall.ENOENT)
	assert.Equal(t, DomainPOSIX, err.Domain)
	assert.Contains(t, err.Error(), "no such file")
}

func TestWrapErrorPassesThroughExistingError(t *testing.T) {
	inner := NewError("/p", CodeIsADirectory)
	got := WrapError("/other", inner)
	assert.Same(t, inner, got)
}

func TestWrapErrorClassifiesErrno(t *testing.T) {
	got := WrapError("/p", syscall.EACCES)
	assert.Equal(t, DomainPOSIX, got.Domain)
	assert.EqualValues(t, syscall.EACCES, got.Code)
}

func TestWrapErrorNilIsNil(t *testing.T) {
	assert.Nil(t, WrapError("/p", nil))
}

func TestWrapErrorGenericFallsBackToVFSDomain(t *testing.T) {
	got := WrapError("/p", errors.New("boom"))
	assert.Equal(t, DomainVFS, got.Domain)
	assert.Equal(t, CodeGenericError, got.Code)
}

func TestErrorIsMatchesDomainAndCode(t *testing.T) {
	a := NewError("/a", CodeNotFound)
	b := NewError("/b", CodeNotFound)
	assert.True(t, errors.Is(a, b), "Is compares Domain+Code, not Path")
}

func TestIsNotExistRecognizesVFSAndPOSIXForms(t *testing.T) {
	assert.True(t, IsNotExist(NewError("/p", CodeNotFound)))
	assert.True(t, IsNotExist(NewPOSIXError("/p", syscall.ENOENT)))
	assert.False(t, IsNotExist(NewError("/p", CodeAlreadyExists)))
}

func TestIsPermissionLockedRequiresEPERMAndImmutableFlag(t *testing.T) {
	locked := NewPOSIXError("/p", syscall.EPERM)
	assert.True(t, IsPermissionLocked(locked, FlagImmutable))
	assert.False(t, IsPermissionLocked(locked, 0))

	notPerm := NewPOSIXError("/p", syscall.ENOENT)
	assert.False(t, IsPermissionLocked(notPerm, FlagImmutable))
}

func TestSentinelErrorsUsableWithErrorsIs(t *testing.T) {
	err := NewError("/x", CodeNotFound)
	require.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
}
