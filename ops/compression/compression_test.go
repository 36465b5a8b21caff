package compression

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"io"
	"testing"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/corefs/engine/ops"
	"github.com/corefs/engine/vfs"
	"github.com/corefs/engine/vfs/adapter/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSrc(t *testing.T, host vfs.Host, p, content string) {
	t.Helper()
	f, err := host.CreateFile(context.Background(), p)
	require.NoError(t, err)
	_, err = f.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func readAll(t *testing.T, host vfs.Host, p string) []byte {
	t.Helper()
	f, err := host.Open(context.Background(), p, vfs.OFRead, 0)
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	return b
}

func runToCompletion(t *testing.T, j *CompressionJob) error {
	t.Helper()
	job := ops.NewJob(j, time.Now(), j.Title())
	job.Run()
	return job.Err()
}

func TestCompressionJobWritesReadableUnencryptedZip(t *testing.T) {
	host := memfs.New("mem")
	writeSrc(t, host, "/a.txt", "hello world")

	j := New([]Item{{Host: host, Path: "/a.txt"}}, host, "/out.zip", "")
	require.NoError(t, runToCompletion(t, j))

	raw := readAll(t, host, "/out.zip")
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "a.txt", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

func TestCompressionJobRecursesDirectories(t *testing.T) {
	host := memfs.New("mem")
	require.NoError(t, host.CreateDirectory(context.Background(), "/dir", vfs.ModeDir|0755))
	writeSrc(t, host, "/dir/child.txt", "nested")

	j := New([]Item{{Host: host, Path: "/dir"}}, host, "/out.zip", "")
	require.NoError(t, runToCompletion(t, j))

	raw := readAll(t, host, "/out.zip")
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "dir/")
	assert.Contains(t, names, "dir/child.txt")
}

func TestCompressionJobEmptyInputWritesSingleEmptyEntry(t *testing.T) {
	host := memfs.New("mem")
	j := New(nil, host, "/out.zip", "")
	require.NoError(t, runToCompletion(t, j))

	raw := readAll(t, host, "/out.zip")
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "", zr.File[0].Name)
}

func TestCompressionJobPasswordEncryptsPayload(t *testing.T) {
	host := memfs.New("mem")
	writeSrc(t, host, "/a.txt", "secret payload")

	j := New([]Item{{Host: host, Path: "/a.txt"}}, host, "/out.zip", "hunter2")
	require.NoError(t, runToCompletion(t, j))

	raw := readAll(t, host, "/out.zip")
	require.Greater(t, len(raw), aes.BlockSize+16)

	// the on-disk format is salt(16) || iv(16) || AES-256-CTR(zip bytes),
	// matching wrapEncrypted's write order.
	salt, iv, ciphertext := raw[:16], raw[16:32], raw[32:]
	key := pbkdf2.Key([]byte("hunter2"), salt, 100000, 32, sha256.New)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	stream := cipher.NewCTR(block, iv)
	plain := make([]byte, len(ciphertext))
	stream.XORKeyStream(plain, ciphertext)

	zr, err := zip.NewReader(bytes.NewReader(plain), int64(len(plain)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "a.txt", zr.File[0].Name)
}

func TestCompressionJobTitleIncludesDestination(t *testing.T) {
	host := memfs.New("mem")
	j := New(nil, host, "/archive.zip", "")
	assert.Contains(t, j.Title(), "/archive.zip")
}
