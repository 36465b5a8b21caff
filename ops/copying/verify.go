package copying

import (
	"context"
	"crypto/md5"

	"github.com/corefs/engine/vfs"
)

// verify implements spec.md §4.6 "Verify" stage: re-open every queued
// checksum target OFRead|OFShLock|OFNoCache, hash it, and compare
// against the expectation recorded during Process.
func (j *CopyingJob) verify(ctx context.Context) {
	for _, exp := range j.checksums {
		if j.checkpoint() {
			return
		}
		if !j.verifyOne(ctx, exp) {
			j.callbacks.fileVerificationFailed(exp.DestinationPath, exp.DestinationHost)
			j.verificationFailed = true
		}
	}
}

func (j *CopyingJob) verifyOne(ctx context.Context, exp ChecksumExpectation) bool {
	f, err := exp.DestinationHost.Open(ctx, exp.DestinationPath, vfs.OFRead|vfs.OFShLock|vfs.OFNoCache, 0)
	if err != nil {
		return false
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, ioBufferSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	sum := h.Sum(nil)
	for i := range exp.MD5 {
		if sum[i] != exp.MD5[i] {
			return false
		}
	}
	return true
}
