package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// SHA256Hex is the content hash recorded for extracted documents in batch
// artifacts.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SHA256HexFromReader hashes streamed content, used when an uploaded PDF is
// only available as a file handle.
func SHA256HexFromReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
