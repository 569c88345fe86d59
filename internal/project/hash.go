package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a fixed 256-bit content hash.
type Digest [32]byte

// Sum hashes content.
func Sum(content []byte) Digest {
	return Digest(sha256.Sum256(content))
}

// Combine builds H(base || parts...). parts must be in a deterministic order.
func Combine(base Digest, parts ...[]byte) Digest {
	h := sha256.New()
	_, _ = h.Write(base[:])
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
