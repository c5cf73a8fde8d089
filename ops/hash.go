package ops

import (
	"crypto/sha1"
	"hash"

	"github.com/spacemeshos/sha256-simd"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// Hasher computes the digest of msg for a hash Kind.
type Hasher interface {
	Digest(kind Kind, msg []byte) []byte
}

// DefaultHasher backs Operation.Apply.
var DefaultHasher Hasher = stdHasher{}

type stdHasher struct{}

func (stdHasher) Digest(kind Kind, msg []byte) []byte {
	h := NewHash(kind)
	if h == nil {
		panic("ops: no hash function for " + kind.String())
	}
	h.Write(msg)
	return h.Sum(nil)
}

// NewHash returns a streaming hash for kind, or nil if kind isn't a hash.
func NewHash(kind Kind) hash.Hash {
	switch kind {
	case KindSHA1:
		return sha1.New()
	case KindSHA256:
		return sha256.New()
	case KindRIPEMD160:
		return ripemd160.New()
	case KindKeccak256:
		return sha3.NewLegacyKeccak256()
	default:
		return nil
	}
}
