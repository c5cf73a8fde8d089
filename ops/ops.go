// Package ops implements the operations that form the edges of a timestamp
// proof tree. Every operation is a pure function of its argument and the
// message it's applied to, so a child message can always be recomputed from
// its parent.
package ops

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spacemeshos/ots/config"
	"github.com/spacemeshos/ots/shared"
	"github.com/spacemeshos/ots/stream"
)

// Kind enumerates the supported operations.
type Kind uint8

const (
	KindSHA1 Kind = iota + 1
	KindRIPEMD160
	KindSHA256
	KindKeccak256
	KindAppend
	KindPrepend
	KindReverse
)

// Wire tags.
const (
	TagSHA1      byte = 0x02
	TagRIPEMD160 byte = 0x03
	TagSHA256    byte = 0x08
	TagKeccak256 byte = 0x67
	TagAppend    byte = 0xf0
	TagPrepend   byte = 0xf1
	TagReverse   byte = 0xf2
)

var kinds = map[Kind]struct {
	tag          byte
	name         string
	digestLength int
}{
	KindSHA1:      {TagSHA1, "sha1", 20},
	KindRIPEMD160: {TagRIPEMD160, "ripemd160", 20},
	KindSHA256:    {TagSHA256, "sha256", 32},
	KindKeccak256: {TagKeccak256, "keccak256", 32},
	KindAppend:    {TagAppend, "append", 0},
	KindPrepend:   {TagPrepend, "prepend", 0},
	KindReverse:   {TagReverse, "reverse", 0},
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Tag returns the wire tag of k.
func (k Kind) Tag() byte {
	return kinds[k].tag
}

// IsHash reports whether k is a cryptographic hash.
func (k Kind) IsHash() bool {
	return kinds[k].digestLength > 0
}

// IsBinary reports whether k takes an argument.
func (k Kind) IsBinary() bool {
	return k == KindAppend || k == KindPrepend
}

// DigestLength is the output length of a hash kind, 0 for other kinds.
func (k Kind) DigestLength() int {
	return kinds[k].digestLength
}

// KindFromTag maps a wire tag to its Kind.
func KindFromTag(tag byte) (Kind, bool) {
	for k, info := range kinds {
		if info.tag == tag {
			return k, true
		}
	}
	return 0, false
}

// Operation is an immutable edge of a proof tree. The zero value is invalid.
type Operation struct {
	kind Kind
	arg  []byte
}

func SHA1() Operation      { return Operation{kind: KindSHA1} }
func RIPEMD160() Operation { return Operation{kind: KindRIPEMD160} }
func SHA256() Operation    { return Operation{kind: KindSHA256} }
func Keccak256() Operation { return Operation{kind: KindKeccak256} }
func Reverse() Operation   { return Operation{kind: KindReverse} }

// Append returns an operation appending arg to the message.
func Append(arg []byte) Operation {
	return Operation{kind: KindAppend, arg: bytes.Clone(arg)}
}

// Prepend returns an operation prepending arg to the message.
func Prepend(arg []byte) Operation {
	return Operation{kind: KindPrepend, arg: bytes.Clone(arg)}
}

// Hash returns the unary operation for a hash kind.
func Hash(kind Kind) (Operation, error) {
	if !kind.IsHash() {
		return Operation{}, fmt.Errorf("%w: %v is not a hash", shared.ErrMalformedOperation, kind)
	}
	return Operation{kind: kind}, nil
}

func (op Operation) Kind() Kind { return op.kind }
func (op Operation) Tag() byte  { return op.kind.Tag() }

// Arg returns a copy of the argument of a binary operation.
func (op Operation) Arg() []byte {
	return bytes.Clone(op.arg)
}

// Apply returns the result of the operation on msg.
func (op Operation) Apply(msg []byte) []byte {
	return op.ApplyWith(DefaultHasher, msg)
}

// ApplyWith is Apply with an explicit hash provider.
func (op Operation) ApplyWith(h Hasher, msg []byte) []byte {
	switch op.kind {
	case KindAppend:
		res := make([]byte, 0, len(msg)+len(op.arg))
		return append(append(res, msg...), op.arg...)
	case KindPrepend:
		res := make([]byte, 0, len(msg)+len(op.arg))
		return append(append(res, op.arg...), msg...)
	case KindReverse:
		res := make([]byte, len(msg))
		for i, b := range msg {
			res[len(msg)-1-i] = b
		}
		return res
	default:
		return h.Digest(op.kind, msg)
	}
}

// ApplyChecked is Apply for untrusted proofs: both msg and the result must
// fit in maxLen bytes.
func (op Operation) ApplyChecked(msg []byte, maxLen int) ([]byte, error) {
	if len(msg) > maxLen {
		return nil, fmt.Errorf("%w: %v: message too long; expected: <= %d, given: %d",
			shared.ErrMalformedOperation, op, maxLen, len(msg))
	}
	if op.kind.IsBinary() && len(msg)+len(op.arg) > maxLen {
		return nil, fmt.Errorf("%w: %v: result too long; expected: <= %d, given: %d",
			shared.ErrMalformedOperation, op, maxLen, len(msg)+len(op.arg))
	}
	return op.Apply(msg), nil
}

// Compare orders operations by tag, then by argument.
func Compare(a, b Operation) int {
	ta, tb := a.Tag(), b.Tag()
	switch {
	case ta < tb:
		return -1
	case ta > tb:
		return 1
	}
	return bytes.Compare(a.arg, b.arg)
}

// Equal reports whether a and b are the same operation.
func Equal(a, b Operation) bool {
	return a.kind == b.kind && bytes.Equal(a.arg, b.arg)
}

func (op Operation) String() string {
	if op.kind.IsBinary() {
		return op.kind.String() + " " + hex.EncodeToString(op.arg)
	}
	return op.kind.String()
}

// Serialize writes the tag and, for binary operations, the argument. The
// argument of a binary operation must hold between 1 and
// config.DefaultMaxResultLength bytes, otherwise a reader with default limits
// couldn't load it back.
func (op Operation) Serialize(w *stream.Writer) error {
	if _, ok := kinds[op.kind]; !ok {
		return fmt.Errorf("%w: invalid kind %d", shared.ErrMalformedOperation, op.kind)
	}
	if op.kind.IsBinary() && (len(op.arg) == 0 || len(op.arg) > config.DefaultMaxResultLength) {
		return fmt.Errorf("%w: %v argument; expected: 1..%d bytes, given: %d",
			shared.ErrMalformedOperation, op.kind, config.DefaultMaxResultLength, len(op.arg))
	}
	if err := w.WriteByte(op.Tag()); err != nil {
		return err
	}
	if op.kind.IsBinary() {
		return w.WriteVarBytes(op.arg)
	}
	return nil
}

// Deserialize reads a tag and the operation it introduces.
func Deserialize(r *stream.Reader, maxResultLength int) (Operation, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Operation{}, err
	}
	return DeserializeFromTag(r, tag, maxResultLength)
}

// DeserializeFromTag reads the operation introduced by an already consumed tag.
func DeserializeFromTag(r *stream.Reader, tag byte, maxResultLength int) (Operation, error) {
	kind, ok := KindFromTag(tag)
	if !ok {
		return Operation{}, shared.UnknownOperationTagError{Tag: tag}
	}
	if !kind.IsBinary() {
		return Operation{kind: kind}, nil
	}

	arg, err := r.ReadVarBytes(maxResultLength, 1)
	switch {
	case errors.Is(err, shared.ErrPayloadTooLarge), errors.Is(err, shared.ErrPayloadTooSmall):
		return Operation{}, fmt.Errorf("%w: %v argument: %v", shared.ErrMalformedOperation, kind, err)
	case err != nil:
		return Operation{}, err
	}
	return Operation{kind: kind, arg: arg}, nil
}
