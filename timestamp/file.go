package timestamp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spacemeshos/ots/ops"
	"github.com/spacemeshos/ots/shared"
	"github.com/spacemeshos/ots/stream"
)

// DetachedFile is a timestamp stored apart from the file it proves: the hash
// operation used to digest the file and a timestamp for that digest.
type DetachedFile struct {
	FileHashOp ops.Operation
	Timestamp  *Timestamp
}

// NewDetachedFile returns a detached timestamp for a file whose digest under
// hashOp is digest.
func NewDetachedFile(hashOp ops.Operation, digest []byte) (*DetachedFile, error) {
	if !hashOp.Kind().IsHash() {
		return nil, fmt.Errorf("%w: %v is not a hash operation", shared.ErrMalformedOperation, hashOp)
	}
	if len(digest) != hashOp.Kind().DigestLength() {
		return nil, fmt.Errorf("%w: invalid digest length; expected: %d, given: %d",
			shared.ErrMalformedOperation, hashOp.Kind().DigestLength(), len(digest))
	}
	return &DetachedFile{FileHashOp: hashOp, Timestamp: New(digest)}, nil
}

// Digest returns the file digest the timestamp commits to.
func (f *DetachedFile) Digest() []byte {
	return f.Timestamp.Msg()
}

// ReadDetachedFile decodes a detached timestamp file. r must hold nothing
// after the timestamp.
func ReadDetachedFile(r io.Reader, opts ...OptionFunc) (*DetachedFile, error) {
	s := stream.NewBufferedReader(r)

	magic, err := s.ReadBytes(len(shared.HeaderMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, shared.HeaderMagic) {
		return nil, fmt.Errorf("%w: %x", shared.ErrBadMagic, magic)
	}

	version, err := s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if version != shared.MajorVersion {
		return nil, fmt.Errorf("%w: expected: %d, given: %d", shared.ErrUnsupportedVersion, shared.MajorVersion, version)
	}

	tag, err := s.ReadByte()
	if err != nil {
		return nil, err
	}
	kind, ok := ops.KindFromTag(tag)
	if !ok {
		return nil, shared.UnknownOperationTagError{Tag: tag}
	}
	hashOp, err := ops.Hash(kind)
	if err != nil {
		return nil, err
	}

	digest, err := s.ReadBytes(kind.DigestLength())
	if err != nil {
		return nil, err
	}
	ts, err := Deserialize(s, digest, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.AssertEOF(); err != nil {
		return nil, err
	}
	return &DetachedFile{FileHashOp: hashOp, Timestamp: ts}, nil
}

// Serialize writes f in the detached file format.
func (f *DetachedFile) Serialize(w io.Writer) error {
	s := stream.NewWriter(w)
	if err := s.WriteBytes(shared.HeaderMagic); err != nil {
		return err
	}
	if err := s.WriteVarUint(shared.MajorVersion); err != nil {
		return err
	}
	if err := f.FileHashOp.Serialize(s); err != nil {
		return err
	}
	if err := s.WriteBytes(f.Timestamp.msg); err != nil {
		return err
	}
	return f.Timestamp.Serialize(s)
}

// MarshalBinary returns f in the detached file format.
func (f *DetachedFile) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
