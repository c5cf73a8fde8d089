package shared

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTruncatedStream     = errors.New("truncated stream")
	ErrVarUintOverflow     = errors.New("varuint overflows uint64")
	ErrPayloadTooLarge     = errors.New("payload too large")
	ErrPayloadTooSmall     = errors.New("payload too small")
	ErrTrailingGarbage     = errors.New("trailing garbage")
	ErrUnknownOperationTag = errors.New("unknown operation tag")
	ErrMalformedOperation  = errors.New("malformed operation")
	ErrInvalidURI          = errors.New("invalid pending attestation uri")
	ErrMessageMismatch     = errors.New("messages don't match")
	ErrEmptyProof          = errors.New("proof has no attestations")
	ErrAmbiguousShrink     = errors.New("no block header attestation to shrink to")
	ErrProofTooDeep        = errors.New("proof too deep")
	ErrBadMagic            = errors.New("bad timestamp file magic")
	ErrUnsupportedVersion  = errors.New("unsupported timestamp file version")
	ErrAttestationMismatch = errors.New("attestation doesn't match block header")
	ErrIncomplete          = errors.New("timestamp has no block header attestations")
	ErrNoBlockHeader       = errors.New("resolver returned no block header")
)

type UnknownOperationTagError struct {
	Tag byte
}

func (err UnknownOperationTagError) Error() string {
	return fmt.Sprintf("unknown operation tag: 0x%02x", err.Tag)
}

func (err UnknownOperationTagError) Unwrap() error {
	return ErrUnknownOperationTag
}

// DeserializationError reports a failure while decoding a proof tree.
// Path lists the operations leading from the root message to the node that
// failed to decode.
type DeserializationError struct {
	Path []string
	Err  error
}

func (err *DeserializationError) Error() string {
	if len(err.Path) == 0 {
		return fmt.Sprintf("deserialize timestamp: %v", err.Err)
	}
	return fmt.Sprintf("deserialize timestamp at [%s]: %v", strings.Join(err.Path, " -> "), err.Err)
}

func (err *DeserializationError) Unwrap() error {
	return err.Err
}

type MessageMismatchError struct {
	Expected []byte
	Found    []byte
}

func (err MessageMismatchError) Error() string {
	return fmt.Sprintf("can't merge timestamps for different messages; expected: %s, found: %s",
		hex.EncodeToString(err.Expected), hex.EncodeToString(err.Found))
}

func (err MessageMismatchError) Unwrap() error {
	return ErrMessageMismatch
}

type AttestationMismatchError struct {
	Attestation string
	Expected    []byte
	Found       []byte
}

func (err AttestationMismatchError) Error() string {
	return fmt.Sprintf("%v: merkle root %s, attested message %s",
		err.Attestation, hex.EncodeToString(err.Found), hex.EncodeToString(err.Expected))
}

func (err AttestationMismatchError) Unwrap() error {
	return ErrAttestationMismatch
}
