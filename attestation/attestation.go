// Package attestation implements the terminal elements of a timestamp proof:
// claims that a message existed at some point in time, either anchored in a
// block header or still pending at a calendar.
package attestation

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/spacemeshos/ots/shared"
	"github.com/spacemeshos/ots/stream"
)

// Tag identifies an attestation kind on the wire.
type Tag [shared.AttestationTagSize]byte

func (t Tag) String() string {
	return hex.EncodeToString(t[:])
}

var (
	PendingTag             = Tag{0x83, 0xdf, 0xe3, 0x0d, 0x2e, 0xf9, 0x0c, 0x8e}
	BitcoinBlockHeaderTag  = Tag{0x05, 0x88, 0x96, 0x0d, 0x73, 0xd7, 0x19, 0x01}
	EthereumBlockHeaderTag = Tag{0x30, 0xfe, 0x80, 0x87, 0xb5, 0xc7, 0xea, 0xd7}
)

// Attestation is one of Pending, BitcoinBlockHeader, EthereumBlockHeader or
// Unknown. The set is closed.
type Attestation interface {
	Tag() Tag
	String() string

	serializePayload(w *stream.Writer) error
}

// Pending is an attestation a calendar server promises to complete later.
type Pending struct {
	URI string
}

// BitcoinBlockHeader commits to the merkle root of the Bitcoin block at Height.
type BitcoinBlockHeader struct {
	Height uint64
}

// EthereumBlockHeader commits to the transactions root of the Ethereum block at Height.
type EthereumBlockHeader struct {
	Height uint64
}

// Unknown preserves an attestation of a kind this package doesn't understand,
// so that it survives a decode/encode round trip.
type Unknown struct {
	Identifier Tag
	Payload    []byte
}

func (Pending) Tag() Tag             { return PendingTag }
func (BitcoinBlockHeader) Tag() Tag  { return BitcoinBlockHeaderTag }
func (EthereumBlockHeader) Tag() Tag { return EthereumBlockHeaderTag }
func (a Unknown) Tag() Tag           { return a.Identifier }

func (a Pending) String() string {
	return fmt.Sprintf("PendingAttestation(%q)", a.URI)
}

func (a BitcoinBlockHeader) String() string {
	return fmt.Sprintf("BitcoinBlockHeaderAttestation(%d)", a.Height)
}

func (a EthereumBlockHeader) String() string {
	return fmt.Sprintf("EthereumBlockHeaderAttestation(%d)", a.Height)
}

func (a Unknown) String() string {
	return fmt.Sprintf("UnknownAttestation(%v, %x)", a.Identifier, a.Payload)
}

func (a Pending) serializePayload(w *stream.Writer) error {
	if err := CheckURI([]byte(a.URI)); err != nil {
		return err
	}
	return w.WriteVarBytes([]byte(a.URI))
}

func (a BitcoinBlockHeader) serializePayload(w *stream.Writer) error {
	return w.WriteVarUint(a.Height)
}

func (a EthereumBlockHeader) serializePayload(w *stream.Writer) error {
	return w.WriteVarUint(a.Height)
}

func (a Unknown) serializePayload(w *stream.Writer) error {
	return w.WriteBytes(a.Payload)
}

// IsPrimaryAnchor reports whether a is anchored in a block header.
func IsPrimaryAnchor(a Attestation) bool {
	switch a.(type) {
	case BitcoinBlockHeader, EthereumBlockHeader:
		return true
	default:
		return false
	}
}

// Height returns the block height of a primary anchor.
func Height(a Attestation) (uint64, bool) {
	switch a := a.(type) {
	case BitcoinBlockHeader:
		return a.Height, true
	case EthereumBlockHeader:
		return a.Height, true
	default:
		return 0, false
	}
}

// Compare orders attestations by tag, then by their variant-specific payload.
func Compare(a, b Attestation) int {
	ta, tb := a.Tag(), b.Tag()
	if c := bytes.Compare(ta[:], tb[:]); c != 0 {
		return c
	}

	switch a := a.(type) {
	case Pending:
		if b, ok := b.(Pending); ok {
			return compareStrings(a.URI, b.URI)
		}
	case BitcoinBlockHeader:
		if b, ok := b.(BitcoinBlockHeader); ok {
			return compareHeights(a.Height, b.Height)
		}
	case EthereumBlockHeader:
		if b, ok := b.(EthereumBlockHeader); ok {
			return compareHeights(a.Height, b.Height)
		}
	case Unknown:
		if b, ok := b.(Unknown); ok {
			return bytes.Compare(a.Payload, b.Payload)
		}
	}

	// An Unknown built by hand with the tag of a known kind.
	return compareHeights(rank(a), rank(b))
}

func rank(a Attestation) uint64 {
	switch a.(type) {
	case Pending:
		return 0
	case BitcoinBlockHeader:
		return 1
	case EthereumBlockHeader:
		return 2
	default:
		return 3
	}
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b Attestation) bool {
	return Compare(a, b) == 0
}

func compareHeights(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
