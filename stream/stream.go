// Package stream provides wrappers for io.Writer and io.Reader implementing
// the primitives of the timestamp wire format: fixed-length byte reads,
// unsigned varints (base-128, least-significant group first, high bit set on
// every byte but the last) and varint length-prefixed byte blocks.
package stream

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/spacemeshos/ots/shared"
)

// MaxVarUintLen is the longest valid encoding of a varuint.
const MaxVarUintLen = binary.MaxVarintLen64

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return shared.ErrTruncatedStream
	}
	return err
}
