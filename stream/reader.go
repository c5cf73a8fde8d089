package stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/spacemeshos/ots/shared"
)

// Reader reads wire primitives from an io.Reader.
type Reader struct {
	stream  io.Reader
	pending [1]byte
}

// NewReader returns a new instance of Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{stream: r}
}

// NewBufferedReader wraps r with a bufio.Reader, for streams where single byte
// reads are expensive (files, sockets).
func NewBufferedReader(r io.Reader) *Reader {
	return NewReader(bufio.NewReader(r))
}

// ReadBytes reads exactly n bytes from the stream.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid read length: %d", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r.stream, data); err != nil {
		return nil, truncated(err)
	}
	return data, nil
}

// ReadByte reads the next single byte from the stream.
func (r *Reader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(r.stream, r.pending[:]); err != nil {
		return 0, truncated(err)
	}
	return r.pending[0], nil
}

// ReadVarUint reads an unsigned varint.
func (r *Reader) ReadVarUint() (uint64, error) {
	val, err := binary.ReadUvarint(r)
	switch {
	case err == nil:
		return val, nil
	case errors.Is(err, shared.ErrTruncatedStream), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return 0, shared.ErrTruncatedStream
	default:
		return 0, fmt.Errorf("%w: %v", shared.ErrVarUintOverflow, err)
	}
}

// ReadVarBytes reads a varuint length followed by that many bytes.
// The length must be within [minLen, maxLen].
func (r *Reader) ReadVarBytes(maxLen, minLen int) ([]byte, error) {
	l, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if l > uint64(maxLen) {
		return nil, fmt.Errorf("%w: expected: <= %d, given: %d", shared.ErrPayloadTooLarge, maxLen, l)
	}
	if l < uint64(minLen) {
		return nil, fmt.Errorf("%w: expected: >= %d, given: %d", shared.ErrPayloadTooSmall, minLen, l)
	}
	return r.ReadBytes(int(l))
}

// AssertEOF fails with shared.ErrTrailingGarbage if the stream has any bytes left.
func (r *Reader) AssertEOF() error {
	_, err := io.ReadFull(r.stream, r.pending[:])
	switch {
	case err == nil:
		return shared.ErrTrailingGarbage
	case errors.Is(err, io.EOF):
		return nil
	default:
		return err
	}
}
