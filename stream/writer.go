package stream

import (
	"encoding/binary"
	"io"
)

// Writer writes wire primitives to an io.Writer.
type Writer struct {
	stream  io.Writer
	scratch [MaxVarUintLen]byte
}

// NewWriter returns a new instance of Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{stream: w}
}

// WriteBytes writes data as-is.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.stream.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return io.ErrShortWrite
	}
	return nil
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	w.scratch[0] = b
	return w.WriteBytes(w.scratch[:1])
}

// WriteVarUint writes val as an unsigned varint.
func (w *Writer) WriteVarUint(val uint64) error {
	n := binary.PutUvarint(w.scratch[:], val)
	return w.WriteBytes(w.scratch[:n])
}

// WriteVarBytes writes the length of data as a varuint, followed by data.
func (w *Writer) WriteVarBytes(data []byte) error {
	if err := w.WriteVarUint(uint64(len(data))); err != nil {
		return err
	}
	return w.WriteBytes(data)
}
