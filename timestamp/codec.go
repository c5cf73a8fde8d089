package timestamp

import (
	"bytes"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spacemeshos/ots/attestation"
	"github.com/spacemeshos/ots/config"
	"github.com/spacemeshos/ots/ops"
	"github.com/spacemeshos/ots/shared"
	"github.com/spacemeshos/ots/stream"
)

// Deserialize reads a timestamp for msg from r.
//
// The wire form doesn't carry intermediate messages: each child message is
// computed from msg while decoding, so msg must be the message the proof was
// built for. Any failure aborts the whole decode and is reported as a
// *shared.DeserializationError.
func Deserialize(r *stream.Reader, msg []byte, opts ...OptionFunc) (*Timestamp, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	d := &decoder{r: r, opts: options}
	return d.decode(bytes.Clone(msg), 0)
}

// Unmarshal decodes data, which must hold exactly one timestamp for msg.
func Unmarshal(data, msg []byte, opts ...OptionFunc) (*Timestamp, error) {
	r := stream.NewReader(bytes.NewReader(data))
	t, err := Deserialize(r, msg, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.AssertEOF(); err != nil {
		return nil, &shared.DeserializationError{Err: err}
	}
	return t, nil
}

type decoder struct {
	r    *stream.Reader
	opts *option
	path []string
}

func (d *decoder) fail(err error) error {
	var derr *shared.DeserializationError
	if errors.As(err, &derr) {
		return err
	}
	return &shared.DeserializationError{
		Path: append([]string(nil), d.path...),
		Err:  err,
	}
}

// decode reads zero or more entries prefixed by the continuation marker,
// followed by exactly one entry without it.
func (d *decoder) decode(msg []byte, depth int) (*Timestamp, error) {
	if depth > d.opts.maxDepth {
		return nil, d.fail(fmt.Errorf("%w: expected: <= %d", shared.ErrProofTooDeep, d.opts.maxDepth))
	}

	t := &Timestamp{msg: msg}
	tag, err := d.r.ReadByte()
	if err != nil {
		return nil, d.fail(err)
	}
	for tag == shared.ContinuationMarker {
		next, err := d.r.ReadByte()
		if err != nil {
			return nil, d.fail(err)
		}
		if err := d.decodeEntry(t, next, depth); err != nil {
			return nil, err
		}
		if tag, err = d.r.ReadByte(); err != nil {
			return nil, d.fail(err)
		}
	}
	if err := d.decodeEntry(t, tag, depth); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *decoder) decodeEntry(t *Timestamp, tag byte, depth int) error {
	if tag == shared.AttestationMarker {
		a, err := attestation.Deserialize(d.r, d.opts.maxPayloadSize)
		if err != nil {
			return d.fail(err)
		}
		if u, ok := a.(attestation.Unknown); ok {
			d.opts.logger.Debug("timestamp: unknown attestation",
				zap.Stringer("tag", u.Identifier),
				zap.Int("payload_size", len(u.Payload)),
			)
		}
		if !t.Attest(a) {
			d.opts.logger.Debug("timestamp: duplicate attestation", zap.Stringer("attestation", a))
		}
		return nil
	}

	op, err := ops.DeserializeFromTag(d.r, tag, d.opts.maxResultLength)
	if err != nil {
		return d.fail(err)
	}
	result, err := op.ApplyChecked(t.msg, d.opts.maxResultLength)
	if err != nil {
		return d.fail(err)
	}

	d.path = append(d.path, op.String())
	child, err := d.decode(result, depth+1)
	d.path = d.path[:len(d.path)-1]
	if err != nil {
		return err
	}

	i, ok := t.search(op)
	if !ok {
		t.insert(i, Entry{Op: op, Timestamp: child})
		return nil
	}
	// Not canonical, but both subtrees prove the same message.
	d.opts.logger.Debug("timestamp: duplicate operation", zap.Stringer("op", op))
	if err := t.entries[i].Timestamp.merge(child); err != nil {
		return d.fail(err)
	}
	return nil
}

// Serialize writes t in canonical form: attestations in attestation order,
// then operations in operation order. Trees nested deeper than
// config.DefaultMaxDepth are rejected with shared.ErrProofTooDeep.
func (t *Timestamp) Serialize(w *stream.Writer) error {
	return t.serialize(w, 0)
}

func (t *Timestamp) serialize(w *stream.Writer, depth int) error {
	if depth > config.DefaultMaxDepth {
		return fmt.Errorf("%w: expected: <= %d", shared.ErrProofTooDeep, config.DefaultMaxDepth)
	}
	if t.IsEmpty() {
		return fmt.Errorf("%w: can't serialize an empty timestamp", shared.ErrEmptyProof)
	}

	n := len(t.attestations)
	if n > 1 {
		for _, a := range t.attestations[:n-1] {
			if err := writeAttestation(w, a, true); err != nil {
				return err
			}
		}
	}

	if len(t.entries) == 0 {
		return writeAttestation(w, t.attestations[n-1], false)
	}

	if n > 0 {
		if err := writeAttestation(w, t.attestations[n-1], true); err != nil {
			return err
		}
	}
	for i, e := range t.entries {
		if i < len(t.entries)-1 {
			if err := w.WriteByte(shared.ContinuationMarker); err != nil {
				return err
			}
		}
		if err := e.Op.Serialize(w); err != nil {
			return err
		}
		if err := e.Timestamp.serialize(w, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func writeAttestation(w *stream.Writer, a attestation.Attestation, continued bool) error {
	if continued {
		if err := w.WriteByte(shared.ContinuationMarker); err != nil {
			return err
		}
	}
	if err := w.WriteByte(shared.AttestationMarker); err != nil {
		return err
	}
	return attestation.Serialize(w, a)
}

// MarshalBinary returns the canonical serialization of t.
func (t *Timestamp) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Serialize(stream.NewWriter(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
