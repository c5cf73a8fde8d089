package attestation

import (
	"bytes"
	"fmt"

	"github.com/spacemeshos/ots/config"
	"github.com/spacemeshos/ots/shared"
	"github.com/spacemeshos/ots/stream"
)

// Serialize writes the tag of a followed by its length-prefixed payload. The
// payload must fit in config.DefaultMaxPayloadSize bytes.
func Serialize(w *stream.Writer, a Attestation) error {
	var payload bytes.Buffer
	if err := a.serializePayload(stream.NewWriter(&payload)); err != nil {
		return err
	}
	if payload.Len() > config.DefaultMaxPayloadSize {
		return fmt.Errorf("attestation %v: %w: expected: <= %d, given: %d",
			a.Tag(), shared.ErrPayloadTooLarge, config.DefaultMaxPayloadSize, payload.Len())
	}

	tag := a.Tag()
	if err := w.WriteBytes(tag[:]); err != nil {
		return err
	}
	return w.WriteVarBytes(payload.Bytes())
}

// Deserialize reads an attestation. Attestations with an unrecognized tag are
// returned as Unknown rather than rejected.
func Deserialize(r *stream.Reader, maxPayloadSize int) (Attestation, error) {
	rawTag, err := r.ReadBytes(shared.AttestationTagSize)
	if err != nil {
		return nil, err
	}
	var tag Tag
	copy(tag[:], rawTag)

	payload, err := r.ReadVarBytes(maxPayloadSize, 0)
	if err != nil {
		return nil, fmt.Errorf("attestation %v: %w", tag, err)
	}

	var a Attestation
	pr := stream.NewReader(bytes.NewReader(payload))
	switch tag {
	case PendingTag:
		a, err = deserializePending(pr)
	case BitcoinBlockHeaderTag:
		var height uint64
		height, err = pr.ReadVarUint()
		a = BitcoinBlockHeader{Height: height}
	case EthereumBlockHeaderTag:
		var height uint64
		height, err = pr.ReadVarUint()
		a = EthereumBlockHeader{Height: height}
	default:
		return Unknown{Identifier: tag, Payload: payload}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("attestation %v: %w", tag, err)
	}

	// Kinds that want room for future fields must declare it explicitly.
	if err := pr.AssertEOF(); err != nil {
		return nil, fmt.Errorf("attestation %v: %w", tag, err)
	}
	return a, nil
}

func deserializePending(r *stream.Reader) (Attestation, error) {
	uri, err := r.ReadVarBytes(shared.MaxURILength, 0)
	if err != nil {
		return nil, err
	}
	if err := CheckURI(uri); err != nil {
		return nil, err
	}
	return Pending{URI: string(uri)}, nil
}

// CheckURI rejects calendar URIs with characters outside [A-Za-z0-9._/:-].
func CheckURI(uri []byte) error {
	if len(uri) > shared.MaxURILength {
		return fmt.Errorf("%w: too long; expected: <= %d, given: %d", shared.ErrInvalidURI, shared.MaxURILength, len(uri))
	}
	for _, c := range uri {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '.', c == '-', c == '_', c == '/', c == ':':
		default:
			return fmt.Errorf("%w: invalid character 0x%02x", shared.ErrInvalidURI, c)
		}
	}
	return nil
}
