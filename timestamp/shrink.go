package timestamp

import (
	"errors"

	"github.com/spacemeshos/ots/attestation"
	"github.com/spacemeshos/ots/shared"
)

// Shrink returns a copy of t pruned down to the paths leading to its lowest
// block header attestation, together with that attestation. t is not modified.
//
// Among the children of a node, the one whose own shrunk attestation is the
// block header with the lowest height wins; on equal heights the first child
// in operation order wins. Every child that doesn't lead to the winner is
// dropped. A node that directly holds a single attestation is returned as is.
//
// Shrink fails with shared.ErrEmptyProof if t holds no attestations at all,
// and with shared.ErrAmbiguousShrink if no path ends in a block header.
func (t *Timestamp) Shrink() (*Timestamp, attestation.Attestation, error) {
	c := t.Clone()
	a, err := c.shrink()
	if err != nil {
		return nil, nil, err
	}
	return c, a, nil
}

// ShrinkInPlace is like Shrink but prunes t itself. On error t is unchanged.
// Children on the kept paths remain the same nodes; children obtained earlier
// from a pruned path are detached from t.
func (t *Timestamp) ShrinkInPlace() (attestation.Attestation, error) {
	if _, err := t.Clone().shrink(); err != nil {
		return nil, err
	}
	return t.shrink()
}

func (t *Timestamp) shrink() (attestation.Attestation, error) {
	all := t.AllAttestations()
	switch len(all) {
	case 0:
		return nil, shared.ErrEmptyProof
	case 1:
		for _, a := range all {
			return a, nil
		}
	}

	if len(t.entries) == 0 {
		return nil, shared.ErrEmptyProof
	}
	if len(t.attestations) == 1 {
		return t.attestations[0], nil
	}

	var (
		results = make([]attestation.Attestation, len(t.entries))
		best    attestation.Attestation
		bestH   uint64
	)
	for i, e := range t.entries {
		a, err := e.Timestamp.shrink()
		switch {
		case errors.Is(err, shared.ErrEmptyProof), errors.Is(err, shared.ErrAmbiguousShrink):
			continue
		case err != nil:
			return nil, err
		}
		results[i] = a

		h, ok := attestation.Height(a)
		if !ok {
			continue
		}
		if best == nil || h < bestH {
			best, bestH = a, h
		}
	}
	if best == nil {
		return nil, shared.ErrAmbiguousShrink
	}

	kept := t.entries[:0]
	for i, e := range t.entries {
		if results[i] != nil && attestation.Equal(results[i], best) {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(t.entries); i++ {
		t.entries[i] = Entry{}
	}
	t.entries = kept
	return best, nil
}
