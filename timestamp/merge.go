package timestamp

import (
	"bytes"

	"github.com/spacemeshos/ots/shared"
)

// Merge adds every attestation and operation path of other to t, so that t
// proves everything either tree proved. Both trees must be built for the same
// message; on any error t is left unchanged. other is never modified.
//
// Existing nodes of t are kept, so children obtained earlier through Add or
// Child stay attached to t.
func (t *Timestamp) Merge(other *Timestamp) error {
	if !bytes.Equal(t.msg, other.msg) {
		return shared.MessageMismatchError{Expected: t.Msg(), Found: other.Msg()}
	}
	// Dry run first: merge fails half way through on inconsistent input.
	if err := t.Clone().merge(other); err != nil {
		return err
	}
	return t.merge(other)
}

func (t *Timestamp) merge(other *Timestamp) error {
	if !bytes.Equal(t.msg, other.msg) {
		return shared.MessageMismatchError{Expected: t.Msg(), Found: other.Msg()}
	}
	for _, a := range other.attestations {
		t.Attest(a)
	}
	for _, e := range other.entries {
		if err := t.Add(e.Op).merge(e.Timestamp); err != nil {
			return err
		}
	}
	return nil
}
