// Package timestamp implements the proof tree of the OpenTimestamps format.
//
// A Timestamp is a node holding a message. Its edges are operations leading to
// child nodes whose messages are the results of applying the operation to the
// parent's message, and its leaves are attestations that the message existed
// at some point in time. Only the root message is needed to rebuild the whole
// tree from its serialized form.
package timestamp

import (
	"bytes"
	"sort"

	"github.com/spacemeshos/ots/attestation"
	"github.com/spacemeshos/ots/ops"
)

// Entry is an edge of the tree.
type Entry struct {
	Op        ops.Operation
	Timestamp *Timestamp
}

// Timestamp is a node of a proof tree. A Timestamp is owned by a single proof
// and isn't safe for concurrent mutation.
type Timestamp struct {
	msg []byte

	// Both kept sorted: attestations by attestation.Compare, unique;
	// entries by ops.Compare, one per operation.
	attestations []attestation.Attestation
	entries      []Entry
}

// New returns an empty timestamp for msg.
func New(msg []byte) *Timestamp {
	return &Timestamp{msg: bytes.Clone(msg)}
}

// Msg returns the message the timestamp commits to.
func (t *Timestamp) Msg() []byte {
	return bytes.Clone(t.msg)
}

// Attestations returns the attestations held directly by t, in canonical order.
func (t *Timestamp) Attestations() []attestation.Attestation {
	return append([]attestation.Attestation(nil), t.attestations...)
}

// Ops returns the edges of t, in canonical order.
func (t *Timestamp) Ops() []Entry {
	return append([]Entry(nil), t.entries...)
}

// IsEmpty reports whether t has neither attestations nor operations.
func (t *Timestamp) IsEmpty() bool {
	return len(t.attestations) == 0 && len(t.entries) == 0
}

// Attest adds a to t. It reports false if t already holds an equal attestation.
func (t *Timestamp) Attest(a attestation.Attestation) bool {
	i := sort.Search(len(t.attestations), func(i int) bool {
		return attestation.Compare(t.attestations[i], a) >= 0
	})
	if i < len(t.attestations) && attestation.Equal(t.attestations[i], a) {
		return false
	}
	t.attestations = append(t.attestations, nil)
	copy(t.attestations[i+1:], t.attestations[i:])
	t.attestations[i] = a
	return true
}

// Child returns the child reached through op, if any.
func (t *Timestamp) Child(op ops.Operation) (*Timestamp, bool) {
	i, ok := t.search(op)
	if !ok {
		return nil, false
	}
	return t.entries[i].Timestamp, true
}

// Add returns the child reached through op, creating it if needed.
func (t *Timestamp) Add(op ops.Operation) *Timestamp {
	i, ok := t.search(op)
	if ok {
		return t.entries[i].Timestamp
	}
	child := &Timestamp{msg: op.Apply(t.msg)}
	t.insert(i, Entry{Op: op, Timestamp: child})
	return child
}

func (t *Timestamp) search(op ops.Operation) (int, bool) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return ops.Compare(t.entries[i].Op, op) >= 0
	})
	return i, i < len(t.entries) && ops.Equal(t.entries[i].Op, op)
}

func (t *Timestamp) insert(i int, e Entry) {
	t.entries = append(t.entries, Entry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = e
}

// Clone returns a deep copy of t.
func (t *Timestamp) Clone() *Timestamp {
	c := &Timestamp{
		msg:          bytes.Clone(t.msg),
		attestations: append([]attestation.Attestation(nil), t.attestations...),
	}
	if len(t.entries) > 0 {
		c.entries = make([]Entry, len(t.entries))
		for i, e := range t.entries {
			c.entries[i] = Entry{Op: e.Op, Timestamp: e.Timestamp.Clone()}
		}
	}
	return c
}

// Equal reports whether a and b are structurally identical trees.
func Equal(a, b *Timestamp) bool {
	if !bytes.Equal(a.msg, b.msg) {
		return false
	}
	if len(a.attestations) != len(b.attestations) || len(a.entries) != len(b.entries) {
		return false
	}
	for i := range a.attestations {
		if !attestation.Equal(a.attestations[i], b.attestations[i]) {
			return false
		}
	}
	for i := range a.entries {
		if !ops.Equal(a.entries[i].Op, b.entries[i].Op) || !Equal(a.entries[i].Timestamp, b.entries[i].Timestamp) {
			return false
		}
	}
	return true
}
