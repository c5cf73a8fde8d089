package timestamp

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spacemeshos/ots/attestation"
	"github.com/spacemeshos/ots/ops"
)

// SkipChildren can be returned by a WalkFunc to skip the subtree below the
// current node.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node visited by Walk. path holds the
// operations leading from the root to node and is only valid during the call.
type WalkFunc func(path []ops.Operation, node *Timestamp) error

// Walk visits t and its descendants depth first, parents before children and
// children in operation order. It stops at the first error returned by fn.
func (t *Timestamp) Walk(fn WalkFunc) error {
	err := t.walk(nil, fn)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func (t *Timestamp) walk(path []ops.Operation, fn WalkFunc) error {
	switch err := fn(path, t); {
	case errors.Is(err, SkipChildren):
		return nil
	case err != nil:
		return err
	}
	for _, e := range t.entries {
		if err := e.Timestamp.walk(append(path, e.Op), fn); err != nil {
			return err
		}
	}
	return nil
}

// DirectlyVerified returns the nodes closest to t that hold attestations:
// t itself if it has any, otherwise the directly verified nodes of every
// child in operation order.
func (t *Timestamp) DirectlyVerified() []*Timestamp {
	if len(t.attestations) > 0 {
		return []*Timestamp{t}
	}
	var res []*Timestamp
	for _, e := range t.entries {
		res = append(res, e.Timestamp.DirectlyVerified()...)
	}
	return res
}

// AllAttestations maps the message of every node holding an attestation to
// that attestation. When several attestations commit to the same message only
// the one visited last is kept.
func (t *Timestamp) AllAttestations() map[string]attestation.Attestation {
	res := make(map[string]attestation.Attestation)
	_ = t.Walk(func(_ []ops.Operation, node *Timestamp) error {
		for _, a := range node.attestations {
			res[string(node.msg)] = a
		}
		return nil
	})
	return res
}

var errFound = errors.New("found")

// IsComplete reports whether any attestation reachable from t is anchored in
// a block header. Pending and unknown attestations alone don't count.
func (t *Timestamp) IsComplete() bool {
	err := t.Walk(func(_ []ops.Operation, node *Timestamp) error {
		for _, a := range node.attestations {
			if attestation.IsPrimaryAnchor(a) {
				return errFound
			}
		}
		return nil
	})
	return errors.Is(err, errFound)
}

// StrTree renders t as an indented tree, one operation or attestation per line.
func (t *Timestamp) StrTree(indent int) string {
	var sb strings.Builder
	t.strTree(&sb, indent, false)
	return sb.String()
}

// StrTreeVerbose is like StrTree but also prints the message at every step.
func (t *Timestamp) StrTreeVerbose(indent int) string {
	var sb strings.Builder
	t.strTree(&sb, indent, true)
	return sb.String()
}

func (t *Timestamp) strTree(sb *strings.Builder, indent int, verbose bool) {
	prefix := strings.Repeat("    ", indent)
	for _, a := range t.attestations {
		fmt.Fprintf(sb, "%sverify %v", prefix, a)
		if verbose {
			fmt.Fprintf(sb, " (%s)", hex.EncodeToString(t.msg))
		}
		sb.WriteByte('\n')
	}

	// A single path continues at the same depth; forks are marked and nested.
	fork := len(t.entries) > 1
	for _, e := range t.entries {
		sb.WriteString(prefix)
		if fork {
			sb.WriteString(" -> ")
		}
		sb.WriteString(e.Op.String())
		if verbose {
			fmt.Fprintf(sb, " (%s)", hex.EncodeToString(e.Timestamp.msg))
		}
		sb.WriteByte('\n')
		if fork {
			e.Timestamp.strTree(sb, indent+1, verbose)
		} else {
			e.Timestamp.strTree(sb, indent, verbose)
		}
	}
}
