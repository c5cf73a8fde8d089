// Package verifying checks the block header attestations of a timestamp
// against block headers supplied by a Resolver.
package verifying

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/ots/attestation"
	"github.com/spacemeshos/ots/ops"
	"github.com/spacemeshos/ots/shared"
	"github.com/spacemeshos/ots/timestamp"
)

// Chain identifies the blockchain an attestation is anchored in.
type Chain int

const (
	ChainBitcoin Chain = iota + 1
	ChainEthereum
)

func (c Chain) String() string {
	switch c {
	case ChainBitcoin:
		return "bitcoin"
	case ChainEthereum:
		return "ethereum"
	default:
		return fmt.Sprintf("chain(%d)", int(c))
	}
}

// Anchor returns the chain and height a block header attestation refers to.
func Anchor(a attestation.Attestation) (Chain, uint64, bool) {
	switch a := a.(type) {
	case attestation.BitcoinBlockHeader:
		return ChainBitcoin, a.Height, true
	case attestation.EthereumBlockHeader:
		return ChainEthereum, a.Height, true
	default:
		return 0, 0, false
	}
}

// BlockHeader holds the parts of a block header an attestation is checked
// against. MerkleRoot is in the byte order the chain commits it in.
type BlockHeader struct {
	MerkleRoot []byte    `json:"merkle_root"`
	Time       time.Time `json:"time"`
}

// Resolver looks up block headers.
type Resolver interface {
	BlockHeader(ctx context.Context, chain Chain, height uint64) (*BlockHeader, error)
}

// Result is a verified attestation.
type Result struct {
	Attestation attestation.Attestation
	Chain       Chain
	Height      uint64

	// Msg is the message committed to by the attestation.
	Msg []byte
	// Time of the block the message is anchored in.
	Time time.Time
}

type Verifier struct {
	resolver Resolver
	opts     *option
}

func NewVerifier(resolver Resolver, opts ...OptionFunc) (*Verifier, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &Verifier{resolver: resolver, opts: options}, nil
}

type anchor struct {
	att    attestation.Attestation
	chain  Chain
	height uint64
	msg    []byte
	path   []ops.Operation
}

// Verify checks every block header attestation reachable from ts and returns
// the results sorted by block time, oldest first. Pending and unknown
// attestations are skipped. It fails with shared.ErrIncomplete if ts holds no
// block header attestation, and with the first resolver or mismatch error
// otherwise.
func (v *Verifier) Verify(ctx context.Context, ts *timestamp.Timestamp) ([]Result, error) {
	anchors := collectAnchors(ts)
	if len(anchors) == 0 {
		return nil, shared.ErrIncomplete
	}

	results := make([]Result, len(anchors))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(v.opts.workers)
	for i, a := range anchors {
		i, a := i, a
		eg.Go(func() error {
			res, err := v.verifyAnchor(ctx, a)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Time.Before(results[j].Time)
	})
	return results, nil
}

func (v *Verifier) verifyAnchor(ctx context.Context, a anchor) (*Result, error) {
	logger := v.opts.logger.With(
		zap.Stringer("attestation", a.att),
		zap.String("msg", hex.EncodeToString(a.msg)),
	)

	if a.chain == ChainBitcoin && len(a.msg) != 32 {
		return nil, fmt.Errorf("%w: %v: expected 32 byte message, given: %d",
			shared.ErrAttestationMismatch, a.att, len(a.msg))
	}

	header, err := v.resolver.BlockHeader(ctx, a.chain, a.height)
	if err != nil {
		logger.Warn("verifying: block header lookup failed", zap.Error(err))
		return nil, fmt.Errorf("resolve %v block %d: %w", a.chain, a.height, err)
	}
	if header == nil {
		return nil, fmt.Errorf("resolve %v block %d: %w", a.chain, a.height, shared.ErrNoBlockHeader)
	}
	if !bytes.Equal(header.MerkleRoot, a.msg) {
		logger.Info("verifying: attestation doesn't match block header",
			zap.String("merkle_root", hex.EncodeToString(header.MerkleRoot)),
		)
		return nil, shared.AttestationMismatchError{
			Attestation: a.att.String(),
			Expected:    bytes.Clone(a.msg),
			Found:       bytes.Clone(header.MerkleRoot),
		}
	}

	logger.Debug("verifying: attestation verified",
		zap.Int("path_length", len(a.path)),
		zap.Time("block_time", header.Time),
	)
	return &Result{
		Attestation: a.att,
		Chain:       a.chain,
		Height:      a.height,
		Msg:         bytes.Clone(a.msg),
		Time:        header.Time,
	}, nil
}

// collectAnchors returns every distinct (attestation, message) pair of ts that
// is anchored in a block header, in walk order.
func collectAnchors(ts *timestamp.Timestamp) []anchor {
	var anchors []anchor
	seen := make(map[string]struct{})
	_ = ts.Walk(func(path []ops.Operation, node *timestamp.Timestamp) error {
		for _, att := range node.Attestations() {
			chain, height, ok := Anchor(att)
			if !ok {
				continue
			}
			msg := node.Msg()
			key := fmt.Sprintf("%v/%d/%x", chain, height, msg)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			anchors = append(anchors, anchor{
				att:    att,
				chain:  chain,
				height: height,
				msg:    msg,
				path:   append([]ops.Operation(nil), path...),
			})
		}
		return nil
	})
	return anchors
}
