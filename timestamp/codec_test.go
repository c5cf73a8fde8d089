package timestamp

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/ots/attestation"
	"github.com/spacemeshos/ots/config"
	"github.com/spacemeshos/ots/ops"
	"github.com/spacemeshos/ots/shared"
	"github.com/spacemeshos/ots/stream"
)

const (
	btcTag     = "0588960d73d71901"
	pendingTag = "83dfe30d2ef90c8e"
)

func mustHex(tb testing.TB, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(tb, err)
	return b
}

func debugLogger(tb testing.TB) OptionFunc {
	return WithLogger(zaptest.NewLogger(tb, zaptest.Level(zap.DebugLevel)))
}

func marshal(tb testing.TB, ts *Timestamp) []byte {
	data, err := ts.MarshalBinary()
	require.NoError(tb, err)
	return data
}

func TestRoundTrip_PendingAfterSHA256(t *testing.T) {
	req := require.New(t)

	ts := New([]byte("hi"))
	ts.Add(ops.SHA256()).Attest(attestation.Pending{URI: testURI})

	data := marshal(t, ts)
	req.Equal("08"+"00"+pendingTag+"14"+"13"+hex.EncodeToString([]byte(testURI)), hex.EncodeToString(data))

	got, err := Unmarshal(data, []byte("hi"), debugLogger(t))
	req.NoError(err)
	req.True(Equal(ts, got))
	requireConsistent(t, got)
}

func TestSerialize_Canonical(t *testing.T) {
	req := require.New(t)

	build := func(reverse bool) *Timestamp {
		steps := []func(ts *Timestamp){
			func(ts *Timestamp) { ts.Attest(attestation.Pending{URI: "a"}) },
			func(ts *Timestamp) { ts.Add(ops.Append([]byte{0x01})).Attest(attestation.BitcoinBlockHeader{Height: 2}) },
			func(ts *Timestamp) { ts.Attest(attestation.BitcoinBlockHeader{Height: 1}) },
		}
		ts := New([]byte("x"))
		for i := range steps {
			if reverse {
				steps[len(steps)-1-i](ts)
			} else {
				steps[i](ts)
			}
		}
		return ts
	}

	expected := "ff00" + btcTag + "0101" +
		"ff00" + pendingTag + "02" + "01" + "61" +
		"f00101" +
		"00" + btcTag + "0102"
	req.Equal(expected, hex.EncodeToString(marshal(t, build(false))))
	req.Equal(expected, hex.EncodeToString(marshal(t, build(true))))
}

func TestSerialize_ForkedOperations(t *testing.T) {
	req := require.New(t)

	ts := New([]byte("x"))
	ts.Add(ops.Reverse()).Attest(attestation.BitcoinBlockHeader{Height: 2})
	ts.Add(ops.SHA1()).Attest(attestation.BitcoinBlockHeader{Height: 1})

	expected := "ff" + "02" + "00" + btcTag + "0101" +
		"f2" + "00" + btcTag + "0102"
	data := marshal(t, ts)
	req.Equal(expected, hex.EncodeToString(data))

	got, err := Unmarshal(data, []byte("x"))
	req.NoError(err)
	req.True(Equal(ts, got))
}

func TestSerialize_Empty(t *testing.T) {
	req := require.New(t)

	_, err := New([]byte("x")).MarshalBinary()
	req.ErrorIs(err, shared.ErrEmptyProof)

	ts := New([]byte("x"))
	ts.Attest(attestation.BitcoinBlockHeader{Height: 1})
	ts.Add(ops.SHA256())
	_, err = ts.MarshalBinary()
	req.ErrorIs(err, shared.ErrEmptyProof)
}

func TestSerialize_RejectsUnreadableTrees(t *testing.T) {
	req := require.New(t)

	ts := New([]byte("hi"))
	ts.Add(ops.Append(nil)).Attest(attestation.BitcoinBlockHeader{Height: 1})
	_, err := ts.MarshalBinary()
	req.ErrorIs(err, shared.ErrMalformedOperation)

	ts = New([]byte("hi"))
	ts.Attest(attestation.Unknown{Identifier: attestation.Tag{1}, Payload: make([]byte, 9000)})
	_, err = ts.MarshalBinary()
	req.ErrorIs(err, shared.ErrPayloadTooLarge)
}

func TestSerialize_DepthLimit(t *testing.T) {
	req := require.New(t)

	chain := func(depth int) *Timestamp {
		ts := New([]byte("x"))
		node := ts
		for i := 0; i < depth; i++ {
			node = node.Add(ops.Reverse())
		}
		node.Attest(attestation.BitcoinBlockHeader{Height: 1})
		return ts
	}

	_, err := chain(config.DefaultMaxDepth + 1).MarshalBinary()
	req.ErrorIs(err, shared.ErrProofTooDeep)

	ts := chain(config.DefaultMaxDepth)
	got, err := Unmarshal(marshal(t, ts), []byte("x"))
	req.NoError(err)
	req.True(Equal(ts, got))
}

func TestRoundTrip_Merged(t *testing.T) {
	req := require.New(t)

	a, b := exampleTrees()
	req.NoError(a.Merge(b))

	data := marshal(t, a)
	got, err := Unmarshal(data, testMessage())
	req.NoError(err)
	req.True(Equal(a, got))
	req.Equal(data, marshal(t, got))
}

func TestDeserialize_DuplicatesMerged(t *testing.T) {
	req := require.New(t)

	btc1 := btcTag + "0101"
	btc2 := btcTag + "0102"

	// Two entries for the same operation, then the same attestation twice.
	data := mustHex(t, "ff"+"08"+"00"+btc1+"08"+"ff00"+btc2+"00"+btc2)
	ts, err := Unmarshal(data, []byte("x"), debugLogger(t))
	req.NoError(err)
	requireConsistent(t, ts)

	entries := ts.Ops()
	req.Len(entries, 1)
	req.Equal([]attestation.Attestation{
		attestation.BitcoinBlockHeader{Height: 1},
		attestation.BitcoinBlockHeader{Height: 2},
	}, entries[0].Timestamp.Attestations())

	// Re-encoding yields the canonical form.
	req.Equal("08"+"ff00"+btc1+"00"+btc2, hex.EncodeToString(marshal(t, ts)))
}

func TestDeserialize_UnknownAttestationPreserved(t *testing.T) {
	req := require.New(t)

	data := mustHex(t, "08"+"00"+"0102030405060708"+"03"+"aabbcc")
	ts, err := Unmarshal(data, []byte("x"), debugLogger(t))
	req.NoError(err)

	child, ok := ts.Child(ops.SHA256())
	req.True(ok)
	req.Equal([]attestation.Attestation{attestation.Unknown{
		Identifier: attestation.Tag{1, 2, 3, 4, 5, 6, 7, 8},
		Payload:    []byte{0xaa, 0xbb, 0xcc},
	}}, child.Attestations())
	req.False(ts.IsComplete())
	req.Equal(data, marshal(t, ts))
}

func TestDeserialize_Truncated(t *testing.T) {
	req := require.New(t)

	a, b := exampleTrees()
	req.NoError(a.Merge(b))
	data := marshal(t, a)

	for i := 0; i < len(data); i++ {
		_, err := Deserialize(stream.NewReader(bytes.NewReader(data[:i])), testMessage())
		req.ErrorIs(err, shared.ErrTruncatedStream, "prefix %d", i)
		var derr *shared.DeserializationError
		req.ErrorAs(err, &derr)
	}
}

func TestDeserialize_ErrorPath(t *testing.T) {
	req := require.New(t)

	data := mustHex(t, "08"+"f00101"+"42")
	_, err := Unmarshal(data, []byte("x"))
	req.ErrorIs(err, shared.ErrUnknownOperationTag)

	var derr *shared.DeserializationError
	req.ErrorAs(err, &derr)
	req.Equal([]string{"sha256", "append 01"}, derr.Path)
	req.Contains(err.Error(), "sha256 -> append 01")

	var tagErr shared.UnknownOperationTagError
	req.ErrorAs(err, &tagErr)
	req.Equal(byte(0x42), tagErr.Tag)
}

func TestDeserialize_TooDeep(t *testing.T) {
	req := require.New(t)

	data := mustHex(t, strings.Repeat("f2", 10)+"00"+btcTag+"0101")

	cfg := config.DefaultConfig()
	cfg.MaxDepth = 9
	_, err := Unmarshal(data, []byte("x"), WithConfig(cfg))
	req.ErrorIs(err, shared.ErrProofTooDeep)

	cfg.MaxDepth = 10
	ts, err := Unmarshal(data, []byte("x"), WithConfig(cfg))
	req.NoError(err)
	req.True(ts.IsComplete())
}

func TestDeserialize_ResultTooLong(t *testing.T) {
	req := require.New(t)

	ts := New(make([]byte, 32))
	ts.Add(ops.Append(make([]byte, 4090))).Attest(attestation.BitcoinBlockHeader{Height: 1})
	data := marshal(t, ts)

	_, err := Unmarshal(data, make([]byte, 32))
	req.ErrorIs(err, shared.ErrMalformedOperation)

	cfg := config.DefaultConfig()
	cfg.MaxResultLength = 8192
	_, err = Unmarshal(data, make([]byte, 32), WithConfig(cfg))
	req.NoError(err)
}

func TestDeserialize_PayloadLimit(t *testing.T) {
	req := require.New(t)

	ts := New([]byte("x"))
	ts.Attest(attestation.Unknown{Identifier: attestation.Tag{1}, Payload: make([]byte, 200)})
	data := marshal(t, ts)

	cfg := config.DefaultConfig()
	cfg.MaxPayloadSize = 100
	_, err := Unmarshal(data, []byte("x"), WithConfig(cfg))
	req.ErrorIs(err, shared.ErrPayloadTooLarge)
}

func TestDeserialize_InvalidConfig(t *testing.T) {
	req := require.New(t)

	cfg := config.DefaultConfig()
	cfg.MaxDepth = 0
	_, err := Unmarshal(mustHex(t, "00"+btcTag+"0101"), []byte("x"), WithConfig(cfg))
	req.Error(err)
	req.Contains(err.Error(), "MaxDepth")
}

func TestUnmarshal_TrailingGarbage(t *testing.T) {
	req := require.New(t)

	_, err := Unmarshal(mustHex(t, "00"+btcTag+"0101"+"00"), []byte("x"))
	req.ErrorIs(err, shared.ErrTrailingGarbage)
}

func FuzzDeserializeSafety(f *testing.F) {
	f.Add(mustHex(f, "08"+"00"+pendingTag+"14"+"13"+hex.EncodeToString([]byte(testURI))))
	f.Add(mustHex(f, "ff"+"02"+"00"+btcTag+"0101"+"f2"+"00"+btcTag+"0102"))
	f.Add(mustHex(f, "f00101"+"00"+"0102030405060708"+"00"))
	f.Add([]byte{0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = Unmarshal(data, []byte("fuzz"))
	})
}

// A decoded tree re-encodes to a canonical form that decodes to the same tree.
func FuzzDeserializeConsistency(f *testing.F) {
	f.Add(mustHex(f, "ff"+"08"+"00"+btcTag+"0101"+"08"+"00"+btcTag+"0102"))
	f.Add(mustHex(f, "ff00"+btcTag+"0101"+"ff00"+pendingTag+"02"+"01"+"61"+"f00101"+"00"+btcTag+"0102"))

	f.Fuzz(func(t *testing.T, data []byte) {
		ts, err := Unmarshal(data, []byte("fuzz"))
		if err != nil {
			return
		}
		requireConsistent(t, ts)

		canonical, err := ts.MarshalBinary()
		require.NoError(t, err)
		again, err := Unmarshal(canonical, []byte("fuzz"))
		require.NoError(t, err)
		require.True(t, Equal(ts, again))
	})
}
