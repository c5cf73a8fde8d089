package ops

import (
	"bytes"
	"encoding/hex"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/ots/config"
	"github.com/spacemeshos/ots/shared"
	"github.com/spacemeshos/ots/stream"
)

func mustHex(t testing.TB, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestApply_Hashes(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		op     Operation
		digest string
	}{
		{SHA1(), "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{SHA256(), "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{RIPEMD160(), "9c1185a5c5e9fc54612808977ee8f548b2258d31"},
		{Keccak256(), "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
	}

	for _, tc := range tests {
		res := tc.op.Apply(nil)
		req.Equal(tc.digest, hex.EncodeToString(res), tc.op.String())
		req.Len(res, tc.op.Kind().DigestLength())
	}

	req.Equal("8f434346648f6b96df89dda901c5176b10a6d83961dd3c1ac88b59b2dc327aa4",
		hex.EncodeToString(SHA256().Apply([]byte("hi"))))
}

func TestApply_Binary(t *testing.T) {
	req := require.New(t)

	msg := []byte{0x01, 0x02}
	req.Equal([]byte{0x01, 0x02, 0xaa}, Append([]byte{0xaa}).Apply(msg))
	req.Equal([]byte{0xaa, 0x01, 0x02}, Prepend([]byte{0xaa}).Apply(msg))
	req.Equal([]byte{0x02, 0x01}, Reverse().Apply(msg))

	// msg is never aliased.
	req.Equal([]byte{0x01, 0x02}, msg)
}

func TestAppend_CopiesArgument(t *testing.T) {
	req := require.New(t)

	arg := []byte{0x01}
	op := Append(arg)
	arg[0] = 0xff
	req.Equal([]byte{0x01}, op.Arg())

	got := op.Arg()
	got[0] = 0xff
	req.Equal([]byte{0x01}, op.Arg())
}

func TestApplyChecked(t *testing.T) {
	req := require.New(t)

	_, err := Append(make([]byte, 10)).ApplyChecked(make([]byte, 30), 32)
	req.ErrorIs(err, shared.ErrMalformedOperation)

	_, err = SHA256().ApplyChecked(make([]byte, 33), 32)
	req.ErrorIs(err, shared.ErrMalformedOperation)

	res, err := Append(make([]byte, 2)).ApplyChecked(make([]byte, 30), 32)
	req.NoError(err)
	req.Len(res, 32)
}

type countingHasher struct {
	calls int
}

func (h *countingHasher) Digest(kind Kind, msg []byte) []byte {
	h.calls++
	return DefaultHasher.Digest(kind, msg)
}

func TestApplyWith(t *testing.T) {
	req := require.New(t)

	h := &countingHasher{}
	req.Equal(SHA256().Apply([]byte("x")), SHA256().ApplyWith(h, []byte("x")))
	req.Equal(1, h.calls)

	Append([]byte{1}).ApplyWith(h, []byte("x"))
	req.Equal(1, h.calls)
}

func TestCompare(t *testing.T) {
	req := require.New(t)

	sorted := []Operation{
		SHA1(),
		RIPEMD160(),
		SHA256(),
		Keccak256(),
		Append([]byte{0x00}),
		Append([]byte{0x00, 0x00}),
		Append([]byte{0x01}),
		Prepend([]byte{0x00}),
		Reverse(),
	}

	shuffled := []Operation{sorted[6], sorted[8], sorted[0], sorted[4], sorted[2], sorted[7], sorted[1], sorted[5], sorted[3]}
	sort.Slice(shuffled, func(i, j int) bool { return Compare(shuffled[i], shuffled[j]) < 0 })
	for i := range sorted {
		req.True(Equal(sorted[i], shuffled[i]), "%v != %v", sorted[i], shuffled[i])
	}

	req.Zero(Compare(Append([]byte{1}), Append([]byte{1})))
	req.False(Equal(Append([]byte{1}), Prepend([]byte{1})))
}

func TestSerialize(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		op      Operation
		encoded string
	}{
		{SHA1(), "02"},
		{RIPEMD160(), "03"},
		{SHA256(), "08"},
		{Keccak256(), "67"},
		{Reverse(), "f2"},
		{Append([]byte{0xab, 0xcd}), "f002abcd"},
		{Prepend([]byte{0x01}), "f10101"},
	}

	for _, tc := range tests {
		buf := bytes.NewBuffer(nil)
		req.NoError(tc.op.Serialize(stream.NewWriter(buf)))
		req.Equal(tc.encoded, hex.EncodeToString(buf.Bytes()))

		op, err := Deserialize(stream.NewReader(buf), 4096)
		req.NoError(err)
		req.True(Equal(tc.op, op))
	}
}

func TestSerialize_ArgumentBounds(t *testing.T) {
	req := require.New(t)

	for _, op := range []Operation{
		Append(nil),
		Prepend([]byte{}),
		Append(make([]byte, config.DefaultMaxResultLength+1)),
	} {
		buf := bytes.NewBuffer(nil)
		req.ErrorIs(op.Serialize(stream.NewWriter(buf)), shared.ErrMalformedOperation, op.String())
		req.Zero(buf.Len(), "nothing written for %v", op)
	}

	op := Prepend(make([]byte, config.DefaultMaxResultLength))
	buf := bytes.NewBuffer(nil)
	req.NoError(op.Serialize(stream.NewWriter(buf)))
	got, err := Deserialize(stream.NewReader(buf), config.DefaultMaxResultLength)
	req.NoError(err)
	req.True(Equal(op, got))
}

func TestDeserialize_Errors(t *testing.T) {
	req := require.New(t)

	_, err := Deserialize(stream.NewReader(bytes.NewReader([]byte{0x42})), 4096)
	req.ErrorIs(err, shared.ErrUnknownOperationTag)
	var tagErr shared.UnknownOperationTagError
	req.ErrorAs(err, &tagErr)
	req.Equal(byte(0x42), tagErr.Tag)

	// Empty argument.
	_, err = Deserialize(stream.NewReader(bytes.NewReader(mustHex(t, "f000"))), 4096)
	req.ErrorIs(err, shared.ErrMalformedOperation)

	// Argument longer than the result limit.
	_, err = Deserialize(stream.NewReader(bytes.NewReader(mustHex(t, "f003aabbcc"))), 2)
	req.ErrorIs(err, shared.ErrMalformedOperation)

	// Truncated argument.
	_, err = Deserialize(stream.NewReader(bytes.NewReader(mustHex(t, "f003aa"))), 4096)
	req.ErrorIs(err, shared.ErrTruncatedStream)
}

func TestString(t *testing.T) {
	req := require.New(t)

	req.Equal("sha256", SHA256().String())
	req.Equal("append 01ff", Append([]byte{0x01, 0xff}).String())
	req.Equal("prepend 00", Prepend([]byte{0x00}).String())
}

func TestHash(t *testing.T) {
	req := require.New(t)

	op, err := Hash(KindRIPEMD160)
	req.NoError(err)
	req.True(Equal(RIPEMD160(), op))

	_, err = Hash(KindAppend)
	req.ErrorIs(err, shared.ErrMalformedOperation)
}
