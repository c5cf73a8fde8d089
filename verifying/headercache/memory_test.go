package headercache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/ots/verifying"
)

func TestMemory(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	c := NewMemory()
	_, ok, err := c.Get(ctx, verifying.ChainBitcoin, 1)
	req.NoError(err)
	req.False(ok)

	header := &verifying.BlockHeader{MerkleRoot: []byte{0x01, 0x02}, Time: time.Unix(100, 0)}
	req.NoError(c.Put(ctx, verifying.ChainBitcoin, 1, header, 0))

	got, ok, err := c.Get(ctx, verifying.ChainBitcoin, 1)
	req.NoError(err)
	req.True(ok)
	req.Equal(header, got)

	// Entries are keyed by chain too.
	_, ok, err = c.Get(ctx, verifying.ChainEthereum, 1)
	req.NoError(err)
	req.False(ok)

	// Stored headers don't alias the caller's.
	header.MerkleRoot[0] = 0xff
	got.MerkleRoot[1] = 0xff
	again, _, err := c.Get(ctx, verifying.ChainBitcoin, 1)
	req.NoError(err)
	req.Equal([]byte{0x01, 0x02}, again.MerkleRoot)
}

func TestMemory_Expiry(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	now := time.Unix(1000, 0)
	c := NewMemory()
	c.now = func() time.Time { return now }

	header := &verifying.BlockHeader{MerkleRoot: []byte{0x01}}
	req.NoError(c.Put(ctx, verifying.ChainEthereum, 5, header, time.Minute))
	req.NoError(c.Put(ctx, verifying.ChainEthereum, 6, header, 0))

	now = now.Add(30 * time.Second)
	_, ok, err := c.Get(ctx, verifying.ChainEthereum, 5)
	req.NoError(err)
	req.True(ok)

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, verifying.ChainEthereum, 5)
	req.NoError(err)
	req.False(ok)
	req.Equal(1, c.Len())

	_, ok, err = c.Get(ctx, verifying.ChainEthereum, 6)
	req.NoError(err)
	req.True(ok)
}
