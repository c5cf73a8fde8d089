// Package headercache provides block header caches for
// verifying.CachingResolver.
package headercache

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/spacemeshos/ots/verifying"
)

type key struct {
	chain  verifying.Chain
	height uint64
}

type entry struct {
	header    verifying.BlockHeader
	expiresAt time.Time
	hasExpiry bool
}

// Memory is an in-process cache. Expired entries are dropped when read.
type Memory struct {
	mu      sync.Mutex
	entries map[key]entry

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[key]entry),
		now:     time.Now,
	}
}

func (c *Memory) Get(_ context.Context, chain verifying.Chain, height uint64) (*verifying.BlockHeader, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{chain, height}
	e, ok := c.entries[k]
	if !ok {
		return nil, false, nil
	}
	if e.hasExpiry && c.now().After(e.expiresAt) {
		delete(c.entries, k)
		return nil, false, nil
	}
	return cloneHeader(&e.header), true, nil
}

// Put stores header until ttl elapses. A zero ttl never expires.
func (c *Memory) Put(_ context.Context, chain verifying.Chain, height uint64, header *verifying.BlockHeader, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{header: *cloneHeader(header)}
	if ttl > 0 {
		e.hasExpiry = true
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key{chain, height}] = e
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneHeader(h *verifying.BlockHeader) *verifying.BlockHeader {
	return &verifying.BlockHeader{MerkleRoot: bytes.Clone(h.MerkleRoot), Time: h.Time}
}

var _ verifying.Cache = (*Memory)(nil)
