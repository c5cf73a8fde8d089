package verifying

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache stores resolved block headers. A miss is reported with ok == false
// and a nil error.
type Cache interface {
	Get(ctx context.Context, chain Chain, height uint64) (header *BlockHeader, ok bool, err error)
	Put(ctx context.Context, chain Chain, height uint64, header *BlockHeader, ttl time.Duration) error
}

// CachingResolver serves block headers from a Cache and falls back to another
// Resolver on a miss. Concurrent misses for the same block share one lookup.
// Cache failures are logged and otherwise ignored.
type CachingResolver struct {
	inner  Resolver
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger

	group singleflight.Group
}

func NewCachingResolver(inner Resolver, cache Cache, opts ...OptionFunc) (*CachingResolver, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &CachingResolver{
		inner:  inner,
		cache:  cache,
		ttl:    options.ttl,
		logger: options.logger,
	}, nil
}

func (r *CachingResolver) BlockHeader(ctx context.Context, chain Chain, height uint64) (*BlockHeader, error) {
	logger := r.logger.With(zap.Stringer("chain", chain), zap.Uint64("height", height))

	header, ok, err := r.cache.Get(ctx, chain, height)
	switch {
	case err != nil:
		logger.Warn("verifying: header cache lookup failed", zap.Error(err))
	case ok:
		return header, nil
	}

	key := fmt.Sprintf("%v/%d", chain, height)
	v, err, shared := r.group.Do(key, func() (any, error) {
		header, err := r.inner.BlockHeader(ctx, chain, height)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Put(ctx, chain, height, header, r.ttl); err != nil {
			logger.Warn("verifying: header cache store failed", zap.Error(err))
		}
		return header, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("verifying: shared header lookup")
	}
	return v.(*BlockHeader), nil
}
