package headercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spacemeshos/ots/verifying"
)

const redisKeyPrefix = "ots:header:"

// Redis keeps headers in Redis as JSON documents, so that they are shared
// between processes. Expiry is left to Redis.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client. Closing the cache closes it.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func redisKey(chain verifying.Chain, height uint64) string {
	return fmt.Sprintf("%s%v:%d", redisKeyPrefix, chain, height)
}

func (c *Redis) Get(ctx context.Context, chain verifying.Chain, height uint64) (*verifying.BlockHeader, bool, error) {
	data, err := c.client.Get(ctx, redisKey(chain, height)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var header verifying.BlockHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, false, fmt.Errorf("decode cached header: %w", err)
	}
	return &header, true, nil
}

// Put stores header until ttl elapses. A zero ttl never expires.
func (c *Redis) Put(ctx context.Context, chain verifying.Chain, height uint64, header *verifying.BlockHeader, ttl time.Duration) error {
	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if err := c.client.Set(ctx, redisKey(chain, height), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}

var _ verifying.Cache = (*Redis)(nil)
