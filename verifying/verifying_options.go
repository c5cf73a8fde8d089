package verifying

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spacemeshos/ots/config"
)

type option struct {
	workers int
	ttl     time.Duration

	logger *zap.Logger
}

func applyOpts(opts ...OptionFunc) (*option, error) {
	cfg := config.DefaultConfig()
	options := &option{
		workers: int(cfg.VerifyWorkers),
		ttl:     cfg.HeaderCacheTTL,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

type OptionFunc func(*option) error

// WithConfig sets the number of workers and the header cache TTL from cfg.
func WithConfig(cfg config.Config) OptionFunc {
	return func(o *option) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.workers = int(cfg.VerifyWorkers)
		o.ttl = cfg.HeaderCacheTTL
		return nil
	}
}

// WithWorkers sets the number of block headers resolved concurrently.
func WithWorkers(n int) OptionFunc {
	return func(o *option) error {
		if n < 1 || n > config.MaxVerifyWorkers {
			return fmt.Errorf("invalid `workers`; expected: 1-%d, given: %d", config.MaxVerifyWorkers, n)
		}
		o.workers = n
		return nil
	}
}

// WithCacheTTL sets how long resolved headers stay cached. Zero keeps them
// until evicted by the cache itself.
func WithCacheTTL(ttl time.Duration) OptionFunc {
	return func(o *option) error {
		if ttl < 0 {
			return fmt.Errorf("invalid `ttl`; expected: >= 0, given: %v", ttl)
		}
		o.ttl = ttl
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		o.logger = logger
		return nil
	}
}
