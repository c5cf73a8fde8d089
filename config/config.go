package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spacemeshos/smutil"
)

const (
	// Every digest produced by a supported hash must fit.
	MinResultLength = 32
	MaxResultLength = 1 << 20

	MinPayloadSize = 1
	MaxPayloadSize = 1 << 20

	MinDepth = 1
	MaxDepth = 1 << 16

	MaxVerifyWorkers = 256
)

const (
	DefaultConfigDirName  = ".ots"
	DefaultConfigFileName = "config.toml"

	DefaultMaxResultLength = 4096
	DefaultMaxPayloadSize  = 8192
	DefaultMaxDepth        = 256

	DefaultVerifyWorkers  = 4
	DefaultHeaderCacheTTL = 24 * time.Hour
)

var DefaultConfigDir = filepath.Join(smutil.GetUserHomeDirectory(), DefaultConfigDirName)

type Config struct {
	// Wire limits.
	MaxResultLength uint `mapstructure:"ots-max-result-length"`
	MaxPayloadSize  uint `mapstructure:"ots-max-payload-size"`
	MaxDepth        uint `mapstructure:"ots-max-depth"`

	// Verification.
	VerifyWorkers  uint          `mapstructure:"ots-verify-workers"`
	HeaderCacheTTL time.Duration `mapstructure:"ots-header-cache-ttl"`
	RedisAddr      string        `mapstructure:"ots-redis-addr"`
}

func (cfg *Config) Validate() error {
	if cfg.MaxResultLength < MinResultLength {
		return fmt.Errorf("invalid `MaxResultLength`; expected: >= %d, given: %d", MinResultLength, cfg.MaxResultLength)
	}

	if cfg.MaxResultLength > MaxResultLength {
		return fmt.Errorf("invalid `MaxResultLength`; expected: <= %d, given: %d", MaxResultLength, cfg.MaxResultLength)
	}

	if cfg.MaxPayloadSize < MinPayloadSize {
		return fmt.Errorf("invalid `MaxPayloadSize`; expected: >= %d, given: %d", MinPayloadSize, cfg.MaxPayloadSize)
	}

	if cfg.MaxPayloadSize > MaxPayloadSize {
		return fmt.Errorf("invalid `MaxPayloadSize`; expected: <= %d, given: %d", MaxPayloadSize, cfg.MaxPayloadSize)
	}

	if cfg.MaxDepth < MinDepth {
		return fmt.Errorf("invalid `MaxDepth`; expected: >= %d, given: %d", MinDepth, cfg.MaxDepth)
	}

	if cfg.MaxDepth > MaxDepth {
		return fmt.Errorf("invalid `MaxDepth`; expected: <= %d, given: %d", MaxDepth, cfg.MaxDepth)
	}

	if cfg.VerifyWorkers == 0 || cfg.VerifyWorkers > MaxVerifyWorkers {
		return fmt.Errorf("invalid `VerifyWorkers`; expected: 1-%d, given: %d", MaxVerifyWorkers, cfg.VerifyWorkers)
	}

	if cfg.HeaderCacheTTL < 0 {
		return fmt.Errorf("invalid `HeaderCacheTTL`; expected: >= 0, given: %v", cfg.HeaderCacheTTL)
	}

	return nil
}

func DefaultConfig() Config {
	return Config{
		MaxResultLength: DefaultMaxResultLength,
		MaxPayloadSize:  DefaultMaxPayloadSize,
		MaxDepth:        DefaultMaxDepth,

		VerifyWorkers:  DefaultVerifyWorkers,
		HeaderCacheTTL: DefaultHeaderCacheTTL,
	}
}
