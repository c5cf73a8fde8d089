package timestamp

import (
	"go.uber.org/zap"

	"github.com/spacemeshos/ots/config"
)

type option struct {
	maxResultLength int
	maxPayloadSize  int
	maxDepth        int

	logger *zap.Logger
}

func defaultOpts() *option {
	cfg := config.DefaultConfig()
	return &option{
		maxResultLength: int(cfg.MaxResultLength),
		maxPayloadSize:  int(cfg.MaxPayloadSize),
		maxDepth:        int(cfg.MaxDepth),
		logger:          zap.NewNop(),
	}
}

func applyOpts(opts ...OptionFunc) (*option, error) {
	options := defaultOpts()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

type OptionFunc func(*option) error

// WithConfig sets the decoding limits from cfg.
func WithConfig(cfg config.Config) OptionFunc {
	return func(o *option) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.maxResultLength = int(cfg.MaxResultLength)
		o.maxPayloadSize = int(cfg.MaxPayloadSize)
		o.maxDepth = int(cfg.MaxDepth)
		return nil
	}
}

// WithLogger sets the logger used while decoding.
func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		o.logger = logger
		return nil
	}
}
