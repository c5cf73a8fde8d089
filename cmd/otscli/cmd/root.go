// Package cmd implements otscli, a tool to inspect and manipulate detached
// timestamp files.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spacemeshos/smutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/ots/config"
	"github.com/spacemeshos/ots/timestamp"
)

var (
	Version string
	Commit  string

	defaultConfigFile = filepath.Join(config.DefaultConfigDir, config.DefaultConfigFileName)

	cfg    = config.DefaultConfig()
	vip    = viper.New()
	logger = zap.NewNop()

	configFile  string
	logLevel    string
	printConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "otscli",
	Short: "Inspect and manipulate OpenTimestamps proofs",
	Long: `otscli works on detached timestamp files (.ots).
It can print, merge and shrink proofs and check their block header attestations.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and exits with a non-zero status on failure.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (%s)", Version, Commit)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", defaultConfigFile, "path to the configuration file")
	flags.StringVar(&logLevel, "log-level", zapcore.InfoLevel.String(), "log level (debug, info, warn, error)")
	flags.BoolVar(&printConfig, "print-config", false, "print the used config and exit")

	addConfigFlags(flags, cfg)

	if err := vip.BindPFlags(flags); err != nil {
		panic(err)
	}
}

// addConfigFlags registers one flag per config key, named after its
// mapstructure tag so that viper can bind them.
func addConfigFlags(flags *pflag.FlagSet, c config.Config) {
	flags.Uint("ots-max-result-length", c.MaxResultLength, "max length of any message in a proof")
	flags.Uint("ots-max-payload-size", c.MaxPayloadSize, "max size of an attestation payload")
	flags.Uint("ots-max-depth", c.MaxDepth, "max nesting depth of a proof")
	flags.Uint("ots-verify-workers", c.VerifyWorkers, "number of block headers resolved concurrently")
	flags.Duration("ots-header-cache-ttl", c.HeaderCacheTTL, "how long resolved block headers stay cached")
	flags.String("ots-redis-addr", c.RedisAddr, "redis address of a shared block header cache")
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if printConfig {
		spew.Dump(cfg)
		os.Exit(0)
	}

	l, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// loadConfig fills cfg from, in increasing priority: defaults, the config
// file, OTS_* environment variables and command line flags.
func loadConfig() error {
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	vip.SetConfigFile(smutil.GetCanonicalPath(configFile))
	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != defaultConfigFile || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := vip.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg.Validate()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			MessageKey:     "M",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zapCfg.Build()
}

func timestampOpts() []timestamp.OptionFunc {
	return []timestamp.OptionFunc{
		timestamp.WithConfig(cfg),
		timestamp.WithLogger(logger.Named("timestamp")),
	}
}

func readFile(path string) (*timestamp.DetachedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df, err := timestamp.ReadDetachedFile(f, timestampOpts()...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}
