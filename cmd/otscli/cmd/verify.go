package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacemeshos/ots/verifying"
	"github.com/spacemeshos/ots/verifying/headercache"
)

var headersFile string

var verifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Check the block header attestations of a timestamp file",
	Long: `verify checks every block header attestation of a timestamp file against
known block headers. Headers are read from a JSON file given with --headers:

  [{"chain": "bitcoin", "height": 358391, "merkle_root": "<hex>", "time": "2015-05-28T15:41:18Z"}]

When --ots-redis-addr is set, resolved headers are shared through Redis.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		df, err := readFile(args[0])
		if err != nil {
			return err
		}
		static, err := loadHeaders(headersFile)
		if err != nil {
			return err
		}

		var cache verifying.Cache = headercache.NewMemory()
		if cfg.RedisAddr != "" {
			rc, err := headercache.NewRedis(cfg.RedisAddr, "", 0)
			if err != nil {
				return err
			}
			defer rc.Close()
			cache = rc
		}

		vlog := logger.Named("verifying")
		resolver, err := verifying.NewCachingResolver(static, cache,
			verifying.WithConfig(cfg),
			verifying.WithLogger(vlog),
		)
		if err != nil {
			return err
		}
		v, err := verifying.NewVerifier(resolver,
			verifying.WithConfig(cfg),
			verifying.WithLogger(vlog),
		)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		results, err := v.Verify(ctx, df.Timestamp)
		if err != nil {
			return err
		}
		for _, res := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "Success! %v block %d attests existence as of %s\n",
				res.Chain, res.Height, res.Time.UTC().Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&headersFile, "headers", "", "JSON file with known block headers (required)")
	if err := verifyCmd.MarkFlagRequired("headers"); err != nil {
		panic(err)
	}
}

type headerRecord struct {
	Chain      string    `json:"chain"`
	Height     uint64    `json:"height"`
	MerkleRoot string    `json:"merkle_root"`
	Time       time.Time `json:"time"`
}

type blockKey struct {
	chain  verifying.Chain
	height uint64
}

// staticResolver serves block headers loaded up front.
type staticResolver map[blockKey]*verifying.BlockHeader

func (r staticResolver) BlockHeader(_ context.Context, chain verifying.Chain, height uint64) (*verifying.BlockHeader, error) {
	h, ok := r[blockKey{chain, height}]
	if !ok {
		return nil, fmt.Errorf("unknown %v block %d", chain, height)
	}
	return h, nil
}

func parseChain(s string) (verifying.Chain, error) {
	for _, c := range []verifying.Chain{verifying.ChainBitcoin, verifying.ChainEthereum} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown chain %q", s)
}

func loadHeaders(path string) (staticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []headerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r := make(staticResolver, len(records))
	for i, rec := range records {
		chain, err := parseChain(rec.Chain)
		if err != nil {
			return nil, fmt.Errorf("%s: header %d: %w", path, i, err)
		}
		root, err := hex.DecodeString(rec.MerkleRoot)
		if err != nil {
			return nil, fmt.Errorf("%s: header %d: merkle root: %w", path, i, err)
		}
		r[blockKey{chain, rec.Height}] = &verifying.BlockHeader{MerkleRoot: root, Time: rec.Time}
	}
	logger.Debug("cli: loaded block headers", zap.String("path", path), zap.Int("count", len(r)))
	return r, nil
}
