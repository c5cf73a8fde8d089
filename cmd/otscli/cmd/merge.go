package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacemeshos/ots/ops"
)

var mergeCmd = &cobra.Command{
	Use:   "merge OUTPUT FILE...",
	Short: "Merge timestamp files of the same document",
	Long: `merge combines the proofs of several timestamp files for the same document
into a single file holding every attestation path of its inputs.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, inputs := args[0], args[1:]

		merged, err := readFile(inputs[0])
		if err != nil {
			return err
		}
		for _, path := range inputs[1:] {
			df, err := readFile(path)
			if err != nil {
				return err
			}
			if !ops.Equal(merged.FileHashOp, df.FileHashOp) {
				return fmt.Errorf("%s: file hashed with %v, expected %v", path, df.FileHashOp, merged.FileHashOp)
			}
			if !bytes.Equal(merged.Digest(), df.Digest()) {
				return fmt.Errorf("%s: timestamps a different file", path)
			}
			if err := merged.Timestamp.Merge(df.Timestamp); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Info("cli: merged timestamp", zap.String("path", path))
		}
		return writeFile(out, merged)
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
