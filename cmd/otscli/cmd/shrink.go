package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var shrinkOutput string

var shrinkCmd = &cobra.Command{
	Use:   "shrink FILE",
	Short: "Keep only the path to the oldest block header attestation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		df, err := readFile(args[0])
		if err != nil {
			return err
		}
		att, err := df.Timestamp.ShrinkInPlace()
		if err != nil {
			return err
		}

		out := shrinkOutput
		if out == "" {
			out = args[0]
		}
		if err := writeFile(out, df); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Shrunk to %v\n", att)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shrinkCmd)
	shrinkCmd.Flags().StringVarP(&shrinkOutput, "output", "o", "", "write the result here instead of replacing FILE")
}
