package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"
)

var infoVerbose bool

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Print the proof tree of a timestamp file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		df, err := readFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File %s hash: %s\n", df.FileHashOp, hex.EncodeToString(df.Digest()))
		fmt.Fprintf(out, "Proof size: %s\n", bytefmt.ByteSize(uint64(st.Size())))
		fmt.Fprintf(out, "Complete: %t\n", df.Timestamp.IsComplete())
		fmt.Fprintln(out, "Timestamp:")
		if infoVerbose {
			fmt.Fprint(out, df.Timestamp.StrTreeVerbose(0))
		} else {
			fmt.Fprint(out, df.Timestamp.StrTree(0))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVarP(&infoVerbose, "verbose", "v", false, "print the message at every step")
}
