package cmd

import (
	"encoding/hex"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/spacemeshos/ots/attestation"
	"github.com/spacemeshos/ots/ops"
	"github.com/spacemeshos/ots/timestamp"
	"github.com/spacemeshos/ots/verifying"
)

var attestationsCmd = &cobra.Command{
	Use:   "attestations FILE",
	Short: "List every attestation of a timestamp file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		df, err := readFile(args[0])
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Attestation", "Chain", "Height", "Steps", "Message"})
		table.SetBorder(true)
		table.AppendBulk(attestationRows(df.Timestamp))
		table.Render()
		return nil
	},
}

func attestationRows(ts *timestamp.Timestamp) [][]string {
	var rows [][]string
	_ = ts.Walk(func(path []ops.Operation, node *timestamp.Timestamp) error {
		for _, att := range node.Attestations() {
			chain, height := "-", "-"
			if c, h, ok := verifying.Anchor(att); ok {
				chain, height = c.String(), strconv.FormatUint(h, 10)
			}
			name := att.String()
			if p, ok := att.(attestation.Pending); ok {
				name = "pending " + p.URI
			}
			rows = append(rows, []string{name, chain, height, strconv.Itoa(len(path)), hex.EncodeToString(node.Msg())})
		}
		return nil
	})
	return rows
}

func init() {
	rootCmd.AddCommand(attestationsCmd)
}
