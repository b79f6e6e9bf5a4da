package main

import (
	"github.com/spf13/cobra"

	"github.com/linnemanlabs/sift/internal/display"
	"github.com/linnemanlabs/sift/internal/triage"
)

var rankCmd = &cobra.Command{
	Use:   "rank FILE",
	Short: "Rank a batch of threads by combined priority score",
	Long:  `Rank threads read from FILE ("-" for stdin): a JSON array of threads or {"threads": [...]}.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := clock()
		if err != nil {
			return err
		}
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		threads, err := decodeThreads(data)
		if err != nil {
			return err
		}

		ranked, err := newEngine(now).Rank(cmd.Context(), threads)
		if err != nil {
			return err
		}
		if jsonOutput {
			if ranked == nil {
				ranked = []triage.Ranked{}
			}
			return writeJSON(cmd.OutOrStdout(), ranked)
		}
		display.Ranked(cmd.OutOrStdout(), ranked)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
}
