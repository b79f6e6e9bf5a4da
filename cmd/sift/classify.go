package main

import (
	"github.com/spf13/cobra"

	"github.com/linnemanlabs/sift/internal/display"
)

var classifyCmd = &cobra.Command{
	Use:   "classify FILE",
	Short: "Suggest the next action for one thread",
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
		req, err := decodeRequest(data)
		if err != nil {
			return err
		}

		ev := newEngine(now).Evaluate(cmd.Context(), req)
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), ev.Action)
		}
		display.Action(cmd.OutOrStdout(), ev.Action, now)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
