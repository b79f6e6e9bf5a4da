package main

import (
	"github.com/spf13/cobra"

	"github.com/linnemanlabs/sift/internal/display"
)

var sinceHours float64

var scoreCmd = &cobra.Command{
	Use:   "score FILE",
	Short: "Score one thread: priority, action and reply-by time",
	Long: `Score one thread read from FILE ("-" for stdin). The input is a request
({"thread": ..., "team": ..., "calendar": ..., "patterns": ...}) or a bare thread.
--since-hours re-scores with the time-decay boost for hours since the last look.`,
	Args: cobra.ExactArgs(1),
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

		engine := newEngine(now)
		ev := engine.Evaluate(cmd.Context(), req)
		if sinceHours > 0 {
			ev = engine.Reevaluate(cmd.Context(), req, sinceHours)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), ev)
		}
		display.Evaluation(cmd.OutOrStdout(), req.Thread, ev, now)
		return nil
	},
}

func init() {
	scoreCmd.Flags().Float64Var(&sinceHours, "since-hours", 0, "Hours since the thread was last scored (adds time-decay boost)")
	rootCmd.AddCommand(scoreCmd)
}
