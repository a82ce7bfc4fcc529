package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"bludgeon/internal/history"
	"bludgeon/internal/util"

	"github.com/spf13/cobra"
)

// AddHistoryCommand defines the history command.
func AddHistoryCommand(parentCmd *cobra.Command) {
	var (
		limit   int
		outcome string
	)

	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show previous runs",
		Long:  `Lists the runs recorded in the state directory, newest first.`,
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			if outcome != "" && outcome != history.OutcomeSuccess && outcome != history.OutcomeFailure {
				return &UsageError{Msg: fmt.Sprintf("invalid --outcome '%s': use '%s' or '%s'", outcome, history.OutcomeSuccess, history.OutcomeFailure)}
			}

			events, err := history.List(cfg.StateDir, limit, outcome)
			if err != nil {
				return fmt.Errorf("failed to read run history: %w", err)
			}
			if len(events) == 0 {
				util.Log.Info("No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cobraCmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TIME\tSITE\tDATABASE\tWORDPRESS\tOUTCOME\tDURATION\tERROR")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Local().Format(time.RFC3339),
					e.SitePath,
					e.Database,
					e.WordPressVersion,
					e.Outcome,
					(time.Duration(e.DurationMs) * time.Millisecond).String(),
					e.Error)
			}
			if err := w.Flush(); err != nil {
				util.Log.Errorf("Failed to flush tabwriter: %v", err)
				return err
			}
			return nil
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	historyCmd.Flags().StringVar(&outcome, "outcome", "", "Only show runs with this outcome (success|failure)")
	parentCmd.AddCommand(historyCmd)
}
