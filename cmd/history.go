package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ev3remote/app"
	"github.com/kilianp07/ev3remote/core/calllog"
)

var (
	historySince   time.Duration
	historyMethod  string
	historyOutcome string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the calls recorded in the call log",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only calls newer than this, e.g. 1h")
	historyCmd.Flags().StringVar(&historyMethod, "method", "", "only calls to this method")
	historyCmd.Flags().StringVar(&historyOutcome, "outcome", "", "only calls with this outcome (ok, failed, interrupted...)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	q := calllog.Query{Method: historyMethod, Outcome: historyOutcome}
	if historySince > 0 {
		q.Start = time.Now().Add(-historySince)
	}
	recs, err := app.History(cmd.Context(), cfg, q)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMETHOD\tOUTCOME\tDURATION\tERROR")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fms\t%s\n", r.Time.Format(time.RFC3339), r.Method, r.Outcome, r.DurationMS, r.Error)
	}
	return w.Flush()
}
