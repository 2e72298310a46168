package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsforge/deployctl/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded pipeline runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.OpenSQLite(historyDB)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer store.Close() //nolint:errcheck

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSERVICE\tENV\tSTATE\tTAG\tDURATION\tREASON")
	for _, r := range runs {
		state := r.State
		if r.DryRun {
			state += " (dry-run)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Service, r.Environment, state, r.ImageTag,
			(time.Duration(r.DurationMs) * time.Millisecond).Round(time.Second),
			r.Reason)
	}
	return w.Flush()
}
