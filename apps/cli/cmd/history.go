package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cocoreg/cocoreg/packages/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent regression runs",
	Long: `History lists recent regression runs recorded by 'cocoreg run',
newest first. Runs are stored in a local SQLite database under the
user cache directory unless --db points elsewhere.`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

var (
	historyLimitFlag int
	historyDBFlag    string
)

func init() {
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Maximum number of runs to show")
	historyCmd.Flags().StringVar(&historyDBFlag, "db", "", "History database path (default: user cache dir)")
}

func historyCommand(cmd *cobra.Command, _ []string) error {
	path := historyDBFlag
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return err
		}
	}
	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer store.Close()

	records, err := store.Recent(historyLimitFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	for _, r := range records {
		status := green("✓")
		if r.Failed > 0 {
			status = red("✗")
		}
		fmt.Fprintf(out, "%s %s  %s  %s  %d passed, %d failed  %s\n",
			status,
			r.StartedAt.Local().Format(time.DateTime),
			r.Runbook,
			r.Sim,
			r.Passed,
			r.Failed,
			dim(r.Duration.Round(time.Millisecond).String()),
		)
	}
	return nil
}
