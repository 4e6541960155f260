package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/prodtests/internal/flags"
	"github.com/zjrosen/prodtests/internal/history"
	"github.com/zjrosen/prodtests/internal/presentation"
)

// errHistoryDisabled is returned when the history command runs without a store.
var errHistoryDisabled = errors.New("run history is disabled (set history.enabled: true)")

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent test runs",
	Long: `Show the most recent run attempts recorded on this station.

Runs are listed newest first with their outcome, progress and duration.
Use --json to print machine-readable output.

Examples:
  # Show the last 20 runs
  prodtests history

  # Show the last 5 runs
  prodtests history --limit 5
  prodtests history -n 5

  # Parse specific fields with jq
  prodtests history --json | jq '.[].outcome'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cleanup, err := initLogging("prodtests-history")
		if err != nil {
			return err
		}
		defer cleanup()

		store, err := openHistory(cfg, flags.New(cfg.Flags))
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		return printHistory(cmd.Context(), os.Stdout, store, historyLimit, historyJSON)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print runs as JSON")
	rootCmd.AddCommand(historyCmd)
}

// printHistory lists up to limit runs from store onto w.
func printHistory(ctx context.Context, w io.Writer, store history.Store, limit int, asJSON bool) error {
	if _, ok := store.(history.Nop); ok {
		return errHistoryDisabled
	}
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runs, err := store.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing run history: %w", err)
	}

	formatter := presentation.NewFormatter(w)
	if asJSON {
		return formatter.FormatRuns(presentation.FromRuns(runs))
	}
	return formatter.FormatRunsTable(runs)
}
