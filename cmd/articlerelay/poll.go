package main

import (
	"context"

	"github.com/spf13/cobra"

	"ArticleRelay/internal/app"
)

func init() {
	rootCmd.AddCommand(pollCmd)
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Process the current feed window once and exit",
	Long: `Fetch the feed, publish every entry missing from the ledger and exit.

Examples:
  articlerelay poll
  articlerelay poll --config relay.yaml`,
	RunE: runPoll,
}

func runPoll(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.Application) error {
		return a.Poll(ctx)
	})
}
