package main

import (
	"context"

	"github.com/spf13/cobra"

	"ArticleRelay/internal/app"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the poll and export jobs on their schedules",
	Long: `Run the relay as a long-lived process. The poll job runs on
scheduler.pollExpression (every minute by default) and the export job on
scheduler.exportExpression (Saturdays at 17:00 by default). Jobs never overlap.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.Application) error {
		return a.Run(ctx)
	})
}
