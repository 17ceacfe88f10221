package main

import (
	"context"

	"github.com/spf13/cobra"

	"ArticleRelay/internal/app"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger as CSV and send it to the channel",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.Application) error {
		return a.Export(ctx)
	})
}
