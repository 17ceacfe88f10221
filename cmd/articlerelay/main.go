// Package main provides the articlerelay entry point.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ArticleRelay/internal/app"
	"ArticleRelay/internal/config"
	"ArticleRelay/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("articlerelay failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "articlerelay",
	Short: "Relay new journal articles to a Telegram channel",
	Long: `articlerelay polls a publisher RSS feed, scrapes abstracts of new
articles, translates them with a chat model and announces them in a
Telegram channel. A weekly job exports the whole ledger as CSV.

Running without a subcommand is the same as "articlerelay run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (defaults to $ARTICLE_RELAY_CONFIG)")
	rootCmd.Version = Version
}

// withApp loads config, builds the application and runs fn with a context
// cancelled on SIGINT or SIGTERM.
func withApp(fn func(ctx context.Context, a *app.Application) error) error {
	cfg := config.Load(configPath)
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close application", "error", err)
		}
	}()

	return fn(ctx, application)
}
