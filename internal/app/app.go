package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ArticleRelay/internal/config"
	"ArticleRelay/internal/infrastructure/feed"
	"ArticleRelay/internal/infrastructure/llm"
	"ArticleRelay/internal/infrastructure/parser"
	"ArticleRelay/internal/infrastructure/scheduler"
	"ArticleRelay/internal/infrastructure/storage"
	"ArticleRelay/internal/infrastructure/telegram"
	"ArticleRelay/internal/logging"
	"ArticleRelay/internal/observability"
	"ArticleRelay/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	ledger   *storage.Ledger
	pipeline *usecase.Pipeline
	exporter *usecase.Exporter
	registry *prometheus.Registry
	metrics  *observability.Metrics
}

// New builds the application. The caller must Close it.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ledger, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	publisher := telegram.NewNotifier(cfg.Notifications.Telegram,
		telegram.WithLogger(baseLogger.With("component", "telegram")))

	translator := llm.NewTranslator(
		llm.NewChatGPTClient(cfg.ChatGPT, nil),
		cfg.ChatGPT,
		cfg.Translation,
	)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Feed:       feed.NewReader(cfg.Feed, nil, baseLogger.With("component", "feed")),
		Ledger:     ledger,
		Fetcher:    parser.NewPageFetcher(cfg.Page, nil),
		Extractor:  parser.NewExtractor(parser.DefaultMatchers(), baseLogger.With("component", "extractor")),
		Translator: translator,
		Publisher:  publisher,
		Metrics:    metrics,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	exporter := usecase.NewExporter(ledger, publisher, cfg.Export.Path, cfg.Export.Caption,
		baseLogger.With("component", "exporter"))

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		ledger:   ledger,
		pipeline: pipeline,
		exporter: exporter,
		registry: registry,
		metrics:  metrics,
	}, nil
}

// Poll runs a single pipeline pass.
func (a *Application) Poll(ctx context.Context) error {
	_, err := a.pipeline.Run(ctx)
	return err
}

// Export writes and delivers a single ledger snapshot.
func (a *Application) Export(ctx context.Context) error {
	_, err := a.exporter.Export(ctx)
	return err
}

// Run schedules both jobs and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	sched := usecase.NewScheduler(
		scheduler.NewCronScheduler(a.cfg.Scheduler.Location(), a.logger.With("component", "scheduler")),
		a.pipeline,
		a.exporter,
		usecase.SchedulerConfig{
			PollSpec:    a.cfg.Scheduler.PollExpression,
			ExportSpec:  a.cfg.Scheduler.ExportExpression,
			PollOnStart: a.cfg.Scheduler.PollOnStart(),
		},
		a.metrics,
		a.logger.With("component", "scheduler"),
	)

	errCh := make(chan error, 1)
	metricsServer := a.startMetricsServer(errCh)

	if err := sched.Start(ctx); err != nil {
		a.shutdownMetrics(metricsServer)
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("relay running",
		"poll", a.cfg.Scheduler.PollExpression,
		"export", a.cfg.Scheduler.ExportExpression,
		"timezone", a.cfg.Scheduler.Location().String(),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	case runErr = <-errCh:
		a.logger.Error("metrics server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler shutdown error", "error", err)
	}
	a.shutdownMetrics(metricsServer)
	return runErr
}

// Close releases the ledger connection.
func (a *Application) Close() error {
	if a.ledger == nil {
		return nil
	}
	return a.ledger.Close()
}

func (a *Application) startMetricsServer(errCh chan<- error) *http.Server {
	if a.cfg.Metrics.Listen == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("metrics server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	return srv
}

func (a *Application) shutdownMetrics(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("metrics server shutdown error", "error", err)
	}
}
