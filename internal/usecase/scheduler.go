package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ArticleRelay/internal/observability"
	"ArticleRelay/internal/ports"
)

// Job names registered with the scheduler driver.
const (
	JobPoll   = "poll"
	JobExport = "export"
)

// SchedulerConfig carries the cron expressions for both jobs.
type SchedulerConfig struct {
	PollSpec    string
	ExportSpec  string
	PollOnStart bool
}

// Scheduler wires the cron-like driver with the poll and export use cases.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	exporter *Exporter
	cfg      SchedulerConfig
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, exporter *Exporter, cfg SchedulerConfig, metrics *observability.Metrics, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		driver:   driver,
		pipeline: pipeline,
		exporter: exporter,
		cfg:      cfg,
		metrics:  metrics,
		logger:   log,
	}
}

// Start registers both jobs, optionally polls once, then starts the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return fmt.Errorf("scheduler misconfigured")
	}

	if err := s.driver.Schedule(JobPoll, s.cfg.PollSpec, s.pollJob); err != nil {
		return err
	}
	if s.exporter != nil && s.cfg.ExportSpec != "" {
		if err := s.driver.Schedule(JobExport, s.cfg.ExportSpec, s.exportJob); err != nil {
			return err
		}
	}

	if s.cfg.PollOnStart {
		if err := s.driver.RunNow(ctx, JobPoll); err != nil {
			return err
		}
	}

	return s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

func (s *Scheduler) pollJob(ctx context.Context) {
	started := time.Now()
	_, err := s.pipeline.Run(ctx)
	s.metrics.RecordRun(JobPoll, err, time.Since(started))
	if err != nil {
		s.logger.Error("poll job failed", "error", err)
	}
}

func (s *Scheduler) exportJob(ctx context.Context) {
	started := time.Now()
	_, err := s.exporter.Export(ctx)
	s.metrics.RecordRun(JobExport, err, time.Since(started))
	if err != nil {
		s.logger.Error("export job failed", "error", err)
	}
}
