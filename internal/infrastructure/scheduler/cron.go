package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ArticleRelay/internal/ports"
	"ArticleRelay/pkg/logger"
)

// CronScheduler runs named jobs on cron expressions. All jobs share one run
// lock, so no two invocations ever overlap; a trigger that fires while its
// own job is still running is skipped.
type CronScheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	runMu sync.Mutex

	mu      sync.Mutex
	jobs    map[string]func(context.Context)
	baseCtx context.Context
	started bool
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler evaluating expressions in loc.
func NewCronScheduler(loc *time.Location, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}

	cronLog := cron.PrintfLogger(logger.New(log, "cron"))
	return &CronScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger:  log,
		jobs:    make(map[string]func(context.Context)),
		baseCtx: context.Background(),
	}
}

// Schedule registers job under name. spec accepts five-field expressions and
// descriptors such as "@every 1m".
func (c *CronScheduler) Schedule(name, spec string, job func(context.Context)) error {
	if job == nil {
		return fmt.Errorf("job %s is nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}
	if _, err := c.cron.AddFunc(spec, func() { c.run(name) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	c.jobs[name] = job
	return nil
}

// RunNow invokes a registered job synchronously under the shared run lock.
func (c *CronScheduler) RunNow(ctx context.Context, name string) error {
	c.mu.Lock()
	job, ok := c.jobs[name]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s is not scheduled", name)
	}

	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.invoke(ctx, name, job)
	return nil
}

// Start begins firing triggers. Jobs receive ctx.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	c.baseCtx = ctx
	c.started = true
	c.cron.Start()
	c.logger.Info("scheduler started", "jobs", len(c.jobs))
	return nil
}

// Stop prevents new triggers and waits for a running job, or for ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	c.mu.Unlock()

	done := c.cron.Stop().Done()
	select {
	case <-done:
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

func (c *CronScheduler) run(name string) {
	c.mu.Lock()
	job := c.jobs[name]
	ctx := c.baseCtx
	c.mu.Unlock()

	c.runMu.Lock()
	defer c.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	c.invoke(ctx, name, job)
}

func (c *CronScheduler) invoke(ctx context.Context, name string, job func(context.Context)) {
	started := time.Now()
	c.logger.Debug("job started", "job", name)
	job(ctx)
	c.logger.Debug("job finished", "job", name, "elapsed", time.Since(started))
}
