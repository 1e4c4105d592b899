// Package scheduler runs the periodic jobs of the worker process on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"finanzas/internal/log"
)

// Default schedules.
const (
	DefaultAccrualSchedule = "15 6 * * *"
	DefaultExportSchedule  = "0 7 1 * *"
)

// JobFunc is one run of a job.
type JobFunc func(ctx context.Context) error

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSpec reports whether spec is a valid five-field cron expression
// or descriptor such as @daily.
func ValidateSpec(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger

	mu   sync.Mutex
	ctx  context.Context
	jobs map[string]JobFunc
}

// New creates a scheduler evaluating specs in loc. A job still running when
// its next tick arrives is skipped; a panicking job is recovered and logged.
func New(loc *time.Location, logger *log.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	l := logger.WithComponent(log.ComponentScheduler)
	cl := cronLogger{l}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		logger: l,
		ctx:    context.Background(),
		jobs:   make(map[string]JobFunc),
	}
}

// Add registers run under name on spec.
func (s *Scheduler) Add(name, spec string, run JobFunc) error {
	if err := ValidateSpec(spec); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	s.mu.Lock()
	if _, dup := s.jobs[name]; dup {
		s.mu.Unlock()
		return fmt.Errorf("add %s: job already registered", name)
	}
	s.jobs[name] = run
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(spec, func() { s.execute(name) }); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	s.logger.Info("Job registered", log.FieldJob, name, "spec", spec)
	return nil
}

// Start runs the scheduler until ctx is done, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	n := len(s.jobs)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "jobs", n)

	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	<-done.Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow runs the named job synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	run, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.run(ctx, name, run)
}

func (s *Scheduler) execute(name string) {
	s.mu.Lock()
	ctx, run := s.ctx, s.jobs[name]
	s.mu.Unlock()
	_ = s.run(ctx, name, run)
}

func (s *Scheduler) run(ctx context.Context, name string, run JobFunc) error {
	start := time.Now()
	s.logger.InfoContext(ctx, "Job started", log.FieldJob, name)
	if err := run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Job failed",
			log.FieldJob, name,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldError, err)
		return err
	}
	s.logger.InfoContext(ctx, "Job finished",
		log.FieldJob, name,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// cronLogger adapts log.Logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, log.FieldError, err)...)
}
