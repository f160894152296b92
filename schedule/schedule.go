// Package schedule executes tasks and runners on cron schedules.
//
// Example usage:
//
//	s := schedule.New(logger)
//	if _, err := s.Add("*/5 * * * *", runner, input); err != nil {
//		return err
//	}
//	s.Start()
//	defer s.Stop(ctx)
//
// A job whose previous run is still executing is skipped.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dcshock/corridor/pipeline"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrInvalidSpec is returned when a cron specification cannot be parsed.
var ErrInvalidSpec = errors.New("invalid cron spec")

// parser accepts standard 5-field specs and descriptors such as @hourly or @every 10s.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler runs executables on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New returns a stopped Scheduler. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "schedule")
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add schedules exec to run with input according to spec.
func (s *Scheduler) Add(spec string, exec pipeline.Executable, input interface{}) (cron.EntryID, error) {
	if _, err := parser.Parse(spec); err != nil {
		return 0, errors.Join(ErrInvalidSpec, err)
	}
	id, err := s.cron.AddJob(spec, &job{exec: exec, input: input, logger: s.logger.With("name", exec.Name(), "spec", spec)})
	if err != nil {
		return 0, errors.Join(ErrInvalidSpec, err)
	}
	return id, nil
}

// Remove unschedules an entry.
func (s *Scheduler) Remove(id cron.EntryID) { s.cron.Remove(id) }

// Len returns the number of scheduled entries.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// NextRun returns the next activation time of an entry, or the zero time.
func (s *Scheduler) NextRun(id cron.EntryID) time.Time { return s.cron.Entry(id).Next }

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler starting", "entries", s.Len())
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type job struct {
	exec   pipeline.Executable
	input  interface{}
	logger *slog.Logger
}

// Run implements cron.Job.
func (j *job) Run() {
	id := uuid.New().String()
	ctx := pipeline.WithRunID(context.Background(), id)
	j.logger.Info("starting scheduled run", "run_id", id)

	start := time.Now()
	if _, err := j.exec.Execute(ctx, j.input); err != nil {
		j.logger.Warn("scheduled run completed with error", "run_id", id, "error", err, "elapsed", time.Since(start))
		return
	}
	j.logger.Info("scheduled run completed successfully", "run_id", id, "elapsed", time.Since(start))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
