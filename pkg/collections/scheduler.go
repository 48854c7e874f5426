package collections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"curator-hq/curator/pkg/telemetry/logging"
	"curator-hq/curator/pkg/telemetry/metrics"
	"curator-hq/curator/pkg/telemetry/tracing"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
)

// Job names.
const (
	JobRules       = "rule-handler"
	JobCollections = "collection-handler"
)

var (
	// ErrJobRunning is returned when a job is started while it still runs.
	ErrJobRunning = errors.New("job is already running")

	// ErrUnknownJob is returned for a job name that was never registered.
	ErrUnknownJob = errors.New("unknown job")
)

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	schedule string
	sched    cron.Schedule
	run      JobFunc
	entry    cron.EntryID
	running  atomic.Bool
}

// Scheduler runs named jobs on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger

	mu   sync.Mutex
	jobs map[string]*job
	ctx  context.Context
}

// NewScheduler creates a stopped scheduler. Scheduled runs recover from
// panics and are skipped while the previous run of the same job is still
// going.
func NewScheduler(logger *slog.Logger, collector *metrics.Collector, tracer *tracing.Tracer) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := logging.NewCronLogger(logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		metrics: collector,
		tracer:  tracer,
		logger:  logger.With("component", "collections.scheduler"),
		jobs:    make(map[string]*job),
		ctx:     context.Background(),
	}
}

// Register adds a job with a standard five-field cron schedule.
func (s *Scheduler) Register(name, schedule string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}
	j := &job{name: name, run: fn}
	if err := s.schedule(j, schedule); err != nil {
		return err
	}
	s.jobs[name] = j
	return nil
}

// Reschedule changes the schedule of a registered job. An unchanged
// schedule is a no-op.
func (s *Scheduler) Reschedule(name, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if j.schedule == schedule {
		return nil
	}
	old := j.entry
	if err := s.schedule(j, schedule); err != nil {
		return err
	}
	s.cron.Remove(old)
	s.logger.Info("job rescheduled", "job", name, "schedule", schedule)
	return nil
}

// schedule adds j to cron under spec. Callers hold s.mu.
func (s *Scheduler) schedule(j *job, spec string) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("job %q: invalid schedule %q: %w", j.name, spec, err)
	}
	j.entry = s.cron.Schedule(sched, cron.FuncJob(func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		if err := s.execute(ctx, j); err != nil && !errors.Is(err, ErrJobRunning) {
			s.logger.Error("scheduled job failed", "job", j.name, "error", err)
		}
	}))
	j.schedule = spec
	j.sched = sched
	return nil
}

// Start starts running jobs on schedule. ctx is passed to every scheduled
// run.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	n := len(s.jobs)
	s.mu.Unlock()
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", n)
}

// Stop stops scheduling. The returned context is done when running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Trigger runs a job now and waits for it. It returns ErrJobRunning when the
// job is already running.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	j, err := s.lookup(name)
	if err != nil {
		return err
	}
	return s.execute(ctx, j)
}

// NextRun returns the next scheduled run of a job.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	j, err := s.lookup(name)
	if err != nil {
		return time.Time{}, false
	}
	s.mu.Lock()
	sched := j.sched
	s.mu.Unlock()
	next := sched.Next(time.Now())
	return next, !next.IsZero()
}

// IsRunning reports whether a job is running.
func (s *Scheduler) IsRunning(name string) bool {
	j, err := s.lookup(name)
	return err == nil && j.running.Load()
}

func (s *Scheduler) lookup(name string) (*job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return j, nil
}

// execute runs j once unless it is already running.
func (s *Scheduler) execute(ctx context.Context, j *job) (err error) {
	if !j.running.CompareAndSwap(false, true) {
		s.logger.Warn("job still running, skipping", "job", j.name)
		return ErrJobRunning
	}
	defer j.running.Store(false)

	runID := logging.NewRunID()
	ctx = logging.WithRunID(logging.WithJob(ctx, j.name), runID)
	ctx, span := s.tracer.Start(ctx, "job."+j.name, trace.WithAttributes(tracing.JobAttributes(j.name, runID)...))

	start := time.Now()
	s.metrics.JobStarted(j.name)
	s.logger.InfoContext(ctx, "job started")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
		elapsed := time.Since(start)
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusError
			s.logger.ErrorContext(ctx, "job finished with errors", "duration", elapsed, "error", err)
		} else {
			s.logger.InfoContext(ctx, "job finished", "duration", elapsed)
		}
		s.metrics.JobFinished(j.name, status, elapsed)
		tracing.Finish(span, err)
	}()

	return j.run(ctx)
}
