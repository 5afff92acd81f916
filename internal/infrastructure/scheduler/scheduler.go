// Package scheduler runs periodic background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the latest run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobRun records the latest execution of a job
type JobRun struct {
	Status      JobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Error       string
	NextRunAt   time.Time
}

type registeredJob struct {
	job     Job
	spec    string
	entryID cron.EntryID
}

// CronScheduler runs registered jobs on standard five-field cron
// expressions. Overlapping runs of the same job are skipped and panics are
// recovered. Each run gets its own timeout.
type CronScheduler struct {
	cron       *cron.Cron
	jobTimeout time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	jobs    map[string]*registeredJob
	runs    map[string]JobRun
	running bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewCronScheduler creates a scheduler. jobTimeout bounds every run.
func NewCronScheduler(jobTimeout time.Duration, logger *zap.Logger) *CronScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	cl := zapCronLogger{logger: logger.Named("cron")}
	return &CronScheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobTimeout: jobTimeout,
		logger:     logger,
		jobs:       make(map[string]*registeredJob),
		runs:       make(map[string]JobRun),
	}
}

// Register adds a job under a cron spec. Jobs must be registered before Start.
func (s *CronScheduler) Register(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerRunning
	}
	name := job.Name()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	id, err := s.cron.AddFunc(spec, func() { s.execute(name) })
	if err != nil {
		return fmt.Errorf("%w: job %s schedule %q: %v", ErrInvalidConfig, name, spec, err)
	}
	s.jobs[name] = &registeredJob{job: job, spec: spec, entryID: id}
	s.runs[name] = JobRun{Status: JobStatusPending}
	return nil
}

// Start begins firing jobs. Calling Start twice is a no-op.
func (s *CronScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.cron.Start()

	for name, rj := range s.jobs {
		s.logger.Info("Scheduled job",
			zap.String("job", name),
			zap.String("schedule", rj.spec),
			zap.Time("next_run", s.cron.Entry(rj.entryID).Next))
	}
}

// Stop prevents new runs, cancels running ones and waits for them to return
// or for ctx to expire.
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes a registered job synchronously outside its schedule
func (s *CronScheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	rj, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s is not registered", name)
	}
	return s.run(ctx, rj)
}

// LastRun returns the latest run record of a job
func (s *CronScheduler) LastRun(name string) (JobRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[name]
	if ok {
		if rj := s.jobs[name]; rj != nil && s.running {
			run.NextRunAt = s.cron.Entry(rj.entryID).Next
		}
	}
	return run, ok
}

func (s *CronScheduler) execute(name string) {
	s.mu.Lock()
	rj := s.jobs[name]
	ctx := s.baseCtx
	s.mu.Unlock()
	if rj == nil || ctx == nil {
		return
	}
	_ = s.run(ctx, rj)
}

func (s *CronScheduler) run(ctx context.Context, rj *registeredJob) error {
	name := rj.job.Name()
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "scheduler."+name, telemetry.WithAttribute("job.name", name))
	defer span.End()

	start := time.Now()
	s.record(name, JobRun{Status: JobStatusRunning, StartedAt: start})

	err := rj.job.Run(ctx)

	run := JobRun{Status: JobStatusSuccess, StartedAt: start, CompletedAt: time.Now()}
	if err != nil {
		run.Status = JobStatusFailed
		run.Error = err.Error()
		telemetry.RecordError(span, err)
		s.logger.Error("Scheduled job failed",
			zap.String("job", name),
			zap.Duration("duration", run.CompletedAt.Sub(start)),
			zap.Error(err))
	} else {
		telemetry.SetOK(span)
		s.logger.Info("Scheduled job completed",
			zap.String("job", name),
			zap.Duration("duration", run.CompletedAt.Sub(start)))
	}
	s.record(name, run)
	return err
}

func (s *CronScheduler) record(name string, run JobRun) {
	s.mu.Lock()
	s.runs[name] = run
	s.mu.Unlock()
}

// zapCronLogger adapts zap to cron.Logger
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
