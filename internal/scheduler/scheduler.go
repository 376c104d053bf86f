package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/station-telemetry-monitor/internal/telemetry"
)

// Cycler runs one poll cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (telemetry.CycleResult, error)
}

// Scheduler periodically runs poll cycles, one at a time.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	service    Cycler
	interval   time.Duration
	timeout    time.Duration
	runOnStart bool
	logger     *zap.SugaredLogger

	running sync.WaitGroup
}

// New creates a new Scheduler. timeout bounds each cycle.
func New(service Cycler, interval, timeout time.Duration, runOnStart bool, logger *zap.SugaredLogger) *Scheduler {
	// Recover a panicking cycle so the next tick still runs. The handler is
	// process-wide in gocron, so the last scheduler created owns it.
	gocron.SetPanicHandler(func(jobName string, recoverData interface{}) {
		logger.Errorw("poll cycle panicked",
			"job_name", jobName,
			"panic", recoverData,
		)
	})

	s := gocron.NewScheduler(time.Local)
	// A cycle that overruns the period delays the next one instead of overlapping it.
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:  s,
		service:    service,
		interval:   interval,
		timeout:    timeout,
		runOnStart: runOnStart,
		logger:     logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// Unless runOnStart is set, the first cycle runs one interval after Start.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	job := s.scheduler.Every(s.interval)
	if !s.runOnStart {
		job = job.WaitForSchedule()
	}
	if _, err := job.Do(s.RunOnce); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Infow("scheduler started", "interval", s.interval.String(), "run_on_start", s.runOnStart)
	return nil
}

// RunOnce runs a single cycle. Errors are logged and never propagated.
func (s *Scheduler) RunOnce() {
	s.running.Add(1)
	defer s.running.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.service.RunCycle(ctx)
	if err != nil {
		s.logger.Errorw("poll cycle failed",
			"cycle_id", res.CycleID,
			"error_type", telemetry.ErrorType(err),
			"error", err,
		)
		return
	}

	next := time.Now().Add(s.interval)
	s.logger.Infow("poll cycle completed",
		"cycle_id", res.CycleID,
		"outcome", string(res.Outcome),
		"next_run", next.Format("15:04"),
	)
}

// Stop stops the scheduler and waits for a cycle already in progress.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.running.Wait()
}
