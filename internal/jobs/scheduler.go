package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"

	"dwdcdc/internal/logging"
)

// Scheduler runs the daily recent sync of the configured datasets
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *SyncJob
	requests  []Request
	at        string
	timeout   time.Duration
}

// NewScheduler creates a scheduler firing every day at "HH:MM" in loc
func NewScheduler(job *SyncJob, requests []Request, at string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		job:       job,
		requests:  requests,
		at:        at,
		timeout:   6 * time.Hour,
	}
}

// Start registers the daily job and starts the underlying scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.requests) == 0 {
		logging.Warn("Scheduler has no datasets configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		s.runAll(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduler started", "at", s.at, "datasets", len(s.requests))
	return nil
}

// Stop stops the scheduler and cancels any future runs
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// runAll runs the requests one after the other; a run never overlaps another
func (s *Scheduler) runAll(ctx context.Context) {
	for _, req := range s.requests {
		runCtx, cancel := context.WithTimeout(ctx, s.timeout)
		summary, err := s.job.Run(runCtx, req)
		cancel()

		switch {
		case errors.Is(err, ErrRunInProgress):
			logging.Warn("Scheduled sync skipped, another run is in progress", "dataset", req.Dataset)
		case IsConfigError(err):
			logging.Error("Scheduled sync misconfigured", "dataset", req.Dataset, "error", err)
		case err != nil:
			logging.Error("Scheduled sync failed", "dataset", req.Dataset, "error", err)
		default:
			logging.Info("Scheduled sync completed", "dataset", req.Dataset, "run_id", summary.RunID, "status", summary.Status)
		}
	}
}
