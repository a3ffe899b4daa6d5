// Package scheduler runs the daily pipeline jobs on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-edge/internal/metrics"
)

// Job is one named, scheduled unit of work
type Job struct {
	Name string
	Spec string // standard 5-field cron expression or @every syntax
	Run  func(ctx context.Context) error
}

// Scheduler wraps robfig/cron with job logging, panic recovery and
// per-job completion metrics.
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Logger
}

// New creates a scheduler. Jobs never run concurrently with themselves; a
// still-running invocation delays the next one.
func New(logger *logrus.Logger) *Scheduler {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DiscardLogger),
	))
	return &Scheduler{cron: c, logger: logger}
}

// Register adds a job to the schedule
func (s *Scheduler) Register(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %s has no run function", job.Name)
	}
	_, err := s.cron.AddFunc(job.Spec, func() {
		start := time.Now()
		log := s.logger.WithFields(logrus.Fields{
			"component": "scheduler",
			"job":       job.Name,
		})
		log.Info("Job starting")

		if err := job.Run(context.Background()); err != nil {
			log.WithError(err).WithField("elapsed", time.Since(start).String()).Error("Job failed")
			return
		}

		metrics.MarkRunComplete(job.Name)
		log.WithField("elapsed", time.Since(start).String()).Info("Job completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s (%q): %w", job.Name, job.Spec, err)
	}
	return nil
}

// Start begins running scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
