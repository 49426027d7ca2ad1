// Package scheduler runs the recurring sync cadence: frequent race and
// result windows, nightly statistics, weekly people refreshes and a
// monthly reference sweep.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/controller"
)

// Job is one scheduled entry.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler owns the cron runner and the standard job table.
type Scheduler struct {
	cron   *cron.Cron
	ctrl   *controller.Controller
	logger *logrus.Logger

	mu        sync.RWMutex
	isRunning bool
	jobs      []Job
	entryIDs  []cron.EntryID

	jobTimeout time.Duration
}

// New creates a scheduler with the standard cadence registered.
func New(ctrl *controller.Controller, logger *logrus.Logger) *Scheduler {
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		ctrl:       ctrl,
		logger:     logger,
		jobTimeout: 4 * time.Hour,
	}
	s.jobs = s.standardJobs()
	return s
}

// standardJobs is the cadence table. All times are UTC.
func (s *Scheduler) standardJobs() []Job {
	return []Job{
		{
			// Four-hourly through racing hours; nothing changes overnight.
			Name: "races_and_results",
			Spec: "0 6-22/4 * * *",
			Run:  s.ctrl.Daily,
		},
		{
			Name: "horses_daily",
			Spec: "0 13 * * *",
			Run:  s.ctrl.HorsePass,
		},
		{
			Name: "statistics_daily",
			Spec: "30 2 * * *",
			Run: func(ctx context.Context) error {
				return s.ctrl.RunStatistics(ctx, false)
			},
		},
		{
			Name: "statistics_weekly",
			Spec: "30 3 * * 0",
			Run: func(ctx context.Context) error {
				return s.ctrl.RunStatistics(ctx, true)
			},
		},
		{
			Name: "people_weekly",
			Spec: "0 13 * * 0",
			Run: func(ctx context.Context) error {
				return s.ctrl.SyncMasters(ctx, false)
			},
		},
		{
			Name: "reference_monthly",
			Spec: "0 13 1 * *",
			Run: func(ctx context.Context) error {
				return s.ctrl.SyncMasters(ctx, true)
			},
		},
	}
}

// Jobs returns the cadence table for display.
func (s *Scheduler) Jobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Job(nil), s.jobs...)
}

// Start registers the job table and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	for _, job := range s.jobs {
		job := job
		id, err := s.cron.AddFunc(job.Spec, func() { s.runJob(job) })
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entryIDs = append(s.entryIDs, id)
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
	return nil
}

func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	s.logger.WithField("job", job.Name).Info("Scheduled job starting")
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.WithError(err).WithField("job", job.Name).Error("Scheduled job failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"job":      job.Name,
		"duration": time.Since(start).Round(time.Second).String(),
	}).Info("Scheduled job complete")
}

// Stop waits for in-flight jobs to finish, then stops the runner.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning reports whether the cron runner is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the next fire time per job, in table order.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := make(map[string]time.Time, len(s.entryIDs))
	for i, id := range s.entryIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() {
			next[s.jobs[i].Name] = entry.Next
		}
	}
	return next
}
