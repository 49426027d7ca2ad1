// Package stats recomputes the derived-statistics tables from the
// canonical outcome rows. Calculators read through keyset pagination so
// no pass ever holds a full table in memory, and every write replaces
// the previous value for its key; reruns are idempotent.
package stats

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/config"
	"github.com/yourusername/racing-sync/internal/metrics"
	"github.com/yourusername/racing-sync/internal/models"
	"github.com/yourusername/racing-sync/internal/repository"
)

// Service runs the calculator jobs.
type Service struct {
	repo   repository.StatisticsRepository
	cfg    *config.StatisticsConfig
	logger *logrus.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates the statistics service.
func NewService(repo repository.StatisticsRepository, cfg *config.StatisticsConfig, logger *logrus.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

// RunDaily executes the incremental daily pass: people aggregates,
// runner form for recent races, and the pair/specialist tables at the
// daily run threshold.
func (s *Service) RunDaily(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.StatisticsJobDuration.WithLabelValues("daily").Observe(time.Since(start).Seconds())
	}()

	if err := s.RecomputePeople(ctx); err != nil {
		return err
	}
	since := s.now().AddDate(0, 0, -s.cfg.IncrementalWindowDays)
	if err := s.RecomputeRunners(ctx, &since); err != nil {
		return err
	}
	return s.RecomputeAggregates(ctx, s.cfg.DailyMinRuns)
}

// RunWeekly executes the full weekly pass: pedigree progeny blocks, a
// complete runner recompute, and the aggregate tables at the stricter
// weekly threshold.
func (s *Service) RunWeekly(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.StatisticsJobDuration.WithLabelValues("weekly").Observe(time.Since(start).Seconds())
	}()

	if err := s.RecomputePedigree(ctx); err != nil {
		return err
	}
	if err := s.RecomputeRunners(ctx, nil); err != nil {
		return err
	}
	return s.RecomputeAggregates(ctx, s.cfg.WeeklyMinRuns)
}

// position canonicalises one outcome row. The numeric column wins; the
// raw text decides between non-finishers and unknowns.
func position(row repository.ResultRow) models.Position {
	if row.Position != nil && *row.Position >= 1 {
		return models.Position{Status: models.PositionFinished, Finish: *row.Position}
	}
	if row.PositionText != nil {
		return models.ParsePosition(*row.PositionText)
	}
	return models.Position{Status: models.PositionUnknown}
}

func daysBetween(from, to time.Time) *int {
	d := int(to.Sub(from).Hours() / 24)
	if d < 0 {
		d = 0
	}
	return &d
}
