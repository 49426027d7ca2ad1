package stats

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/models"
)

// RecomputeAggregates rebuilds the jockey-trainer combination table and
// the per-entity distance and venue specialist tables. The SQL does the
// grouping; minRuns is the HAVING floor.
func (s *Service) RecomputeAggregates(ctx context.Context, minRuns int) error {
	combos, err := s.repo.CombinationAggregates(ctx, minRuns)
	if err != nil {
		return err
	}
	if err := s.repo.ReplaceCombinations(ctx, combos); err != nil {
		return err
	}
	s.logger.WithField("combinations", len(combos)).Info("Combination statistics recomputed")

	for _, entityType := range []models.EntityType{models.EntityJockey, models.EntityTrainer} {
		dist, err := s.repo.DistanceAggregates(ctx, entityType, minRuns)
		if err != nil {
			return err
		}
		if err := s.repo.ReplaceDistancePerformance(ctx, entityType, dist); err != nil {
			return err
		}

		venues, err := s.repo.VenueAggregates(ctx, entityType, minRuns)
		if err != nil {
			return err
		}
		if err := s.repo.ReplaceVenuePerformance(ctx, entityType, venues); err != nil {
			return err
		}

		s.logger.WithFields(logrus.Fields{
			"entity_type": entityType,
			"distance":    len(dist),
			"venue":       len(venues),
		}).Info("Specialist statistics recomputed")
	}

	return nil
}
