package stats

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/models"
	"github.com/yourusername/racing-sync/internal/repository"
)

// RecomputePeople rebuilds the per-person aggregate rows for jockeys,
// trainers and owners.
func (s *Service) RecomputePeople(ctx context.Context) error {
	for _, entityType := range []models.EntityType{models.EntityJockey, models.EntityTrainer, models.EntityOwner} {
		if err := s.recomputeEntityType(ctx, entityType); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) recomputeEntityType(ctx context.Context, entityType models.EntityType) error {
	var processed int
	afterID := ""
	for {
		ids, err := s.repo.ListEntityIDs(ctx, entityType, afterID, s.cfg.PageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}

		page := make([]models.EntityStatistics, 0, len(ids))
		for _, id := range ids {
			results, err := s.repo.EntityResults(ctx, entityType, id)
			if err != nil {
				return err
			}
			page = append(page, s.foldEntity(entityType, id, results))
		}

		if err := s.repo.ReplaceEntityStatistics(ctx, page); err != nil {
			return err
		}

		processed += len(ids)
		afterID = ids[len(ids)-1]
	}

	s.logger.WithFields(logrus.Fields{
		"entity_type": entityType,
		"entities":    processed,
	}).Info("Entity statistics recomputed")
	return nil
}

// foldEntity reduces one person's outcome rows into their aggregate.
// Non-finishers count as runs, never as places; rows with no usable
// position are skipped entirely.
func (s *Service) foldEntity(entityType models.EntityType, id string, results []repository.ResultRow) models.EntityStatistics {
	now := s.now()
	cut14 := now.AddDate(0, 0, -14)
	cut30 := now.AddDate(0, 0, -30)

	stat := models.EntityStatistics{EntityID: id, EntityType: entityType}
	for _, row := range results {
		pos := position(row)
		if !pos.CountsAsRun() {
			continue
		}

		stat.Total++
		if stat.LastRunDate == nil || row.RaceDate.After(*stat.LastRunDate) {
			d := row.RaceDate
			stat.LastRunDate = &d
		}

		if pos.Won() {
			stat.Wins++
			if stat.LastWinDate == nil || row.RaceDate.After(*stat.LastWinDate) {
				d := row.RaceDate
				stat.LastWinDate = &d
			}
		}
		if pos.Placed() {
			stat.Places++
		}
		if pos.Finished() {
			switch pos.Finish {
			case 2:
				stat.Seconds++
			case 3:
				stat.Thirds++
			}
		}

		if !row.RaceDate.Before(cut14) {
			stat.Runs14D++
			if pos.Won() {
				stat.Wins14D++
			}
		}
		if !row.RaceDate.Before(cut30) {
			stat.Runs30D++
			if pos.Won() {
				stat.Wins30D++
			}
		}
	}

	stat.WinRate = models.WinRate(stat.Wins, stat.Total)
	stat.WinRate14D = models.WinRate(stat.Wins14D, stat.Runs14D)
	stat.WinRate30D = models.WinRate(stat.Wins30D, stat.Runs30D)
	if stat.LastRunDate != nil {
		stat.DaysSinceLastRun = daysBetween(*stat.LastRunDate, now)
	}
	if stat.LastWinDate != nil {
		stat.DaysSinceLastWin = daysBetween(*stat.LastWinDate, now)
	}

	return stat
}
