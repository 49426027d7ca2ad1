package stats

import (
	"context"
	"time"

	"github.com/yourusername/racing-sync/internal/models"
	"github.com/yourusername/racing-sync/internal/repository"
)

const recentFormRuns = 5

// RecomputeRunners rebuilds per-runner form rows. A non-nil since
// restricts the pass to runners in races on or after that date; the
// weekly pass sends nil and recomputes everything.
func (s *Service) RecomputeRunners(ctx context.Context, since *time.Time) error {
	var processed int
	var after *repository.RunnerKey
	for {
		keys, err := s.repo.ListRunnerKeys(ctx, since, after, s.cfg.PageSize)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			break
		}

		page := make([]models.RunnerStatistics, 0, len(keys))
		for _, key := range keys {
			history, err := s.repo.HorseResultsBefore(ctx, key.HorseID, key.RaceDate)
			if err != nil {
				return err
			}
			page = append(page, foldRunner(key, history))
		}

		if err := s.repo.ReplaceRunnerStatistics(ctx, page); err != nil {
			return err
		}

		processed += len(keys)
		last := keys[len(keys)-1]
		after = &last
	}

	s.logger.WithField("runners", processed).Info("Runner statistics recomputed")
	return nil
}

// foldRunner reduces a horse's prior outcome rows, newest first, into
// the form block for one runner. The race being scored is excluded by
// the strict date cut upstream.
func foldRunner(key repository.RunnerKey, history []repository.ResultRow) models.RunnerStatistics {
	stat := models.RunnerStatistics{
		RaceID:   key.RaceID,
		HorseID:  key.HorseID,
		RaceDate: key.RaceDate,
	}

	cut90 := key.RaceDate.AddDate(0, 0, -90)
	var recentPositions []int
	var lastRun *time.Time

	for _, row := range history {
		pos := position(row)
		if !pos.CountsAsRun() {
			continue
		}

		stat.CareerRuns++
		if pos.Won() {
			stat.CareerWins++
		}
		if pos.Placed() {
			stat.CareerPlaces++
		}
		if !row.RaceDate.Before(cut90) {
			stat.RunsLast90D++
		}
		if lastRun == nil || row.RaceDate.After(*lastRun) {
			d := row.RaceDate
			lastRun = &d
		}

		// History arrives newest first, so the first few counted runs
		// are the recent form window.
		if stat.CareerRuns <= recentFormRuns {
			if pos.Won() {
				stat.WinsLast5++
			}
			if pos.Placed() {
				stat.PlacesLast5++
			}
			if pos.Finished() {
				recentPositions = append(recentPositions, pos.Finish)
			}
			if stat.CareerRuns == 1 {
				stat.LastPosition = pos.FinishPtr()
			}
		}
	}

	if len(recentPositions) > 0 {
		var sum int
		for _, p := range recentPositions {
			sum += p
		}
		avg := float64(sum) / float64(len(recentPositions))
		stat.AvgPositionLast5 = &avg
	}
	if lastRun != nil {
		stat.DaysSinceLastRun = daysBetween(*lastRun, key.RaceDate)
	}

	return stat
}
