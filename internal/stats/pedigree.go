package stats

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/models"
)

const (
	breakdownTopN = 3
	// A class or distance needs a minimum sample before it can be
	// called an ancestor's best.
	bestEntryMinRuns = 3
)

// RecomputePedigree rebuilds the progeny performance block on every
// sire, dam and damsire row.
func (s *Service) RecomputePedigree(ctx context.Context) error {
	for _, role := range []models.AncestorRole{models.RoleSire, models.RoleDam, models.RoleDamsire} {
		if err := s.recomputeRole(ctx, role); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) recomputeRole(ctx context.Context, role models.AncestorRole) error {
	var processed int
	afterID := ""
	for {
		ids, err := s.repo.ListAncestorIDs(ctx, role, afterID, s.cfg.PageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			runs, err := s.repo.ProgenyRuns(ctx, role, id)
			if err != nil {
				return err
			}
			ancestor := foldProgeny(id, runs)
			if err := s.repo.UpdateAncestorStatistics(ctx, role, &ancestor); err != nil {
				return err
			}
		}

		processed += len(ids)
		afterID = ids[len(ids)-1]
	}

	s.logger.WithFields(logrus.Fields{
		"role":      role,
		"ancestors": processed,
	}).Info("Pedigree statistics recomputed")
	return nil
}

// foldProgeny reduces an ancestor's progeny outcome rows into its
// derived block. The data quality score grows with sample size, so a
// sire judged on three runs never looks as trustworthy as one judged
// on three hundred.
func foldProgeny(ancestorID string, runs []models.ProgenyRun) models.Ancestor {
	a := models.Ancestor{ID: ancestorID, ProgenyEarnings: decimal.Zero}

	horses := make(map[string]bool)
	classes := make(map[string]*models.BreakdownEntry)
	distances := make(map[string]*models.BreakdownEntry)

	for _, run := range runs {
		pos := progenyPosition(run)
		if !pos.CountsAsRun() {
			continue
		}

		a.ProgenyRuns++
		horses[run.HorseID] = true
		if pos.Won() {
			a.ProgenyWins++
		}
		if pos.Placed() {
			a.ProgenyPlaces++
		}
		if run.PrizeWon != nil {
			a.ProgenyEarnings = a.ProgenyEarnings.Add(*run.PrizeWon)
		}

		if run.RaceClass != nil {
			tally(classes, *run.RaceClass, pos.Won())
		}
		if run.DistanceBand != nil {
			tally(distances, *run.DistanceBand, pos.Won())
		}
	}

	a.ProgenyCount = len(horses)
	a.ClassBreakdown = topEntries(classes)
	a.DistBreakdown = topEntries(distances)
	a.BestClass = bestEntry(a.ClassBreakdown)
	a.BestDistance = bestEntry(a.DistBreakdown)

	q := models.DataQualityScore(a.ProgenyRuns)
	a.DataQuality = &q

	return a
}

func progenyPosition(run models.ProgenyRun) models.Position {
	if run.Position != nil && *run.Position >= 1 {
		return models.Position{Status: models.PositionFinished, Finish: *run.Position}
	}
	if run.PositionText != nil {
		return models.ParsePosition(*run.PositionText)
	}
	return models.Position{Status: models.PositionUnknown}
}

func tally(m map[string]*models.BreakdownEntry, name string, won bool) {
	e, ok := m[name]
	if !ok {
		e = &models.BreakdownEntry{Name: name}
		m[name] = e
	}
	e.Runners++
	if won {
		e.Wins++
	}
}

// topEntries keeps the most-raced entries, win rates filled in.
func topEntries(m map[string]*models.BreakdownEntry) []models.BreakdownEntry {
	entries := make([]models.BreakdownEntry, 0, len(m))
	for _, e := range m {
		e.WinPercent = models.WinRate(e.Wins, e.Runners)
		entries = append(entries, *e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Runners != entries[j].Runners {
			return entries[i].Runners > entries[j].Runners
		}
		return entries[i].Name < entries[j].Name
	})

	if len(entries) > breakdownTopN {
		entries = entries[:breakdownTopN]
	}
	return entries
}

// bestEntry picks the kept entry with the highest win rate among those
// with at least bestEntryMinRuns runs. Ties go to absolute wins, then
// alphabetical name.
func bestEntry(entries []models.BreakdownEntry) *string {
	var best *models.BreakdownEntry
	for i := range entries {
		e := &entries[i]
		if e.Runners < bestEntryMinRuns || e.WinPercent == nil {
			continue
		}
		switch {
		case best == nil,
			*e.WinPercent > *best.WinPercent,
			*e.WinPercent == *best.WinPercent && e.Wins > best.Wins,
			*e.WinPercent == *best.WinPercent && e.Wins == best.Wins && e.Name < best.Name:
			best = e
		}
	}
	if best == nil {
		return nil
	}
	name := best.Name
	return &name
}
