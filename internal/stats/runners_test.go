package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/racing-sync/internal/repository"
)

func runnerKey(date time.Time) repository.RunnerKey {
	return repository.RunnerKey{RaceID: "rac_today", HorseID: "hrs_1", RaceDate: date}
}

func runOn(date time.Time, pos int) repository.ResultRow {
	return repository.ResultRow{RaceDate: date, Position: &pos}
}

func dnfOn(date time.Time, text string) repository.ResultRow {
	return repository.ResultRow{RaceDate: date, PositionText: &text}
}

func TestFoldRunnerNoHistory(t *testing.T) {
	raceDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	stat := foldRunner(runnerKey(raceDate), nil)

	assert.Equal(t, "rac_today", stat.RaceID)
	assert.Equal(t, 0, stat.CareerRuns)
	assert.Nil(t, stat.AvgPositionLast5)
	assert.Nil(t, stat.LastPosition)
	assert.Nil(t, stat.DaysSinceLastRun)
}

func TestFoldRunnerCareerAndRecentForm(t *testing.T) {
	raceDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d := func(daysAgo int) time.Time { return raceDate.AddDate(0, 0, -daysAgo) }

	// Rows arrive newest first, matching the repository ordering.
	stat := foldRunner(runnerKey(raceDate), []repository.ResultRow{
		runOn(d(7), 1),
		runOn(d(30), 3),
		runOn(d(60), 2),
		runOn(d(120), 5),
		runOn(d(200), 1),
		runOn(d(400), 1), // sixth run, outside the recent form window
	})

	assert.Equal(t, 6, stat.CareerRuns)
	assert.Equal(t, 3, stat.CareerWins)
	assert.Equal(t, 5, stat.CareerPlaces, "wins count as places too")
	assert.Equal(t, 3, stat.RunsLast90D)

	assert.Equal(t, 2, stat.WinsLast5)
	assert.Equal(t, 4, stat.PlacesLast5)

	require.NotNil(t, stat.AvgPositionLast5)
	assert.InDelta(t, (1+3+2+5+1)/5.0, *stat.AvgPositionLast5, 1e-9)

	require.NotNil(t, stat.LastPosition)
	assert.Equal(t, 1, *stat.LastPosition)

	require.NotNil(t, stat.DaysSinceLastRun)
	assert.Equal(t, 7, *stat.DaysSinceLastRun)
}

func TestFoldRunnerNonFinishersExcludedFromAverage(t *testing.T) {
	raceDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d := func(daysAgo int) time.Time { return raceDate.AddDate(0, 0, -daysAgo) }

	stat := foldRunner(runnerKey(raceDate), []repository.ResultRow{
		dnfOn(d(10), "PU"),
		runOn(d(40), 2),
		runOn(d(70), 4),
	})

	// The pulled-up run counts as a run and as the most recent start,
	// but contributes no finishing position.
	assert.Equal(t, 3, stat.CareerRuns)
	assert.Nil(t, stat.LastPosition)
	require.NotNil(t, stat.AvgPositionLast5)
	assert.InDelta(t, 3.0, *stat.AvgPositionLast5, 1e-9)
	require.NotNil(t, stat.DaysSinceLastRun)
	assert.Equal(t, 10, *stat.DaysSinceLastRun)
}

func TestFoldRunnerNinetyDayWindowIsRelativeToRaceDate(t *testing.T) {
	raceDate := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d := func(daysAgo int) time.Time { return raceDate.AddDate(0, 0, -daysAgo) }

	stat := foldRunner(runnerKey(raceDate), []repository.ResultRow{
		runOn(d(89), 1),
		runOn(d(90), 2),
		runOn(d(91), 3),
	})

	assert.Equal(t, 2, stat.RunsLast90D, "window is inclusive of day 90, exclusive beyond")
	assert.Equal(t, 3, stat.CareerRuns)
}
