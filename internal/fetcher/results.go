package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/models"
	"github.com/yourusername/racing-sync/internal/parse"
	"github.com/yourusername/racing-sync/internal/racingapi"
	"github.com/yourusername/racing-sync/internal/repository"
)

// ResultSummary reports one results window sync.
type ResultSummary struct {
	Results       int
	Runners       int
	RowsWritten   int
	FailedBatches int
}

func (s *ResultSummary) absorb(r repository.BatchResult) {
	s.RowsWritten += r.Written
	s.FailedBatches += r.FailedBatches
}

// ResultsFetcher syncs race results. A result document repeats the
// race's card fields, so it upserts the race row too; a result arriving
// before its racecard still lands completely.
type ResultsFetcher struct {
	client  racingapi.Client
	repos   *repository.Repositories
	regions []string
	logger  *logrus.Logger
}

// NewResultsFetcher creates a results fetcher.
func NewResultsFetcher(client racingapi.Client, repos *repository.Repositories, regions []string, logger *logrus.Logger) *ResultsFetcher {
	if len(regions) == 0 {
		regions = models.CoveredRegions
	}
	return &ResultsFetcher{client: client, repos: repos, regions: regions, logger: logger}
}

// FetchWindow syncs all results dated within [from, to].
func (f *ResultsFetcher) FetchWindow(ctx context.Context, from, to time.Time) (ResultSummary, error) {
	var summary ResultSummary

	docs, err := f.client.Results(ctx, from, to, f.regions)
	if err != nil {
		return summary, err
	}
	if len(docs) == 0 {
		return summary, nil
	}

	var races []models.Race
	var patches []models.Runner
	var outcomes []models.RaceResult
	for _, doc := range docs {
		race, err := buildResultRace(doc)
		if err != nil {
			f.logger.WithError(err).Warn("Skipping result that failed normalisation")
			summary.FailedBatches++
			continue
		}
		races = append(races, race)

		for _, rd := range doc.Runners {
			if rd.HorseID == "" {
				continue
			}
			patches = append(patches, buildRunnerPatch(doc.RaceID, rd))
			outcomes = append(outcomes, buildOutcome(race, rd))
		}
	}

	result, err := f.repos.Race.UpsertRaces(ctx, races)
	summary.absorb(result)
	if err != nil {
		return summary, err
	}
	summary.Results = len(races)

	result, err = f.repos.Race.PatchRunnerResults(ctx, patches)
	summary.absorb(result)
	if err != nil {
		return summary, err
	}
	summary.Runners = len(patches)

	result, err = f.repos.Result.UpsertRaceResults(ctx, outcomes)
	summary.absorb(result)
	if err != nil {
		return summary, err
	}

	for i := range races {
		if err := f.repos.Race.MarkRaceResult(ctx, &races[i]); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return summary, err
		}
	}

	return summary, nil
}

func buildResultRace(doc racingapi.ResultDoc) (models.Race, error) {
	if doc.RaceID == "" {
		return models.Race{}, racingapi.NewParseError(doc.RaceID, "race_id", "missing race id")
	}
	date := parse.Date(doc.Date)
	if date == nil {
		return models.Race{}, racingapi.NewParseError(doc.RaceID, "date", "unparseable date "+doc.Date)
	}
	if doc.CourseID == "" {
		return models.Race{}, racingapi.NewParseError(doc.RaceID, "course_id", "missing course id")
	}

	fieldSize := len(doc.Runners)
	return models.Race{
		ID:           doc.RaceID,
		Date:         *date,
		OffTime:      parse.DateTime(doc.OffDT),
		CourseID:     doc.CourseID,
		CourseName:   doc.Course,
		Name:         doc.RaceName,
		Region:       doc.Region,
		Class:        parse.Str(doc.RaceClass),
		Pattern:      parse.Str(doc.Pattern),
		Type:         doc.Type,
		AgeBand:      parse.Str(doc.AgeBand),
		RatingBand:   parse.Str(doc.RatingBand),
		DistanceText: doc.Distance,
		DistanceF:    parse.Float(doc.DistanceF),
		DistanceM:    parse.DistanceMeters(doc.Distance),
		Going:        parse.Str(doc.Going),
		FieldSize:    &fieldSize,

		HasResult:   true,
		WinningTime: parse.Str(doc.WinningTime),
		ToteWin:     parse.Str(doc.ToteWin),
		TotePlace:   parse.Str(doc.TotePl),
		ToteExacta:  parse.Str(doc.ToteEx),
		ToteCSF:     parse.Str(doc.ToteCSF),
		ToteTricast: parse.Str(doc.ToteTricast),
		Comments:    parse.Str(doc.Comments),
	}, nil
}

func buildRunnerPatch(raceID string, rd racingapi.ResultRunnerDoc) models.Runner {
	pos := models.ParsePosition(rd.Position)
	prize, _ := parse.Currency(rd.Prize)

	return models.Runner{
		RaceID:       raceID,
		HorseID:      rd.HorseID,
		HorseName:    rd.Horse,
		Position:     pos.FinishPtr(),
		PositionText: parse.Str(rd.Position),
		Btn:          parse.Decimal(rd.Btn),
		OvrBtn:       parse.Decimal(rd.OvrBtn),
		SP:           parse.Str(rd.SP),
		SPDec:        parse.Decimal(rd.SPDec),
		FinishTime:   parse.Str(rd.Time),
		PrizeWon:     prize,
		Comment:      parse.Str(rd.Comment),
	}
}

func buildOutcome(race models.Race, rd racingapi.ResultRunnerDoc) models.RaceResult {
	pos := models.ParsePosition(rd.Position)
	prize, _ := parse.Currency(rd.Prize)

	return models.RaceResult{
		RaceID:       race.ID,
		HorseID:      rd.HorseID,
		RaceDate:     race.Date,
		CourseID:     race.CourseID,
		RaceClass:    race.Class,
		DistanceM:    race.DistanceM,
		Position:     pos.FinishPtr(),
		PositionText: parse.Str(rd.Position),
		Btn:          parse.Decimal(rd.Btn),
		OvrBtn:       parse.Decimal(rd.OvrBtn),
		SP:           parse.Str(rd.SP),
		SPDec:        parse.Decimal(rd.SPDec),
		FinishTime:   parse.Str(rd.Time),
		PrizeWon:     prize,
		Comment:      parse.Str(rd.Comment),
		JockeyID:     parse.Str(rd.JockeyID),
		TrainerID:    parse.Str(rd.TrainerID),
		OwnerID:      parse.Str(rd.OwnerID),
	}
}
