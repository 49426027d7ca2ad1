package fetcher

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/extractor"
	"github.com/yourusername/racing-sync/internal/models"
	"github.com/yourusername/racing-sync/internal/parse"
	"github.com/yourusername/racing-sync/internal/racingapi"
	"github.com/yourusername/racing-sync/internal/repository"
)

// RaceSummary reports one racecard window sync. FailedBatches being
// non-zero means some rows were skipped and the window should not be
// checkpointed as complete.
type RaceSummary struct {
	Races            int
	Runners          int
	HorsesDiscovered int
	HorsesEnriched   int
	RowsWritten      int
	FailedBatches    int
}

func (s *RaceSummary) absorb(r repository.BatchResult) {
	s.RowsWritten += r.Written
	s.FailedBatches += r.FailedBatches
}

// RaceFetcher syncs racecards: the entity graph first, then races,
// then runners, so every foreign reference exists before the row that
// points at it.
type RaceFetcher struct {
	client    racingapi.Client
	repos     *repository.Repositories
	extractor *extractor.Extractor
	regions   []string
	logger    *logrus.Logger
}

// NewRaceFetcher creates a race fetcher.
func NewRaceFetcher(client racingapi.Client, repos *repository.Repositories, ext *extractor.Extractor, regions []string, logger *logrus.Logger) *RaceFetcher {
	if len(regions) == 0 {
		regions = models.CoveredRegions
	}
	return &RaceFetcher{client: client, repos: repos, extractor: ext, regions: regions, logger: logger}
}

// FetchWindow syncs all racecards dated within [from, to].
func (f *RaceFetcher) FetchWindow(ctx context.Context, from, to time.Time) (RaceSummary, error) {
	var summary RaceSummary

	cards, err := f.client.RacecardsPro(ctx, from, to, f.regions)
	if err != nil {
		return summary, err
	}
	if len(cards) == 0 {
		return summary, nil
	}

	entities, err := f.extractor.Extract(ctx, cards)
	if err != nil {
		return summary, err
	}
	summary.HorsesDiscovered = entities.HorsesDiscovered
	summary.HorsesEnriched = entities.HorsesEnriched

	if err := f.writeEntities(ctx, entities, &summary); err != nil {
		return summary, err
	}

	races := make([]models.Race, 0, len(cards))
	runners := make([]models.Runner, 0, len(cards)*8)
	for _, card := range cards {
		race, err := buildRace(card)
		if err != nil {
			// The document is skipped but counted, so a window full of
			// unparseable cards is never checkpointed as complete.
			f.logger.WithError(err).Warn("Skipping racecard that failed normalisation")
			summary.FailedBatches++
			continue
		}
		races = append(races, race)
		for _, doc := range card.Runners {
			if runner, ok := buildRunner(card.RaceID, doc); ok {
				runners = append(runners, runner)
			}
		}
	}

	result, err := f.repos.Race.UpsertRaces(ctx, races)
	summary.absorb(result)
	if err != nil {
		return summary, err
	}
	summary.Races = len(races)

	result, err = f.repos.Race.UpsertRunners(ctx, runners)
	summary.absorb(result)
	if err != nil {
		return summary, err
	}
	summary.Runners = len(runners)

	return summary, nil
}

func (f *RaceFetcher) writeEntities(ctx context.Context, entities *extractor.Entities, summary *RaceSummary) error {
	// Courses first so even a backfill against an empty warehouse has a
	// course row before the races that reference it.
	result, err := f.repos.Reference.UpsertCourses(ctx, entities.Courses)
	summary.absorb(result)
	if err != nil {
		return err
	}

	result, err = f.repos.People.UpsertJockeys(ctx, entities.Jockeys)
	summary.absorb(result)
	if err != nil {
		return err
	}

	result, err = f.repos.People.UpsertTrainers(ctx, entities.Trainers)
	summary.absorb(result)
	if err != nil {
		return err
	}

	result, err = f.repos.People.UpsertOwners(ctx, entities.Owners)
	summary.absorb(result)
	if err != nil {
		return err
	}

	result, err = f.repos.Horse.UpsertHorses(ctx, entities.Horses)
	summary.absorb(result)
	if err != nil {
		return err
	}

	for _, group := range []struct {
		role      models.AncestorRole
		ancestors []models.Ancestor
	}{
		{models.RoleSire, entities.Sires},
		{models.RoleDam, entities.Dams},
		{models.RoleDamsire, entities.Damsires},
	} {
		result, err = f.repos.Horse.UpsertAncestors(ctx, group.role, group.ancestors)
		summary.absorb(result)
		if err != nil {
			return err
		}
	}

	result, err = f.repos.Horse.UpsertPedigrees(ctx, entities.Pedigrees)
	summary.absorb(result)
	return err
}

func buildRace(card racingapi.RacecardDoc) (models.Race, error) {
	if card.RaceID == "" {
		return models.Race{}, racingapi.NewParseError(card.RaceID, "race_id", "missing race id")
	}
	date := parse.Date(card.Date)
	if date == nil {
		return models.Race{}, racingapi.NewParseError(card.RaceID, "date", "unparseable date "+card.Date)
	}
	if card.CourseID == "" {
		return models.Race{}, racingapi.NewParseError(card.RaceID, "course_id", "missing course id")
	}

	prize, currency := parse.Currency(card.Prize)
	race := models.Race{
		ID:            card.RaceID,
		Date:          *date,
		OffTime:       parse.DateTime(card.OffDT),
		CourseID:      card.CourseID,
		CourseName:    card.Course,
		Name:          card.RaceName,
		Region:        card.Region,
		Class:         parse.Str(card.RaceClass),
		Pattern:       parse.Str(card.Pattern),
		Type:          card.Type,
		AgeBand:       parse.Str(card.AgeBand),
		RatingBand:    parse.Str(card.RatingBand),
		DistanceText:  card.Distance,
		DistanceF:     parse.Furlongs(card.Distance),
		DistanceM:     parse.DistanceMeters(card.Distance),
		Going:         parse.Str(card.Going),
		Prize:         prize,
		PrizeCurrency: currency,
		FieldSize:     parse.Int(card.FieldSize),
	}
	if race.DistanceF == nil {
		race.DistanceF = parse.Float(card.DistanceF)
	}
	return race, nil
}

func buildRunner(raceID string, doc racingapi.RunnerDoc) (models.Runner, bool) {
	if doc.HorseID == "" {
		return models.Runner{}, false
	}

	return models.Runner{
		RaceID:      raceID,
		HorseID:     doc.HorseID,
		HorseName:   doc.Horse,
		Number:      parse.Int(doc.Number),
		Draw:        parse.Int(doc.Draw),
		WeightLbs:   parse.WeightLbs(doc.Lbs),
		Age:         parse.Int(doc.Age),
		Form:        parse.Str(doc.Form),
		OfficialRtg: parse.Int(doc.Ofr),
		Headgear:    parse.Str(doc.Headgear),
		SilkURL:     parse.Str(doc.SilkURL),
		JockeyID:    parse.Str(doc.JockeyID),
		JockeyName:  parse.Str(doc.Jockey),
		JockeyClaim: parse.Int(doc.JockeyClaimLbs),
		TrainerID:   parse.Str(doc.TrainerID),
		TrainerName: parse.Str(doc.Trainer),
		OwnerID:     parse.Str(doc.OwnerID),
		OwnerName:   parse.Str(doc.Owner),
		SireID:      parse.Str(doc.SireID),
		SireName:    parse.Str(doc.Sire),
		DamID:       parse.Str(doc.DamID),
		DamName:     parse.Str(doc.Dam),
		DamsireID:   parse.Str(doc.DamsireID),
		DamsireName: parse.Str(doc.Damsire),
	}, true
}
