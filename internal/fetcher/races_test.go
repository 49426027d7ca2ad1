package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/racing-sync/internal/extractor"
	"github.com/yourusername/racing-sync/internal/racingapi"
)

func testCard() racingapi.RacecardDoc {
	return racingapi.RacecardDoc{
		RaceID:    "rac_1",
		Date:      "2024-03-15",
		OffDT:     "2024-03-15T14:30:00Z",
		CourseID:  "crs_1",
		Course:    "Ascot",
		RaceName:  "Test Handicap",
		Region:    "GB",
		RaceClass: "4",
		Type:      "Flat",
		Distance:  "1m",
		Going:     "Good",
		Prize:     "£5,900",
		FieldSize: "2",
		Runners: []racingapi.RunnerDoc{
			{
				HorseID: "hrs_1", Horse: "Sea Mist",
				Number: "1", Draw: "3", Lbs: "9-2", Age: "4",
				JockeyID: "jky_1", Jockey: "T Rider",
				TrainerID: "trn_1", Trainer: "A Yard",
				OwnerID: "own_1", Owner: "Blue Silks",
				SireID: "sir_1", Sire: "Old Sire",
			},
			{
				HorseID: "hrs_2", Horse: "Night Watch",
				Number: "2", Lbs: "8-13",
				JockeyID: "jky_2", Jockey: "A N Other",
				TrainerID: "trn_1", Trainer: "A Yard",
			},
		},
	}
}

func TestRaceFetcherFetchWindow(t *testing.T) {
	client := &stubClient{racecards: []racingapi.RacecardDoc{testCard()}}
	repos, raceRepo, _ := memRepos()
	horseRepo := repos.Horse.(*memHorseRepo)
	horseRepo.existing = map[string]bool{"hrs_1": true, "hrs_2": true}

	log := quietLogger()
	f := NewRaceFetcher(client, repos, extractor.New(client, repos.Horse, log), nil, log)

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	summary, err := f.FetchWindow(context.Background(), from, from)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Races)
	assert.Equal(t, 2, summary.Runners)
	assert.Zero(t, summary.FailedBatches)
	// 1 course + 2 jockeys + 1 trainer + 1 owner + 2 horses + 1 sire
	// + 1 pedigree + 1 race + 2 runners
	assert.Equal(t, 12, summary.RowsWritten)

	reference := repos.Reference.(*memReferenceRepo)
	require.Len(t, reference.courses, 1)
	assert.Equal(t, "crs_1", reference.courses[0].ID)
	assert.Equal(t, "Ascot", reference.courses[0].Name)
	assert.Equal(t, "GB", reference.courses[0].RegionCode)

	require.Len(t, raceRepo.races, 1)
	race := raceRepo.races[0]
	assert.Equal(t, "rac_1", race.ID)
	assert.Equal(t, "crs_1", race.CourseID)
	require.NotNil(t, race.Prize)
	assert.True(t, race.Prize.Equal(decimal.NewFromInt(5900)), "got %s", race.Prize)
	require.NotNil(t, race.PrizeCurrency)
	assert.Equal(t, "GBP", *race.PrizeCurrency)
	require.NotNil(t, race.DistanceM)
	assert.Equal(t, 1609, *race.DistanceM)
	assert.False(t, race.HasResult)

	require.Len(t, raceRepo.runners, 2)
	first := raceRepo.runners[0]
	assert.Equal(t, "hrs_1", first.HorseID)
	require.NotNil(t, first.WeightLbs)
	assert.Equal(t, 9*14+2, *first.WeightLbs)
	require.NotNil(t, first.JockeyID)
	assert.Equal(t, "jky_1", *first.JockeyID)

	people := repos.People.(*memPeopleRepo)
	assert.Len(t, people.jockeys, 2)
	assert.Len(t, people.trainers, 1)
	assert.Len(t, people.owners, 1)
}

func TestRaceFetcherSkipsUnusableCards(t *testing.T) {
	bad := testCard()
	bad.RaceID = ""
	noDate := testCard()
	noDate.RaceID = "rac_2"
	noDate.Date = "not-a-date"

	client := &stubClient{racecards: []racingapi.RacecardDoc{bad, noDate, testCard()}}
	repos, raceRepo, _ := memRepos()
	repos.Horse.(*memHorseRepo).existing = map[string]bool{"hrs_1": true, "hrs_2": true}

	log := quietLogger()
	f := NewRaceFetcher(client, repos, extractor.New(client, repos.Horse, log), nil, log)

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	summary, err := f.FetchWindow(context.Background(), from, from)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Races)
	assert.Equal(t, 2, summary.FailedBatches, "skipped documents count as failures")
	require.Len(t, raceRepo.races, 1)
	assert.Equal(t, "rac_1", raceRepo.races[0].ID)
}

func TestRaceFetcherEmptyWindow(t *testing.T) {
	client := &stubClient{}
	repos, raceRepo, _ := memRepos()

	log := quietLogger()
	f := NewRaceFetcher(client, repos, extractor.New(client, repos.Horse, log), nil, log)

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	summary, err := f.FetchWindow(context.Background(), from, from)
	require.NoError(t, err)
	assert.Zero(t, summary.Races)
	assert.Empty(t, raceRepo.races)
}
