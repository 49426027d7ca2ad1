package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/racing-sync/internal/models"
	"github.com/yourusername/racing-sync/internal/racingapi"
	"github.com/yourusername/racing-sync/internal/repository"
)

type fakeClient struct {
	racingapi.Client
	horseDocs map[string]*racingapi.HorseProDoc
	horseErr  error
	proCalls  []string
}

func (f *fakeClient) HorsePro(ctx context.Context, horseID string) (*racingapi.HorseProDoc, error) {
	f.proCalls = append(f.proCalls, horseID)
	if f.horseErr != nil {
		return nil, f.horseErr
	}
	if doc, ok := f.horseDocs[horseID]; ok {
		return doc, nil
	}
	return nil, racingapi.NewFetchError("/v1/horses", 404, "not found", nil)
}

type fakeHorseRepo struct {
	existing map[string]bool
	byName   map[string]string
}

func (f *fakeHorseRepo) UpsertHorses(ctx context.Context, horses []models.Horse) (repository.BatchResult, error) {
	return repository.BatchResult{}, nil
}

func (f *fakeHorseRepo) UpsertPedigrees(ctx context.Context, pedigrees []models.HorsePedigree) (repository.BatchResult, error) {
	return repository.BatchResult{}, nil
}

func (f *fakeHorseRepo) UpsertAncestors(ctx context.Context, role models.AncestorRole, ancestors []models.Ancestor) (repository.BatchResult, error) {
	return repository.BatchResult{}, nil
}

func (f *fakeHorseRepo) ExistingHorseIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		if f.existing[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeHorseRepo) LookupHorseIDByName(ctx context.Context, name string, region *string) (string, error) {
	if id, ok := f.byName[name]; ok {
		return id, nil
	}
	return "", models.ErrNotFound
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func card(runners ...racingapi.RunnerDoc) racingapi.RacecardDoc {
	return racingapi.RacecardDoc{
		RaceID:   "rac_1",
		Date:     "2024-03-15",
		CourseID: "crs_1",
		Runners:  runners,
	}
}

func TestExtractDeduplicatesAcrossCards(t *testing.T) {
	client := &fakeClient{}
	repo := &fakeHorseRepo{existing: map[string]bool{"hrs_1": true}}
	ext := New(client, repo, testLogger())

	runner := racingapi.RunnerDoc{
		HorseID:  "hrs_1",
		Horse:    "Sea Mist",
		JockeyID: "jky_1", Jockey: "T Rider",
		TrainerID: "trn_1", Trainer: "A Yard", TrainerLocation: "Newmarket",
		OwnerID: "own_1", Owner: "Blue Silks",
		SireID: "hrs_s1", Sire: "Old Sire",
	}

	entities, err := ext.Extract(context.Background(), []racingapi.RacecardDoc{
		card(runner), card(runner), card(runner),
	})
	require.NoError(t, err)

	assert.Len(t, entities.Courses, 1)
	assert.Len(t, entities.Jockeys, 1)
	assert.Len(t, entities.Trainers, 1)
	assert.Len(t, entities.Owners, 1)
	assert.Len(t, entities.Horses, 1)
	assert.Len(t, entities.Sires, 1)
	assert.Equal(t, "crs_1", entities.Courses[0].ID)
	require.NotNil(t, entities.Trainers[0].Location)
	assert.Equal(t, "Newmarket", *entities.Trainers[0].Location)
}

func TestExtractFirstNonEmptyNameWins(t *testing.T) {
	client := &fakeClient{}
	repo := &fakeHorseRepo{existing: map[string]bool{"hrs_1": true}}
	ext := New(client, repo, testLogger())

	entities, err := ext.Extract(context.Background(), []racingapi.RacecardDoc{
		card(racingapi.RunnerDoc{HorseID: "hrs_1", Horse: "", JockeyID: "jky_1", Jockey: ""}),
		card(racingapi.RunnerDoc{HorseID: "hrs_1", Horse: "Sea Mist", JockeyID: "jky_1", Jockey: "T Rider"}),
		card(racingapi.RunnerDoc{HorseID: "hrs_1", Horse: "Different Name", JockeyID: "jky_1", Jockey: "Other"}),
	})
	require.NoError(t, err)

	require.Len(t, entities.Horses, 1)
	assert.Equal(t, "Sea Mist", entities.Horses[0].Name, "first non-empty name should stick")
	assert.Equal(t, "T Rider", entities.Jockeys[0].Name)
}

func TestExtractEnrichesOnlyNewHorses(t *testing.T) {
	dob := "2019-04-01"
	client := &fakeClient{
		horseDocs: map[string]*racingapi.HorseProDoc{
			"hrs_new": {
				ID: "hrs_new", Dob: dob, SexCode: "G", Colour: "b",
				Breeder: "Some Stud", SireID: "hrs_s9", Sire: "Speedy Sire",
			},
		},
	}
	repo := &fakeHorseRepo{existing: map[string]bool{"hrs_old": true}}
	ext := New(client, repo, testLogger())

	entities, err := ext.Extract(context.Background(), []racingapi.RacecardDoc{
		card(
			racingapi.RunnerDoc{HorseID: "hrs_old", Horse: "Known Horse"},
			racingapi.RunnerDoc{HorseID: "hrs_new", Horse: "New Horse"},
		),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"hrs_new"}, client.proCalls, "only the unseen horse is enriched")
	assert.Equal(t, 1, entities.HorsesDiscovered)
	assert.Equal(t, 1, entities.HorsesEnriched)

	var newHorse *models.Horse
	for i := range entities.Horses {
		if entities.Horses[i].ID == "hrs_new" {
			newHorse = &entities.Horses[i]
		}
	}
	require.NotNil(t, newHorse)
	assert.True(t, newHorse.Enriched)
	require.NotNil(t, newHorse.DOB)
	assert.Equal(t, time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC), *newHorse.DOB)
	require.NotNil(t, newHorse.SexCode)
	assert.Equal(t, "G", *newHorse.SexCode)

	// Enrichment supplied the pedigree, so the row survives the filter.
	require.Len(t, entities.Pedigrees, 1)
	assert.Equal(t, "hrs_new", entities.Pedigrees[0].HorseID)
	require.NotNil(t, entities.Pedigrees[0].Breeder)
	assert.Equal(t, "Some Stud", *entities.Pedigrees[0].Breeder)
}

func TestExtractEnrichmentFailureKeepsBaseRow(t *testing.T) {
	client := &fakeClient{horseErr: errors.New("boom")}
	repo := &fakeHorseRepo{}
	ext := New(client, repo, testLogger())

	cards := []racingapi.RacecardDoc{
		card(racingapi.RunnerDoc{HorseID: "hrs_1", Horse: "Sea Mist"}),
	}
	entities, err := ext.Extract(context.Background(), cards)
	require.NoError(t, err)

	require.Len(t, entities.Horses, 1)
	assert.False(t, entities.Horses[0].Enriched)
	assert.Equal(t, "Sea Mist", entities.Horses[0].Name)
	assert.Equal(t, 0, entities.HorsesEnriched)

	// The failure is remembered; a second pass does not retry.
	calls := len(client.proCalls)
	_, err = ext.Extract(context.Background(), cards)
	require.NoError(t, err)
	assert.Equal(t, calls, len(client.proCalls))
}

func TestExtractAncestorRowsFromEnrichment(t *testing.T) {
	// The runner doc carries no pedigree at all; the ids surface only
	// through the pro document, and each still gets an ancestor row.
	client := &fakeClient{
		horseDocs: map[string]*racingapi.HorseProDoc{
			"hrs_x": {
				ID: "hrs_x", SireID: "sir_y", Sire: "Hidden Sire",
				DamID: "dam_y", Dam: "Hidden Dam",
			},
		},
	}
	repo := &fakeHorseRepo{}
	ext := New(client, repo, testLogger())

	entities, err := ext.Extract(context.Background(), []racingapi.RacecardDoc{
		card(racingapi.RunnerDoc{HorseID: "hrs_x", Horse: "Mystery Colt"}),
	})
	require.NoError(t, err)

	require.Len(t, entities.Pedigrees, 1)
	require.NotNil(t, entities.Pedigrees[0].SireID)
	assert.Equal(t, "sir_y", *entities.Pedigrees[0].SireID)

	require.Len(t, entities.Sires, 1)
	assert.Equal(t, "sir_y", entities.Sires[0].ID)
	assert.Equal(t, "Hidden Sire", entities.Sires[0].Name)

	require.Len(t, entities.Dams, 1)
	assert.Equal(t, "dam_y", entities.Dams[0].ID)
	assert.Equal(t, "Hidden Dam", entities.Dams[0].Name)
	assert.Empty(t, entities.Damsires)
}

func TestExtractResolvesAncestorBackReferences(t *testing.T) {
	client := &fakeClient{}
	repo := &fakeHorseRepo{
		existing: map[string]bool{"hrs_1": true},
		byName:   map[string]string{"Old Sire": "hrs_s_horse"},
	}
	ext := New(client, repo, testLogger())

	entities, err := ext.Extract(context.Background(), []racingapi.RacecardDoc{
		card(racingapi.RunnerDoc{
			HorseID: "hrs_1", Horse: "Sea Mist",
			SireID: "sir_1", Sire: "Old Sire",
			DamID: "dam_1", Dam: "Foreign Mare",
		}),
	})
	require.NoError(t, err)

	require.Len(t, entities.Sires, 1)
	require.NotNil(t, entities.Sires[0].HorseID)
	assert.Equal(t, "hrs_s_horse", *entities.Sires[0].HorseID)

	// Foreign dams legitimately have no horse row.
	require.Len(t, entities.Dams, 1)
	assert.Nil(t, entities.Dams[0].HorseID)
}

func TestExtractDropsPedigreeWithoutAnyID(t *testing.T) {
	client := &fakeClient{}
	repo := &fakeHorseRepo{existing: map[string]bool{"hrs_1": true}}
	ext := New(client, repo, testLogger())

	entities, err := ext.Extract(context.Background(), []racingapi.RacecardDoc{
		card(racingapi.RunnerDoc{HorseID: "hrs_1", Horse: "Sea Mist", Sire: "Named But No ID"}),
	})
	require.NoError(t, err)
	assert.Empty(t, entities.Pedigrees)
}
