package fetcher

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/models"
	"github.com/yourusername/racing-sync/internal/racingapi"
	"github.com/yourusername/racing-sync/internal/repository"
)

// stubClient serves canned API responses.
type stubClient struct {
	courses    []racingapi.CourseDoc
	bookmakers []racingapi.BookmakerDoc
	jockeys    []racingapi.PersonPage
	trainers   []racingapi.PersonPage
	owners     []racingapi.PersonPage
	racecards  []racingapi.RacecardDoc
	results    []racingapi.ResultDoc
	err        error
}

func (s *stubClient) Courses(ctx context.Context, regions []string) ([]racingapi.CourseDoc, error) {
	return s.courses, s.err
}

func (s *stubClient) Bookmakers(ctx context.Context) ([]racingapi.BookmakerDoc, error) {
	return s.bookmakers, s.err
}

func pageAt(pages []racingapi.PersonPage, page int) racingapi.PersonPage {
	if page < len(pages) {
		return pages[page]
	}
	return racingapi.PersonPage{Page: page, Limit: 500}
}

func (s *stubClient) Jockeys(ctx context.Context, regions []string, page int) (racingapi.PersonPage, error) {
	return pageAt(s.jockeys, page), s.err
}

func (s *stubClient) Trainers(ctx context.Context, regions []string, page int) (racingapi.PersonPage, error) {
	return pageAt(s.trainers, page), s.err
}

func (s *stubClient) Owners(ctx context.Context, regions []string, page int) (racingapi.PersonPage, error) {
	return pageAt(s.owners, page), s.err
}

func (s *stubClient) RacecardsPro(ctx context.Context, from, to time.Time, regions []string) ([]racingapi.RacecardDoc, error) {
	return s.racecards, s.err
}

func (s *stubClient) Results(ctx context.Context, from, to time.Time, regions []string) ([]racingapi.ResultDoc, error) {
	return s.results, s.err
}

func (s *stubClient) HorsePro(ctx context.Context, horseID string) (*racingapi.HorseProDoc, error) {
	return nil, racingapi.NewFetchError("/v1/horses", 404, "not found", nil)
}

func written(n int) repository.BatchResult {
	return repository.BatchResult{Written: n}
}

type memReferenceRepo struct {
	courses    []models.Course
	bookmakers []models.Bookmaker
	regions    []models.Region
}

func (m *memReferenceRepo) UpsertCourses(ctx context.Context, courses []models.Course) (repository.BatchResult, error) {
	m.courses = append(m.courses, courses...)
	return written(len(courses)), nil
}

func (m *memReferenceRepo) UpsertBookmakers(ctx context.Context, bookmakers []models.Bookmaker) (repository.BatchResult, error) {
	m.bookmakers = append(m.bookmakers, bookmakers...)
	return written(len(bookmakers)), nil
}

func (m *memReferenceRepo) UpsertRegions(ctx context.Context, regions []models.Region) (repository.BatchResult, error) {
	m.regions = append(m.regions, regions...)
	return written(len(regions)), nil
}

type memPeopleRepo struct {
	jockeys  []models.Jockey
	trainers []models.Trainer
	owners   []models.Owner
}

func (m *memPeopleRepo) UpsertJockeys(ctx context.Context, jockeys []models.Jockey) (repository.BatchResult, error) {
	m.jockeys = append(m.jockeys, jockeys...)
	return written(len(jockeys)), nil
}

func (m *memPeopleRepo) UpsertTrainers(ctx context.Context, trainers []models.Trainer) (repository.BatchResult, error) {
	m.trainers = append(m.trainers, trainers...)
	return written(len(trainers)), nil
}

func (m *memPeopleRepo) UpsertOwners(ctx context.Context, owners []models.Owner) (repository.BatchResult, error) {
	m.owners = append(m.owners, owners...)
	return written(len(owners)), nil
}

type memHorseRepo struct {
	horses    []models.Horse
	pedigrees []models.HorsePedigree
	ancestors map[models.AncestorRole][]models.Ancestor
	existing  map[string]bool
}

func (m *memHorseRepo) UpsertHorses(ctx context.Context, horses []models.Horse) (repository.BatchResult, error) {
	m.horses = append(m.horses, horses...)
	return written(len(horses)), nil
}

func (m *memHorseRepo) UpsertPedigrees(ctx context.Context, pedigrees []models.HorsePedigree) (repository.BatchResult, error) {
	m.pedigrees = append(m.pedigrees, pedigrees...)
	return written(len(pedigrees)), nil
}

func (m *memHorseRepo) UpsertAncestors(ctx context.Context, role models.AncestorRole, ancestors []models.Ancestor) (repository.BatchResult, error) {
	if m.ancestors == nil {
		m.ancestors = make(map[models.AncestorRole][]models.Ancestor)
	}
	m.ancestors[role] = append(m.ancestors[role], ancestors...)
	return written(len(ancestors)), nil
}

func (m *memHorseRepo) ExistingHorseIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		if m.existing[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (m *memHorseRepo) LookupHorseIDByName(ctx context.Context, name string, region *string) (string, error) {
	return "", models.ErrNotFound
}

type memRaceRepo struct {
	races   []models.Race
	runners []models.Runner
	patches []models.Runner
	marked  []string

	markErr error
}

func (m *memRaceRepo) UpsertRaces(ctx context.Context, races []models.Race) (repository.BatchResult, error) {
	m.races = append(m.races, races...)
	return written(len(races)), nil
}

func (m *memRaceRepo) UpsertRunners(ctx context.Context, runners []models.Runner) (repository.BatchResult, error) {
	m.runners = append(m.runners, runners...)
	return written(len(runners)), nil
}

func (m *memRaceRepo) PatchRunnerResults(ctx context.Context, runners []models.Runner) (repository.BatchResult, error) {
	m.patches = append(m.patches, runners...)
	return written(len(runners)), nil
}

func (m *memRaceRepo) MarkRaceResult(ctx context.Context, race *models.Race) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.marked = append(m.marked, race.ID)
	return nil
}

func (m *memRaceRepo) RaceExists(ctx context.Context, raceID string) (bool, error) {
	for _, r := range m.races {
		if r.ID == raceID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRaceRepo) RaceIDsInRange(ctx context.Context, from, to time.Time) ([]string, error) {
	return nil, nil
}

func (m *memRaceRepo) MaxRaceDate(ctx context.Context) (*time.Time, error) {
	return nil, nil
}

type memResultRepo struct {
	results []models.RaceResult
}

func (m *memResultRepo) UpsertRaceResults(ctx context.Context, results []models.RaceResult) (repository.BatchResult, error) {
	m.results = append(m.results, results...)
	return written(len(results)), nil
}

func memRepos() (*repository.Repositories, *memRaceRepo, *memResultRepo) {
	raceRepo := &memRaceRepo{}
	resultRepo := &memResultRepo{}
	repos := &repository.Repositories{
		Reference: &memReferenceRepo{},
		People:    &memPeopleRepo{},
		Horse:     &memHorseRepo{},
		Race:      raceRepo,
		Result:    resultRepo,
	}
	return repos, raceRepo, resultRepo
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}
