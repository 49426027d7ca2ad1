// Package fetcher moves data from the racing API into the warehouse.
// Each fetcher covers one endpoint family and reports how many rows it
// wrote and how many batches it had to skip.
package fetcher

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/models"
	"github.com/yourusername/racing-sync/internal/parse"
	"github.com/yourusername/racing-sync/internal/racingapi"
	"github.com/yourusername/racing-sync/internal/repository"
)

// testModePageCap bounds page walks when running with --test.
const testModePageCap = 5

// ReferenceFetcher syncs the slow-changing reference tables.
type ReferenceFetcher struct {
	client  racingapi.Client
	repos   *repository.Repositories
	regions []string
	logger  *logrus.Logger
}

// NewReferenceFetcher creates a reference fetcher.
func NewReferenceFetcher(client racingapi.Client, repos *repository.Repositories, regions []string, logger *logrus.Logger) *ReferenceFetcher {
	if len(regions) == 0 {
		regions = models.CoveredRegions
	}
	return &ReferenceFetcher{client: client, repos: repos, regions: regions, logger: logger}
}

// FetchCourses syncs the courses table for the covered regions, and
// derives the regions table from the distinct region codes seen.
func (f *ReferenceFetcher) FetchCourses(ctx context.Context) (repository.BatchResult, error) {
	docs, err := f.client.Courses(ctx, f.regions)
	if err != nil {
		return repository.BatchResult{}, err
	}

	courses := make([]models.Course, 0, len(docs))
	regionSet := make(map[string]string)
	for _, doc := range docs {
		courses = append(courses, models.Course{
			ID:         doc.ID,
			Name:       doc.Course,
			RegionCode: doc.RegionCode,
			Region:     doc.Region,
			Latitude:   parse.Float(doc.Latitude),
			Longitude:  parse.Float(doc.Longitude),
		})
		if doc.RegionCode != "" {
			regionSet[doc.RegionCode] = doc.Region
		}
	}

	result, err := f.repos.Reference.UpsertCourses(ctx, courses)
	if err != nil {
		return result, err
	}

	regions := make([]models.Region, 0, len(regionSet))
	for code, name := range regionSet {
		regions = append(regions, models.Region{Code: code, Name: name})
	}
	regionResult, err := f.repos.Reference.UpsertRegions(ctx, regions)
	result.Add(regionResult)

	f.logger.WithField("courses", len(courses)).Info("Course sync complete")
	return result, err
}

// FetchBookmakers syncs the bookmakers table.
func (f *ReferenceFetcher) FetchBookmakers(ctx context.Context) (repository.BatchResult, error) {
	docs, err := f.client.Bookmakers(ctx)
	if err != nil {
		return repository.BatchResult{}, err
	}

	bookmakers := make([]models.Bookmaker, 0, len(docs))
	for _, doc := range docs {
		bookmakers = append(bookmakers, models.Bookmaker{
			ID:       doc.ID,
			Name:     doc.Name,
			Code:     doc.Code,
			Type:     doc.Type,
			IsActive: doc.IsActive,
		})
	}

	result, err := f.repos.Reference.UpsertBookmakers(ctx, bookmakers)
	if err == nil {
		f.logger.WithField("bookmakers", len(bookmakers)).Info("Bookmaker sync complete")
	}
	return result, err
}

// PeopleFetcher walks the paginated people endpoints. In test mode each
// walk stops after a few pages so a smoke run finishes quickly.
type PeopleFetcher struct {
	client   racingapi.Client
	repos    *repository.Repositories
	regions  []string
	logger   *logrus.Logger
	testMode bool
}

// NewPeopleFetcher creates a people fetcher.
func NewPeopleFetcher(client racingapi.Client, repos *repository.Repositories, regions []string, logger *logrus.Logger, testMode bool) *PeopleFetcher {
	if len(regions) == 0 {
		regions = models.CoveredRegions
	}
	return &PeopleFetcher{client: client, repos: repos, regions: regions, logger: logger, testMode: testMode}
}

func (f *PeopleFetcher) walk(ctx context.Context, fetch func(context.Context, []string, int) (racingapi.PersonPage, error)) ([]racingapi.PersonDoc, error) {
	var people []racingapi.PersonDoc
	for page := 0; ; page++ {
		if f.testMode && page >= testModePageCap {
			break
		}
		p, err := fetch(ctx, f.regions, page)
		if err != nil {
			return nil, err
		}
		people = append(people, p.People...)
		if !p.HasMore() {
			break
		}
	}
	return people, nil
}

// FetchJockeys walks and syncs the jockeys table.
func (f *PeopleFetcher) FetchJockeys(ctx context.Context) (repository.BatchResult, error) {
	docs, err := f.walk(ctx, f.client.Jockeys)
	if err != nil {
		return repository.BatchResult{}, err
	}

	jockeys := make([]models.Jockey, 0, len(docs))
	for _, doc := range docs {
		jockeys = append(jockeys, models.Jockey{ID: doc.ID, Name: doc.Name})
	}

	result, err := f.repos.People.UpsertJockeys(ctx, jockeys)
	if err == nil {
		f.logger.WithField("jockeys", len(jockeys)).Info("Jockey sync complete")
	}
	return result, err
}

// FetchTrainers walks and syncs the trainers table.
func (f *PeopleFetcher) FetchTrainers(ctx context.Context) (repository.BatchResult, error) {
	docs, err := f.walk(ctx, f.client.Trainers)
	if err != nil {
		return repository.BatchResult{}, err
	}

	trainers := make([]models.Trainer, 0, len(docs))
	for _, doc := range docs {
		trainers = append(trainers, models.Trainer{
			ID:       doc.ID,
			Name:     doc.Name,
			Location: parse.Str(doc.Location),
		})
	}

	result, err := f.repos.People.UpsertTrainers(ctx, trainers)
	if err == nil {
		f.logger.WithField("trainers", len(trainers)).Info("Trainer sync complete")
	}
	return result, err
}

// FetchOwners walks and syncs the owners table.
func (f *PeopleFetcher) FetchOwners(ctx context.Context) (repository.BatchResult, error) {
	docs, err := f.walk(ctx, f.client.Owners)
	if err != nil {
		return repository.BatchResult{}, err
	}

	owners := make([]models.Owner, 0, len(docs))
	for _, doc := range docs {
		owners = append(owners, models.Owner{ID: doc.ID, Name: doc.Name})
	}

	result, err := f.repos.People.UpsertOwners(ctx, owners)
	if err == nil {
		f.logger.WithField("owners", len(owners)).Info("Owner sync complete")
	}
	return result, err
}
