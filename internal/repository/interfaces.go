package repository

import (
	"context"
	"time"

	"github.com/yourusername/racing-sync/internal/models"
)

// BatchResult reports the outcome of a batched upsert. FailedBatches
// counts batches skipped after one retry; their rows are not written.
type BatchResult struct {
	Written       int
	FailedBatches int
}

// Add merges another batch result into this one.
func (r *BatchResult) Add(other BatchResult) {
	r.Written += other.Written
	r.FailedBatches += other.FailedBatches
}

// ReferenceRepository persists the slow-changing reference tables.
type ReferenceRepository interface {
	UpsertCourses(ctx context.Context, courses []models.Course) (BatchResult, error)
	UpsertBookmakers(ctx context.Context, bookmakers []models.Bookmaker) (BatchResult, error)
	UpsertRegions(ctx context.Context, regions []models.Region) (BatchResult, error)
}

// PeopleRepository persists jockeys, trainers and owners.
type PeopleRepository interface {
	UpsertJockeys(ctx context.Context, jockeys []models.Jockey) (BatchResult, error)
	UpsertTrainers(ctx context.Context, trainers []models.Trainer) (BatchResult, error)
	UpsertOwners(ctx context.Context, owners []models.Owner) (BatchResult, error)
}

// HorseRepository persists the horse graph: horses, pedigree, ancestors.
type HorseRepository interface {
	UpsertHorses(ctx context.Context, horses []models.Horse) (BatchResult, error)
	UpsertPedigrees(ctx context.Context, pedigrees []models.HorsePedigree) (BatchResult, error)
	UpsertAncestors(ctx context.Context, role models.AncestorRole, ancestors []models.Ancestor) (BatchResult, error)
	ExistingHorseIDs(ctx context.Context, candidateIDs []string) (map[string]bool, error)
	LookupHorseIDByName(ctx context.Context, name string, region *string) (string, error)
}

// RaceRepository persists races and runners.
type RaceRepository interface {
	UpsertRaces(ctx context.Context, races []models.Race) (BatchResult, error)
	UpsertRunners(ctx context.Context, runners []models.Runner) (BatchResult, error)
	// PatchRunnerResults applies post-race columns without touching
	// pre-race fields absent from the results response.
	PatchRunnerResults(ctx context.Context, runners []models.Runner) (BatchResult, error)
	MarkRaceResult(ctx context.Context, race *models.Race) error
	RaceExists(ctx context.Context, raceID string) (bool, error)
	RaceIDsInRange(ctx context.Context, from, to time.Time) ([]string, error)
	MaxRaceDate(ctx context.Context) (*time.Time, error)
}

// ResultRepository persists the canonical per-runner outcome rows.
type ResultRepository interface {
	UpsertRaceResults(ctx context.Context, results []models.RaceResult) (BatchResult, error)
}

// ResultRow is one outcome row fed into the statistics calculators.
type ResultRow struct {
	RaceDate     time.Time
	CourseID     string
	RaceClass    *string
	DistanceM    *int
	Position     *int
	PositionText *string
}

// RunnerKey identifies one runner for incremental statistics passes.
type RunnerKey struct {
	RaceID   string
	HorseID  string
	RaceDate time.Time
}

// StatisticsRepository serves the aggregation reads and writes of the
// derived-statistics calculators. List methods use keyset pagination so
// calculators never hold a full table in memory.
type StatisticsRepository interface {
	ListEntityIDs(ctx context.Context, entityType models.EntityType, afterID string, limit int) ([]string, error)
	EntityResults(ctx context.Context, entityType models.EntityType, entityID string) ([]ResultRow, error)
	ReplaceEntityStatistics(ctx context.Context, stats []models.EntityStatistics) error

	ListAncestorIDs(ctx context.Context, role models.AncestorRole, afterID string, limit int) ([]string, error)
	ProgenyRuns(ctx context.Context, role models.AncestorRole, ancestorID string) ([]models.ProgenyRun, error)
	UpdateAncestorStatistics(ctx context.Context, role models.AncestorRole, ancestor *models.Ancestor) error

	ListRunnerKeys(ctx context.Context, since *time.Time, after *RunnerKey, limit int) ([]RunnerKey, error)
	HorseResultsBefore(ctx context.Context, horseID string, before time.Time) ([]ResultRow, error)
	ReplaceRunnerStatistics(ctx context.Context, stats []models.RunnerStatistics) error

	CombinationAggregates(ctx context.Context, minRuns int) ([]models.EntityCombination, error)
	DistanceAggregates(ctx context.Context, entityType models.EntityType, minRuns int) ([]models.PerformanceByDistance, error)
	VenueAggregates(ctx context.Context, entityType models.EntityType, minRuns int) ([]models.PerformanceByVenue, error)
	ReplaceCombinations(ctx context.Context, rows []models.EntityCombination) error
	ReplaceDistancePerformance(ctx context.Context, entityType models.EntityType, rows []models.PerformanceByDistance) error
	ReplaceVenuePerformance(ctx context.Context, entityType models.EntityType, rows []models.PerformanceByVenue) error
}
