package repository

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/database"
	"github.com/yourusername/racing-sync/internal/models"
)

// PostgresReferenceRepository implements ReferenceRepository for PostgreSQL
type PostgresReferenceRepository struct {
	db     *database.DB
	w      *BatchWriter
	logger *logrus.Logger
}

// NewPostgresReferenceRepository creates a new reference repository
func NewPostgresReferenceRepository(db *database.DB, w *BatchWriter, logger *logrus.Logger) ReferenceRepository {
	return &PostgresReferenceRepository{db: db, w: w, logger: logger}
}

// UpsertCourses upserts course rows keyed by id. Racecard-derived rows
// carry only id, name and region code; blanks never overwrite values a
// full course sweep has filled in.
func (r *PostgresReferenceRepository) UpsertCourses(ctx context.Context, courses []models.Course) (BatchResult, error) {
	query := `
		INSERT INTO ra_mst_courses (id, name, region_code, region, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE ra_mst_courses.name END,
			region_code = CASE WHEN EXCLUDED.region_code <> '' THEN EXCLUDED.region_code ELSE ra_mst_courses.region_code END,
			region = CASE WHEN EXCLUDED.region <> '' THEN EXCLUDED.region ELSE ra_mst_courses.region END,
			latitude = COALESCE(EXCLUDED.latitude, ra_mst_courses.latitude),
			longitude = COALESCE(EXCLUDED.longitude, ra_mst_courses.longitude),
			updated_at = NOW()
	`

	rows := make([][]interface{}, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, []interface{}{c.ID, c.Name, c.RegionCode, c.Region, c.Latitude, c.Longitude})
	}

	return r.w.upsertBatches(ctx, "ra_mst_courses", query, rows)
}

// UpsertBookmakers upserts bookmaker rows keyed by id
func (r *PostgresReferenceRepository) UpsertBookmakers(ctx context.Context, bookmakers []models.Bookmaker) (BatchResult, error) {
	query := `
		INSERT INTO ra_mst_bookmakers (id, name, code, type, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			code = EXCLUDED.code,
			type = EXCLUDED.type,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`

	rows := make([][]interface{}, 0, len(bookmakers))
	for _, b := range bookmakers {
		rows = append(rows, []interface{}{b.ID, b.Name, b.Code, b.Type, b.IsActive})
	}

	return r.w.upsertBatches(ctx, "ra_mst_bookmakers", query, rows)
}

// UpsertRegions upserts region rows keyed by code
func (r *PostgresReferenceRepository) UpsertRegions(ctx context.Context, regions []models.Region) (BatchResult, error) {
	query := `
		INSERT INTO ra_mst_regions (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
	`

	rows := make([][]interface{}, 0, len(regions))
	for _, reg := range regions {
		rows = append(rows, []interface{}{reg.Code, reg.Name})
	}

	return r.w.upsertBatches(ctx, "ra_mst_regions", query, rows)
}
