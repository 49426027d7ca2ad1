package repository

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/database"
	"github.com/yourusername/racing-sync/internal/models"
)

// PostgresPeopleRepository implements PeopleRepository for PostgreSQL
type PostgresPeopleRepository struct {
	db     *database.DB
	w      *BatchWriter
	logger *logrus.Logger
}

// NewPostgresPeopleRepository creates a new people repository
func NewPostgresPeopleRepository(db *database.DB, w *BatchWriter, logger *logrus.Logger) PeopleRepository {
	return &PostgresPeopleRepository{db: db, w: w, logger: logger}
}

// UpsertJockeys upserts jockey rows keyed by id
func (r *PostgresPeopleRepository) UpsertJockeys(ctx context.Context, jockeys []models.Jockey) (BatchResult, error) {
	query := `
		INSERT INTO ra_mst_jockeys (id, name, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE ra_mst_jockeys.name END,
			updated_at = NOW()
	`

	rows := make([][]interface{}, 0, len(jockeys))
	for _, j := range jockeys {
		rows = append(rows, []interface{}{j.ID, j.Name})
	}

	return r.w.upsertBatches(ctx, "ra_mst_jockeys", query, rows)
}

// UpsertTrainers upserts trainer rows keyed by id. Location is only
// exposed by the racecard endpoint; a NULL incoming location never
// clears a stored one.
func (r *PostgresPeopleRepository) UpsertTrainers(ctx context.Context, trainers []models.Trainer) (BatchResult, error) {
	query := `
		INSERT INTO ra_mst_trainers (id, name, location, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE ra_mst_trainers.name END,
			location = COALESCE(EXCLUDED.location, ra_mst_trainers.location),
			updated_at = NOW()
	`

	rows := make([][]interface{}, 0, len(trainers))
	for _, t := range trainers {
		rows = append(rows, []interface{}{t.ID, t.Name, t.Location})
	}

	return r.w.upsertBatches(ctx, "ra_mst_trainers", query, rows)
}

// UpsertOwners upserts owner rows keyed by id
func (r *PostgresPeopleRepository) UpsertOwners(ctx context.Context, owners []models.Owner) (BatchResult, error) {
	query := `
		INSERT INTO ra_mst_owners (id, name, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE ra_mst_owners.name END,
			updated_at = NOW()
	`

	rows := make([][]interface{}, 0, len(owners))
	for _, o := range owners {
		rows = append(rows, []interface{}{o.ID, o.Name})
	}

	return r.w.upsertBatches(ctx, "ra_mst_owners", query, rows)
}
