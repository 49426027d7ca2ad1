package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/database"
	"github.com/yourusername/racing-sync/internal/models"
)

// PostgresHorseRepository implements HorseRepository for PostgreSQL
type PostgresHorseRepository struct {
	db     *database.DB
	w      *BatchWriter
	logger *logrus.Logger
}

// NewPostgresHorseRepository creates a new horse repository
func NewPostgresHorseRepository(db *database.DB, w *BatchWriter, logger *logrus.Logger) HorseRepository {
	return &PostgresHorseRepository{db: db, w: w, logger: logger}
}

// UpsertHorses upserts horse rows keyed by id. Enriched fields never
// regress: a NULL incoming value keeps the stored one, and the enriched
// flag is sticky.
func (r *PostgresHorseRepository) UpsertHorses(ctx context.Context, horses []models.Horse) (BatchResult, error) {
	query := `
		INSERT INTO ra_mst_horses (id, name, sex, sex_code, dob, colour, region, sire_id, dam_id, damsire_id, enriched, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE ra_mst_horses.name END,
			sex = COALESCE(EXCLUDED.sex, ra_mst_horses.sex),
			sex_code = COALESCE(EXCLUDED.sex_code, ra_mst_horses.sex_code),
			dob = COALESCE(EXCLUDED.dob, ra_mst_horses.dob),
			colour = COALESCE(EXCLUDED.colour, ra_mst_horses.colour),
			region = COALESCE(EXCLUDED.region, ra_mst_horses.region),
			sire_id = COALESCE(EXCLUDED.sire_id, ra_mst_horses.sire_id),
			dam_id = COALESCE(EXCLUDED.dam_id, ra_mst_horses.dam_id),
			damsire_id = COALESCE(EXCLUDED.damsire_id, ra_mst_horses.damsire_id),
			enriched = ra_mst_horses.enriched OR EXCLUDED.enriched,
			updated_at = NOW()
	`

	rows := make([][]interface{}, 0, len(horses))
	for _, h := range horses {
		rows = append(rows, []interface{}{
			h.ID, h.Name, h.Sex, h.SexCode, h.DOB, h.Colour, h.Region,
			h.SireID, h.DamID, h.DamsireID, h.Enriched,
		})
	}

	return r.w.upsertBatches(ctx, "ra_mst_horses", query, rows)
}

// UpsertPedigrees upserts pedigree rows, at most one per horse
func (r *PostgresHorseRepository) UpsertPedigrees(ctx context.Context, pedigrees []models.HorsePedigree) (BatchResult, error) {
	query := `
		INSERT INTO ra_mst_horse_pedigree (horse_id, sire_id, sire, dam_id, dam, damsire_id, damsire, breeder, region)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (horse_id) DO UPDATE SET
			sire_id = COALESCE(EXCLUDED.sire_id, ra_mst_horse_pedigree.sire_id),
			sire = COALESCE(EXCLUDED.sire, ra_mst_horse_pedigree.sire),
			dam_id = COALESCE(EXCLUDED.dam_id, ra_mst_horse_pedigree.dam_id),
			dam = COALESCE(EXCLUDED.dam, ra_mst_horse_pedigree.dam),
			damsire_id = COALESCE(EXCLUDED.damsire_id, ra_mst_horse_pedigree.damsire_id),
			damsire = COALESCE(EXCLUDED.damsire, ra_mst_horse_pedigree.damsire),
			breeder = COALESCE(EXCLUDED.breeder, ra_mst_horse_pedigree.breeder),
			region = COALESCE(EXCLUDED.region, ra_mst_horse_pedigree.region)
	`

	rows := make([][]interface{}, 0, len(pedigrees))
	for _, p := range pedigrees {
		rows = append(rows, []interface{}{
			p.HorseID, p.SireID, p.SireName, p.DamID, p.DamName,
			p.DamsireID, p.DamsireName, p.Breeder, p.Region,
		})
	}

	return r.w.upsertBatches(ctx, "ra_mst_horse_pedigree", query, rows)
}

func ancestorTable(role models.AncestorRole) string {
	switch role {
	case models.RoleSire:
		return "ra_mst_sires"
	case models.RoleDam:
		return "ra_mst_dams"
	default:
		return "ra_mst_damsires"
	}
}

// UpsertAncestors upserts name-only sire/dam/damsire rows. The derived
// statistics columns are owned by the pedigree calculator and are not
// touched here.
func (r *PostgresHorseRepository) UpsertAncestors(ctx context.Context, role models.AncestorRole, ancestors []models.Ancestor) (BatchResult, error) {
	table := ancestorTable(role)
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, region, horse_id, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' AND %s.name = '' THEN EXCLUDED.name ELSE %s.name END,
			region = COALESCE(EXCLUDED.region, %s.region),
			horse_id = COALESCE(EXCLUDED.horse_id, %s.horse_id),
			updated_at = NOW()
	`, table, table, table, table, table)

	rows := make([][]interface{}, 0, len(ancestors))
	for _, a := range ancestors {
		rows = append(rows, []interface{}{a.ID, a.Name, a.Region, a.HorseID})
	}

	return r.w.upsertBatches(ctx, table, query, rows)
}

// ExistingHorseIDs returns which of the candidate ids already have a
// horse row; the extractor enriches only the missing ones.
func (r *PostgresHorseRepository) ExistingHorseIDs(ctx context.Context, candidateIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return existing, nil
	}

	query := `SELECT id FROM ra_mst_horses WHERE id = ANY($1)`

	rows, err := r.db.GetPool().Query(ctx, query, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing horse ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan horse id: %w", err)
		}
		existing[id] = true
	}

	return existing, rows.Err()
}

// LookupHorseIDByName resolves a horse row by exact name, optionally
// narrowed by region. Missing matches return ErrNotFound; foreign
// stallions legitimately have no row.
func (r *PostgresHorseRepository) LookupHorseIDByName(ctx context.Context, name string, region *string) (string, error) {
	var id string
	var err error

	if region != nil {
		query := `SELECT id FROM ra_mst_horses WHERE LOWER(name) = LOWER($1) AND region = $2 LIMIT 1`
		err = r.db.GetPool().QueryRow(ctx, query, name, *region).Scan(&id)
	} else {
		query := `SELECT id FROM ra_mst_horses WHERE LOWER(name) = LOWER($1) LIMIT 1`
		err = r.db.GetPool().QueryRow(ctx, query, name).Scan(&id)
	}

	if err == pgx.ErrNoRows {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up horse by name: %w", err)
	}

	return id, nil
}
