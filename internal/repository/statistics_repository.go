package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/database"
	"github.com/yourusername/racing-sync/internal/models"
)

// distanceBandSQL mirrors models.DistanceBand so SQL aggregates and the
// Go calculators bucket distances identically.
const distanceBandSQL = `
	CASE
		WHEN distance_m IS NULL OR distance_m <= 0 THEN NULL
		WHEN distance_m <= 1408 THEN 'sprint'
		WHEN distance_m <= 1810 THEN 'mile'
		WHEN distance_m <= 2414 THEN 'middle'
		ELSE 'staying'
	END`

// PostgresStatisticsRepository implements StatisticsRepository for PostgreSQL
type PostgresStatisticsRepository struct {
	db     *database.DB
	logger *logrus.Logger
}

// NewPostgresStatisticsRepository creates a new statistics repository
func NewPostgresStatisticsRepository(db *database.DB, logger *logrus.Logger) StatisticsRepository {
	return &PostgresStatisticsRepository{db: db, logger: logger}
}

func entityTable(entityType models.EntityType) string {
	switch entityType {
	case models.EntityJockey:
		return "ra_mst_jockeys"
	case models.EntityTrainer:
		return "ra_mst_trainers"
	default:
		return "ra_mst_owners"
	}
}

func entityColumn(entityType models.EntityType) string {
	switch entityType {
	case models.EntityJockey:
		return "jockey_id"
	case models.EntityTrainer:
		return "trainer_id"
	default:
		return "owner_id"
	}
}

// ListEntityIDs pages through a people table in id order. Pass an empty
// afterID to start from the beginning.
func (r *PostgresStatisticsRepository) ListEntityIDs(ctx context.Context, entityType models.EntityType, afterID string, limit int) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id > $1 ORDER BY id LIMIT $2`, entityTable(entityType))

	rows, err := r.db.GetPool().Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", entityType, err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// EntityResults returns every outcome row attributed to one person,
// oldest first.
func (r *PostgresStatisticsRepository) EntityResults(ctx context.Context, entityType models.EntityType, entityID string) ([]ResultRow, error) {
	query := fmt.Sprintf(`
		SELECT race_date, course_id, race_class, distance_m, position, position_text
		FROM ra_results
		WHERE %s = $1
		ORDER BY race_date ASC
	`, entityColumn(entityType))

	rows, err := r.db.GetPool().Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s results: %w", entityType, err)
	}
	defer rows.Close()

	return scanResultRows(rows)
}

// ReplaceEntityStatistics writes recomputed per-person aggregates in a
// single transaction, replacing any previous row for the same entity.
func (r *PostgresStatisticsRepository) ReplaceEntityStatistics(ctx context.Context, stats []models.EntityStatistics) error {
	query := `
		INSERT INTO ra_entity_statistics (entity_id, entity_type, total, wins, places, seconds, thirds,
			win_rate, runs_14d, wins_14d, win_rate_14d, runs_30d, wins_30d, win_rate_30d,
			last_run_date, last_win_date, days_since_last_run, days_since_last_win, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		ON CONFLICT (entity_id, entity_type) DO UPDATE SET
			total = EXCLUDED.total,
			wins = EXCLUDED.wins,
			places = EXCLUDED.places,
			seconds = EXCLUDED.seconds,
			thirds = EXCLUDED.thirds,
			win_rate = EXCLUDED.win_rate,
			runs_14d = EXCLUDED.runs_14d,
			wins_14d = EXCLUDED.wins_14d,
			win_rate_14d = EXCLUDED.win_rate_14d,
			runs_30d = EXCLUDED.runs_30d,
			wins_30d = EXCLUDED.wins_30d,
			win_rate_30d = EXCLUDED.win_rate_30d,
			last_run_date = EXCLUDED.last_run_date,
			last_win_date = EXCLUDED.last_win_date,
			days_since_last_run = EXCLUDED.days_since_last_run,
			days_since_last_win = EXCLUDED.days_since_last_win,
			updated_at = NOW()
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range stats {
			batch.Queue(query,
				s.EntityID, s.EntityType, s.Total, s.Wins, s.Places, s.Seconds, s.Thirds,
				s.WinRate, s.Runs14D, s.Wins14D, s.WinRate14D, s.Runs30D, s.Wins30D, s.WinRate30D,
				s.LastRunDate, s.LastWinDate, s.DaysSinceLastRun, s.DaysSinceLastWin,
			)
		}
		return drainBatch(ctx, tx, batch, len(stats))
	})
}

// ListAncestorIDs pages through an ancestor table in id order.
func (r *PostgresStatisticsRepository) ListAncestorIDs(ctx context.Context, role models.AncestorRole, afterID string, limit int) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id > $1 ORDER BY id LIMIT $2`, ancestorTable(role))

	rows, err := r.db.GetPool().Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", role, err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// ProgenyRuns returns every outcome row for an ancestor's offspring,
// joined through the canonical pedigree table.
func (r *PostgresStatisticsRepository) ProgenyRuns(ctx context.Context, role models.AncestorRole, ancestorID string) ([]models.ProgenyRun, error) {
	var pedigreeCol string
	switch role {
	case models.RoleSire:
		pedigreeCol = "sire_id"
	case models.RoleDam:
		pedigreeCol = "dam_id"
	default:
		pedigreeCol = "damsire_id"
	}

	query := fmt.Sprintf(`
		SELECT res.horse_id, res.race_class, %s, res.position, res.position_text, res.prize_won
		FROM ra_mst_horse_pedigree ped
		JOIN ra_results res ON res.horse_id = ped.horse_id
		WHERE ped.%s = $1
		ORDER BY res.race_date ASC
	`, distanceBandSQL, pedigreeCol)

	rows, err := r.db.GetPool().Query(ctx, query, ancestorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progeny runs: %w", err)
	}
	defer rows.Close()

	var runs []models.ProgenyRun
	for rows.Next() {
		var run models.ProgenyRun
		if err := rows.Scan(&run.HorseID, &run.RaceClass, &run.DistanceBand,
			&run.Position, &run.PositionText, &run.PrizeWon); err != nil {
			return nil, fmt.Errorf("failed to scan progeny run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// UpdateAncestorStatistics writes the derived progeny block onto an
// ancestor row. Name, region and horse_id are owned by ingestion and
// are not touched here.
func (r *PostgresStatisticsRepository) UpdateAncestorStatistics(ctx context.Context, role models.AncestorRole, ancestor *models.Ancestor) error {
	classJSON, err := json.Marshal(ancestor.ClassBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal class breakdown: %w", err)
	}
	distJSON, err := json.Marshal(ancestor.DistBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal distance breakdown: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			progeny_count = $2,
			progeny_runs = $3,
			progeny_wins = $4,
			progeny_places = $5,
			progeny_earnings = $6,
			best_class = $7,
			best_distance = $8,
			class_breakdown = $9,
			distance_breakdown = $10,
			data_quality_score = $11,
			updated_at = NOW()
		WHERE id = $1
	`, ancestorTable(role))

	tag, err := r.db.GetPool().Exec(ctx, query,
		ancestor.ID, ancestor.ProgenyCount, ancestor.ProgenyRuns, ancestor.ProgenyWins,
		ancestor.ProgenyPlaces, ancestor.ProgenyEarnings, ancestor.BestClass, ancestor.BestDistance,
		classJSON, distJSON, ancestor.DataQuality,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s statistics: %w", role, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ListRunnerKeys pages through runners in settled races, ordered by
// (race_date, race_id, horse_id). A non-nil since restricts the page to
// races on or after that date, which is how incremental passes avoid
// rescanning the whole table.
func (r *PostgresStatisticsRepository) ListRunnerKeys(ctx context.Context, since *time.Time, after *RunnerKey, limit int) ([]RunnerKey, error) {
	query := `
		SELECT rc.date, run.race_id, run.horse_id
		FROM ra_runners run
		JOIN ra_races rc ON rc.id = run.race_id
		WHERE rc.has_result = true
		  AND ($1::date IS NULL OR rc.date >= $1)
		  AND ($2::date IS NULL OR (rc.date, run.race_id, run.horse_id) > ($2, $3, $4))
		ORDER BY rc.date, run.race_id, run.horse_id
		LIMIT $5
	`

	var afterDate *time.Time
	var afterRace, afterHorse *string
	if after != nil {
		afterDate = &after.RaceDate
		afterRace = &after.RaceID
		afterHorse = &after.HorseID
	}

	rows, err := r.db.GetPool().Query(ctx, query, since, afterDate, afterRace, afterHorse, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runner keys: %w", err)
	}
	defer rows.Close()

	var keys []RunnerKey
	for rows.Next() {
		var k RunnerKey
		if err := rows.Scan(&k.RaceDate, &k.RaceID, &k.HorseID); err != nil {
			return nil, fmt.Errorf("failed to scan runner key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// HorseResultsBefore returns a horse's outcome rows strictly before the
// given date, most recent first. The strict inequality keeps the race
// being scored out of its own history.
func (r *PostgresStatisticsRepository) HorseResultsBefore(ctx context.Context, horseID string, before time.Time) ([]ResultRow, error) {
	query := `
		SELECT race_date, course_id, race_class, distance_m, position, position_text
		FROM ra_results
		WHERE horse_id = $1 AND race_date < $2
		ORDER BY race_date DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, horseID, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query horse results: %w", err)
	}
	defer rows.Close()

	return scanResultRows(rows)
}

// ReplaceRunnerStatistics writes recomputed per-runner form rows in a
// single transaction.
func (r *PostgresStatisticsRepository) ReplaceRunnerStatistics(ctx context.Context, stats []models.RunnerStatistics) error {
	query := `
		INSERT INTO ra_runner_statistics (race_id, horse_id, race_date, career_runs, career_wins,
			career_places, runs_last_90d, wins_last_5, places_last_5, avg_position_last_5,
			last_position, days_since_last_run, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (race_id, horse_id) DO UPDATE SET
			race_date = EXCLUDED.race_date,
			career_runs = EXCLUDED.career_runs,
			career_wins = EXCLUDED.career_wins,
			career_places = EXCLUDED.career_places,
			runs_last_90d = EXCLUDED.runs_last_90d,
			wins_last_5 = EXCLUDED.wins_last_5,
			places_last_5 = EXCLUDED.places_last_5,
			avg_position_last_5 = EXCLUDED.avg_position_last_5,
			last_position = EXCLUDED.last_position,
			days_since_last_run = EXCLUDED.days_since_last_run,
			updated_at = NOW()
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range stats {
			batch.Queue(query,
				s.RaceID, s.HorseID, s.RaceDate, s.CareerRuns, s.CareerWins, s.CareerPlaces,
				s.RunsLast90D, s.WinsLast5, s.PlacesLast5, s.AvgPositionLast5,
				s.LastPosition, s.DaysSinceLastRun,
			)
		}
		return drainBatch(ctx, tx, batch, len(stats))
	})
}

// CombinationAggregates groups outcome rows by jockey-trainer pair,
// keeping pairs with at least minRuns runs.
func (r *PostgresStatisticsRepository) CombinationAggregates(ctx context.Context, minRuns int) ([]models.EntityCombination, error) {
	query := `
		SELECT jockey_id, trainer_id,
			COUNT(*) AS runs,
			COUNT(*) FILTER (WHERE position = 1) AS wins,
			COUNT(*) FILTER (WHERE position BETWEEN 1 AND 3) AS places
		FROM ra_results
		WHERE jockey_id IS NOT NULL AND trainer_id IS NOT NULL
		GROUP BY jockey_id, trainer_id
		HAVING COUNT(*) >= $1
		ORDER BY jockey_id, trainer_id
	`

	rows, err := r.db.GetPool().Query(ctx, query, minRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate combinations: %w", err)
	}
	defer rows.Close()

	var combos []models.EntityCombination
	for rows.Next() {
		var c models.EntityCombination
		if err := rows.Scan(&c.JockeyID, &c.TrainerID, &c.Runs, &c.Wins, &c.Places); err != nil {
			return nil, fmt.Errorf("failed to scan combination: %w", err)
		}
		c.WinRate = models.WinRate(c.Wins, c.Runs)
		combos = append(combos, c)
	}

	return combos, rows.Err()
}

// DistanceAggregates groups one entity type's outcome rows by distance
// band, keeping bands with at least minRuns runs.
func (r *PostgresStatisticsRepository) DistanceAggregates(ctx context.Context, entityType models.EntityType, minRuns int) ([]models.PerformanceByDistance, error) {
	col := entityColumn(entityType)
	query := fmt.Sprintf(`
		SELECT %s, band,
			COUNT(*) AS runs,
			COUNT(*) FILTER (WHERE position = 1) AS wins,
			COUNT(*) FILTER (WHERE position BETWEEN 1 AND 3) AS places
		FROM (
			SELECT %s, position, %s AS band FROM ra_results WHERE %s IS NOT NULL
		) sub
		WHERE band IS NOT NULL
		GROUP BY %s, band
		HAVING COUNT(*) >= $1
		ORDER BY %s, band
	`, col, col, distanceBandSQL, col, col, col)

	rows, err := r.db.GetPool().Query(ctx, query, minRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate distance performance: %w", err)
	}
	defer rows.Close()

	var perf []models.PerformanceByDistance
	for rows.Next() {
		p := models.PerformanceByDistance{EntityType: entityType}
		if err := rows.Scan(&p.EntityID, &p.DistanceBand, &p.Runs, &p.Wins, &p.Places); err != nil {
			return nil, fmt.Errorf("failed to scan distance performance: %w", err)
		}
		p.WinRate = models.WinRate(p.Wins, p.Runs)
		perf = append(perf, p)
	}

	return perf, rows.Err()
}

// VenueAggregates groups one entity type's outcome rows by course,
// keeping courses with at least minRuns runs.
func (r *PostgresStatisticsRepository) VenueAggregates(ctx context.Context, entityType models.EntityType, minRuns int) ([]models.PerformanceByVenue, error) {
	col := entityColumn(entityType)
	query := fmt.Sprintf(`
		SELECT %s, course_id,
			COUNT(*) AS runs,
			COUNT(*) FILTER (WHERE position = 1) AS wins,
			COUNT(*) FILTER (WHERE position BETWEEN 1 AND 3) AS places
		FROM ra_results
		WHERE %s IS NOT NULL
		GROUP BY %s, course_id
		HAVING COUNT(*) >= $1
		ORDER BY %s, course_id
	`, col, col, col, col)

	rows, err := r.db.GetPool().Query(ctx, query, minRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate venue performance: %w", err)
	}
	defer rows.Close()

	var perf []models.PerformanceByVenue
	for rows.Next() {
		p := models.PerformanceByVenue{EntityType: entityType}
		if err := rows.Scan(&p.EntityID, &p.CourseID, &p.Runs, &p.Wins, &p.Places); err != nil {
			return nil, fmt.Errorf("failed to scan venue performance: %w", err)
		}
		p.WinRate = models.WinRate(p.Wins, p.Runs)
		perf = append(perf, p)
	}

	return perf, rows.Err()
}

// ReplaceCombinations swaps the combination table for a freshly
// computed set in one transaction.
func (r *PostgresStatisticsRepository) ReplaceCombinations(ctx context.Context, combos []models.EntityCombination) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM ra_entity_combinations`); err != nil {
			return fmt.Errorf("failed to clear combinations: %w", err)
		}

		query := `
			INSERT INTO ra_entity_combinations (jockey_id, trainer_id, runs, wins, places, win_rate, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`
		batch := &pgx.Batch{}
		for _, c := range combos {
			batch.Queue(query, c.JockeyID, c.TrainerID, c.Runs, c.Wins, c.Places, c.WinRate)
		}
		return drainBatch(ctx, tx, batch, len(combos))
	})
}

// ReplaceDistancePerformance swaps one entity type's distance rows for
// a freshly computed set in one transaction.
func (r *PostgresStatisticsRepository) ReplaceDistancePerformance(ctx context.Context, entityType models.EntityType, perf []models.PerformanceByDistance) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM ra_performance_by_distance WHERE entity_type = $1`, entityType); err != nil {
			return fmt.Errorf("failed to clear distance performance: %w", err)
		}

		query := `
			INSERT INTO ra_performance_by_distance (entity_id, entity_type, distance_band, runs, wins, places, win_rate, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		`
		batch := &pgx.Batch{}
		for _, p := range perf {
			batch.Queue(query, p.EntityID, entityType, p.DistanceBand, p.Runs, p.Wins, p.Places, p.WinRate)
		}
		return drainBatch(ctx, tx, batch, len(perf))
	})
}

// ReplaceVenuePerformance swaps one entity type's venue rows for a
// freshly computed set in one transaction.
func (r *PostgresStatisticsRepository) ReplaceVenuePerformance(ctx context.Context, entityType models.EntityType, perf []models.PerformanceByVenue) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM ra_performance_by_venue WHERE entity_type = $1`, entityType); err != nil {
			return fmt.Errorf("failed to clear venue performance: %w", err)
		}

		query := `
			INSERT INTO ra_performance_by_venue (entity_id, entity_type, course_id, runs, wins, places, win_rate, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		`
		batch := &pgx.Batch{}
		for _, p := range perf {
			batch.Queue(query, p.EntityID, entityType, p.CourseID, p.Runs, p.Wins, p.Places, p.WinRate)
		}
		return drainBatch(ctx, tx, batch, len(perf))
	})
}

func drainBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, n int) error {
	if n == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec failed: %w", err)
		}
	}
	return nil
}

func scanIDs(rows pgx.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanResultRows(rows pgx.Rows) ([]ResultRow, error) {
	var out []ResultRow
	for rows.Next() {
		var row ResultRow
		if err := rows.Scan(&row.RaceDate, &row.CourseID, &row.RaceClass,
			&row.DistanceM, &row.Position, &row.PositionText); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
