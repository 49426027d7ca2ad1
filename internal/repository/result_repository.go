package repository

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/database"
	"github.com/yourusername/racing-sync/internal/models"
)

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db     *database.DB
	w      *BatchWriter
	logger *logrus.Logger
}

// NewPostgresResultRepository creates a new result repository
func NewPostgresResultRepository(db *database.DB, w *BatchWriter, logger *logrus.Logger) ResultRepository {
	return &PostgresResultRepository{db: db, w: w, logger: logger}
}

// UpsertRaceResults upserts the canonical outcome rows keyed by
// (race_id, horse_id).
func (r *PostgresResultRepository) UpsertRaceResults(ctx context.Context, results []models.RaceResult) (BatchResult, error) {
	query := `
		INSERT INTO ra_results (race_id, horse_id, race_date, course_id, race_class, distance_m,
			position, position_text, btn, ovr_btn, sp, sp_dec, time, prize_won, comment,
			jockey_id, trainer_id, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		ON CONFLICT (race_id, horse_id) DO UPDATE SET
			race_date = EXCLUDED.race_date,
			course_id = EXCLUDED.course_id,
			race_class = COALESCE(EXCLUDED.race_class, ra_results.race_class),
			distance_m = COALESCE(EXCLUDED.distance_m, ra_results.distance_m),
			position = EXCLUDED.position,
			position_text = COALESCE(EXCLUDED.position_text, ra_results.position_text),
			btn = COALESCE(EXCLUDED.btn, ra_results.btn),
			ovr_btn = COALESCE(EXCLUDED.ovr_btn, ra_results.ovr_btn),
			sp = COALESCE(EXCLUDED.sp, ra_results.sp),
			sp_dec = COALESCE(EXCLUDED.sp_dec, ra_results.sp_dec),
			time = COALESCE(EXCLUDED.time, ra_results.time),
			prize_won = COALESCE(EXCLUDED.prize_won, ra_results.prize_won),
			comment = COALESCE(EXCLUDED.comment, ra_results.comment),
			jockey_id = COALESCE(EXCLUDED.jockey_id, ra_results.jockey_id),
			trainer_id = COALESCE(EXCLUDED.trainer_id, ra_results.trainer_id),
			owner_id = COALESCE(EXCLUDED.owner_id, ra_results.owner_id)
	`

	rows := make([][]interface{}, 0, len(results))
	for _, res := range results {
		rows = append(rows, []interface{}{
			res.RaceID, res.HorseID, res.RaceDate, res.CourseID, res.RaceClass, res.DistanceM,
			res.Position, res.PositionText, res.Btn, res.OvrBtn, res.SP, res.SPDec,
			res.FinishTime, res.PrizeWon, res.Comment,
			res.JockeyID, res.TrainerID, res.OwnerID,
		})
	}

	return r.w.upsertBatches(ctx, "ra_results", query, rows)
}
