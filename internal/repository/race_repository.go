package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/database"
	"github.com/yourusername/racing-sync/internal/models"
)

// PostgresRaceRepository implements RaceRepository for PostgreSQL
type PostgresRaceRepository struct {
	db     *database.DB
	w      *BatchWriter
	logger *logrus.Logger
}

// NewPostgresRaceRepository creates a new race repository
func NewPostgresRaceRepository(db *database.DB, w *BatchWriter, logger *logrus.Logger) RaceRepository {
	return &PostgresRaceRepository{db: db, w: w, logger: logger}
}

// UpsertRaces upserts race rows keyed by id. Post-race columns are not
// written here; MarkRaceResult owns those.
func (r *PostgresRaceRepository) UpsertRaces(ctx context.Context, races []models.Race) (BatchResult, error) {
	query := `
		INSERT INTO ra_races (id, date, off_dt, course_id, course, race_name, region, race_class,
			pattern, race_type, age_band, rating_band, distance, distance_f, distance_m, going,
			prize, prize_currency, field_size, has_result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, false, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			off_dt = COALESCE(EXCLUDED.off_dt, ra_races.off_dt),
			course_id = EXCLUDED.course_id,
			course = EXCLUDED.course,
			race_name = EXCLUDED.race_name,
			region = EXCLUDED.region,
			race_class = COALESCE(EXCLUDED.race_class, ra_races.race_class),
			pattern = COALESCE(EXCLUDED.pattern, ra_races.pattern),
			race_type = EXCLUDED.race_type,
			age_band = COALESCE(EXCLUDED.age_band, ra_races.age_band),
			rating_band = COALESCE(EXCLUDED.rating_band, ra_races.rating_band),
			distance = EXCLUDED.distance,
			distance_f = COALESCE(EXCLUDED.distance_f, ra_races.distance_f),
			distance_m = COALESCE(EXCLUDED.distance_m, ra_races.distance_m),
			going = COALESCE(EXCLUDED.going, ra_races.going),
			prize = COALESCE(EXCLUDED.prize, ra_races.prize),
			prize_currency = COALESCE(EXCLUDED.prize_currency, ra_races.prize_currency),
			field_size = COALESCE(EXCLUDED.field_size, ra_races.field_size),
			updated_at = NOW()
	`

	rows := make([][]interface{}, 0, len(races))
	for _, race := range races {
		rows = append(rows, []interface{}{
			race.ID, race.Date, race.OffTime, race.CourseID, race.CourseName, race.Name,
			race.Region, race.Class, race.Pattern, race.Type, race.AgeBand, race.RatingBand,
			race.DistanceText, race.DistanceF, race.DistanceM, race.Going,
			race.Prize, race.PrizeCurrency, race.FieldSize,
		})
	}

	return r.w.upsertBatches(ctx, "ra_races", query, rows)
}

// UpsertRunners upserts runner rows keyed by (race_id, horse_id) with
// the full pre-race column set.
func (r *PostgresRaceRepository) UpsertRunners(ctx context.Context, runners []models.Runner) (BatchResult, error) {
	query := `
		INSERT INTO ra_runners (race_id, horse_id, horse, number, draw, weight_lbs, age, form, ofr,
			headgear, silk_url, jockey_id, jockey, jockey_claim_lbs, trainer_id, trainer,
			owner_id, owner, sire_id, sire, dam_id, dam, damsire_id, damsire, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, NOW(), NOW())
		ON CONFLICT (race_id, horse_id) DO UPDATE SET
			horse = CASE WHEN EXCLUDED.horse <> '' THEN EXCLUDED.horse ELSE ra_runners.horse END,
			number = COALESCE(EXCLUDED.number, ra_runners.number),
			draw = COALESCE(EXCLUDED.draw, ra_runners.draw),
			weight_lbs = COALESCE(EXCLUDED.weight_lbs, ra_runners.weight_lbs),
			age = COALESCE(EXCLUDED.age, ra_runners.age),
			form = COALESCE(EXCLUDED.form, ra_runners.form),
			ofr = COALESCE(EXCLUDED.ofr, ra_runners.ofr),
			headgear = COALESCE(EXCLUDED.headgear, ra_runners.headgear),
			silk_url = COALESCE(EXCLUDED.silk_url, ra_runners.silk_url),
			jockey_id = COALESCE(EXCLUDED.jockey_id, ra_runners.jockey_id),
			jockey = COALESCE(EXCLUDED.jockey, ra_runners.jockey),
			jockey_claim_lbs = COALESCE(EXCLUDED.jockey_claim_lbs, ra_runners.jockey_claim_lbs),
			trainer_id = COALESCE(EXCLUDED.trainer_id, ra_runners.trainer_id),
			trainer = COALESCE(EXCLUDED.trainer, ra_runners.trainer),
			owner_id = COALESCE(EXCLUDED.owner_id, ra_runners.owner_id),
			owner = COALESCE(EXCLUDED.owner, ra_runners.owner),
			sire_id = COALESCE(EXCLUDED.sire_id, ra_runners.sire_id),
			sire = COALESCE(EXCLUDED.sire, ra_runners.sire),
			dam_id = COALESCE(EXCLUDED.dam_id, ra_runners.dam_id),
			dam = COALESCE(EXCLUDED.dam, ra_runners.dam),
			damsire_id = COALESCE(EXCLUDED.damsire_id, ra_runners.damsire_id),
			damsire = COALESCE(EXCLUDED.damsire, ra_runners.damsire),
			updated_at = NOW()
	`

	rows := make([][]interface{}, 0, len(runners))
	for _, run := range runners {
		rows = append(rows, []interface{}{
			run.RaceID, run.HorseID, run.HorseName, run.Number, run.Draw, run.WeightLbs,
			run.Age, run.Form, run.OfficialRtg, run.Headgear, run.SilkURL,
			run.JockeyID, run.JockeyName, run.JockeyClaim, run.TrainerID, run.TrainerName,
			run.OwnerID, run.OwnerName, run.SireID, run.SireName, run.DamID, run.DamName,
			run.DamsireID, run.DamsireName,
		})
	}

	return r.w.upsertBatches(ctx, "ra_runners", query, rows)
}

// PatchRunnerResults applies post-race columns as a partial update.
// Pre-race columns the results response does not carry are left intact,
// so a result arriving before its racecard still succeeds.
func (r *PostgresRaceRepository) PatchRunnerResults(ctx context.Context, runners []models.Runner) (BatchResult, error) {
	query := `
		INSERT INTO ra_runners (race_id, horse_id, horse, position, position_text, btn, ovr_btn,
			sp, sp_dec, time, prize_won, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (race_id, horse_id) DO UPDATE SET
			position = EXCLUDED.position,
			position_text = COALESCE(EXCLUDED.position_text, ra_runners.position_text),
			btn = COALESCE(EXCLUDED.btn, ra_runners.btn),
			ovr_btn = COALESCE(EXCLUDED.ovr_btn, ra_runners.ovr_btn),
			sp = COALESCE(EXCLUDED.sp, ra_runners.sp),
			sp_dec = COALESCE(EXCLUDED.sp_dec, ra_runners.sp_dec),
			time = COALESCE(EXCLUDED.time, ra_runners.time),
			prize_won = COALESCE(EXCLUDED.prize_won, ra_runners.prize_won),
			comment = COALESCE(EXCLUDED.comment, ra_runners.comment),
			updated_at = NOW()
	`

	rows := make([][]interface{}, 0, len(runners))
	for _, run := range runners {
		rows = append(rows, []interface{}{
			run.RaceID, run.HorseID, run.HorseName, run.Position, run.PositionText,
			run.Btn, run.OvrBtn, run.SP, run.SPDec, run.FinishTime, run.PrizeWon, run.Comment,
		})
	}

	return r.w.upsertBatches(ctx, "ra_runners", query, rows)
}

// MarkRaceResult fills a race's post-race columns and flips has_result.
func (r *PostgresRaceRepository) MarkRaceResult(ctx context.Context, race *models.Race) error {
	query := `
		UPDATE ra_races SET
			has_result = true,
			winning_time = COALESCE($2, winning_time),
			tote_win = COALESCE($3, tote_win),
			tote_pl = COALESCE($4, tote_pl),
			tote_ex = COALESCE($5, tote_ex),
			tote_csf = COALESCE($6, tote_csf),
			tote_tricast = COALESCE($7, tote_tricast),
			comments = COALESCE($8, comments),
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		race.ID, race.WinningTime, race.ToteWin, race.TotePlace,
		race.ToteExacta, race.ToteCSF, race.ToteTricast, race.Comments,
	)
	if err != nil {
		return fmt.Errorf("failed to mark race result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// RaceExists reports whether a race row exists
func (r *PostgresRaceRepository) RaceExists(ctx context.Context, raceID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ra_races WHERE id = $1)`
	if err := r.db.GetPool().QueryRow(ctx, query, raceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check race existence: %w", err)
	}
	return exists, nil
}

// RaceIDsInRange returns race ids with dates inside [from, to]
func (r *PostgresRaceRepository) RaceIDsInRange(ctx context.Context, from, to time.Time) ([]string, error) {
	query := `SELECT id FROM ra_races WHERE date >= $1 AND date <= $2 ORDER BY date ASC`

	rows, err := r.db.GetPool().Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query races in range: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan race id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// MaxRaceDate returns the most recent race date in the warehouse, or
// nil when no races exist.
func (r *PostgresRaceRepository) MaxRaceDate(ctx context.Context) (*time.Time, error) {
	var max *time.Time
	query := `SELECT MAX(date) FROM ra_races`
	if err := r.db.GetPool().QueryRow(ctx, query).Scan(&max); err != nil {
		return nil, fmt.Errorf("failed to query max race date: %w", err)
	}
	return max, nil
}
