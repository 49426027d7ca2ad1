package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RaceResult is the canonical per-runner outcome record: one row per
// (race_id, horse_id). RaceDate is denormalised so the statistics
// calculators can window on date without joining races.
type RaceResult struct {
	RaceID    string    `db:"race_id" json:"race_id" validate:"required"`
	HorseID   string    `db:"horse_id" json:"horse_id" validate:"required"`
	RaceDate  time.Time `db:"race_date" json:"race_date"`
	CourseID  string    `db:"course_id" json:"course_id"`
	RaceClass *string   `db:"race_class" json:"race_class,omitempty"`
	DistanceM *int      `db:"distance_m" json:"distance_m,omitempty"`

	Position     *int             `db:"position" json:"position,omitempty"`
	PositionText *string          `db:"position_text" json:"position_text,omitempty"`
	Btn          *decimal.Decimal `db:"btn" json:"btn,omitempty"`
	OvrBtn       *decimal.Decimal `db:"ovr_btn" json:"ovr_btn,omitempty"`
	SP           *string          `db:"sp" json:"sp,omitempty"`
	SPDec        *decimal.Decimal `db:"sp_dec" json:"sp_dec,omitempty"`
	FinishTime   *string          `db:"time" json:"time,omitempty"`
	PrizeWon     *decimal.Decimal `db:"prize_won" json:"prize_won,omitempty"`
	Comment      *string          `db:"comment" json:"comment,omitempty"`

	JockeyID  *string `db:"jockey_id" json:"jockey_id,omitempty"`
	TrainerID *string `db:"trainer_id" json:"trainer_id,omitempty"`
	OwnerID   *string `db:"owner_id" json:"owner_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
