package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Race represents one race. Pre-race columns are populated from the
// racecard endpoint; post-race columns only once the results fetcher has
// seen the race, at which point HasResult flips to true.
type Race struct {
	ID            string           `db:"id" json:"id" validate:"required"`
	Date          time.Time        `db:"date" json:"date" validate:"required"`
	OffTime       *time.Time       `db:"off_dt" json:"off_dt,omitempty"`
	CourseID      string           `db:"course_id" json:"course_id" validate:"required"`
	CourseName    string           `db:"course" json:"course"`
	Name          string           `db:"race_name" json:"race_name"`
	Region        string           `db:"region" json:"region"`
	Class         *string          `db:"race_class" json:"race_class,omitempty"`
	Pattern       *string          `db:"pattern" json:"pattern,omitempty"`
	Type          string           `db:"race_type" json:"race_type"`
	AgeBand       *string          `db:"age_band" json:"age_band,omitempty"`
	RatingBand    *string          `db:"rating_band" json:"rating_band,omitempty"`
	DistanceText  string           `db:"distance" json:"distance"`
	DistanceF     *float64         `db:"distance_f" json:"distance_f,omitempty"`
	DistanceM     *int             `db:"distance_m" json:"distance_m,omitempty"`
	Going         *string          `db:"going" json:"going,omitempty"`
	Prize         *decimal.Decimal `db:"prize" json:"prize,omitempty"`
	PrizeCurrency *string          `db:"prize_currency" json:"prize_currency,omitempty"`
	FieldSize     *int             `db:"field_size" json:"field_size,omitempty"`

	HasResult   bool    `db:"has_result" json:"has_result"`
	WinningTime *string `db:"winning_time" json:"winning_time,omitempty"`
	ToteWin     *string `db:"tote_win" json:"tote_win,omitempty"`
	TotePlace   *string `db:"tote_pl" json:"tote_pl,omitempty"`
	ToteExacta  *string `db:"tote_ex" json:"tote_ex,omitempty"`
	ToteCSF     *string `db:"tote_csf" json:"tote_csf,omitempty"`
	ToteTricast *string `db:"tote_tricast" json:"tote_tricast,omitempty"`
	Comments    *string `db:"comments" json:"comments,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RaceTypes recognised by the provider.
const (
	RaceTypeFlat   = "Flat"
	RaceTypeHurdle = "Hurdle"
	RaceTypeChase  = "Chase"
	RaceTypeNHFlat = "NH Flat"
)

// IsSettled reports whether the race is past the one-week mutation
// window; settled races are never updated again.
func (r *Race) IsSettled(now time.Time) bool {
	return r.HasResult && now.Sub(r.Date) > 7*24*time.Hour
}

// Runner is a horse entered in a specific race. Identity is the
// composite (RaceID, HorseID). People and pedigree names are
// denormalised copies; the canonical rows live in their own tables and
// are upserted in the same batch, before the runner.
type Runner struct {
	RaceID  string `db:"race_id" json:"race_id" validate:"required"`
	HorseID string `db:"horse_id" json:"horse_id" validate:"required"`

	HorseName   string  `db:"horse" json:"horse"`
	Number      *int    `db:"number" json:"number,omitempty"`
	Draw        *int    `db:"draw" json:"draw,omitempty"`
	WeightLbs   *int    `db:"weight_lbs" json:"weight_lbs,omitempty"`
	Age         *int    `db:"age" json:"age,omitempty"`
	Form        *string `db:"form" json:"form,omitempty"`
	OfficialRtg *int    `db:"ofr" json:"ofr,omitempty"`
	Headgear    *string `db:"headgear" json:"headgear,omitempty"`
	SilkURL     *string `db:"silk_url" json:"silk_url,omitempty"`

	JockeyID     *string `db:"jockey_id" json:"jockey_id,omitempty"`
	JockeyName   *string `db:"jockey" json:"jockey,omitempty"`
	JockeyClaim  *int    `db:"jockey_claim_lbs" json:"jockey_claim_lbs,omitempty"`
	TrainerID    *string `db:"trainer_id" json:"trainer_id,omitempty"`
	TrainerName  *string `db:"trainer" json:"trainer,omitempty"`
	OwnerID      *string `db:"owner_id" json:"owner_id,omitempty"`
	OwnerName    *string `db:"owner" json:"owner,omitempty"`
	SireID       *string `db:"sire_id" json:"sire_id,omitempty"`
	SireName     *string `db:"sire" json:"sire,omitempty"`
	DamID        *string `db:"dam_id" json:"dam_id,omitempty"`
	DamName      *string `db:"dam" json:"dam,omitempty"`
	DamsireID    *string `db:"damsire_id" json:"damsire_id,omitempty"`
	DamsireName  *string `db:"damsire" json:"damsire,omitempty"`

	// Post-race fields, written by the results fetcher.
	Position     *int             `db:"position" json:"position,omitempty"`
	PositionText *string          `db:"position_text" json:"position_text,omitempty"`
	Btn          *decimal.Decimal `db:"btn" json:"btn,omitempty"`
	OvrBtn       *decimal.Decimal `db:"ovr_btn" json:"ovr_btn,omitempty"`
	SP           *string          `db:"sp" json:"sp,omitempty"`
	SPDec        *decimal.Decimal `db:"sp_dec" json:"sp_dec,omitempty"`
	FinishTime   *string          `db:"time" json:"time,omitempty"`
	PrizeWon     *decimal.Decimal `db:"prize_won" json:"prize_won,omitempty"`
	Comment      *string          `db:"comment" json:"comment,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
