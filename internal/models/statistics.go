package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies which people table a statistics row belongs to.
type EntityType string

const (
	EntityJockey  EntityType = "jockey"
	EntityTrainer EntityType = "trainer"
	EntityOwner   EntityType = "owner"
)

// EntityStatistics is the per-person aggregate row recomputed by the
// people statistics calculator. WinRate is NULL when Total is zero.
type EntityStatistics struct {
	EntityID   string     `db:"entity_id" json:"entity_id"`
	EntityType EntityType `db:"entity_type" json:"entity_type"`

	Total   int      `db:"total" json:"total"`
	Wins    int      `db:"wins" json:"wins"`
	Places  int      `db:"places" json:"places"`
	Seconds int      `db:"seconds" json:"seconds"`
	Thirds  int      `db:"thirds" json:"thirds"`
	WinRate *float64 `db:"win_rate" json:"win_rate,omitempty"`

	Runs14D    int      `db:"runs_14d" json:"runs_14d"`
	Wins14D    int      `db:"wins_14d" json:"wins_14d"`
	WinRate14D *float64 `db:"win_rate_14d" json:"win_rate_14d,omitempty"`
	Runs30D    int      `db:"runs_30d" json:"runs_30d"`
	Wins30D    int      `db:"wins_30d" json:"wins_30d"`
	WinRate30D *float64 `db:"win_rate_30d" json:"win_rate_30d,omitempty"`

	LastRunDate      *time.Time `db:"last_run_date" json:"last_run_date,omitempty"`
	LastWinDate      *time.Time `db:"last_win_date" json:"last_win_date,omitempty"`
	DaysSinceLastRun *int       `db:"days_since_last_run" json:"days_since_last_run,omitempty"`
	DaysSinceLastWin *int       `db:"days_since_last_win" json:"days_since_last_win,omitempty"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RunnerStatistics is derived per runner from that horse's runs strictly
// before the runner's race date.
type RunnerStatistics struct {
	RaceID   string    `db:"race_id" json:"race_id"`
	HorseID  string    `db:"horse_id" json:"horse_id"`
	RaceDate time.Time `db:"race_date" json:"race_date"`

	CareerRuns   int `db:"career_runs" json:"career_runs"`
	CareerWins   int `db:"career_wins" json:"career_wins"`
	CareerPlaces int `db:"career_places" json:"career_places"`

	RunsLast90D      int      `db:"runs_last_90d" json:"runs_last_90d"`
	WinsLast5        int      `db:"wins_last_5" json:"wins_last_5"`
	PlacesLast5      int      `db:"places_last_5" json:"places_last_5"`
	AvgPositionLast5 *float64 `db:"avg_position_last_5" json:"avg_position_last_5,omitempty"`
	LastPosition     *int     `db:"last_position" json:"last_position,omitempty"`
	DaysSinceLastRun *int     `db:"days_since_last_run" json:"days_since_last_run,omitempty"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EntityCombination aggregates joint jockey-trainer outcomes.
type EntityCombination struct {
	JockeyID  string    `db:"jockey_id" json:"jockey_id"`
	TrainerID string    `db:"trainer_id" json:"trainer_id"`
	Runs      int       `db:"runs" json:"runs"`
	Wins      int       `db:"wins" json:"wins"`
	Places    int       `db:"places" json:"places"`
	WinRate   *float64  `db:"win_rate" json:"win_rate,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PerformanceByDistance is a specialist row keyed by entity and
// distance band.
type PerformanceByDistance struct {
	EntityID     string     `db:"entity_id" json:"entity_id"`
	EntityType   EntityType `db:"entity_type" json:"entity_type"`
	DistanceBand string     `db:"distance_band" json:"distance_band"`
	Runs         int        `db:"runs" json:"runs"`
	Wins         int        `db:"wins" json:"wins"`
	Places       int        `db:"places" json:"places"`
	WinRate      *float64   `db:"win_rate" json:"win_rate,omitempty"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// PerformanceByVenue is a specialist row keyed by entity and course.
type PerformanceByVenue struct {
	EntityID   string     `db:"entity_id" json:"entity_id"`
	EntityType EntityType `db:"entity_type" json:"entity_type"`
	CourseID   string     `db:"course_id" json:"course_id"`
	Runs       int        `db:"runs" json:"runs"`
	Wins       int        `db:"wins" json:"wins"`
	Places     int        `db:"places" json:"places"`
	WinRate    *float64   `db:"win_rate" json:"win_rate,omitempty"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// ProgenyRun is one result row for an ancestor's offspring, the input
// shape for the pedigree calculator.
type ProgenyRun struct {
	HorseID      string           `db:"horse_id"`
	RaceClass    *string          `db:"race_class"`
	DistanceBand *string          `db:"distance_band"`
	Position     *int             `db:"position"`
	PositionText *string          `db:"position_text"`
	PrizeWon     *decimal.Decimal `db:"prize_won"`
}

// Distance band boundaries in metres. A furlong is ~201m; the bands
// are sprint (up to 7f), mile (to 9f), middle (to 12f), staying.
const (
	sprintMaxM = 1408
	mileMaxM   = 1810
	middleMaxM = 2414
)

// DistanceBand buckets a race distance in metres into a named band, or
// returns nil when the distance is unknown.
func DistanceBand(distanceM *int) *string {
	if distanceM == nil || *distanceM <= 0 {
		return nil
	}
	var band string
	switch {
	case *distanceM <= sprintMaxM:
		band = "sprint"
	case *distanceM <= mileMaxM:
		band = "mile"
	case *distanceM <= middleMaxM:
		band = "middle"
	default:
		band = "staying"
	}
	return &band
}

// WinRate returns wins/total as a percentage rounded to two decimals,
// or nil when total is zero.
func WinRate(wins, total int) *float64 {
	if total == 0 {
		return nil
	}
	r := math.Round(float64(wins)*100/float64(total)*100) / 100
	return &r
}

// DataQualityScore maps a sample size onto [0,1]:
// min(1, log10(1+runs)/3).
func DataQualityScore(totalRuns int) float64 {
	return math.Min(1, math.Log10(1+float64(totalRuns))/3)
}
