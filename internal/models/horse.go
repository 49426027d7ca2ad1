package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Horse represents a horse row. Base fields come from the racecard
// document; DOB, sex code, colour and breeder arrive via enrichment.
type Horse struct {
	ID        string     `db:"id" json:"id" validate:"required"`
	Name      string     `db:"name" json:"name" validate:"required"`
	Sex       *string    `db:"sex" json:"sex,omitempty"`
	SexCode   *string    `db:"sex_code" json:"sex_code,omitempty"`
	DOB       *time.Time `db:"dob" json:"dob,omitempty"`
	Colour    *string    `db:"colour" json:"colour,omitempty"`
	Region    *string    `db:"region" json:"region,omitempty"`
	SireID    *string    `db:"sire_id" json:"sire_id,omitempty"`
	DamID     *string    `db:"dam_id" json:"dam_id,omitempty"`
	DamsireID *string    `db:"damsire_id" json:"damsire_id,omitempty"`
	Enriched  bool       `db:"enriched" json:"enriched"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// HorsePedigree is the canonical pedigree record: at most one row per
// horse. Runner rows carry denormalised copies written from the same
// batch; this table is the source of truth.
type HorsePedigree struct {
	HorseID     string  `db:"horse_id" json:"horse_id" validate:"required"`
	SireID      *string `db:"sire_id" json:"sire_id,omitempty"`
	SireName    *string `db:"sire" json:"sire,omitempty"`
	DamID       *string `db:"dam_id" json:"dam_id,omitempty"`
	DamName     *string `db:"dam" json:"dam,omitempty"`
	DamsireID   *string `db:"damsire_id" json:"damsire_id,omitempty"`
	DamsireName *string `db:"damsire" json:"damsire,omitempty"`
	Breeder     *string `db:"breeder" json:"breeder,omitempty"`
	Region      *string `db:"region" json:"region,omitempty"`
}

// HasAnyID reports whether at least one pedigree ID is known. A pedigree
// row with no IDs at all is never persisted.
func (p *HorsePedigree) HasAnyID() bool {
	return p.SireID != nil || p.DamID != nil || p.DamsireID != nil
}

// Ancestor is a sire, dam or damsire row. HorseID back-references the
// ancestor's own horse row when it raced in covered regions; foreign
// stallions legitimately have none. The Progeny* block is maintained by
// the pedigree statistics calculator.
type Ancestor struct {
	ID      string  `db:"id" json:"id" validate:"required"`
	Name    string  `db:"name" json:"name"`
	Region  *string `db:"region" json:"region,omitempty"`
	HorseID *string `db:"horse_id" json:"horse_id,omitempty"`

	ProgenyCount    int              `db:"progeny_count" json:"progeny_count"`
	ProgenyRuns     int              `db:"progeny_runs" json:"progeny_runs"`
	ProgenyWins     int              `db:"progeny_wins" json:"progeny_wins"`
	ProgenyPlaces   int              `db:"progeny_places" json:"progeny_places"`
	ProgenyEarnings decimal.Decimal  `db:"progeny_earnings" json:"progeny_earnings"`
	BestClass       *string          `db:"best_class" json:"best_class,omitempty"`
	BestDistance    *string          `db:"best_distance" json:"best_distance,omitempty"`
	ClassBreakdown  []BreakdownEntry `db:"class_breakdown" json:"class_breakdown,omitempty"`
	DistBreakdown   []BreakdownEntry `db:"distance_breakdown" json:"distance_breakdown,omitempty"`
	DataQuality     *float64         `db:"data_quality_score" json:"data_quality_score,omitempty"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BreakdownEntry is one class or distance line in an ancestor's progeny
// performance breakdown (top three kept).
type BreakdownEntry struct {
	Name       string   `json:"name"`
	Runners    int      `json:"runners"`
	Wins       int      `json:"wins"`
	WinPercent *float64 `json:"win_percent,omitempty"`
}

// AncestorRole distinguishes the three ancestor tables.
type AncestorRole string

const (
	RoleSire    AncestorRole = "sire"
	RoleDam     AncestorRole = "dam"
	RoleDamsire AncestorRole = "damsire"
)
