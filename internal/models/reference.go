package models

import "time"

// Course represents a racecourse as supplied by the reference endpoint.
// IDs are opaque strings owned by the API provider (e.g. "crs_00123").
type Course struct {
	ID         string   `db:"id" json:"id" validate:"required"`
	Name       string   `db:"name" json:"course" validate:"required"`
	RegionCode string   `db:"region_code" json:"region_code"`
	Region     string   `db:"region" json:"region"`
	Latitude   *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude  *float64 `db:"longitude" json:"longitude,omitempty"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Bookmaker represents a bookmaker reference row.
type Bookmaker struct {
	ID        string    `db:"id" json:"id" validate:"required"`
	Name      string    `db:"name" json:"name" validate:"required"`
	Code      string    `db:"code" json:"code"`
	Type      string    `db:"type" json:"type"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Region represents a two-letter racing region (gb, ire, fr, ...).
type Region struct {
	Code string `db:"code" json:"code" validate:"required,len=2|len=3"`
	Name string `db:"name" json:"name" validate:"required"`
}

// CoveredRegions are the regions every transactional query is filtered to.
var CoveredRegions = []string{"gb", "ire"}
