package models

import "time"

// Jockey is a person entity identified by the provider's opaque ID.
type Jockey struct {
	ID        string    `db:"id" json:"id" validate:"required"`
	Name      string    `db:"name" json:"name" validate:"required"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Trainer carries a location string that only the racecard endpoint exposes.
type Trainer struct {
	ID        string    `db:"id" json:"id" validate:"required"`
	Name      string    `db:"name" json:"name" validate:"required"`
	Location  *string   `db:"location" json:"location,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Owner is a person entity identified by the provider's opaque ID.
type Owner struct {
	ID        string    `db:"id" json:"id" validate:"required"`
	Name      string    `db:"name" json:"name" validate:"required"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
