package models

import "time"

// Rank represents a managed taxi rank.
type Rank struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	City      string    `db:"city" json:"city"`
	Province  string    `db:"province" json:"province"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RankRef is the compact rank representation embedded in user detail views.
type RankRef struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
	City string `db:"city" json:"city"`
}
