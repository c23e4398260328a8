package models

import (
	"time"
)

/*
RunReport records the outcome of one index regeneration run.
*/
type RunReport struct {
	ID        uint      `db:"id" json:"-"`
	StartedAt time.Time `db:"started_at" json:"startedAt"`
	Trigger   string    `db:"triggered_by" json:"trigger"`
	Scanned   int       `db:"scanned" json:"scanned"`
	Valid     int       `db:"valid" json:"valid"`
	Rejected  int       `db:"rejected" json:"rejected"`
	Covers    int       `db:"covers" json:"coversSelected"`
	Changed   bool      `db:"changed" json:"changed"`
	Success   bool      `db:"success" json:"success"`
	Message   string    `db:"message" json:"message"`
}
