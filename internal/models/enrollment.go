package models

import "time"

// Enrollment records a student's participation in the SIWES program at a
// placement. The enrollment, not the placement, owns the authoritative
// program start date used for week bucketing.
type Enrollment struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	PlacementID string    `db:"placement_id" json:"placement_id"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
