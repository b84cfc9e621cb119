package models

import "time"

// LogStatus tracks the review lifecycle of a daily log.
// Once a log reaches verified it is immutable; flagged logs may return to
// pending via unflag but their content is not re-edited.
type LogStatus string

const (
	LogStatusPending  LogStatus = "pending_review"
	LogStatusVerified LogStatus = "verified"
	LogStatusFlagged  LogStatus = "flagged"
)

// Valid returns true when the status is a supported value.
func (s LogStatus) Valid() bool {
	switch s {
	case LogStatusPending, LogStatusVerified, LogStatusFlagged:
		return true
	default:
		return false
	}
}

// LocationStatus is the geofence classification of a log's submission point.
type LocationStatus string

const (
	LocationWithin  LocationStatus = "within"
	LocationOutside LocationStatus = "outside"
	LocationUnknown LocationStatus = "unknown"
)

// Valid returns true when the status is a supported value.
func (s LocationStatus) Valid() bool {
	switch s {
	case LocationWithin, LocationOutside, LocationUnknown:
		return true
	default:
		return false
	}
}

// DailyLog is a single day's activity record within the 25-week SIWES
// period. ClientUUID carries the client-generated idempotency token for
// offline sync; the (student_id, client_uuid) pair is unique at the
// database level.
type DailyLog struct {
	ID                  string         `db:"id" json:"id"`
	ClientUUID          *string        `db:"client_uuid" json:"client_uuid,omitempty"`
	StudentID           string         `db:"student_id" json:"student_id"`
	PlacementID         string         `db:"placement_id" json:"placement_id"`
	LogDate             time.Time      `db:"log_date" json:"log_date"`
	WeekNumber          int            `db:"week_number" json:"week_number"`
	ActivityDescription string         `db:"activity_description" json:"activity_description"`
	SkillsLearned       *string        `db:"skills_learned" json:"skills_learned,omitempty"`
	Challenges          *string        `db:"challenges" json:"challenges,omitempty"`
	Latitude            *float64       `db:"latitude" json:"latitude,omitempty"`
	Longitude           *float64       `db:"longitude" json:"longitude,omitempty"`
	DistanceFromFence   *float64       `db:"distance_from_geofence" json:"distance_from_geofence,omitempty"`
	LocationStatus      LocationStatus `db:"location_status" json:"location_status"`
	Status              LogStatus      `db:"status" json:"status"`
	Synced              bool           `db:"synced" json:"synced"`
	ReviewerID          *string        `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewerComment     *string        `db:"reviewer_comment" json:"reviewer_comment,omitempty"`
	ReviewedAt          *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt           *time.Time     `db:"deleted_at" json:"-"`
}

// DailyLogFilter defines query filters for listing logs.
type DailyLogFilter struct {
	StudentID   string
	PlacementID string
	WeekNumber  *int
	Status      *LogStatus
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// LogContentUpdate carries the editable fields of a pending or flagged log.
type LogContentUpdate struct {
	ActivityDescription *string
	SkillsLearned       *string
	Challenges          *string
}

// ReviewUpdate carries a lifecycle transition applied by a supervisor.
type ReviewUpdate struct {
	Status          LogStatus
	ReviewerID      string
	ReviewerComment *string
	ReviewedAt      time.Time
}

// WeekCount pairs a program week with the number of logs recorded in it.
type WeekCount struct {
	WeekNumber int `db:"week_number" json:"week_number"`
	Count      int `db:"count" json:"count"`
}

// ReviewStatistics summarises review progress for a placement.
type ReviewStatistics struct {
	TotalLogs  int     `json:"total_logs"`
	Pending    int     `json:"pending"`
	Verified   int     `json:"verified"`
	Flagged    int     `json:"flagged"`
	ReviewRate float64 `json:"review_rate"`
}

// StatusCount pairs a review status with its row count.
type StatusCount struct {
	Status LogStatus `db:"status" json:"status"`
	Count  int       `db:"count" json:"count"`
}
