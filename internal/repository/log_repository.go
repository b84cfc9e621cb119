package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
)

// ErrDuplicateToken signals the unique (student_id, client_uuid) constraint
// fired during insert. Callers treat this as "the row already exists" and
// re-query, which is what makes concurrent offline retries safe.
var ErrDuplicateToken = errors.New("duplicate client uuid for student")

const logColumns = `id, client_uuid, student_id, placement_id, log_date, week_number,
activity_description, skills_learned, challenges, latitude, longitude,
distance_from_geofence, location_status, status, synced,
reviewer_id, reviewer_comment, reviewed_at, created_at, updated_at, deleted_at`

// LogRepository handles persistence for daily log rows.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository constructs the repository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Insert persists a new daily log row. A unique-violation on the
// (student_id, client_uuid) index is returned as ErrDuplicateToken.
func (r *LogRepository) Insert(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error) {
	now := time.Now().UTC()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO daily_logs (id, client_uuid, student_id, placement_id, log_date, week_number,
activity_description, skills_learned, challenges, latitude, longitude,
distance_from_geofence, location_status, status, synced, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING %s`, logColumns)

	var stored models.DailyLog
	err := r.db.GetContext(ctx, &stored, query,
		log.ID, log.ClientUUID, log.StudentID, log.PlacementID, log.LogDate, log.WeekNumber,
		log.ActivityDescription, log.SkillsLearned, log.Challenges, log.Latitude, log.Longitude,
		log.DistanceFromFence, log.LocationStatus, log.Status, log.Synced, log.CreatedAt, log.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateToken
		}
		return nil, fmt.Errorf("insert daily log: %w", err)
	}
	return &stored, nil
}

// FindByToken returns the log stored for a (student, client token) pair.
func (r *LogRepository) FindByToken(ctx context.Context, studentID, token string) (*models.DailyLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs
WHERE student_id = $1 AND client_uuid = $2 AND deleted_at IS NULL`, logColumns)
	var log models.DailyLog
	if err := r.db.GetContext(ctx, &log, query, studentID, token); err != nil {
		return nil, err
	}
	return &log, nil
}

// FindByID returns a single non-deleted log.
func (r *LogRepository) FindByID(ctx context.Context, id string) (*models.DailyLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs WHERE id = $1 AND deleted_at IS NULL`, logColumns)
	var log models.DailyLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		return nil, err
	}
	return &log, nil
}

// FindByStudentAndDate returns the log a student recorded for a calendar day.
func (r *LogRepository) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.DailyLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs
WHERE student_id = $1 AND log_date = $2 AND deleted_at IS NULL
ORDER BY created_at LIMIT 1`, logColumns)
	var log models.DailyLog
	if err := r.db.GetContext(ctx, &log, query, studentID, date); err != nil {
		return nil, err
	}
	return &log, nil
}

// List returns daily logs matching the provided filter.
func (r *LogRepository) List(ctx context.Context, filter models.DailyLogFilter) ([]models.DailyLog, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.PlacementID != "" {
		where = append(where, fmt.Sprintf("placement_id = $%d", len(args)+1))
		args = append(args, filter.PlacementID)
	}
	if filter.WeekNumber != nil {
		where = append(where, fmt.Sprintf("week_number = $%d", len(args)+1))
		args = append(args, *filter.WeekNumber)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("log_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("log_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"log_date":    "log_date",
		"week_number": "week_number",
		"created_at":  "created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "log_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM daily_logs WHERE %s
ORDER BY %s %s LIMIT %d OFFSET %d`, logColumns, whereClause, sortColumn, order, size, offset)

	var rows []models.DailyLog
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list daily logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM daily_logs WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count daily logs: %w", err)
	}
	return rows, total, nil
}

// ListByStatus returns a placement's logs in the given review state.
func (r *LogRepository) ListByStatus(ctx context.Context, placementID string, status models.LogStatus, limit int) ([]models.DailyLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs
WHERE placement_id = $1 AND status = $2 AND deleted_at IS NULL
ORDER BY log_date DESC`, logColumns)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	var rows []models.DailyLog
	if err := r.db.SelectContext(ctx, &rows, query, placementID, status); err != nil {
		return nil, fmt.Errorf("list logs by status: %w", err)
	}
	return rows, nil
}

// UpdateContent edits the free-text fields of a log. Lifecycle guards live
// in the service layer; this only touches non-nil fields.
func (r *LogRepository) UpdateContent(ctx context.Context, id string, upd models.LogContentUpdate) (*models.DailyLog, error) {
	set := []string{}
	args := []interface{}{}
	if upd.ActivityDescription != nil {
		set = append(set, fmt.Sprintf("activity_description = $%d", len(args)+1))
		args = append(args, *upd.ActivityDescription)
	}
	if upd.SkillsLearned != nil {
		set = append(set, fmt.Sprintf("skills_learned = $%d", len(args)+1))
		args = append(args, *upd.SkillsLearned)
	}
	if upd.Challenges != nil {
		set = append(set, fmt.Sprintf("challenges = $%d", len(args)+1))
		args = append(args, *upd.Challenges)
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE daily_logs SET %s
WHERE id = $%d AND deleted_at IS NULL RETURNING %s`, strings.Join(set, ", "), len(args), logColumns)

	var stored models.DailyLog
	if err := r.db.GetContext(ctx, &stored, query, args...); err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpdateReview applies a lifecycle transition recorded by a supervisor.
func (r *LogRepository) UpdateReview(ctx context.Context, id string, upd models.ReviewUpdate) (*models.DailyLog, error) {
	query := fmt.Sprintf(`UPDATE daily_logs
SET status = $1, reviewer_id = $2, reviewer_comment = $3, reviewed_at = $4, updated_at = $5
WHERE id = $6 AND deleted_at IS NULL RETURNING %s`, logColumns)

	var stored models.DailyLog
	err := r.db.GetContext(ctx, &stored, query,
		upd.Status, upd.ReviewerID, upd.ReviewerComment, upd.ReviewedAt, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// SoftDelete marks a log as deleted without removing the row.
func (r *LogRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE daily_logs SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`, now, id)
	if err != nil {
		return fmt.Errorf("soft delete daily log: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete daily log: %w", err)
	}
	if affected == 0 {
		return errors.New("daily log not found")
	}
	return nil
}

// ListUnsynced returns server-side rows not yet acknowledged by the client.
func (r *LogRepository) ListUnsynced(ctx context.Context, studentID string) ([]models.DailyLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs
WHERE student_id = $1 AND synced = FALSE AND deleted_at IS NULL
ORDER BY log_date`, logColumns)
	var rows []models.DailyLog
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list unsynced logs: %w", err)
	}
	return rows, nil
}

// MarkSynced flips the synced flag for the given rows and returns the
// number updated. Rows belonging to other students are left untouched.
func (r *LogRepository) MarkSynced(ctx context.Context, studentID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE daily_logs SET synced = TRUE, updated_at = $1 WHERE student_id = $2 AND id = ANY($3) AND deleted_at IS NULL`,
		time.Now().UTC(), studentID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("mark logs synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark logs synced: %w", err)
	}
	return int(affected), nil
}

// CountByWeek returns per-week log counts for a placement.
func (r *LogRepository) CountByWeek(ctx context.Context, placementID string) ([]models.WeekCount, error) {
	query := `SELECT week_number, COUNT(*) AS count FROM daily_logs
WHERE placement_id = $1 AND deleted_at IS NULL
GROUP BY week_number ORDER BY week_number`
	var rows []models.WeekCount
	if err := r.db.SelectContext(ctx, &rows, query, placementID); err != nil {
		return nil, fmt.Errorf("count logs by week: %w", err)
	}
	return rows, nil
}

// CountByStatus returns per-status log counts for a placement.
func (r *LogRepository) CountByStatus(ctx context.Context, placementID string) ([]models.StatusCount, error) {
	query := `SELECT status, COUNT(*) AS count FROM daily_logs
WHERE placement_id = $1 AND deleted_at IS NULL
GROUP BY status`
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, query, placementID); err != nil {
		return nil, fmt.Errorf("count logs by status: %w", err)
	}
	return rows, nil
}
