package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
	"github.com/noah-isme/siwes-logbook-api/internal/repository"
	appErrors "github.com/noah-isme/siwes-logbook-api/pkg/errors"
)

type logRepository interface {
	Insert(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error)
	FindByToken(ctx context.Context, studentID, token string) (*models.DailyLog, error)
	FindByID(ctx context.Context, id string) (*models.DailyLog, error)
	FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.DailyLog, error)
	List(ctx context.Context, filter models.DailyLogFilter) ([]models.DailyLog, int, error)
	UpdateContent(ctx context.Context, id string, upd models.LogContentUpdate) (*models.DailyLog, error)
	SoftDelete(ctx context.Context, id string) error
	CountByWeek(ctx context.Context, placementID string) ([]models.WeekCount, error)
}

type placementReader interface {
	GetWithGeofence(ctx context.Context, id string) (*models.PlacementDetail, error)
}

type enrollmentReader interface {
	FindByStudentAndPlacement(ctx context.Context, studentID, placementID string) (*models.Enrollment, error)
}

// LogService orchestrates creation and retrieval of daily logs: idempotency
// by client token, coordinate validation, week bucketing, and geofence
// classification.
type LogService struct {
	logs         logRepository
	placements   placementReader
	enrollments  enrollmentReader
	geofence     *GeofenceService
	validator    *validator.Validate
	logger       *zap.Logger
	programWeeks int
}

// NewLogService constructs the log service.
func NewLogService(logs logRepository, placements placementReader, enrollments enrollmentReader, geofence *GeofenceService, validate *validator.Validate, logger *zap.Logger, programWeeks int) *LogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if geofence == nil {
		geofence = NewGeofenceService()
	}
	if programWeeks <= 0 {
		programWeeks = DefaultProgramWeeks
	}
	return &LogService{
		logs:         logs,
		placements:   placements,
		enrollments:  enrollments,
		geofence:     geofence,
		validator:    validate,
		logger:       logger,
		programWeeks: programWeeks,
	}
}

// CreateLogRequest describes the payload for creating a daily log.
type CreateLogRequest struct {
	PlacementID         string   `json:"placement_id" validate:"required"`
	LogDate             string   `json:"log_date" validate:"required"`
	ActivityDescription string   `json:"activity_description" validate:"required"`
	SkillsLearned       *string  `json:"skills_learned"`
	Challenges          *string  `json:"challenges"`
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
	ClientUUID          *string  `json:"client_uuid"`
}

// CreateLog accepts a candidate daily log and persists it in pending
// status. A request replayed with a client token that already produced a
// row returns that row unchanged; retried offline submissions are no-ops,
// not errors.
func (s *LogService) CreateLog(ctx context.Context, studentID string, req CreateLogRequest) (*models.DailyLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	logDate, err := time.Parse("2006-01-02", req.LogDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid log date, expected YYYY-MM-DD")
	}

	if req.ClientUUID != nil && *req.ClientUUID != "" {
		existing, err := s.logs.FindByToken(ctx, studentID, *req.ClientUUID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check sync token")
		}
	}

	placement, err := s.placements.GetWithGeofence(ctx, req.PlacementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrPlacementNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}

	hasCoords := req.Latitude != nil && req.Longitude != nil
	if hasCoords && !s.geofence.ValidateCoordinates(*req.Latitude, *req.Longitude) {
		return nil, appErrors.ErrInvalidCoordinate
	}

	enrollment, err := s.enrollments.FindByStudentAndPlacement(ctx, studentID, req.PlacementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found for student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	week := WeekNumber(logDate, enrollment.StartDate)
	if week < 1 || week > s.programWeeks {
		return nil, appErrors.Clone(appErrors.ErrOutOfProgramRange,
			fmt.Sprintf("log date falls in week %d, outside the %d-week SIWES period", week, s.programWeeks))
	}

	locationStatus := models.LocationUnknown
	var distance *float64
	if hasCoords {
		locationStatus = s.geofence.Classify(*req.Latitude, *req.Longitude, placement.Geofence)
		if locationStatus != models.LocationUnknown {
			d, _ := s.geofence.DistanceFromGeofence(*req.Latitude, *req.Longitude, placement.Geofence)
			distance = &d
		}
	}

	// One-entry-per-day is a soft policy: warn, don't reject.
	if existing, err := s.logs.FindByStudentAndDate(ctx, studentID, logDate); err == nil && existing != nil {
		s.logger.Warn("duplicate log for calendar day",
			zap.String("student_id", studentID),
			zap.String("log_date", req.LogDate),
			zap.String("existing_id", existing.ID))
	}

	entry := &models.DailyLog{
		ClientUUID:          req.ClientUUID,
		StudentID:           studentID,
		PlacementID:         req.PlacementID,
		LogDate:             logDate,
		WeekNumber:          week,
		ActivityDescription: req.ActivityDescription,
		SkillsLearned:       req.SkillsLearned,
		Challenges:          req.Challenges,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		DistanceFromFence:   distance,
		LocationStatus:      locationStatus,
		Status:              models.LogStatusPending,
		Synced:              req.ClientUUID == nil || *req.ClientUUID == "",
	}

	stored, err := s.logs.Insert(ctx, entry)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateToken) && req.ClientUUID != nil {
			// Lost the race against a concurrent retry; the winner's
			// row is the answer.
			winner, findErr := s.logs.FindByToken(ctx, studentID, *req.ClientUUID)
			if findErr != nil {
				return nil, appErrors.Wrap(findErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve duplicate sync token")
			}
			return winner, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create log")
	}
	return stored, nil
}

// StudentLogs returns a student's logs, newest first.
func (s *LogService) StudentLogs(ctx context.Context, studentID string, filter models.DailyLogFilter) ([]models.DailyLog, *models.Pagination, error) {
	filter.StudentID = studentID
	rows, total, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list logs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// LogsByWeek returns a placement's logs for one program week.
func (s *LogService) LogsByWeek(ctx context.Context, placementID string, week int) ([]models.DailyLog, error) {
	if week < 1 || week > s.programWeeks {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("week number must be between 1 and %d", s.programWeeks))
	}
	rows, _, err := s.logs.List(ctx, models.DailyLogFilter{PlacementID: placementID, WeekNumber: &week, SortOrder: "ASC"})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list week logs")
	}
	return rows, nil
}

// GetLog returns a single log by id.
func (s *LogService) GetLog(ctx context.Context, id string) (*models.DailyLog, error) {
	log, err := s.logs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log")
	}
	return log, nil
}

// UpdateLogRequest carries editable content fields.
type UpdateLogRequest struct {
	ActivityDescription *string `json:"activity_description"`
	SkillsLearned       *string `json:"skills_learned"`
	Challenges          *string `json:"challenges"`
}

// UpdateLog edits a log's content. Verified logs are immutable; flagged
// logs keep their submitted content as well.
func (s *LogService) UpdateLog(ctx context.Context, id, studentID string, req UpdateLogRequest) (*models.DailyLog, error) {
	log, err := s.GetLog(ctx, id)
	if err != nil {
		return nil, err
	}
	if log.StudentID != studentID {
		return nil, appErrors.ErrForbidden
	}
	if log.Status == models.LogStatusVerified {
		return nil, appErrors.Clone(appErrors.ErrAlreadyVerified, "cannot update a verified log")
	}
	updated, err := s.logs.UpdateContent(ctx, id, models.LogContentUpdate{
		ActivityDescription: req.ActivityDescription,
		SkillsLearned:       req.SkillsLearned,
		Challenges:          req.Challenges,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update log")
	}
	return updated, nil
}

// DeleteLog soft-deletes a log. Verified logs cannot be deleted.
func (s *LogService) DeleteLog(ctx context.Context, id, studentID string) error {
	log, err := s.GetLog(ctx, id)
	if err != nil {
		return err
	}
	if log.StudentID != studentID {
		return appErrors.ErrForbidden
	}
	if log.Status == models.LogStatusVerified {
		return appErrors.Clone(appErrors.ErrAlreadyVerified, "cannot delete a verified log")
	}
	if err := s.logs.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete log")
	}
	return nil
}

// WeekSummary maps each program week to its log count for a placement.
func (s *LogService) WeekSummary(ctx context.Context, placementID string) (map[int]int, error) {
	counts, err := s.logs.CountByWeek(ctx, placementID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise weeks")
	}
	summary := make(map[int]int, len(counts))
	for _, c := range counts {
		summary[c.WeekNumber] = c.Count
	}
	return summary, nil
}
