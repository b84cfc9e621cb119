package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
	"github.com/noah-isme/siwes-logbook-api/internal/repository"
	appErrors "github.com/noah-isme/siwes-logbook-api/pkg/errors"
)

type logRepoStub struct {
	rows        map[string]*models.DailyLog
	insertErr   error
	insertCalls int
}

func newLogRepoStub() *logRepoStub {
	return &logRepoStub{rows: map[string]*models.DailyLog{}}
}

func (r *logRepoStub) Insert(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error) {
	r.insertCalls++
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	stored := *log
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.rows[stored.ID] = &stored
	return &stored, nil
}

func (r *logRepoStub) FindByToken(ctx context.Context, studentID, token string) (*models.DailyLog, error) {
	for _, row := range r.rows {
		if row.StudentID == studentID && row.ClientUUID != nil && *row.ClientUUID == token {
			return row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *logRepoStub) FindByID(ctx context.Context, id string) (*models.DailyLog, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return row, nil
}

func (r *logRepoStub) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.DailyLog, error) {
	for _, row := range r.rows {
		if row.StudentID == studentID && row.LogDate.Equal(date) {
			return row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *logRepoStub) List(ctx context.Context, filter models.DailyLogFilter) ([]models.DailyLog, int, error) {
	var out []models.DailyLog
	for _, row := range r.rows {
		if filter.StudentID != "" && row.StudentID != filter.StudentID {
			continue
		}
		if filter.PlacementID != "" && row.PlacementID != filter.PlacementID {
			continue
		}
		if filter.WeekNumber != nil && row.WeekNumber != *filter.WeekNumber {
			continue
		}
		out = append(out, *row)
	}
	return out, len(out), nil
}

func (r *logRepoStub) UpdateContent(ctx context.Context, id string, upd models.LogContentUpdate) (*models.DailyLog, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if upd.ActivityDescription != nil {
		row.ActivityDescription = *upd.ActivityDescription
	}
	if upd.SkillsLearned != nil {
		row.SkillsLearned = upd.SkillsLearned
	}
	if upd.Challenges != nil {
		row.Challenges = upd.Challenges
	}
	return row, nil
}

func (r *logRepoStub) SoftDelete(ctx context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

func (r *logRepoStub) CountByWeek(ctx context.Context, placementID string) ([]models.WeekCount, error) {
	counts := map[int]int{}
	for _, row := range r.rows {
		if row.PlacementID == placementID {
			counts[row.WeekNumber]++
		}
	}
	var out []models.WeekCount
	for week, count := range counts {
		out = append(out, models.WeekCount{WeekNumber: week, Count: count})
	}
	return out, nil
}

type placementStub struct {
	detail *models.PlacementDetail
	err    error
}

func (p placementStub) GetWithGeofence(ctx context.Context, id string) (*models.PlacementDetail, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.detail, nil
}

type enrollmentStub struct {
	enrollment *models.Enrollment
	err        error
}

func (e enrollmentStub) FindByStudentAndPlacement(ctx context.Context, studentID, placementID string) (*models.Enrollment, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.enrollment, nil
}

func newLogServiceForTest(t *testing.T, repo *logRepoStub) *LogService {
	t.Helper()
	start := time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
	placement := placementStub{detail: &models.PlacementDetail{
		Placement: models.Placement{ID: "placement-1", CompanyName: "Acme Engineering"},
		Geofence:  &models.Geofence{Latitude: 6.5244, Longitude: 3.3792, RadiusMeters: 500},
	}}
	enrollment := enrollmentStub{enrollment: &models.Enrollment{
		ID: "enroll-1", StudentID: "student-1", PlacementID: "placement-1", StartDate: start,
	}}
	return NewLogService(repo, placement, enrollment, NewGeofenceService(), nil, zap.NewNop(), DefaultProgramWeeks)
}

func validCreateRequest() CreateLogRequest {
	lat, lon := 6.5253, 3.3792
	token := "0b9c6a52-5c4f-4d89-9f1e-1f3a2b4c5d6e"
	return CreateLogRequest{
		PlacementID:         "placement-1",
		LogDate:             "2024-01-15",
		ActivityDescription: "Calibrated flow meters on line 2",
		Latitude:            &lat,
		Longitude:           &lon,
		ClientUUID:          &token,
	}
}

func TestCreateLogHappyPath(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)

	log, err := svc.CreateLog(context.Background(), "student-1", validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, models.LogStatusPending, log.Status)
	assert.Equal(t, models.LocationWithin, log.LocationStatus)
	assert.Equal(t, 2, log.WeekNumber)
	require.NotNil(t, log.DistanceFromFence)
	assert.InDelta(t, 100, *log.DistanceFromFence, 5)
	assert.False(t, log.Synced)
}

func TestCreateLogSameDayDuplicateAccepted(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)

	first, err := svc.CreateLog(context.Background(), "student-1", validCreateRequest())
	require.NoError(t, err)

	// A second entry for the same calendar day with its own token is a
	// warning, not a rejection.
	req := validCreateRequest()
	token := "4f2d8c1a-7b3e-4a6f-9c0d-2e5b8a1f3c7d"
	req.ClientUUID = &token
	req.ActivityDescription = "Afternoon shift: valve maintenance"

	second, err := svc.CreateLog(context.Background(), "student-1", req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, repo.insertCalls)
	assert.Len(t, repo.rows, 2)
}

func TestCreateLogIdempotentReplay(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)
	req := validCreateRequest()

	first, err := svc.CreateLog(context.Background(), "student-1", req)
	require.NoError(t, err)

	second, err := svc.CreateLog(context.Background(), "student-1", req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.insertCalls, "replay must not insert a second row")
}

func TestCreateLogDuplicateTokenRace(t *testing.T) {
	req := validCreateRequest()
	winner := &models.DailyLog{
		ID:         "winner-id",
		StudentID:  "student-1",
		ClientUUID: req.ClientUUID,
		Status:     models.LogStatusPending,
	}
	raceRepo := &racingLogRepo{logRepoStub: newLogRepoStub(), winner: winner}

	start := time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
	svc := NewLogService(raceRepo, placementStub{detail: &models.PlacementDetail{
		Placement: models.Placement{ID: "placement-1"},
		Geofence:  &models.Geofence{Latitude: 6.5244, Longitude: 3.3792, RadiusMeters: 500},
	}}, enrollmentStub{enrollment: &models.Enrollment{
		StudentID: "student-1", PlacementID: "placement-1", StartDate: start,
	}}, NewGeofenceService(), nil, zap.NewNop(), DefaultProgramWeeks)

	log, err := svc.CreateLog(context.Background(), "student-1", req)
	require.NoError(t, err)
	assert.Equal(t, "winner-id", log.ID)
}

// racingLogRepo simulates a concurrent retry: the token is absent during the
// pre-check but the insert hits the unique constraint, after which the
// winner's row is visible.
type racingLogRepo struct {
	*logRepoStub
	winner    *models.DailyLog
	tokenSeen bool
}

func (r *racingLogRepo) FindByToken(ctx context.Context, studentID, token string) (*models.DailyLog, error) {
	if !r.tokenSeen {
		r.tokenSeen = true
		return nil, sql.ErrNoRows
	}
	return r.winner, nil
}

func (r *racingLogRepo) Insert(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error) {
	return nil, repository.ErrDuplicateToken
}

func TestCreateLogPlacementNotFound(t *testing.T) {
	repo := newLogRepoStub()
	svc := NewLogService(repo, placementStub{err: sql.ErrNoRows}, enrollmentStub{}, NewGeofenceService(), nil, zap.NewNop(), DefaultProgramWeeks)

	req := validCreateRequest()
	req.ClientUUID = nil
	_, err := svc.CreateLog(context.Background(), "student-1", req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrPlacementNotFound.Code, appErr.Code)
}

func TestCreateLogInvalidCoordinates(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)

	req := validCreateRequest()
	lat := 91.0
	req.Latitude = &lat

	_, err := svc.CreateLog(context.Background(), "student-1", req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInvalidCoordinate.Code, appErr.Code)
	assert.Zero(t, repo.insertCalls)
}

func TestCreateLogMissingCoordinatesIsUnknown(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)

	req := validCreateRequest()
	req.Latitude = nil
	req.Longitude = nil

	log, err := svc.CreateLog(context.Background(), "student-1", req)
	require.NoError(t, err)
	assert.Equal(t, models.LocationUnknown, log.LocationStatus)
	assert.Nil(t, log.DistanceFromFence)
}

func TestCreateLogOutsideProgramRange(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)

	cases := map[string]string{
		"before program start": "2024-01-01",
		"after week 25":        "2024-07-15",
	}
	for name, date := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCreateRequest()
			req.LogDate = date
			req.ClientUUID = nil

			_, err := svc.CreateLog(context.Background(), "student-1", req)
			require.Error(t, err)

			appErr := appErrors.FromError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, appErrors.ErrOutOfProgramRange.Code, appErr.Code)
		})
	}
}

func TestUpdateLogVerifiedIsImmutable(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)

	log, err := svc.CreateLog(context.Background(), "student-1", validCreateRequest())
	require.NoError(t, err)
	repo.rows[log.ID].Status = models.LogStatusVerified

	desc := "rewritten after the fact"
	_, err = svc.UpdateLog(context.Background(), log.ID, "student-1", UpdateLogRequest{ActivityDescription: &desc})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrAlreadyVerified.Code, appErr.Code)
}

func TestUpdateLogOwnership(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)

	log, err := svc.CreateLog(context.Background(), "student-1", validCreateRequest())
	require.NoError(t, err)

	desc := "someone else's edit"
	_, err = svc.UpdateLog(context.Background(), log.ID, "student-2", UpdateLogRequest{ActivityDescription: &desc})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestDeleteLogVerifiedIsImmutable(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)

	log, err := svc.CreateLog(context.Background(), "student-1", validCreateRequest())
	require.NoError(t, err)
	repo.rows[log.ID].Status = models.LogStatusVerified

	err = svc.DeleteLog(context.Background(), log.ID, "student-1")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrAlreadyVerified.Code, appErr.Code)
}

func TestLogsByWeekRejectsOutOfRange(t *testing.T) {
	repo := newLogRepoStub()
	svc := newLogServiceForTest(t, repo)

	_, err := svc.LogsByWeek(context.Background(), "placement-1", 0)
	assert.Error(t, err)

	_, err = svc.LogsByWeek(context.Background(), "placement-1", 26)
	assert.Error(t, err)
}
