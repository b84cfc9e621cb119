package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
	"github.com/noah-isme/siwes-logbook-api/internal/repository"
	"github.com/noah-isme/siwes-logbook-api/pkg/jobs"
	"github.com/noah-isme/siwes-logbook-api/pkg/storage"
)

type exportJobStoreStub struct {
	jobs map[string]*models.ExportJob
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (s *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	s.jobs[job.ID] = job
	return nil
}

func (s *exportJobStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return job, nil
}

func (s *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return errors.New("not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultPath != nil {
		job.ResultPath = params.ResultPath
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

type exportLogsStub struct {
	rows []models.DailyLog
	err  error
}

func (s exportLogsStub) List(ctx context.Context, filter models.DailyLogFilter) ([]models.DailyLog, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.rows, len(s.rows), nil
}

type exportQueueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *exportQueueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func sampleLogs() []models.DailyLog {
	skills := "valve sizing"
	return []models.DailyLog{
		{
			LogDate:             time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			WeekNumber:          2,
			ActivityDescription: "Calibrated flow meters",
			SkillsLearned:       &skills,
			LocationStatus:      models.LocationWithin,
			Status:              models.LogStatusVerified,
		},
		{
			LogDate:             time.Date(2024, time.January, 16, 0, 0, 0, 0, time.UTC),
			WeekNumber:          2,
			ActivityDescription: "Shadowed maintenance crew",
			LocationStatus:      models.LocationUnknown,
			Status:              models.LogStatusPending,
		},
	}
}

func newExportServiceForTest(t *testing.T, logs exportLogsStub) (*ExportService, *exportJobStoreStub, *exportQueueStub) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	repo := newExportJobStoreStub()
	queue := &exportQueueStub{}
	svc := NewExportService(repo, logs, store, signer, zap.NewNop())
	svc.SetQueue(queue)
	return svc, repo, queue
}

func TestCreateExportJob(t *testing.T) {
	svc, repo, queue := newExportServiceForTest(t, exportLogsStub{rows: sampleLogs()})

	resp, err := svc.CreateJob(context.Background(), ExportRequest{
		PlacementID: "placement-1",
		Format:      models.ExportFormatCSV,
	}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)

	stored := repo.jobs[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "student-1", stored.Params.StudentID, "students export their own logbook")
}

func TestCreateExportJobInvalidFormat(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t, exportLogsStub{})

	_, err := svc.CreateJob(context.Background(), ExportRequest{
		Format: models.ExportFormat("xlsx"),
	}, "student-1", models.RoleStudent)
	assert.Error(t, err)
}

func TestCreateExportJobEnqueueFailureMarksFailed(t *testing.T) {
	svc, repo, queue := newExportServiceForTest(t, exportLogsStub{})
	queue.err = errors.New("queue full")

	_, err := svc.CreateJob(context.Background(), ExportRequest{
		Format: models.ExportFormatCSV,
	}, "student-1", models.RoleStudent)
	require.Error(t, err)

	for _, job := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestProcessRendersCSV(t *testing.T) {
	svc, repo, queue := newExportServiceForTest(t, exportLogsStub{rows: sampleLogs()})

	resp, err := svc.CreateJob(context.Background(), ExportRequest{
		Format: models.ExportFormatCSV,
	}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), queue.jobs[0]))

	job := repo.jobs[resp.ID]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	require.NotNil(t, job.ResultPath)
	require.NotNil(t, job.FinishedAt)

	status, err := svc.Status(context.Background(), resp.ID, "student-1", models.RoleStudent)
	require.NoError(t, err)
	require.NotNil(t, status.DownloadURL)
	assert.Contains(t, *status.DownloadURL, "token=")

	token := (*status.DownloadURL)[strings.Index(*status.DownloadURL, "token=")+len("token="):]
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck

	data, err := io.ReadAll(download.File)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Calibrated flow meters")
	assert.Contains(t, content, "within")
}

func TestProcessFailureMarksJobFailed(t *testing.T) {
	svc, repo, queue := newExportServiceForTest(t, exportLogsStub{err: errors.New("db down")})

	resp, err := svc.CreateJob(context.Background(), ExportRequest{
		Format: models.ExportFormatCSV,
	}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	require.Error(t, svc.Process(context.Background(), queue.jobs[0]))

	job := repo.jobs[resp.ID]
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "db down")
}

func TestStatusOwnership(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t, exportLogsStub{})

	resp, err := svc.CreateJob(context.Background(), ExportRequest{
		Format: models.ExportFormatCSV,
	}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	_, err = svc.Status(context.Background(), resp.ID, "student-2", models.RoleStudent)
	assert.Error(t, err)

	_, err = svc.Status(context.Background(), resp.ID, "supervisor-1", models.RoleSupervisor)
	assert.NoError(t, err)
}
