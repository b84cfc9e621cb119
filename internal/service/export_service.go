package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
	"github.com/noah-isme/siwes-logbook-api/internal/repository"
	appErrors "github.com/noah-isme/siwes-logbook-api/pkg/errors"
	"github.com/noah-isme/siwes-logbook-api/pkg/export"
	"github.com/noah-isme/siwes-logbook-api/pkg/jobs"
	"github.com/noah-isme/siwes-logbook-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
}

type exportLogLister interface {
	List(ctx context.Context, filter models.DailyLogFilter) ([]models.DailyLog, int, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ExportService generates logbook exports in the background and hands out
// signed download tokens for the results.
type ExportService struct {
	repo    exportJobStore
	logs    exportLogLister
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	queue   jobDispatcher
	logger  *zap.Logger
}

// NewExportService constructs the export service. The job queue is attached
// afterwards via SetQueue because the queue's handler is this service.
func NewExportService(repo exportJobStore, logs exportLogLister, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{repo: repo, logs: logs, storage: store, signer: signer, logger: logger}
}

// SetQueue attaches the dispatcher used for background processing.
func (s *ExportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// ExportRequest describes a logbook export.
type ExportRequest struct {
	StudentID   string              `json:"student_id"`
	PlacementID string              `json:"placement_id"`
	Format      models.ExportFormat `json:"format"`
}

// ExportJobResponse reports a created or inspected job.
type ExportJobResponse struct {
	ID          string              `json:"id"`
	Status      models.ExportStatus `json:"status"`
	DownloadURL *string             `json:"download_url,omitempty"`
	Error       *string             `json:"error,omitempty"`
}

// CreateJob validates the request, persists the job row, and enqueues
// background rendering. Students may only export their own logbook.
func (s *ExportService) CreateJob(ctx context.Context, req ExportRequest, actorID string, role models.UserRole) (*ExportJobResponse, error) {
	if role == models.RoleStudent {
		req.StudentID = actorID
	}
	if req.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id required")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export processing unavailable")
	}

	job := &models.ExportJob{
		Params:    models.ExportJobParams{StudentID: req.StudentID, PlacementID: req.PlacementID, Format: req.Format},
		Status:    models.ExportStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "logbook_export"}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &ExportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// Status returns job metadata, including a signed download URL once the
// export finished. Students only see their own jobs.
func (s *ExportService) Status(ctx context.Context, id, actorID string, role models.UserRole) (*ExportJobResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if role == models.RoleStudent && job.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}

	resp := &ExportJobResponse{ID: job.ID, Status: job.Status, Error: job.ErrorMessage}
	if job.Status == models.ExportStatusFinished && job.ResultPath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.ResultPath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
		}
		url := fmt.Sprintf("/api/v1/exports/%s/download?token=%s", job.ID, token)
		resp.DownloadURL = &url
	}
	return resp, nil
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File     *os.File
	Filename string
	Format   models.ExportFormat
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.ResultPath == nil || *job.ResultPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token does not match export result")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:     file,
		Filename: fmt.Sprintf("logbook-%s.%s", job.Params.StudentID, job.Params.Format),
		Format:   job.Params.Format,
	}, nil
}

// Process renders one export job. It is the queue's handler.
func (s *ExportService) Process(ctx context.Context, job jobs.Job) error {
	row, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", job.ID, err)
	}
	processing := models.ExportStatusProcessing
	if err := s.repo.Update(ctx, row.ID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}

	data, renderErr := s.render(ctx, row)
	now := time.Now().UTC()
	if renderErr != nil {
		status := models.ExportStatusFailed
		msg := renderErr.Error()
		_ = s.repo.Update(ctx, row.ID, repository.UpdateExportJobParams{
			Status:       &status,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return renderErr
	}

	relPath := fmt.Sprintf("%s/logbook.%s", row.ID, row.Params.Format)
	if _, err := s.storage.Save(relPath, data); err != nil {
		status := models.ExportStatusFailed
		msg := err.Error()
		_ = s.repo.Update(ctx, row.ID, repository.UpdateExportJobParams{
			Status:       &status,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return err
	}

	status := models.ExportStatusFinished
	if err := s.repo.Update(ctx, row.ID, repository.UpdateExportJobParams{
		Status:     &status,
		ResultPath: &relPath,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark export job finished: %w", err)
	}
	s.logger.Info("logbook export finished", zap.String("job_id", row.ID), zap.String("format", string(row.Params.Format)))
	return nil
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) ([]byte, error) {
	filter := models.DailyLogFilter{
		StudentID:   job.Params.StudentID,
		PlacementID: job.Params.PlacementID,
		SortBy:      "log_date",
		SortOrder:   "ASC",
		PageSize:    200,
	}
	rows, _, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list logs for export: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"Week", "Date", "Activities", "Skills Learned", "Challenges", "Location", "Status"},
		Rows:    make([]map[string]string, len(rows)),
	}
	for i, log := range rows {
		skills, challenges := "", ""
		if log.SkillsLearned != nil {
			skills = *log.SkillsLearned
		}
		if log.Challenges != nil {
			challenges = *log.Challenges
		}
		dataset.Rows[i] = map[string]string{
			"Week":           fmt.Sprintf("%d", log.WeekNumber),
			"Date":           log.LogDate.Format("2006-01-02"),
			"Activities":     log.ActivityDescription,
			"Skills Learned": skills,
			"Challenges":     challenges,
			"Location":       string(log.LocationStatus),
			"Status":         string(log.Status),
		}
	}

	switch job.Params.Format {
	case models.ExportFormatPDF:
		return export.NewPDFExporter().Render(dataset, "SIWES Logbook")
	default:
		return export.NewCSVExporter().Render(dataset)
	}
}
