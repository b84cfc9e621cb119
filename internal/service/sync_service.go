package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
	appErrors "github.com/noah-isme/siwes-logbook-api/pkg/errors"
)

type syncLogRepository interface {
	FindByToken(ctx context.Context, studentID, token string) (*models.DailyLog, error)
	ListUnsynced(ctx context.Context, studentID string) ([]models.DailyLog, error)
	MarkSynced(ctx context.Context, studentID string, ids []string) (int, error)
}

type logCreator interface {
	CreateLog(ctx context.Context, studentID string, req CreateLogRequest) (*models.DailyLog, error)
}

// SyncService reconciles batches of offline-created logs against the
// server. Entries are independent units of work: one failure never aborts
// the batch, and nothing committed earlier is rolled back.
type SyncService struct {
	logs    syncLogRepository
	creator logCreator
	logger  *zap.Logger
}

// NewSyncService constructs the sync service.
func NewSyncService(logs syncLogRepository, creator logCreator, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{logs: logs, creator: creator, logger: logger}
}

// SyncResult summarises a reconciliation batch.
type SyncResult struct {
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// SyncLogs applies each offline entry in input order. Entries whose token
// already produced a server row are skipped; the rest are created through
// the normal path, and per-entry errors are collected rather than raised.
func (s *SyncService) SyncLogs(ctx context.Context, studentID string, entries []CreateLogRequest) (*SyncResult, error) {
	result := &SyncResult{Errors: []string{}}

	for _, entry := range entries {
		if entry.ClientUUID != nil && *entry.ClientUUID != "" {
			existing, err := s.logs.FindByToken(ctx, studentID, *entry.ClientUUID)
			if err == nil && existing != nil {
				result.Skipped++
				continue
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("failed to sync log %s: %v", *entry.ClientUUID, err))
				continue
			}
		}

		if _, err := s.creator.CreateLog(ctx, studentID, entry); err != nil {
			token := "unknown"
			if entry.ClientUUID != nil && *entry.ClientUUID != "" {
				token = *entry.ClientUUID
			}
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to sync log %s: %v", token, err))
			continue
		}
		result.Synced++
	}

	s.logger.Info("offline sync reconciled",
		zap.String("student_id", studentID),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}

// UnsyncedLogs returns server rows the client has not yet acknowledged.
func (s *SyncService) UnsyncedLogs(ctx context.Context, studentID string) ([]models.DailyLog, error) {
	rows, err := s.logs.ListUnsynced(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unsynced logs")
	}
	return rows, nil
}

// MarkSynced acknowledges the given rows as synced on the client side.
// Only the student's own rows are touched; ids owned by someone else are
// silently ignored.
func (s *SyncService) MarkSynced(ctx context.Context, studentID string, ids []string) (int, error) {
	count, err := s.logs.MarkSynced(ctx, studentID, ids)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark logs synced")
	}
	return count, nil
}
