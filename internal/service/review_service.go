package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
	appErrors "github.com/noah-isme/siwes-logbook-api/pkg/errors"
)

type reviewLogRepository interface {
	FindByID(ctx context.Context, id string) (*models.DailyLog, error)
	UpdateReview(ctx context.Context, id string, upd models.ReviewUpdate) (*models.DailyLog, error)
	ListByStatus(ctx context.Context, placementID string, status models.LogStatus, limit int) ([]models.DailyLog, error)
	CountByStatus(ctx context.Context, placementID string) ([]models.StatusCount, error)
}

// ReviewService drives the supervisor review lifecycle:
// pending -> verified (terminal) and pending <-> flagged. Verified logs are
// immutable in both content and status.
type ReviewService struct {
	logs   reviewLogRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewReviewService constructs the review service.
func NewReviewService(logs reviewLogRepository, cache *CacheService, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{logs: logs, cache: cache, logger: logger}
}

// VerifyLog marks a pending log as verified. Verified logs cannot be
// re-verified and flagged logs must be unflagged first.
func (s *ReviewService) VerifyLog(ctx context.Context, logID, supervisorID string, feedback *string) (*models.DailyLog, error) {
	log, err := s.getLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	switch log.Status {
	case models.LogStatusVerified:
		return nil, appErrors.ErrAlreadyVerified
	case models.LogStatusFlagged:
		return nil, appErrors.ErrLogFlagged
	}
	return s.applyTransition(ctx, log, models.LogStatusVerified, supervisorID, feedback)
}

// FlagLog marks a log for attention. Verified logs are immutable and
// cannot be flagged.
func (s *ReviewService) FlagLog(ctx context.Context, logID, supervisorID, reason string) (*models.DailyLog, error) {
	log, err := s.getLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if log.Status == models.LogStatusVerified {
		return nil, appErrors.Clone(appErrors.ErrAlreadyVerified, "cannot flag a verified log")
	}
	return s.applyTransition(ctx, log, models.LogStatusFlagged, supervisorID, &reason)
}

// UnflagLog returns a flagged log to pending review. Verified logs are
// terminal and cannot be reopened.
func (s *ReviewService) UnflagLog(ctx context.Context, logID, supervisorID string) (*models.DailyLog, error) {
	log, err := s.getLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if log.Status == models.LogStatusVerified {
		return nil, appErrors.Clone(appErrors.ErrAlreadyVerified, "cannot unflag a verified log")
	}
	return s.applyTransition(ctx, log, models.LogStatusPending, supervisorID, nil)
}

// BulkReviewResult summarises a bulk verification.
type BulkReviewResult struct {
	Verified int      `json:"verified"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// BulkVerify applies the single-log verify transition to each id
// independently. One log's rejection never aborts the rest.
func (s *ReviewService) BulkVerify(ctx context.Context, logIDs []string, supervisorID string, feedback *string) (*BulkReviewResult, error) {
	result := &BulkReviewResult{Errors: []string{}}
	for _, id := range logIDs {
		if _, err := s.VerifyLog(ctx, id, supervisorID, feedback); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to verify log %s: %v", id, err))
			continue
		}
		result.Verified++
	}
	return result, nil
}

// PendingLogs returns a placement's logs awaiting review.
func (s *ReviewService) PendingLogs(ctx context.Context, placementID string) ([]models.DailyLog, error) {
	rows, err := s.logs.ListByStatus(ctx, placementID, models.LogStatusPending, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending logs")
	}
	return rows, nil
}

// FlaggedLogs returns a placement's flagged logs.
func (s *ReviewService) FlaggedLogs(ctx context.Context, placementID string) ([]models.DailyLog, error) {
	rows, err := s.logs.ListByStatus(ctx, placementID, models.LogStatusFlagged, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list flagged logs")
	}
	return rows, nil
}

// Statistics summarises review progress for a placement, served from cache
// when available.
func (s *ReviewService) Statistics(ctx context.Context, placementID string) (*models.ReviewStatistics, error) {
	cacheKey := fmt.Sprintf("review:stats:%s", placementID)
	var cached models.ReviewStatistics
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	counts, err := s.logs.CountByStatus(ctx, placementID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count logs")
	}
	stats := &models.ReviewStatistics{}
	for _, c := range counts {
		stats.TotalLogs += c.Count
		switch c.Status {
		case models.LogStatusPending:
			stats.Pending = c.Count
		case models.LogStatusVerified:
			stats.Verified = c.Count
		case models.LogStatusFlagged:
			stats.Flagged = c.Count
		}
	}
	if stats.TotalLogs > 0 {
		stats.ReviewRate = float64(stats.Verified+stats.Flagged) / float64(stats.TotalLogs) * 100
	}

	_ = s.cache.Set(ctx, cacheKey, stats, 0)
	return stats, nil
}

func (s *ReviewService) getLog(ctx context.Context, id string) (*models.DailyLog, error) {
	log, err := s.logs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log")
	}
	return log, nil
}

func (s *ReviewService) applyTransition(ctx context.Context, log *models.DailyLog, to models.LogStatus, supervisorID string, comment *string) (*models.DailyLog, error) {
	updated, err := s.logs.UpdateReview(ctx, log.ID, models.ReviewUpdate{
		Status:          to,
		ReviewerID:      supervisorID,
		ReviewerComment: comment,
		ReviewedAt:      time.Now().UTC(),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update review status")
	}
	s.cache.InvalidateAsync(fmt.Sprintf("review:stats:%s", log.PlacementID))
	s.logger.Info("log review transition",
		zap.String("log_id", log.ID),
		zap.String("from", string(log.Status)),
		zap.String("to", string(to)),
		zap.String("reviewer_id", supervisorID))
	return updated, nil
}
