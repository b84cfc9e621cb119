package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
)

type syncRepoStub struct {
	byToken       map[string]*models.DailyLog
	unsynced      []models.DailyLog
	marked        []string
	markedStudent string
}

func newSyncRepoStub() *syncRepoStub {
	return &syncRepoStub{byToken: map[string]*models.DailyLog{}}
}

func (r *syncRepoStub) FindByToken(ctx context.Context, studentID, token string) (*models.DailyLog, error) {
	if row, ok := r.byToken[token]; ok {
		return row, nil
	}
	return nil, sql.ErrNoRows
}

func (r *syncRepoStub) ListUnsynced(ctx context.Context, studentID string) ([]models.DailyLog, error) {
	return r.unsynced, nil
}

func (r *syncRepoStub) MarkSynced(ctx context.Context, studentID string, ids []string) (int, error) {
	r.markedStudent = studentID
	r.marked = append(r.marked, ids...)
	return len(ids), nil
}

type creatorStub struct {
	failTokens map[string]error
	created    []string
}

func (c *creatorStub) CreateLog(ctx context.Context, studentID string, req CreateLogRequest) (*models.DailyLog, error) {
	token := ""
	if req.ClientUUID != nil {
		token = *req.ClientUUID
	}
	if err, ok := c.failTokens[token]; ok {
		return nil, err
	}
	c.created = append(c.created, token)
	return &models.DailyLog{ID: "log-" + token, StudentID: studentID}, nil
}

func syncEntry(token string) CreateLogRequest {
	return CreateLogRequest{
		PlacementID:         "placement-1",
		LogDate:             "2024-01-15",
		ActivityDescription: "Pipeline inspection",
		ClientUUID:          &token,
	}
}

func TestSyncLogsPartialFailure(t *testing.T) {
	repo := newSyncRepoStub()
	creator := &creatorStub{failTokens: map[string]error{
		"token-3": errors.New("placement not found"),
	}}
	svc := NewSyncService(repo, creator, zap.NewNop())

	entries := []CreateLogRequest{
		syncEntry("token-1"),
		syncEntry("token-2"),
		syncEntry("token-3"),
		syncEntry("token-4"),
	}

	result, err := svc.SyncLogs(context.Background(), "student-1", entries)
	require.NoError(t, err, "a failing entry must not abort the batch")

	assert.Equal(t, 3, result.Synced)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "failed to sync log token-3: placement not found", result.Errors[0])
	assert.Equal(t, []string{"token-1", "token-2", "token-4"}, creator.created)
}

func TestSyncLogsSkipsKnownTokens(t *testing.T) {
	repo := newSyncRepoStub()
	repo.byToken["token-1"] = &models.DailyLog{ID: "existing", StudentID: "student-1"}
	creator := &creatorStub{}
	svc := NewSyncService(repo, creator, zap.NewNop())

	result, err := svc.SyncLogs(context.Background(), "student-1", []CreateLogRequest{
		syncEntry("token-1"),
		syncEntry("token-2"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Synced)
	assert.Zero(t, result.Failed)
	assert.Equal(t, []string{"token-2"}, creator.created)
}

func TestSyncLogsReplayedBatchIsNoOp(t *testing.T) {
	repo := newSyncRepoStub()
	creator := &creatorStub{}
	svc := NewSyncService(repo, creator, zap.NewNop())

	entries := []CreateLogRequest{syncEntry("token-1"), syncEntry("token-2")}

	first, err := svc.SyncLogs(context.Background(), "student-1", entries)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Synced)

	// The server now knows both tokens.
	for _, token := range []string{"token-1", "token-2"} {
		repo.byToken[token] = &models.DailyLog{ID: "log-" + token}
	}

	second, err := svc.SyncLogs(context.Background(), "student-1", entries)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Synced)
	assert.Equal(t, 2, second.Skipped)
	assert.Zero(t, second.Failed)
}

func TestSyncLogsMissingTokenStillCreates(t *testing.T) {
	repo := newSyncRepoStub()
	creator := &creatorStub{}
	svc := NewSyncService(repo, creator, zap.NewNop())

	entry := syncEntry("")
	entry.ClientUUID = nil

	result, err := svc.SyncLogs(context.Background(), "student-1", []CreateLogRequest{entry})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
}

func TestSyncLogsUnknownTokenInErrorMessage(t *testing.T) {
	repo := newSyncRepoStub()
	creator := &creatorStub{failTokens: map[string]error{
		"": errors.New("invalid payload"),
	}}
	svc := NewSyncService(repo, creator, zap.NewNop())

	entry := syncEntry("")
	entry.ClientUUID = nil

	result, err := svc.SyncLogs(context.Background(), "student-1", []CreateLogRequest{entry})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, fmt.Sprintf("failed to sync log %s: %v", "unknown", "invalid payload"), result.Errors[0])
}

func TestMarkSynced(t *testing.T) {
	repo := newSyncRepoStub()
	svc := NewSyncService(repo, &creatorStub{}, zap.NewNop())

	count, err := svc.MarkSynced(context.Background(), "student-1", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"a", "b"}, repo.marked)
	assert.Equal(t, "student-1", repo.markedStudent, "acknowledgement must be scoped to the caller's rows")
}
