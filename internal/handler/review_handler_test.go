package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/siwes-logbook-api/internal/middleware"
	"github.com/noah-isme/siwes-logbook-api/internal/models"
	"github.com/noah-isme/siwes-logbook-api/internal/service"
)

type reviewRepoFake struct {
	rows map[string]*models.DailyLog
}

func (r *reviewRepoFake) FindByID(ctx context.Context, id string) (*models.DailyLog, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return row, nil
}

func (r *reviewRepoFake) UpdateReview(ctx context.Context, id string, upd models.ReviewUpdate) (*models.DailyLog, error) {
	row := r.rows[id]
	row.Status = upd.Status
	row.ReviewerID = &upd.ReviewerID
	row.ReviewerComment = upd.ReviewerComment
	return row, nil
}

func (r *reviewRepoFake) ListByStatus(ctx context.Context, placementID string, status models.LogStatus, limit int) ([]models.DailyLog, error) {
	var out []models.DailyLog
	for _, row := range r.rows {
		if row.PlacementID == placementID && row.Status == status {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *reviewRepoFake) CountByStatus(ctx context.Context, placementID string) ([]models.StatusCount, error) {
	return nil, nil
}

func newReviewTestContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:           "supervisor-1",
		Role:             models.RoleSupervisor,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "supervisor-1"},
	})
	return c, w
}

func newReviewHandlerForTest(rows map[string]*models.DailyLog) *ReviewHandler {
	repo := &reviewRepoFake{rows: rows}
	return NewReviewHandler(service.NewReviewService(repo, nil, zap.NewNop()))
}

func TestReviewHandlerVerify(t *testing.T) {
	rows := map[string]*models.DailyLog{
		"log-1": {ID: "log-1", PlacementID: "placement-1", Status: models.LogStatusPending},
	}
	h := newReviewHandlerForTest(rows)

	c, w := newReviewTestContext(http.MethodPost, "/logs/log-1/verify", []byte(`{"feedback":"well documented"}`))
	c.Params = gin.Params{{Key: "id", Value: "log-1"}}

	h.Verify(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.DailyLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.LogStatusVerified, envelope.Data.Status)
}

func TestReviewHandlerVerifyConflict(t *testing.T) {
	rows := map[string]*models.DailyLog{
		"log-1": {ID: "log-1", PlacementID: "placement-1", Status: models.LogStatusVerified},
	}
	h := newReviewHandlerForTest(rows)

	c, w := newReviewTestContext(http.MethodPost, "/logs/log-1/verify", nil)
	c.Params = gin.Params{{Key: "id", Value: "log-1"}}

	h.Verify(c)

	require.Equal(t, http.StatusConflict, w.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "ALREADY_VERIFIED", envelope.Error.Code)
}

func TestReviewHandlerFlagRequiresReason(t *testing.T) {
	rows := map[string]*models.DailyLog{
		"log-1": {ID: "log-1", PlacementID: "placement-1", Status: models.LogStatusPending},
	}
	h := newReviewHandlerForTest(rows)

	c, w := newReviewTestContext(http.MethodPost, "/logs/log-1/flag", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "log-1"}}

	h.Flag(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandlerPendingRequiresPlacement(t *testing.T) {
	h := newReviewHandlerForTest(map[string]*models.DailyLog{})

	c, w := newReviewTestContext(http.MethodGet, "/review/pending", nil)

	h.Pending(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
