package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siwes-logbook-api/internal/service"
	appErrors "github.com/noah-isme/siwes-logbook-api/pkg/errors"
	"github.com/noah-isme/siwes-logbook-api/pkg/response"
)

// SyncHandler exposes offline reconciliation endpoints.
type SyncHandler struct {
	sync    *service.SyncService
	metrics *service.MetricsService
}

// NewSyncHandler constructs SyncHandler.
func NewSyncHandler(sync *service.SyncService, metrics *service.MetricsService) *SyncHandler {
	return &SyncHandler{sync: sync, metrics: metrics}
}

// SyncRequest carries a batch of offline-created logs.
type SyncRequest struct {
	Logs []service.CreateLogRequest `json:"logs" binding:"required"`
}

// Sync godoc
// @Summary Reconcile a batch of offline logs
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body SyncRequest true "Offline batch"
// @Success 200 {object} response.Envelope
// @Router /logs/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.sync.SyncLogs(c.Request.Context(), claims.UserID, req.Logs)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSyncOutcomes(result.Synced, result.Skipped, result.Failed)
	response.JSON(c, http.StatusOK, result, nil)
}

// Unsynced godoc
// @Summary List server rows not yet acknowledged by the client
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /logs/unsynced [get]
func (h *SyncHandler) Unsynced(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	logs, err := h.sync.UnsyncedLogs(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// AckRequest lists log ids the client confirmed as stored locally.
type AckRequest struct {
	LogIDs []string `json:"log_ids" binding:"required"`
}

// Acknowledge godoc
// @Summary Mark logs as synced on the client
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body AckRequest true "Acknowledged ids"
// @Success 200 {object} response.Envelope
// @Router /logs/sync/ack [post]
func (h *SyncHandler) Acknowledge(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req AckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	count, err := h.sync.MarkSynced(c.Request.Context(), claims.UserID, req.LogIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"acknowledged": count}, nil)
}
