package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siwes-logbook-api/internal/service"
	appErrors "github.com/noah-isme/siwes-logbook-api/pkg/errors"
	"github.com/noah-isme/siwes-logbook-api/pkg/response"
)

// ReviewHandler exposes supervisor review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// VerifyRequest carries optional feedback for a verification.
type VerifyRequest struct {
	Feedback *string `json:"feedback"`
}

// Verify godoc
// @Summary Verify a pending log
// @Tags Review
// @Accept json
// @Produce json
// @Param id path string true "Log ID"
// @Param payload body VerifyRequest false "Optional feedback"
// @Success 200 {object} response.Envelope
// @Router /logs/{id}/verify [post]
func (h *ReviewHandler) Verify(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req VerifyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	log, err := h.reviews.VerifyLog(c.Request.Context(), c.Param("id"), claims.UserID, req.Feedback)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// FlagRequest carries the reason a log was flagged.
type FlagRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Flag godoc
// @Summary Flag a log for attention
// @Tags Review
// @Accept json
// @Produce json
// @Param id path string true "Log ID"
// @Param payload body FlagRequest true "Flag reason"
// @Success 200 {object} response.Envelope
// @Router /logs/{id}/flag [post]
func (h *ReviewHandler) Flag(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.reviews.FlagLog(c.Request.Context(), c.Param("id"), claims.UserID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Unflag godoc
// @Summary Return a flagged log to pending review
// @Tags Review
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Router /logs/{id}/unflag [post]
func (h *ReviewHandler) Unflag(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	log, err := h.reviews.UnflagLog(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// BulkVerifyRequest lists log ids to verify in one pass.
type BulkVerifyRequest struct {
	LogIDs   []string `json:"log_ids" binding:"required"`
	Feedback *string  `json:"feedback"`
}

// BulkVerify godoc
// @Summary Verify many logs independently
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body BulkVerifyRequest true "Log ids"
// @Success 200 {object} response.Envelope
// @Router /logs/bulk-verify [post]
func (h *ReviewHandler) BulkVerify(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req BulkVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.reviews.BulkVerify(c.Request.Context(), req.LogIDs, claims.UserID, req.Feedback)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Pending godoc
// @Summary List a placement's logs awaiting review
// @Tags Review
// @Produce json
// @Param placementId query string true "Placement ID"
// @Success 200 {object} response.Envelope
// @Router /review/pending [get]
func (h *ReviewHandler) Pending(c *gin.Context) {
	placementID := c.Query("placementId")
	if placementID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "placementId required"))
		return
	}
	logs, err := h.reviews.PendingLogs(c.Request.Context(), placementID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Flagged godoc
// @Summary List a placement's flagged logs
// @Tags Review
// @Produce json
// @Param placementId query string true "Placement ID"
// @Success 200 {object} response.Envelope
// @Router /review/flagged [get]
func (h *ReviewHandler) Flagged(c *gin.Context) {
	placementID := c.Query("placementId")
	if placementID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "placementId required"))
		return
	}
	logs, err := h.reviews.FlaggedLogs(c.Request.Context(), placementID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Statistics godoc
// @Summary Review progress statistics for a placement
// @Tags Review
// @Produce json
// @Param placementId query string true "Placement ID"
// @Success 200 {object} response.Envelope
// @Router /review/statistics [get]
func (h *ReviewHandler) Statistics(c *gin.Context) {
	placementID := c.Query("placementId")
	if placementID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "placementId required"))
		return
	}
	stats, err := h.reviews.Statistics(c.Request.Context(), placementID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
