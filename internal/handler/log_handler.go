package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
	"github.com/noah-isme/siwes-logbook-api/internal/service"
	appErrors "github.com/noah-isme/siwes-logbook-api/pkg/errors"
	"github.com/noah-isme/siwes-logbook-api/pkg/response"
)

// LogHandler exposes daily log endpoints.
type LogHandler struct {
	logs *service.LogService
}

// NewLogHandler constructs LogHandler.
func NewLogHandler(logs *service.LogService) *LogHandler {
	return &LogHandler{logs: logs}
}

// Create godoc
// @Summary Submit a daily log
// @Tags Logs
// @Accept json
// @Produce json
// @Param payload body service.CreateLogRequest true "Log payload"
// @Success 201 {object} response.Envelope
// @Router /logs [post]
func (h *LogHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.logs.CreateLog(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

// List godoc
// @Summary List the authenticated student's logs
// @Tags Logs
// @Produce json
// @Param week query int false "Filter by program week"
// @Param status query string false "Filter by review status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /logs [get]
func (h *LogHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.DailyLogFilter
	if week := c.Query("week"); week != "" {
		if w, err := strconv.Atoi(week); err == nil {
			filter.WeekNumber = &w
		}
	}
	if status := c.Query("status"); status != "" {
		s := models.LogStatus(status)
		if !s.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status filter"))
			return
		}
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	logs, pagination, err := h.logs.StudentLogs(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// Get godoc
// @Summary Get one daily log
// @Tags Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Router /logs/{id} [get]
func (h *LogHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	log, err := h.logs.GetLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims.Role == models.RoleStudent && log.StudentID != claims.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Update godoc
// @Summary Edit a pending or flagged log's content
// @Tags Logs
// @Accept json
// @Produce json
// @Param id path string true "Log ID"
// @Param payload body service.UpdateLogRequest true "Content fields"
// @Success 200 {object} response.Envelope
// @Router /logs/{id} [put]
func (h *LogHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.logs.UpdateLog(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Delete godoc
// @Summary Delete a log
// @Tags Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 204
// @Router /logs/{id} [delete]
func (h *LogHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.logs.DeleteLog(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// WeekLogs godoc
// @Summary List a placement's logs for one program week
// @Tags Logs
// @Produce json
// @Param id path string true "Placement ID"
// @Param week path int true "Program week"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/weeks/{week}/logs [get]
func (h *LogHandler) WeekLogs(c *gin.Context) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be an integer"))
		return
	}
	logs, err := h.logs.LogsByWeek(c.Request.Context(), c.Param("id"), week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// WeekSummary godoc
// @Summary Log counts per program week for a placement
// @Tags Logs
// @Produce json
// @Param id path string true "Placement ID"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/weeks [get]
func (h *LogHandler) WeekSummary(c *gin.Context) {
	summary, err := h.logs.WeekSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
