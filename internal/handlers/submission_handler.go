package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medflow-health/intake-service/internal/repositories"
	"github.com/medflow-health/intake-service/internal/services"
	"github.com/medflow-health/intake-service/internal/utils"
)

// SubmissionHandler finalizes intakes and serves stored submissions
type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	exportService     services.ExportService
}

func NewSubmissionHandler(submissionService services.SubmissionService, exportService services.ExportService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		exportService:     exportService,
	}
}

// SubmitIntake finalizes a completed session into a stored submission
// @Summary Submit intake
// @Description Builds the submission payload from the session, stores it and clears session state
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.SubmitRequest false "Promo codes and shipping"
// @Success 201 {object} services.SubmissionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SubmissionHandler) SubmitIntake(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	h.LogRequest(c, "Submitting intake", "session_id", id)

	result, err := h.submissionService.Submit(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetSubmission retrieves one stored submission
// @Summary Get submission
// @Description Retrieves a stored submission record by ID
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	submission, err := h.submissionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListSubmissions lists stored submissions with filters
// @Summary List submissions
// @Description Lists stored submissions filtered by quiz and date range
// @Tags submissions
// @Accept json
// @Produce json
// @Param quiz query string false "Quiz slug filter"
// @Param from query string false "RFC3339 lower bound on submission time"
// @Param to query string false "RFC3339 upper bound on submission time"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	filters, ok := h.parseFilters(c)
	if !ok {
		return
	}

	submissions, total, err := h.submissionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Submissions retrieved",
		Data: gin.H{
			"submissions": submissions,
			"total":       total,
		},
	})
}

// ExportSubmissions downloads submissions as an Excel workbook
// @Summary Export submissions
// @Description Renders filtered submissions into an Excel workbook
// @Tags submissions
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param quiz query string false "Quiz slug filter"
// @Param from query string false "RFC3339 lower bound on submission time"
// @Param to query string false "RFC3339 upper bound on submission time"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /submissions/export [get]
func (h *SubmissionHandler) ExportSubmissions(c *gin.Context) {
	filters, ok := h.parseFilters(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting submissions", "quiz", filters.QuizSlug)

	data, err := h.exportService.ExportSubmissionsToExcel(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("submissions-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *SubmissionHandler) parseFilters(c *gin.Context) (repositories.SubmissionFilters, bool) {
	filters := repositories.SubmissionFilters{
		QuizSlug:  c.Query("quiz"),
		SortOrder: c.Query("sort_order"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil {
		filters.Offset = offset
	}

	if from := c.Query("from"); from != "" {
		ts, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid from parameter",
				Details: "expected RFC3339 timestamp",
			})
			return filters, false
		}
		filters.DateFrom = &ts
	}
	if to := c.Query("to"); to != "" {
		ts, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid to parameter",
				Details: "expected RFC3339 timestamp",
			})
			return filters, false
		}
		filters.DateTo = &ts
	}
	return filters, true
}

// handleServiceError maps service errors to HTTP responses
func (h *SubmissionHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	// Handle specific submission errors
	switch {
	case errors.Is(err, services.ErrIntakeIncomplete):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Intake has incomplete steps",
		})
	case errors.Is(err, services.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Intake has already been submitted",
		})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Session not found",
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Submission not found",
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
