package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medflow-health/intake-service/internal/repositories"
	"github.com/medflow-health/intake-service/internal/services"
	"github.com/medflow-health/intake-service/internal/utils"
)

// QuizHandler manages the quiz schema catalog
type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// CreateQuiz creates a new quiz schema
// @Summary Create quiz
// @Description Registers a new quiz schema in the catalog
// @Tags quizzes
// @Accept json
// @Produce json
// @Param request body services.CreateQuizRequest true "Quiz schema"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating quiz", "slug", req.Slug)

	quiz, err := h.quizService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz retrieves a quiz by slug
// @Summary Get quiz
// @Description Retrieves a quiz record by its slug
// @Tags quizzes
// @Accept json
// @Produce json
// @Param slug path string true "Quiz slug"
// @Success 200 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /quizzes/{slug} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// GetQuizConfig retrieves the parsed wizard schema for a quiz
// @Summary Get quiz config
// @Description Retrieves the parsed step and progress schema the wizard runs against
// @Tags quizzes
// @Accept json
// @Produce json
// @Param slug path string true "Quiz slug"
// @Success 200 {object} models.QuizConfig
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes/{slug}/config [get]
func (h *QuizHandler) GetQuizConfig(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	cfg, err := h.quizService.GetConfig(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// ListQuizzes lists quizzes with optional filters
// @Summary List quizzes
// @Description Lists quizzes with category filter and pagination
// @Tags quizzes
// @Accept json
// @Produce json
// @Param category query string false "Metadata category filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	filters := repositories.QuizFilters{
		Category:  c.Query("category"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil {
		filters.Offset = offset
	}

	quizzes, total, err := h.quizService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quizzes retrieved",
		Data: gin.H{
			"quizzes": quizzes,
			"total":   total,
		},
	})
}

// UpdateQuiz replaces an existing quiz schema
// @Summary Update quiz
// @Description Replaces the schema of an existing quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param slug path string true "Quiz slug"
// @Param request body services.UpdateQuizRequest true "Quiz schema"
// @Success 200 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /quizzes/{slug} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating quiz", "slug", slug)

	quiz, err := h.quizService.Update(c.Request.Context(), slug, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz removes a quiz from the catalog
// @Summary Delete quiz
// @Description Removes a quiz schema from the catalog
// @Tags quizzes
// @Accept json
// @Produce json
// @Param slug path string true "Quiz slug"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /quizzes/{slug} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	h.LogRequest(c, "Deleting quiz", "slug", slug)

	if err := h.quizService.Delete(c.Request.Context(), slug); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz deleted"})
}

// handleServiceError maps service errors to HTTP responses
func (h *QuizHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationError,
		})
		return
	}

	// Handle specific quiz errors
	switch {
	case errors.Is(err, services.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz not found",
		})
	case errors.Is(err, services.ErrQuizDuplicateSlug):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz slug already exists",
		})
	case errors.Is(err, services.ErrQuizInvalidSchema):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Quiz schema is invalid",
			Details: err.Error(),
		})
	// Generic errors
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Bad request",
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Resource conflict",
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
