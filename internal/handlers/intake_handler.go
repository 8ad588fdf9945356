package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medflow-health/intake-service/internal/filestore"
	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/services"
	"github.com/medflow-health/intake-service/internal/utils"
)

// maxUploadSize caps decoded upload bytes. Photo ID and lab uploads from
// phone cameras land well under this.
const maxUploadSize = 15 * 1024 * 1024

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/heic":      true,
	"application/pdf": true,
}

// IntakeHandler runs wizard sessions: start, answer, navigate and upload
type IntakeHandler struct {
	BaseHandler
	sessionService services.SessionService
	files          filestore.Store
}

func NewIntakeHandler(sessionService services.SessionService, files filestore.Store, logger utils.Logger) *IntakeHandler {
	return &IntakeHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		files:          files,
	}
}

// StartSessionRequest names the quiz to run
type StartSessionRequest struct {
	QuizSlug string `json:"quizSlug" validate:"required"`
}

// AnswerRequest carries one answer for the current session
type AnswerRequest struct {
	QuestionID string       `json:"questionId" validate:"required"`
	Value      models.Value `json:"value"`
}

// UploadRequest carries a base64-encoded file from the browser
type UploadRequest struct {
	FileName    string `json:"fileName" validate:"required"`
	ContentType string `json:"contentType"`
	Data        string `json:"data" validate:"required"`
}

// UploadResponse returns the stored file handle
type UploadResponse struct {
	FileID      string `json:"fileId"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// StartSession starts or resumes a wizard session
// @Summary Start session
// @Description Starts a wizard session for a quiz, resuming persisted progress for the client
// @Tags sessions
// @Accept json
// @Produce json
// @Param X-Client-ID header string false "Client identity for resumable intakes"
// @Param request body StartSessionRequest true "Quiz to run"
// @Success 201 {object} services.SessionInfo
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions [post]
func (h *IntakeHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if req.QuizSlug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: "quizSlug is required",
		})
		return
	}

	h.LogRequest(c, "Starting intake session", "quiz", req.QuizSlug)

	info, err := h.sessionService.Start(c.Request.Context(), req.QuizSlug, h.extractClientID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, info)
}

// GetCurrentStep returns the step the session currently shows
// @Summary Get current step
// @Description Returns the visible step at the session cursor with interpolated text
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} engine.StepView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/step [get]
func (h *IntakeHandler) GetCurrentStep(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := h.sessionService.Current(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitAnswer records an answer and returns the refreshed step
// @Summary Submit answer
// @Description Records one answer; visibility and progress are re-evaluated
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body AnswerRequest true "Answer"
// @Success 200 {object} engine.StepView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/answers [post]
func (h *IntakeHandler) SubmitAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if req.QuestionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: "questionId is required",
		})
		return
	}

	view, err := h.sessionService.Answer(c.Request.Context(), id, req.QuestionID, req.Value)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// NextStep advances the session
// @Summary Next step
// @Description Advances past the current step if it is complete
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.NavigationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/next [post]
func (h *IntakeHandler) NextStep(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	resp, err := h.sessionService.Next(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PrevStep moves the session back one visible step
// @Summary Previous step
// @Description Moves back one visible step; reports exit intent at the first step
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.NavigationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/prev [post]
func (h *IntakeHandler) PrevStep(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	resp, err := h.sessionService.Prev(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RestartSession wipes answers and returns to the first step
// @Summary Restart session
// @Description Resets answers to defaults and clears persisted progress
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} engine.StepView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/restart [post]
func (h *IntakeHandler) RestartSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Restarting intake session", "session_id", id)

	view, err := h.sessionService.Restart(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// UploadFile stores a file answer and returns its handle
// @Summary Upload file
// @Description Stores an uploaded document; the returned fileId goes into a file answer
// @Tags uploads
// @Accept json
// @Produce json
// @Param request body UploadRequest true "Base64 file"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /uploads [post]
func (h *IntakeHandler) UploadFile(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if req.FileName == "" || req.Data == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: "fileName and data are required",
		})
		return
	}

	// Decoded size is at most 3/4 of the base64 length.
	if base64.StdEncoding.DecodedLen(len(req.Data)) > maxUploadSize {
		h.LogWarn(c, "Upload rejected", "reason", "too large", "file", req.FileName)
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: "Upload exceeds size limit",
			Details: services.ErrUploadTooLarge.Error(),
		})
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = filestore.DeriveContentType(req.FileName)
	}
	if !allowedUploadTypes[contentType] {
		h.LogWarn(c, "Upload rejected", "reason", "unsupported type", "content_type", contentType)
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{
			Message: "Unsupported upload content type",
			Details: services.ErrUnsupportedUploadType.Error(),
		})
		return
	}

	fileID, err := h.files.Save(c.Request.Context(), req.FileName, contentType, req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Upload could not be stored",
			Details: err.Error(),
		})
		return
	}

	data, err := h.files.Fetch(c.Request.Context(), fileID)
	if err != nil {
		h.LogError(c, err, "Failed to read back stored upload", "file_id", fileID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
		return
	}

	h.LogInfo(c, "Upload stored", "file_id", fileID, "size", data.Size)
	c.JSON(http.StatusCreated, UploadResponse{
		FileID:      fileID,
		ContentType: data.ContentType,
		Size:        data.Size,
	})
}

// handleServiceError maps service errors to HTTP responses
func (h *IntakeHandler) handleServiceError(c *gin.Context, err error) {
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

	// Handle specific session errors
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Session not found",
		})
	case errors.Is(err, services.ErrSessionExpired):
		c.JSON(http.StatusGone, ErrorResponse{
			Message: "Session has expired",
		})
	case errors.Is(err, services.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz not found",
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
