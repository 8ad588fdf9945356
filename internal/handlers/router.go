package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/medflow-health/intake-service/internal/filestore"
	"github.com/medflow-health/intake-service/internal/services"
	"github.com/medflow-health/intake-service/internal/utils"
)

type HandlerManager struct {
	quizHandler       *QuizHandler
	intakeHandler     *IntakeHandler
	submissionHandler *SubmissionHandler
}

func NewHandlerManager(
	quizService services.QuizService,
	sessionService services.SessionService,
	submissionService services.SubmissionService,
	exportService services.ExportService,
	files filestore.Store,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:       NewQuizHandler(quizService, logger),
		intakeHandler:     NewIntakeHandler(sessionService, files, logger),
		submissionHandler: NewSubmissionHandler(submissionService, exportService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Quiz catalog routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:slug", hm.quizHandler.GetQuiz)
			quizzes.GET("/:slug/config", hm.quizHandler.GetQuizConfig)
			quizzes.PUT("/:slug", hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:slug", hm.quizHandler.DeleteQuiz)
		}

		// Wizard session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.intakeHandler.StartSession)
			sessions.GET("/:id/step", hm.intakeHandler.GetCurrentStep)
			sessions.POST("/:id/answers", hm.intakeHandler.SubmitAnswer)
			sessions.POST("/:id/next", hm.intakeHandler.NextStep)
			sessions.POST("/:id/prev", hm.intakeHandler.PrevStep)
			sessions.POST("/:id/restart", hm.intakeHandler.RestartSession)
			sessions.POST("/:id/submit", hm.submissionHandler.SubmitIntake)
		}

		// Upload routes
		uploads := v1.Group("/uploads")
		{
			uploads.POST("", hm.intakeHandler.UploadFile)
		}

		// Submission routes
		submissions := v1.Group("/submissions")
		{
			submissions.GET("", hm.submissionHandler.ListSubmissions)
			submissions.GET("/export", hm.submissionHandler.ExportSubmissions)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "intake-service",
		})
	})
}
