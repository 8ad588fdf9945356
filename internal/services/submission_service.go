package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/medflow-health/intake-service/internal/events"
	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/payload"
	"github.com/medflow-health/intake-service/internal/repositories"
)

// SubmissionService finalizes completed intakes: builds the flattened
// record, stores it, clears in-progress state and announces the submission.
type SubmissionService interface {
	Submit(ctx context.Context, sessionID string, req *SubmitRequest) (*SubmissionResult, error)
	Get(ctx context.Context, id uint) (*models.Submission, error)
	List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error)
}

type SubmitRequest struct {
	PromoCodes      map[string]string       `json:"promoCodes"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
}

type SubmissionResult struct {
	SubmissionID uint                    `json:"submissionId"`
	Record       models.SubmissionRecord `json:"record"`
}

type submissionService struct {
	sessions  SessionService
	repo      repositories.SubmissionRepository
	builder   *payload.Builder
	publisher events.EventPublisher
	logger    *slog.Logger
	opLogger  *ServiceLogger
}

func NewSubmissionService(sessions SessionService, repo repositories.SubmissionRepository, builder *payload.Builder, publisher events.EventPublisher, logger *slog.Logger) SubmissionService {
	return &submissionService{
		sessions:  sessions,
		repo:      repo,
		builder:   builder,
		publisher: publisher,
		logger:    logger,
		opLogger: NewServiceLogger(logger, LogConfig{
			Service:   "intake-service",
			Component: "submission_service",
		}),
	}
}

func (s *submissionService) Submit(ctx context.Context, sessionID string, req *SubmitRequest) (*SubmissionResult, error) {
	op := s.opLogger.WithOperation(ctx, "submit", sessionID)

	session, err := s.sessions.Session(sessionID)
	if err != nil {
		op.LogResult("", err)
		return nil, err
	}
	quiz := session.Quiz()

	if !session.IsComplete() {
		s.publishFailed(ctx, sessionID, quiz.ID, "intake has incomplete steps")
		op.LogResult(quiz.ID, ErrIntakeIncomplete)
		return nil, ErrIntakeIncomplete
	}

	if req == nil {
		req = &SubmitRequest{}
	}
	record := s.builder.Build(ctx, quiz, session.VisibleSteps(), session.Answers(), payload.Options{
		PromoCodes:      req.PromoCodes,
		ShippingAddress: req.ShippingAddress,
	})

	recordJSON, err := json.Marshal(record)
	if err != nil {
		op.LogResult(quiz.ID, err)
		return nil, fmt.Errorf("failed to marshal submission record: %w", err)
	}

	submission := &models.Submission{
		QuizSlug:    quiz.ID,
		Payload:     datatypes.JSON(recordJSON),
		SubmittedAt: record.SubmittedAt,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		s.publishFailed(ctx, sessionID, quiz.ID, "storage failure")
		op.LogResult(quiz.ID, err)
		return nil, err
	}

	// Wipe the resumable state; the intake is done.
	if err := session.Finalize(ctx); err != nil {
		s.logger.Warn("Failed to finalize session state", "session_id", sessionID, "error", err)
	}
	s.sessions.End(sessionID)

	if s.publisher != nil {
		event := events.NewSubmissionCompletedEvent(
			submission.ID, sessionID, quiz.ID, quiz.Name,
			record.Email, len(record.Questions), record.SubmittedAt,
		)
		if err := s.publisher.PublishIntakeEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish submission event", "submission_id", submission.ID, "error", err)
		}
	}

	op.LogResult(quiz.ID, nil)
	return &SubmissionResult{SubmissionID: submission.ID, Record: record}, nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (*models.Submission, error) {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return submission, nil
}

func (s *submissionService) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	return s.repo.List(ctx, filters)
}

func (s *submissionService) publishFailed(ctx context.Context, sessionID, quizSlug, reason string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishIntakeEvent(ctx, events.NewSubmissionFailedEvent(sessionID, quizSlug, reason)); err != nil {
		s.logger.Warn("Failed to publish submission failed event", "session_id", sessionID, "error", err)
	}
}
