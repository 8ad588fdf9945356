package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/repositories"
	"github.com/medflow-health/intake-service/internal/validator"
)

// QuizService manages quiz schemas: the catalog the wizard runs against.
type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest) (*models.Quiz, error)
	Update(ctx context.Context, slug string, req *UpdateQuizRequest) (*models.Quiz, error)
	Delete(ctx context.Context, slug string) error
	Get(ctx context.Context, slug string) (*models.Quiz, error)
	GetConfig(ctx context.Context, slug string) (*models.QuizConfig, error)
	List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error)
}

type CreateQuizRequest struct {
	Slug                string                       `json:"slug" validate:"required,min=1,max=120"`
	Name                string                       `json:"name" validate:"required,min=1,max=200"`
	Description         string                       `json:"description" validate:"max=2000"`
	Version             string                       `json:"version" validate:"max=40"`
	Steps               []models.FormStep            `json:"steps" validate:"required,min=1"`
	ProgressSteps       []models.ProgressStep        `json:"progressSteps"`
	StepProgressMapping []models.StepProgressMapping `json:"stepProgressMapping"`
	Metadata            models.QuizMetadata          `json:"metadata"`
}

type UpdateQuizRequest struct {
	Name                string                       `json:"name" validate:"required,min=1,max=200"`
	Description         string                       `json:"description" validate:"max=2000"`
	Version             string                       `json:"version" validate:"max=40"`
	Steps               []models.FormStep            `json:"steps" validate:"required,min=1"`
	ProgressSteps       []models.ProgressStep        `json:"progressSteps"`
	StepProgressMapping []models.StepProgressMapping `json:"stepProgressMapping"`
	Metadata            models.QuizMetadata          `json:"metadata"`
}

type quizService struct {
	repo      repositories.QuizRepository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuizService(repo repositories.QuizRepository, logger *slog.Logger, v *validator.Validator) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}
	cfg := &models.QuizConfig{
		ID:                  req.Slug,
		Name:                req.Name,
		ProgressSteps:       req.ProgressSteps,
		StepProgressMapping: req.StepProgressMapping,
		Steps:               req.Steps,
	}
	if errs := s.validator.ValidateSchema(cfg); len(errs) > 0 {
		return nil, errs
	}

	exists, err := s.repo.ExistsBySlug(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check quiz slug: %w", err)
	}
	if exists {
		return nil, ErrQuizDuplicateSlug
	}

	quiz := &models.Quiz{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Version:     req.Version,
	}
	if err := marshalSchemaColumns(quiz, req.Steps, req.ProgressSteps, req.StepProgressMapping, req.Metadata); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created", "slug", quiz.Slug, "steps", len(req.Steps))
	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, slug string, req *UpdateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}
	cfg := &models.QuizConfig{
		ID:                  slug,
		Name:                req.Name,
		ProgressSteps:       req.ProgressSteps,
		StepProgressMapping: req.StepProgressMapping,
		Steps:               req.Steps,
	}
	if errs := s.validator.ValidateSchema(cfg); len(errs) > 0 {
		return nil, errs
	}

	quiz, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	quiz.Name = req.Name
	quiz.Description = req.Description
	quiz.Version = req.Version
	if err := marshalSchemaColumns(quiz, req.Steps, req.ProgressSteps, req.StepProgressMapping, req.Metadata); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Quiz updated", "slug", slug, "steps", len(req.Steps))
	return quiz, nil
}

func (s *quizService) Delete(ctx context.Context, slug string) error {
	err := s.repo.Delete(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrQuizNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "slug", slug)
	return nil
}

func (s *quizService) Get(ctx context.Context, slug string) (*models.Quiz, error) {
	quiz, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) GetConfig(ctx context.Context, slug string) (*models.QuizConfig, error) {
	quiz, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	cfg, err := quiz.Config()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizInvalidSchema, err)
	}
	return cfg, nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	return s.repo.List(ctx, filters)
}

// marshalSchemaColumns serializes the structured schema parts into the JSON
// columns of the quiz record.
func marshalSchemaColumns(quiz *models.Quiz, steps []models.FormStep, progress []models.ProgressStep, mapping []models.StepProgressMapping, metadata models.QuizMetadata) error {
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress steps: %w", err)
	}
	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal step progress mapping: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	quiz.Steps = datatypes.JSON(stepsJSON)
	quiz.ProgressSteps = datatypes.JSON(progressJSON)
	quiz.StepProgressMapping = datatypes.JSON(mappingJSON)
	quiz.Metadata = datatypes.JSON(metadataJSON)
	return nil
}
