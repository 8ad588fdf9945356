package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/repositories"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

// Create creates a new quiz schema after checking slug uniqueness.
func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := q.ExistsBySlug(ctx, quiz.Slug)
		if err != nil {
			return fmt.Errorf("failed to check slug uniqueness: %w", err)
		}
		if exists {
			return fmt.Errorf("quiz with slug '%s' already exists", quiz.Slug)
		}

		if err := tx.Create(quiz).Error; err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		return nil
	})
}

// GetBySlug retrieves a quiz schema by its slug.
func (q *QuizPostgreSQL) GetBySlug(ctx context.Context, slug string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// List retrieves quiz schemas with pagination.
func (q *QuizPostgreSQL) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	query := q.db.WithContext(ctx).Model(&models.Quiz{})

	if filters.Category != "" {
		query = query.Where("metadata->>'category' = ?", filters.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quizzes: %w", err)
	}

	sortBy := filters.SortBy
	switch sortBy {
	case "name", "slug", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := "desc"
	if filters.SortOrder == "asc" {
		sortOrder = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var quizzes []*models.Quiz
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, total, nil
}

// Update updates a quiz schema.
func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	quiz.UpdatedAt = time.Now()
	if err := q.db.WithContext(ctx).Save(quiz).Error; err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	return nil
}

// Delete soft-deletes a quiz schema by slug.
func (q *QuizPostgreSQL) Delete(ctx context.Context, slug string) error {
	result := q.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Quiz{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete quiz: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExistsBySlug reports whether a quiz with the slug already exists.
func (q *QuizPostgreSQL) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&models.Quiz{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return count > 0, nil
}
