package repositories

import (
	"context"
	"time"

	"github.com/medflow-health/intake-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	Category  string `json:"category"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`    // "created_at", "name", "slug"
	SortOrder string `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	QuizSlug  string     `json:"quiz_slug"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORY INTERFACES =====

// QuizRepository stores quiz schemas.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetBySlug(ctx context.Context, slug string) (*models.Quiz, error)
	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, slug string) error
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}

// SubmissionRepository stores finalized submission records.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	List(ctx context.Context, filters SubmissionFilters) ([]*models.Submission, int64, error)
}
