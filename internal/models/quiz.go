package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FormStep is one page of the wizard. Step ids are unique within a quiz and
// slice order defines the canonical navigation sequence before visibility
// filtering.
type FormStep struct {
	ID              string           `json:"id"`
	Title           string           `json:"title,omitempty"`
	Heading1        string           `json:"heading1,omitempty"`
	Heading2        string           `json:"heading2,omitempty"`
	Subtext         string           `json:"subtext,omitempty"`
	DynamicTitle    string           `json:"dynamicTitle,omitempty"`
	DynamicHeading1 string           `json:"dynamicHeading1,omitempty"`
	DynamicSubtext  string           `json:"dynamicSubtext,omitempty"`
	RenderCondition *RenderCondition `json:"renderCondition,omitempty"`
	Questions       []Question       `json:"questions"`
}

// ProgressStep is a named phase of the coarse progress indicator.
type ProgressStep struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// StepProgressMapping links a form step to its progress phase.
type StepProgressMapping struct {
	StepID         string `json:"stepId"`
	ProgressStepID string `json:"progressStepId"`
}

// QuizMetadata describes the quiz for catalog purposes.
type QuizMetadata struct {
	Category       string   `json:"category,omitempty"`
	EstimatedTime  string   `json:"estimatedTime,omitempty"`
	TargetAudience string   `json:"targetAudience,omitempty"`
	Compliance     []string `json:"compliance,omitempty"`
}

// QuizConfig is the immutable-for-the-session schema of one named quiz. The
// engine only reads it.
type QuizConfig struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	Description         string                `json:"description,omitempty"`
	Version             string                `json:"version,omitempty"`
	ProgressSteps       []ProgressStep        `json:"progressSteps"`
	StepProgressMapping []StepProgressMapping `json:"stepProgressMapping"`
	Steps               []FormStep            `json:"steps"`
	Metadata            QuizMetadata          `json:"metadata"`
}

// ProgressStepFor resolves a step id to its progress phase id. Missing
// mappings degrade gracefully: the caller leaves the marker unchanged.
func (q *QuizConfig) ProgressStepFor(stepID string) (string, bool) {
	for _, m := range q.StepProgressMapping {
		if m.StepID == stepID {
			return m.ProgressStepID, true
		}
	}
	return "", false
}

// ProgressIndexFor resolves a step id through the mapping to the ordinal
// position of its phase in ProgressSteps.
func (q *QuizConfig) ProgressIndexFor(stepID string) (int, bool) {
	phaseID, ok := q.ProgressStepFor(stepID)
	if !ok {
		return 0, false
	}
	for i, p := range q.ProgressSteps {
		if p.ID == phaseID {
			return i, true
		}
	}
	return 0, false
}

// AllQuestions flattens the step sequence into its questions, in order.
func (q *QuizConfig) AllQuestions() []Question {
	var out []Question
	for _, step := range q.Steps {
		out = append(out, step.Questions...)
	}
	return out
}

// Quiz is the database record for a quiz schema. The structured columns are
// JSON, matching the shape the schema source supplies.
type Quiz struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	Slug                string         `json:"slug" gorm:"not null;uniqueIndex;size:120" validate:"required,min=1,max=120"`
	Name                string         `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description         string         `json:"description" gorm:"type:text"`
	Version             string         `json:"version" gorm:"default:1.0.0;size:40"`
	Steps               datatypes.JSON `json:"steps" gorm:"not null"`
	ProgressSteps       datatypes.JSON `json:"progress_steps"`
	StepProgressMapping datatypes.JSON `json:"step_progress_mapping"`
	Metadata            datatypes.JSON `json:"metadata"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Config materializes the stored JSON columns into the in-memory schema the
// engine consumes.
func (q *Quiz) Config() (*QuizConfig, error) {
	cfg := &QuizConfig{
		ID:          q.Slug,
		Name:        q.Name,
		Description: q.Description,
		Version:     q.Version,
	}
	if len(q.Steps) > 0 {
		if err := json.Unmarshal(q.Steps, &cfg.Steps); err != nil {
			return nil, fmt.Errorf("quiz %s: malformed steps: %w", q.Slug, err)
		}
	}
	if len(q.ProgressSteps) > 0 {
		if err := json.Unmarshal(q.ProgressSteps, &cfg.ProgressSteps); err != nil {
			return nil, fmt.Errorf("quiz %s: malformed progress steps: %w", q.Slug, err)
		}
	}
	if len(q.StepProgressMapping) > 0 {
		if err := json.Unmarshal(q.StepProgressMapping, &cfg.StepProgressMapping); err != nil {
			return nil, fmt.Errorf("quiz %s: malformed step progress mapping: %w", q.Slug, err)
		}
	}
	if len(q.Metadata) > 0 {
		if err := json.Unmarshal(q.Metadata, &cfg.Metadata); err != nil {
			return nil, fmt.Errorf("quiz %s: malformed metadata: %w", q.Slug, err)
		}
	}
	return cfg, nil
}
