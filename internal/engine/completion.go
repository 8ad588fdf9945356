package engine

import (
	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/validation"
)

// CompletionEvaluator decides whether steps are fully answered. It reads
// answer state and never mutates it.
type CompletionEvaluator struct {
	fields *validation.FieldValidator
}

func NewCompletionEvaluator(fields *validation.FieldValidator) *CompletionEvaluator {
	if fields == nil {
		fields = validation.NewFieldValidator()
	}
	return &CompletionEvaluator{fields: fields}
}

// IsStepComplete reports whether every question on the step is satisfied.
// Presentational questions and optional questions are always satisfied. For
// the rest, type-specific emptiness is checked before the declared validation
// rules run.
func (c *CompletionEvaluator) IsStepComplete(step models.FormStep, answers models.AnswerMap) bool {
	for _, q := range step.Questions {
		if !c.isQuestionComplete(q, answers) {
			return false
		}
	}
	return true
}

func (c *CompletionEvaluator) isQuestionComplete(q models.Question, answers models.AnswerMap) bool {
	if q.Type.Presentational() {
		return true
	}
	if !q.Required {
		return true
	}

	value := answers[q.ID]

	switch q.Type {
	case models.TypeMultiSelect:
		return len(value.AsList()) > 0
	case models.TypeFileInput:
		return value.Kind != models.KindNull
	}

	if value.IsEmpty() {
		return false
	}
	return c.fields.ValidateRules(value, q.Validation, answers).Valid
}

// LastCompletedStepIndex returns the index of the last step in the visible
// sequence whose prefix is entirely complete, or -1 when the first step is
// still incomplete.
func (c *CompletionEvaluator) LastCompletedStepIndex(steps []models.FormStep, answers models.AnswerMap) int {
	for i, step := range steps {
		if !c.IsStepComplete(step, answers) {
			return i - 1
		}
	}
	return len(steps) - 1
}

// NextIncompleteStepIndex returns the index of the first incomplete step.
// When every step is complete it returns the last index, so a resumed
// session lands on the final step rather than past the end.
func (c *CompletionEvaluator) NextIncompleteStepIndex(steps []models.FormStep, answers models.AnswerMap) int {
	for i, step := range steps {
		if !c.IsStepComplete(step, answers) {
			return i
		}
	}
	return len(steps) - 1
}
