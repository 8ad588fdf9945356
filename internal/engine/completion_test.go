package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medflow-health/intake-service/internal/models"
)

func requiredText(id string) models.Question {
	return models.Question{ID: id, Type: models.TypeText, Required: true}
}

func TestIsStepComplete_Presentational(t *testing.T) {
	eval := NewCompletionEvaluator(nil)
	step := models.FormStep{ID: "intro", Questions: []models.Question{
		{ID: "hero", Type: models.TypeMarketing, Required: true},
	}}

	assert.True(t, eval.IsStepComplete(step, models.AnswerMap{}))
}

func TestIsStepComplete_OptionalQuestion(t *testing.T) {
	eval := NewCompletionEvaluator(nil)
	step := models.FormStep{ID: "extra", Questions: []models.Question{
		{ID: "notes", Type: models.TypeTextarea, Required: false},
	}}

	assert.True(t, eval.IsStepComplete(step, models.AnswerMap{}))
}

func TestIsStepComplete_RequiredText(t *testing.T) {
	eval := NewCompletionEvaluator(nil)
	step := models.FormStep{ID: "name", Questions: []models.Question{requiredText("firstName")}}

	assert.False(t, eval.IsStepComplete(step, models.AnswerMap{}))
	assert.False(t, eval.IsStepComplete(step, models.AnswerMap{"firstName": models.NullValue()}))
	assert.False(t, eval.IsStepComplete(step, models.AnswerMap{"firstName": models.StringValue("")}))
	assert.True(t, eval.IsStepComplete(step, models.AnswerMap{"firstName": models.StringValue("Dana")}))
}

func TestIsStepComplete_MultiSelectNeedsNonEmptyList(t *testing.T) {
	eval := NewCompletionEvaluator(nil)
	step := models.FormStep{ID: "conditions", Questions: []models.Question{
		{ID: "conditions", Type: models.TypeMultiSelect, Required: true},
	}}

	assert.False(t, eval.IsStepComplete(step, models.AnswerMap{}))
	assert.False(t, eval.IsStepComplete(step, models.AnswerMap{"conditions": models.ListValue()}))
	assert.True(t, eval.IsStepComplete(step, models.AnswerMap{"conditions": models.ListValue("asthma")}))
}

func TestIsStepComplete_FileInputNeedsValue(t *testing.T) {
	eval := NewCompletionEvaluator(nil)
	step := models.FormStep{ID: "id-photo", Questions: []models.Question{
		{ID: "idPhoto", Type: models.TypeFileInput, Required: true},
	}}

	assert.False(t, eval.IsStepComplete(step, models.AnswerMap{}))
	assert.False(t, eval.IsStepComplete(step, models.AnswerMap{"idPhoto": models.NullValue()}))

	ref := &models.FileRef{Name: "id.jpg", FileID: "f-1"}
	assert.True(t, eval.IsStepComplete(step, models.AnswerMap{"idPhoto": models.FileValue(ref)}))
}

func TestIsStepComplete_ValidationRulesGate(t *testing.T) {
	eval := NewCompletionEvaluator(nil)
	step := models.FormStep{ID: "contact", Questions: []models.Question{{
		ID:         "email",
		Type:       models.TypeEmail,
		Required:   true,
		Validation: []models.ValidationRule{{Type: models.RuleEmail}},
	}}}

	assert.False(t, eval.IsStepComplete(step, models.AnswerMap{"email": models.StringValue("nope")}))
	assert.True(t, eval.IsStepComplete(step, models.AnswerMap{"email": models.StringValue("pat@example.com")}))
}

func TestLastCompletedStepIndex(t *testing.T) {
	eval := NewCompletionEvaluator(nil)
	steps := []models.FormStep{
		{ID: "a", Questions: []models.Question{requiredText("a")}},
		{ID: "b", Questions: []models.Question{requiredText("b")}},
		{ID: "c", Questions: []models.Question{requiredText("c")}},
	}

	assert.Equal(t, -1, eval.LastCompletedStepIndex(steps, models.AnswerMap{}))

	answers := models.AnswerMap{"a": models.StringValue("x")}
	assert.Equal(t, 0, eval.LastCompletedStepIndex(steps, answers))

	// A later answer does not count while an earlier step is open.
	answers["c"] = models.StringValue("z")
	assert.Equal(t, 0, eval.LastCompletedStepIndex(steps, answers))

	answers["b"] = models.StringValue("y")
	assert.Equal(t, 2, eval.LastCompletedStepIndex(steps, answers))
}

func TestNextIncompleteStepIndex(t *testing.T) {
	eval := NewCompletionEvaluator(nil)
	steps := []models.FormStep{
		{ID: "a", Questions: []models.Question{requiredText("a")}},
		{ID: "b", Questions: []models.Question{requiredText("b")}},
	}

	assert.Equal(t, 0, eval.NextIncompleteStepIndex(steps, models.AnswerMap{}))

	answers := models.AnswerMap{"a": models.StringValue("x")}
	assert.Equal(t, 1, eval.NextIncompleteStepIndex(steps, answers))

	// All complete: land on the last step, not past the end.
	answers["b"] = models.StringValue("y")
	assert.Equal(t, 1, eval.NextIncompleteStepIndex(steps, answers))
}
