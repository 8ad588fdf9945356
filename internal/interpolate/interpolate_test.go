package interpolate

import (
	"testing"

	"github.com/medflow-health/intake-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_SimpleVariables(t *testing.T) {
	answers := models.AnswerMap{
		"firstName":  models.StringValue("Dana"),
		"goalWeight": models.NumberValue(165),
		"conditions": models.ListValue("asthma", "diabetes"),
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"string answer", "Hi {{firstName}}!", "Hi Dana!"},
		{"number answer", "Target: {{goalWeight}} lbs", "Target: 165 lbs"},
		{"list answer joins", "History: {{conditions}}", "History: asthma, diabetes"},
		{"missing keeps placeholder", "Hi {{lastName}}", "Hi {{lastName}}"},
		{"no placeholders", "plain text", "plain text"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input, answers))
		})
	}
}

func TestText_Expressions(t *testing.T) {
	answers := models.AnswerMap{
		"weight":     models.NumberValue(220),
		"goalWeight": models.NumberValue(165),
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"subtraction", "Lose {{weight-goalWeight}} lbs", "Lose 55 lbs"},
		{"absolute value", "Gap: {{goalWeight-weight}}", "Gap: 55"},
		{"precedence", "{{weight+goalWeight*2}}", "550"},
		{"literal operand", "{{weight/2}}", "110"},
		{"missing variable keeps placeholder", "{{weight-dreamWeight}}", "{{weight-dreamWeight}}"},
		{"division by zero keeps placeholder", "{{weight/0}}", "{{weight/0}}"},
		{"garbage keeps placeholder", "{{weight-%}}", "{{weight-%}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input, answers))
		})
	}
}

func TestText_NonNumericVariableInExpression(t *testing.T) {
	answers := models.AnswerMap{"weight": models.StringValue("heavy")}
	assert.Equal(t, "{{weight-10}}", Text("{{weight-10}}", answers))
}

func TestText_PaceValues(t *testing.T) {
	answers := models.AnswerMap{
		"weight":     models.NumberValue(220),
		"goalWeight": models.NumberValue(155),
	}

	assert.Equal(t, "0.63 to 0.85 lbs/week", Text("{{weeklyLossRange}} lbs/week", answers))
	assert.Equal(t, "about 88 weeks", Text("about {{nrOfWeeks}} weeks", answers))
	assert.Equal(t, Text("{{nrOfWeeks}}", answers), Text("{{timeToGoal}}", answers))

	// Missing inputs keep the placeholder.
	assert.Equal(t, "{{timeToGoal}}", Text("{{timeToGoal}}", models.AnswerMap{}))
}

func TestCalculateMedicalValues(t *testing.T) {
	answers := models.AnswerMap{
		"feet":       models.NumberValue(5),
		"inches":     models.NumberValue(10),
		"weight":     models.NumberValue(220),
		"goalWeight": models.NumberValue(165),
	}

	values, ok := CalculateMedicalValues(answers)
	require.True(t, ok)
	assert.Equal(t, "31.57", values.BMI)
	assert.Equal(t, "220LBS", values.CurrentWeight)
	assert.Equal(t, "12.32", values.WeeksToGoal)

	_, ok = CalculateMedicalValues(models.AnswerMap{"weight": models.NumberValue(220)})
	assert.False(t, ok)
}

func TestStep_InterpolatesDisplayCopyOnly(t *testing.T) {
	step := models.FormStep{
		ID:             "summary",
		Title:          "Summary",
		DynamicTitle:   "Plan for {{firstName}}",
		DynamicSubtext: "You could lose {{weight-goalWeight}} lbs",
		Questions: []models.Question{
			{ID: "confirm", Type: models.TypeMarketing, DynamicText: "Ready, {{firstName}}?"},
		},
	}
	answers := models.AnswerMap{
		"firstName":  models.StringValue("Dana"),
		"weight":     models.NumberValue(220),
		"goalWeight": models.NumberValue(165),
	}

	display := Step(step, answers)
	assert.Equal(t, "Plan for Dana", display.Title)
	assert.Equal(t, "You could lose 55 lbs", display.Subtext)
	assert.Equal(t, "Ready, Dana?", display.Questions[0].Question)

	// The schema step is untouched.
	assert.Equal(t, "Summary", step.Title)
	assert.Empty(t, step.Questions[0].Question)
}
