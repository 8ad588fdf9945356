package rules

import (
	"testing"

	"github.com/medflow-health/intake-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cond(field string, op models.ConditionOperator, value models.Value) models.Condition {
	return models.Condition{Field: field, Operator: op, Value: value}
}

func ruleSet(logical models.LogicalOperator, conditions ...models.Condition) *models.RenderCondition {
	return &models.RenderCondition{Conditions: conditions, LogicalOperator: logical}
}

func TestEvaluator_EmptyRuleSet(t *testing.T) {
	e := NewEvaluator()
	answers := models.AnswerMap{}

	assert.True(t, e.Evaluate(nil, answers))
	assert.True(t, e.Evaluate(&models.RenderCondition{}, answers))
	assert.True(t, e.Evaluate(&models.RenderCondition{LogicalOperator: models.LogicalAnd}, answers))
}

func TestEvaluator_GenderGatedStep(t *testing.T) {
	// Pregnancy-style step, only shown once gender is answered Female.
	rc := ruleSet(models.LogicalAnd, cond("gender", models.OpEquals, models.StringValue("Female")))

	tests := []struct {
		name     string
		answers  models.AnswerMap
		expected bool
	}{
		{"unanswered", models.AnswerMap{}, false},
		{"answered Male", models.AnswerMap{"gender": models.StringValue("Male")}, false},
		{"answered Female", models.AnswerMap{"gender": models.StringValue("Female")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator()
			assert.Equal(t, tt.expected, e.Evaluate(rc, tt.answers))
		})
	}
}

func TestEvaluator_UnansweredFieldFailsEveryOperator(t *testing.T) {
	answers := models.AnswerMap{"other": models.StringValue("set")}
	operators := []models.ConditionOperator{
		models.OpEquals, models.OpNotEquals, models.OpGreaterThan, models.OpLessThan,
	}

	for _, op := range operators {
		t.Run(string(op), func(t *testing.T) {
			e := NewEvaluator()
			rc := ruleSet(models.LogicalAnd, cond("missing", op, models.StringValue("x")))
			assert.False(t, e.Evaluate(rc, answers))
		})
	}
}

func TestEvaluator_NullAnswerCountsAsUnanswered(t *testing.T) {
	// Keys pre-seeded with null defaults must not satisfy notEquals.
	e := NewEvaluator()
	rc := ruleSet(models.LogicalAnd, cond("gender", models.OpNotEquals, models.StringValue("Female")))
	answers := models.AnswerMap{"gender": models.NullValue()}

	assert.False(t, e.Evaluate(rc, answers))
}

func TestEvaluator_StrictEquality(t *testing.T) {
	e := NewEvaluator()

	// No coercion between string "2" and number 2.
	rc := ruleSet(models.LogicalAnd, cond("count", models.OpEquals, models.NumberValue(2)))
	assert.False(t, e.Evaluate(rc, models.AnswerMap{"count": models.StringValue("2")}))
	assert.True(t, e.Evaluate(rc, models.AnswerMap{"count": models.NumberValue(2)}))
}

func TestEvaluator_NumericComparison(t *testing.T) {
	tests := []struct {
		name     string
		op       models.ConditionOperator
		answer   models.Value
		value    models.Value
		expected bool
	}{
		{"number greater", models.OpGreaterThan, models.NumberValue(200), models.NumberValue(150), true},
		{"number not greater", models.OpGreaterThan, models.NumberValue(100), models.NumberValue(150), false},
		{"numeric string coerces", models.OpGreaterThan, models.StringValue("200"), models.NumberValue(150), true},
		{"less than", models.OpLessThan, models.NumberValue(18), models.NumberValue(21), true},
		{"non-numeric answer is false", models.OpGreaterThan, models.StringValue("heavy"), models.NumberValue(150), false},
		{"non-numeric target is false", models.OpLessThan, models.NumberValue(10), models.StringValue("light"), false},
		{"list answer is false", models.OpGreaterThan, models.ListValue("1", "2"), models.NumberValue(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator()
			rc := ruleSet(models.LogicalAnd, cond("field", tt.op, tt.value))
			assert.Equal(t, tt.expected, e.Evaluate(rc, models.AnswerMap{"field": tt.answer}))
		})
	}
}

func TestEvaluator_LogicalOperators(t *testing.T) {
	answers := models.AnswerMap{
		"gender": models.StringValue("Female"),
		"age":    models.NumberValue(30),
	}

	trueCond := cond("gender", models.OpEquals, models.StringValue("Female"))
	falseCond := cond("age", models.OpLessThan, models.NumberValue(18))

	tests := []struct {
		name     string
		rc       *models.RenderCondition
		expected bool
	}{
		{"AND all true", ruleSet(models.LogicalAnd, trueCond, trueCond), true},
		{"AND one false", ruleSet(models.LogicalAnd, trueCond, falseCond), false},
		{"OR one true", ruleSet(models.LogicalOr, falseCond, trueCond), true},
		{"OR all false", ruleSet(models.LogicalOr, falseCond, falseCond), false},
		{"missing operator with conditions", ruleSet("", trueCond), false},
		{"unknown operator", ruleSet("XOR", trueCond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator()
			assert.Equal(t, tt.expected, e.Evaluate(tt.rc, answers))
		})
	}
}

func TestEvaluator_UnknownOperatorIsFalse(t *testing.T) {
	e := NewEvaluator()
	rc := ruleSet(models.LogicalAnd, cond("gender", "matches", models.StringValue("Female")))
	assert.False(t, e.Evaluate(rc, models.AnswerMap{"gender": models.StringValue("Female")}))
}

func TestEvaluator_MemoizationByContent(t *testing.T) {
	e := NewEvaluator()
	answers := models.AnswerMap{"gender": models.StringValue("Female")}

	rc := ruleSet(models.LogicalAnd, cond("gender", models.OpEquals, models.StringValue("Female")))
	first := e.Evaluate(rc, answers)
	require.True(t, first)
	require.Equal(t, 1, e.CacheSize())

	// Structurally identical but distinct instances must hit the same entry.
	rcCopy := ruleSet(models.LogicalAnd, cond("gender", models.OpEquals, models.StringValue("Female")))
	answersCopy := models.AnswerMap{"gender": models.StringValue("Female")}
	assert.Equal(t, first, e.Evaluate(rcCopy, answersCopy))
	assert.Equal(t, 1, e.CacheSize())

	// Different answer content is a different entry.
	e.Evaluate(rc, models.AnswerMap{"gender": models.StringValue("Male")})
	assert.Equal(t, 2, e.CacheSize())
}

func TestEvaluator_ClearCache(t *testing.T) {
	e := NewEvaluator()
	rc := ruleSet(models.LogicalAnd, cond("gender", models.OpEquals, models.StringValue("Female")))
	e.Evaluate(rc, models.AnswerMap{"gender": models.StringValue("Female")})
	require.NotZero(t, e.CacheSize())

	e.ClearCache()
	assert.Zero(t, e.CacheSize())
}
