package validation

import (
	"testing"

	"github.com/medflow-health/intake-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestValidateRules_Required(t *testing.T) {
	v := NewFieldValidator()
	rules := []models.ValidationRule{{Type: models.RuleRequired, Message: "need it"}}

	tests := []struct {
		name  string
		value models.Value
		valid bool
	}{
		{"null", models.NullValue(), false},
		{"empty string", models.StringValue(""), false},
		{"empty list", models.ListValue(), false},
		{"answered string", models.StringValue("yes"), true},
		{"answered list", models.ListValue("a"), true},
		{"zero number", models.NumberValue(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.ValidateRules(tt.value, rules, nil)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.Equal(t, "need it", result.Message)
			}
		})
	}
}

func TestValidateRules_EmptyShortCircuitsNonRequired(t *testing.T) {
	v := NewFieldValidator()
	rules := []models.ValidationRule{
		{Type: models.RuleEmail},
		{Type: models.RuleMinLength, Length: 5},
		{Type: models.RulePattern, Pattern: `^\d+$`},
	}

	assert.True(t, v.ValidateRules(models.NullValue(), rules, nil).Valid)
	assert.True(t, v.ValidateRules(models.StringValue(""), rules, nil).Valid)
}

func TestValidateRules_Email(t *testing.T) {
	v := NewFieldValidator()
	rules := []models.ValidationRule{{Type: models.RuleEmail}}

	assert.True(t, v.ValidateRules(models.StringValue("pat@example.com"), rules, nil).Valid)
	assert.False(t, v.ValidateRules(models.StringValue("not-an-email"), rules, nil).Valid)
	assert.False(t, v.ValidateRules(models.StringValue("pat@example"), rules, nil).Valid)
}

func TestValidateRules_Phone(t *testing.T) {
	v := NewFieldValidator()
	rules := []models.ValidationRule{{Type: models.RulePhone}}

	assert.True(t, v.ValidateRules(models.StringValue("(555) 123-4567"), rules, nil).Valid)
	assert.True(t, v.ValidateRules(models.StringValue("5551234567"), rules, nil).Valid)
	assert.False(t, v.ValidateRules(models.StringValue("12345"), rules, nil).Valid)
	assert.False(t, v.ValidateRules(models.StringValue("+44 20 7946 0958"), rules, nil).Valid)
}

func TestValidateRules_Lengths(t *testing.T) {
	v := NewFieldValidator()

	minRule := []models.ValidationRule{{Type: models.RuleMinLength, Length: 3}}
	assert.False(t, v.ValidateRules(models.StringValue("ab"), minRule, nil).Valid)
	assert.True(t, v.ValidateRules(models.StringValue("abc"), minRule, nil).Valid)

	maxRule := []models.ValidationRule{{Type: models.RuleMaxLength, Length: 3}}
	assert.True(t, v.ValidateRules(models.StringValue("abc"), maxRule, nil).Valid)
	assert.False(t, v.ValidateRules(models.StringValue("abcd"), maxRule, nil).Valid)
}

func TestValidateRules_Pattern(t *testing.T) {
	v := NewFieldValidator()
	rules := []models.ValidationRule{{Type: models.RulePattern, Pattern: `^\d{5}$`, Message: "zip please"}}

	assert.True(t, v.ValidateRules(models.StringValue("90210"), rules, nil).Valid)

	result := v.ValidateRules(models.StringValue("9021"), rules, nil)
	assert.False(t, result.Valid)
	assert.Equal(t, "zip please", result.Message)
}

func TestValidateRules_OrderShortCircuits(t *testing.T) {
	v := NewFieldValidator()
	rules := []models.ValidationRule{
		{Type: models.RuleMinLength, Length: 10, Message: "first"},
		{Type: models.RuleEmail, Message: "second"},
	}

	result := v.ValidateRules(models.StringValue("a@b.co"), rules, nil)
	assert.False(t, result.Valid)
	assert.Equal(t, "first", result.Message)
}

func TestValidateRules_CustomCrossField(t *testing.T) {
	v := NewFieldValidator()
	rules := []models.ValidationRule{{
		Type:      models.RuleCustom,
		Validator: "goalWeightBelowCurrentWeight",
		Message:   "goal must be below current weight",
	}}

	answers := models.AnswerMap{"weight": models.NumberValue(220)}
	assert.True(t, v.ValidateRules(models.NumberValue(180), rules, answers).Valid)

	result := v.ValidateRules(models.NumberValue(240), rules, answers)
	assert.False(t, result.Valid)
	assert.Equal(t, "goal must be below current weight", result.Message)

	// Missing dependency means the predicate cannot hold.
	assert.False(t, v.ValidateRules(models.NumberValue(180), rules, models.AnswerMap{}).Valid)
}

func TestValidateRules_UnknownCustomValidator(t *testing.T) {
	v := NewFieldValidator()
	rules := []models.ValidationRule{{Type: models.RuleCustom, Validator: "noSuchPredicate"}}

	assert.False(t, v.ValidateRules(models.StringValue("x"), rules, nil).Valid)
}

func TestToInternationalFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"555-123-4567", "+15551234567", true},
		{"(555) 123 4567", "+15551234567", true},
		{"5551234567", "+15551234567", true},
		{"555123456", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ToInternationalFormat(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}
}
