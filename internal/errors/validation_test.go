package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	// Test NewValidationError
	err := NewValidationError("test_field", "test message", "test_value")

	if err.Field != "test_field" {
		t.Errorf("Expected field to be 'test_field', got '%s'", err.Field)
	}

	if err.Message != "test message" {
		t.Errorf("Expected message to be 'test message', got '%s'", err.Message)
	}

	if err.Value != "test_value" {
		t.Errorf("Expected value to be 'test_value', got '%v'", err.Value)
	}

	// Test Error method
	expected := "validation error on field 'test_field': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	// Test empty ValidationErrors
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	// Test single ValidationError
	errs = append(errs, *NewValidationError("field1", "message1", nil))
	expected := "validation failed: field1 message1"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	// Test multiple ValidationErrors
	errs = append(errs, *NewValidationError("field2", "message2", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("test_field", "test message", "required", "test_value")

	if err.Rule != "required" {
		t.Errorf("Expected rule to be 'required', got '%s'", err.Rule)
	}

	if err.Field != "test_field" {
		t.Errorf("Expected field to be 'test_field', got '%s'", err.Field)
	}
}

func TestToValidationErrors(t *testing.T) {
	v := validator.New()
	// Stub registrations so the schema tags fail and produce FieldErrors;
	// the real implementations live in the validator package.
	for _, tag := range []string{"question_type", "api_type", "condition_operator", "logical_operator", "rule_type"} {
		if err := v.RegisterValidation(tag, func(validator.FieldLevel) bool { return false }); err != nil {
			t.Fatalf("Failed to register stub validation: %v", err)
		}
	}

	type schemaFields struct {
		Name      string `validate:"required"`
		Kind      string `validate:"question_type"`
		APIType   string `validate:"api_type"`
		CondOp    string `validate:"condition_operator"`
		LogicalOp string `validate:"logical_operator"`
		RuleType  string `validate:"rule_type"`
	}

	err := v.Struct(schemaFields{})
	if err == nil {
		t.Fatal("Expected validation to fail")
	}

	errs := ToValidationErrors(err)
	if len(errs) != 6 {
		t.Fatalf("Expected 6 validation errors, got %d", len(errs))
	}

	expected := map[string]string{
		"Name":      "is required",
		"Kind":      "must be a valid question type",
		"APIType":   "must be a valid API type (TEXT, DATE, SINGLESELECT, MULTISELECT, FILE)",
		"CondOp":    "must be a valid condition operator (equals, notEquals, greaterThan, lessThan)",
		"LogicalOp": "must be AND or OR",
		"RuleType":  "must be a valid validation rule type (required, email, phone, minLength, maxLength, pattern, custom)",
	}
	for _, ve := range errs {
		want, ok := expected[ve.Field]
		if !ok {
			t.Errorf("Unexpected field '%s' in validation errors", ve.Field)
			continue
		}
		if ve.Message != want {
			t.Errorf("Expected message '%s' for field '%s', got '%s'", want, ve.Field, ve.Message)
		}
	}
}

func TestToValidationErrors_UnknownTagFallback(t *testing.T) {
	v := validator.New()

	type withUnmapped struct {
		Code string `validate:"lowercase"`
	}

	errs := ToValidationErrors(v.Struct(withUnmapped{Code: "LOUD"}))
	if len(errs) != 1 {
		t.Fatalf("Expected 1 validation error, got %d", len(errs))
	}
	if errs[0].Message != "validation failed for rule 'lowercase'" {
		t.Errorf("Expected fallback message, got '%s'", errs[0].Message)
	}
}
