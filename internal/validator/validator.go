package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/medflow-health/intake-service/internal/models"
)

// Validator is the main validator instance that combines struct-tag
// validation with quiz schema validation.
type Validator struct {
	structValidator *validator.Validate
	schemaValidator *SchemaValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		schemaValidator: NewSchemaValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// ValidateSchema validates a quiz schema's internal consistency
func (v *Validator) ValidateSchema(cfg *models.QuizConfig) ValidationErrors {
	return v.schemaValidator.Validate(cfg)
}

// Schema returns the schema validator
func (v *Validator) Schema() *SchemaValidator {
	return v.schemaValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("api_type", validateAPIType)
	validate.RegisterValidation("condition_operator", validateConditionOperator)
	validate.RegisterValidation("logical_operator", validateLogicalOperator)
	validate.RegisterValidation("rule_type", validateRuleType)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).Valid()
}

func validateAPIType(fl validator.FieldLevel) bool {
	switch models.APIType(fl.Field().String()) {
	case models.APITypeText, models.APITypeDate, models.APITypeSingleSelect,
		models.APITypeMultiSelect, models.APITypeFile:
		return true
	}
	return false
}

func validateConditionOperator(fl validator.FieldLevel) bool {
	switch models.ConditionOperator(fl.Field().String()) {
	case models.OpEquals, models.OpNotEquals, models.OpGreaterThan, models.OpLessThan:
		return true
	}
	return false
}

func validateLogicalOperator(fl validator.FieldLevel) bool {
	switch models.LogicalOperator(fl.Field().String()) {
	case models.LogicalAnd, models.LogicalOr:
		return true
	}
	return false
}

func validateRuleType(fl validator.FieldLevel) bool {
	switch models.RuleType(fl.Field().String()) {
	case models.RuleRequired, models.RuleEmail, models.RulePhone,
		models.RuleMinLength, models.RuleMaxLength, models.RulePattern, models.RuleCustom:
		return true
	}
	return false
}
