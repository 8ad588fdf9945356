package validator

import (
	"fmt"
	"regexp"

	"github.com/medflow-health/intake-service/internal/models"
)

// SchemaValidator checks the internal consistency of a quiz schema beyond
// what struct tags can express: id uniqueness, closed tag sets, compilable
// patterns and condition fields that actually exist.
type SchemaValidator struct{}

func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// Validate runs all schema checks and collects every violation.
func (v *SchemaValidator) Validate(cfg *models.QuizConfig) ValidationErrors {
	var errs ValidationErrors

	if len(cfg.Steps) == 0 {
		errs = append(errs, ValidationError{Field: "steps", Message: "quiz must have at least one step"})
		return errs
	}

	stepIDs := make(map[string]bool, len(cfg.Steps))
	questionIDs := make(map[string]bool)
	for _, step := range cfg.Steps {
		if step.ID == "" {
			errs = append(errs, ValidationError{Field: "steps", Message: "step id is required"})
			continue
		}
		if stepIDs[step.ID] {
			errs = append(errs, ValidationError{
				Field:   "steps",
				Message: fmt.Sprintf("duplicate step id '%s'", step.ID),
				Value:   step.ID,
			})
		}
		stepIDs[step.ID] = true

		for _, q := range step.Questions {
			errs = append(errs, v.validateQuestion(step.ID, q, questionIDs)...)
		}
	}

	for _, step := range cfg.Steps {
		errs = append(errs, v.validateCondition(step.ID, step.RenderCondition, questionIDs)...)
	}

	errs = append(errs, v.validateProgress(cfg, stepIDs)...)
	return errs
}

func (v *SchemaValidator) validateQuestion(stepID string, q models.Question, seen map[string]bool) ValidationErrors {
	var errs ValidationErrors
	field := fmt.Sprintf("steps.%s.questions", stepID)

	if q.ID == "" {
		errs = append(errs, ValidationError{Field: field, Message: "question id is required"})
		return errs
	}
	if seen[q.ID] {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("duplicate question id '%s'", q.ID),
			Value:   q.ID,
		})
	}
	seen[q.ID] = true

	if !q.Type.Valid() {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("question '%s' has unknown type '%s'", q.ID, q.Type),
			Value:   string(q.Type),
		})
	}

	for _, rule := range q.Validation {
		switch rule.Type {
		case models.RuleRequired, models.RuleEmail, models.RulePhone:
		case models.RuleMinLength, models.RuleMaxLength:
			if rule.Length <= 0 {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("question '%s' %s rule needs a positive length", q.ID, rule.Type),
				})
			}
		case models.RulePattern:
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("question '%s' pattern does not compile: %v", q.ID, err),
					Value:   rule.Pattern,
				})
			}
		case models.RuleCustom:
			if rule.Validator == "" {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("question '%s' custom rule needs a validator name", q.ID),
				})
			}
		default:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("question '%s' has unknown rule type '%s'", q.ID, rule.Type),
				Value:   string(rule.Type),
			})
		}
	}
	return errs
}

func (v *SchemaValidator) validateCondition(stepID string, rc *models.RenderCondition, questionIDs map[string]bool) ValidationErrors {
	if rc.IsEmpty() {
		return nil
	}

	var errs ValidationErrors
	field := fmt.Sprintf("steps.%s.renderCondition", stepID)

	switch rc.LogicalOperator {
	case models.LogicalAnd, models.LogicalOr:
	default:
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("unknown logical operator '%s'", rc.LogicalOperator),
			Value:   string(rc.LogicalOperator),
		})
	}

	for _, c := range rc.Conditions {
		switch c.Operator {
		case models.OpEquals, models.OpNotEquals, models.OpGreaterThan, models.OpLessThan:
		default:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown condition operator '%s'", c.Operator),
				Value:   string(c.Operator),
			})
		}
		if !questionIDs[c.Field] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("condition references unknown question '%s'", c.Field),
				Value:   c.Field,
			})
		}
	}
	return errs
}

func (v *SchemaValidator) validateProgress(cfg *models.QuizConfig, stepIDs map[string]bool) ValidationErrors {
	var errs ValidationErrors

	phaseIDs := make(map[string]bool, len(cfg.ProgressSteps))
	for _, p := range cfg.ProgressSteps {
		if phaseIDs[p.ID] {
			errs = append(errs, ValidationError{
				Field:   "progressSteps",
				Message: fmt.Sprintf("duplicate progress step id '%s'", p.ID),
				Value:   p.ID,
			})
		}
		phaseIDs[p.ID] = true
	}

	for _, m := range cfg.StepProgressMapping {
		if !stepIDs[m.StepID] {
			errs = append(errs, ValidationError{
				Field:   "stepProgressMapping",
				Message: fmt.Sprintf("mapping references unknown step '%s'", m.StepID),
				Value:   m.StepID,
			})
		}
		if !phaseIDs[m.ProgressStepID] {
			errs = append(errs, ValidationError{
				Field:   "stepProgressMapping",
				Message: fmt.Sprintf("mapping references unknown progress step '%s'", m.ProgressStepID),
				Value:   m.ProgressStepID,
			})
		}
	}
	return errs
}
