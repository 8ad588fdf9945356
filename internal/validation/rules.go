package validation

import (
	"regexp"
	"strings"

	"github.com/medflow-health/intake-service/internal/models"
)

// Result is the outcome of validating one answer. Message is user-facing
// and recoverable, never an error.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func valid() Result { return Result{Valid: true} }

func invalid(message, fallback string) Result {
	if message == "" {
		message = fallback
	}
	return Result{Valid: false, Message: message}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var nonDigits = regexp.MustCompile(`\D`)

// CrossFieldFunc is a named custom predicate over the answer value and the
// full answer map, for rules like goal-weight < current-weight. Schemas are
// data, so custom rules reference predicates by registry name.
type CrossFieldFunc func(value models.Value, answers models.AnswerMap) bool

// FieldValidator validates data-described rules against answer values. It is
// an explicitly constructed service; the built-in cross-field predicates can
// be extended via Register.
type FieldValidator struct {
	custom map[string]CrossFieldFunc
}

func NewFieldValidator() *FieldValidator {
	v := &FieldValidator{custom: make(map[string]CrossFieldFunc)}
	v.Register("goalWeightBelowCurrentWeight", goalWeightBelowCurrentWeight)
	return v
}

// Register installs or replaces a named cross-field predicate.
func (v *FieldValidator) Register(name string, fn CrossFieldFunc) {
	v.custom[name] = fn
}

// ValidateRules applies the rules in declared order, first failure wins.
func (v *FieldValidator) ValidateRules(value models.Value, rules []models.ValidationRule, answers models.AnswerMap) Result {
	for _, rule := range rules {
		if r := v.validateRule(value, rule, answers); !r.Valid {
			return r
		}
	}
	return valid()
}

// validateRule checks a single rule. Empty values short-circuit to valid for
// every rule kind except required, so required is always evaluated
// explicitly rather than skipped by emptiness.
func (v *FieldValidator) validateRule(value models.Value, rule models.ValidationRule, answers models.AnswerMap) Result {
	empty := value.IsEmpty() || (value.Kind == models.KindList && len(value.List) == 0)

	if rule.Type == models.RuleRequired {
		if empty {
			return invalid(rule.Message, "This field is required")
		}
		return valid()
	}

	if empty {
		return valid()
	}

	switch rule.Type {
	case models.RuleEmail:
		if !emailRegex.MatchString(value.AsString()) {
			return invalid(rule.Message, "Please enter a valid email address")
		}
	case models.RulePhone:
		if _, ok := ToInternationalFormat(value.AsString()); !ok {
			return invalid(rule.Message, "Please enter a valid US phone number")
		}
	case models.RuleMinLength:
		if len(value.AsString()) < rule.Length {
			return invalid(rule.Message, "Answer is too short")
		}
	case models.RuleMaxLength:
		if len(value.AsString()) > rule.Length {
			return invalid(rule.Message, "Answer is too long")
		}
	case models.RulePattern:
		re, err := regexp.Compile(rule.Pattern)
		if err != nil || !re.MatchString(value.AsString()) {
			return invalid(rule.Message, "Answer has an invalid format")
		}
	case models.RuleCustom:
		fn, ok := v.custom[rule.Validator]
		if !ok {
			// Unknown predicate name. Treat as unsatisfied rather than
			// silently passing unvalidated input through.
			return invalid(rule.Message, "Answer failed validation")
		}
		if !fn(value, answers) {
			return invalid(rule.Message, "Answer failed validation")
		}
	}

	return valid()
}

// ToInternationalFormat converts a US phone number in any common formatting
// to +1XXXXXXXXXX. Reports false when the digits do not form a 10-digit US
// number.
func ToInternationalFormat(phone string) (string, bool) {
	digits := nonDigits.ReplaceAllString(strings.TrimSpace(phone), "")
	if len(digits) != 10 {
		return "", false
	}
	return "+1" + digits, true
}

func goalWeightBelowCurrentWeight(value models.Value, answers models.AnswerMap) bool {
	goal, gok := value.AsNumber()
	current, cok := answers.Number("weight")
	if !gok || !cok {
		return false
	}
	return goal < current
}
