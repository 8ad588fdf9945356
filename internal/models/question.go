package models

import "fmt"

// QuestionType is the closed tag set of question variants. Text-like types
// keep the lowercase spelling of the source schemas; widget and
// presentational types are uppercase.
type QuestionType string

const (
	TypeText     QuestionType = "text"
	TypeTextarea QuestionType = "textarea"
	TypeNumber   QuestionType = "number"
	TypeEmail    QuestionType = "email"
	TypeTel      QuestionType = "tel"

	TypeDropdown     QuestionType = "DROPDOWN"
	TypeSingleSelect QuestionType = "SINGLESELECT"
	TypeMultiSelect  QuestionType = "MULTISELECT"
	TypeCheckbox     QuestionType = "CHECKBOX"
	TypeFileInput    QuestionType = "FILE_INPUT"

	// Presentational pages. Always complete regardless of answer state.
	TypeMarketing     QuestionType = "MARKETING"
	TypeBeforeAfter   QuestionType = "BEFORE_AFTER"
	TypePerfect       QuestionType = "PERFECT"
	TypeMedicalReview QuestionType = "MEDICAL_REVIEW"
	TypeWeightSummary QuestionType = "WEIGHT_SUMMARY"
)

// Presentational reports whether the type is a non-interactive page that
// never collects an answer.
func (t QuestionType) Presentational() bool {
	switch t {
	case TypeMarketing, TypeBeforeAfter, TypePerfect, TypeMedicalReview, TypeWeightSummary:
		return true
	}
	return false
}

// Valid reports whether t belongs to the closed tag set.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeNumber, TypeEmail, TypeTel,
		TypeDropdown, TypeSingleSelect, TypeMultiSelect, TypeCheckbox, TypeFileInput:
		return true
	}
	return t.Presentational()
}

// APIType is the submission-facing type tag. Questions without one are not
// part of the submission payload.
type APIType string

const (
	APITypeText         APIType = "TEXT"
	APITypeDate         APIType = "DATE"
	APITypeSingleSelect APIType = "SINGLESELECT"
	APITypeMultiSelect  APIType = "MULTISELECT"
	APITypeFile         APIType = "FILE"
)

// RuleType is the closed set of validation rule kinds.
type RuleType string

const (
	RuleRequired  RuleType = "required"
	RuleEmail     RuleType = "email"
	RulePhone     RuleType = "phone"
	RuleMinLength RuleType = "minLength"
	RuleMaxLength RuleType = "maxLength"
	RulePattern   RuleType = "pattern"
	RuleCustom    RuleType = "custom"
)

// ValidationRule is one data-described validation constraint. Length carries
// the bound for minLength/maxLength, Pattern the regex source for pattern,
// and Validator the registry name of a cross-field predicate for custom
// rules (schemas are data, so custom rules are referenced by name).
type ValidationRule struct {
	Type      RuleType `json:"type"`
	Message   string   `json:"message,omitempty"`
	Length    int      `json:"length,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Validator string   `json:"validator,omitempty"`
}

// Question is one schema-defined question. Defined statically per quiz and
// never mutated at runtime; interpolated display text is produced on a
// throwaway copy.
type Question struct {
	ID              string           `json:"id"`
	Question        string           `json:"question,omitempty"`
	DisplayQuestion string           `json:"displayQuestion,omitempty"`
	Type            QuestionType     `json:"type"`
	APIType         APIType          `json:"apiType,omitempty"`
	Required        bool             `json:"required"`
	Placeholder     string           `json:"placeholder,omitempty"`
	Options         []string         `json:"options,omitempty"`
	OptionLabels    []string         `json:"optionLabels,omitempty"`
	Validation      []ValidationRule `json:"validation,omitempty"`
	DynamicText     string           `json:"dynamicText,omitempty"`
	DynamicSubtext  string           `json:"dynamicSubtext,omitempty"`
	Image           string           `json:"image,omitempty"`
}

// Label returns the submission label for the question, falling back to a
// synthesized placeholder so emitted entries never carry an empty label.
func (q Question) Label() string {
	if q.Question != "" {
		return q.Question
	}
	return fmt.Sprintf("Question %s", q.ID)
}

// DefaultAnswer is the unanswered value for the question type: multiselect
// answers are always lists, everything else starts null.
func (q Question) DefaultAnswer() Value {
	if q.Type == TypeMultiSelect {
		return ListValue()
	}
	return NullValue()
}
