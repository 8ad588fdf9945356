package models

// ConditionOperator is the closed set of comparison operators supported by
// render conditions.
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "notEquals"
	OpGreaterThan ConditionOperator = "greaterThan"
	OpLessThan    ConditionOperator = "lessThan"
)

// LogicalOperator combines the atomic conditions of a rule-set.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// Condition is one atomic field/operator/value rule evaluated against the
// answer map.
type Condition struct {
	Field    string            `json:"field" validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required,condition_operator"`
	Value    Value             `json:"value"`
}

// RenderCondition is the rule-set controlling a step's visibility. A nil or
// empty rule-set means the step is always shown.
type RenderCondition struct {
	Conditions      []Condition     `json:"conditions"`
	LogicalOperator LogicalOperator `json:"logicalOperator" validate:"omitempty,logical_operator"`
}

// IsEmpty reports whether the rule-set has no conditions to evaluate.
func (rc *RenderCondition) IsEmpty() bool {
	return rc == nil || len(rc.Conditions) == 0
}
