package rules

import (
	"encoding/json"
	"sync"

	"github.com/medflow-health/intake-service/internal/models"
)

// Evaluator decides whether render-condition rule-sets hold against an
// answer map. Results are memoized by a structural key derived from the
// rule-set and answer contents, so two structurally identical evaluations
// hit the cache regardless of object identity.
//
// The cache grows without bound for the evaluator's lifetime; long-running
// owners should call ClearCache between sessions.
type Evaluator struct {
	mu    sync.Mutex
	cache map[string]bool
}

func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]bool)}
}

// Evaluate reports whether the rule-set is satisfied by the answers. A nil
// or empty rule-set is always satisfied: unconditioned steps are shown.
func (e *Evaluator) Evaluate(rc *models.RenderCondition, answers models.AnswerMap) bool {
	if rc.IsEmpty() {
		return true
	}

	key := cacheKey(rc, answers)
	if key != "" {
		e.mu.Lock()
		if cached, ok := e.cache[key]; ok {
			e.mu.Unlock()
			return cached
		}
		e.mu.Unlock()
	}

	result := evaluateRuleSet(rc, answers)

	if key != "" {
		e.mu.Lock()
		e.cache[key] = result
		e.mu.Unlock()
	}
	return result
}

func evaluateRuleSet(rc *models.RenderCondition, answers models.AnswerMap) bool {
	switch rc.LogicalOperator {
	case models.LogicalAnd:
		for _, c := range rc.Conditions {
			if !evaluateCondition(c, answers) {
				return false
			}
		}
		return true
	case models.LogicalOr:
		for _, c := range rc.Conditions {
			if evaluateCondition(c, answers) {
				return true
			}
		}
		return false
	default:
		// Malformed rule-set. Bias toward hiding conditional content
		// rather than crashing navigation.
		return false
	}
}

// ClearCache drops all memoized results.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]bool)
	e.mu.Unlock()
}

// CacheSize returns the number of memoized entries.
func (e *Evaluator) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// evaluateCondition evaluates one atomic condition. An unanswered field is
// false for every operator, including notEquals: conditional steps stay
// hidden until their dependency is actually answered.
func evaluateCondition(c models.Condition, answers models.AnswerMap) bool {
	answer, ok := answers.Get(c.Field)
	if !ok {
		return false
	}

	switch c.Operator {
	case models.OpEquals:
		return answer.Equal(c.Value)
	case models.OpNotEquals:
		return !answer.Equal(c.Value)
	case models.OpGreaterThan:
		a, aok := answer.AsNumber()
		b, bok := c.Value.AsNumber()
		return aok && bok && a > b
	case models.OpLessThan:
		a, aok := answer.AsNumber()
		b, bok := c.Value.AsNumber()
		return aok && bok && a < b
	default:
		return false
	}
}

// cacheKey builds a content-derived key. encoding/json writes map keys in
// sorted order, so equal answer maps always produce equal keys.
func cacheKey(rc *models.RenderCondition, answers models.AnswerMap) string {
	condPart, err := json.Marshal(rc)
	if err != nil {
		return ""
	}
	answerPart, err := json.Marshal(answers)
	if err != nil {
		return ""
	}
	return string(condPart) + ":" + string(answerPart)
}
