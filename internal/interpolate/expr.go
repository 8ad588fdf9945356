package interpolate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/medflow-health/intake-service/internal/models"
)

// Small whitelisted expression evaluator for display placeholders: variable
// lookup plus + - * / over numeric answers. Replaces the source's dynamic
// expression evaluation so display templates cannot run arbitrary code.

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOperator
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, token{kind: tokOperator, text: string(c)})
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			n, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", expr[i:j])
			}
			tokens = append(tokens, token{kind: tokNumber, num: n})
			i = j
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			j := i
			for j < len(expr) && (expr[j] == '_' ||
				expr[j] >= 'a' && expr[j] <= 'z' ||
				expr[j] >= 'A' && expr[j] <= 'Z' ||
				expr[j] >= '0' && expr[j] <= '9') {
				j++
			}
			tokens = append(tokens, token{kind: tokIdent, text: expr[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return tokens, nil
}

// evalExpression evaluates a flat arithmetic expression with the usual
// precedence (* / before + -), resolving identifiers through the answers.
// Any unresolvable identifier or malformed input fails the whole expression.
func evalExpression(expr string, answers models.AnswerMap) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}

	// Resolve operands up front so failures surface before arithmetic.
	var operands []float64
	var operators []string
	expectOperand := true
	for _, t := range tokens {
		if expectOperand {
			switch t.kind {
			case tokNumber:
				operands = append(operands, t.num)
			case tokIdent:
				n, ok := answers.Number(t.text)
				if !ok {
					return 0, fmt.Errorf("unresolved variable %q", t.text)
				}
				operands = append(operands, n)
			default:
				return 0, fmt.Errorf("expected operand, got %q", t.text)
			}
			expectOperand = false
			continue
		}
		if t.kind != tokOperator {
			return 0, fmt.Errorf("expected operator")
		}
		operators = append(operators, t.text)
		expectOperand = true
	}
	if expectOperand {
		return 0, fmt.Errorf("trailing operator")
	}

	// First pass: * and /.
	var nums []float64
	var ops []string
	nums = append(nums, operands[0])
	for i, op := range operators {
		next := operands[i+1]
		if op == "*" || op == "/" {
			last := nums[len(nums)-1]
			if op == "*" {
				nums[len(nums)-1] = last * next
			} else {
				if next == 0 {
					return 0, fmt.Errorf("division by zero")
				}
				nums[len(nums)-1] = last / next
			}
			continue
		}
		ops = append(ops, op)
		nums = append(nums, next)
	}

	// Second pass: + and -.
	result := nums[0]
	for i, op := range ops {
		if op == "+" {
			result += nums[i+1]
		} else {
			result -= nums[i+1]
		}
	}
	return result, nil
}

// isExpression reports whether a placeholder body contains arithmetic
// rather than a bare variable name.
func isExpression(body string) bool {
	return strings.ContainsAny(body, "+-*/")
}
