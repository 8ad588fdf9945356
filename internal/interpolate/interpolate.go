package interpolate

import (
	"math"
	"regexp"
	"strconv"

	"github.com/medflow-health/intake-service/internal/models"
)

var placeholderRegex = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Text replaces {{...}} placeholders with values from the answer map. A
// bare identifier resolves to the answer's display string; arithmetic
// bodies go through the whitelisted expression evaluator and render the
// absolute value of the result. Placeholders that cannot be resolved are
// left intact.
func Text(text string, answers models.AnswerMap) string {
	if text == "" {
		return text
	}

	return placeholderRegex.ReplaceAllStringFunc(text, func(match string) string {
		body := match[2 : len(match)-2]

		switch body {
		case "weeklyLossRange", "timeToGoal", "nrOfWeeks":
			current, cok := answers.Number("weight")
			goal, gok := answers.Number("goalWeight")
			if !cok || !gok {
				return match
			}
			pace := CalculatePaceValues(current, goal)
			if body == "weeklyLossRange" {
				return pace.WeeklyLossRange
			}
			return pace.TimeToGoal
		}

		if isExpression(body) {
			result, err := evalExpression(body, answers)
			if err != nil {
				return match
			}
			return strconv.FormatFloat(math.Abs(result), 'f', -1, 64)
		}

		value, ok := answers.Get(body)
		if !ok {
			return match
		}
		return value.AsString()
	})
}

// Step produces a throwaway display copy of the step with all dynamic text
// resolved. The schema step itself is never mutated.
func Step(step models.FormStep, answers models.AnswerMap) models.FormStep {
	out := step

	if step.Title != "" {
		out.Title = Text(step.Title, answers)
	}
	if step.DynamicTitle != "" {
		out.Title = Text(step.DynamicTitle, answers)
	}
	if step.Heading1 != "" {
		out.Heading1 = Text(step.Heading1, answers)
	}
	if step.DynamicHeading1 != "" {
		out.Heading1 = Text(step.DynamicHeading1, answers)
	}
	if step.Subtext != "" {
		out.Subtext = Text(step.Subtext, answers)
	}
	if step.DynamicSubtext != "" {
		out.Subtext = Text(step.DynamicSubtext, answers)
	}

	if len(step.Questions) > 0 {
		questions := make([]models.Question, len(step.Questions))
		copy(questions, step.Questions)
		for i, q := range questions {
			if q.DynamicText != "" {
				questions[i].Question = Text(q.DynamicText, answers)
			}
			if q.DynamicSubtext != "" {
				questions[i].DynamicSubtext = Text(q.DynamicSubtext, answers)
			}
		}
		out.Questions = questions
	}

	return out
}
