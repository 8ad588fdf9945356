package interpolate

import (
	"fmt"
	"math"

	"github.com/medflow-health/intake-service/internal/models"
)

// Expected GLP-1 weight loss over a year, as a fraction of starting weight.
const (
	lowerPercentLoss = 0.15
	upperPercentLoss = 0.20
	weeksInYear      = 52
)

// Average sustained weekly loss in pounds used for the medical review
// weeks-to-goal estimate.
const averageWeeklyLossLbs = 4.465

// PaceValues are the derived pace figures shown in dynamic copy.
type PaceValues struct {
	WeeklyLossRange string
	TimeToGoal      string
}

// CalculatePaceValues derives the expected weekly loss range and the rounded
// number of weeks to reach the goal weight.
func CalculatePaceValues(currentWeight, goalWeight float64) PaceValues {
	lowerWeekly := currentWeight * lowerPercentLoss / weeksInYear
	upperWeekly := currentWeight * upperPercentLoss / weeksInYear

	totalToLose := currentWeight - goalWeight
	averageWeekly := (lowerWeekly + upperWeekly) / 2
	weeks := totalToLose / averageWeekly

	return PaceValues{
		WeeklyLossRange: fmt.Sprintf("%.2f to %.2f", lowerWeekly, upperWeekly),
		TimeToGoal:      fmt.Sprintf("%d", int(math.Round(weeks))),
	}
}

// MedicalValues are the figures shown on the medical review page.
type MedicalValues struct {
	BMI           string
	CurrentWeight string
	GoalWeight    string
	WeeksToGoal   string
}

// CalculateMedicalValues derives BMI and weight-loss projections from the
// height and weight answers. Reports false when any input is missing or
// non-numeric.
func CalculateMedicalValues(answers models.AnswerMap) (MedicalValues, bool) {
	feet, fok := answers.Number("feet")
	inches, iok := answers.Number("inches")
	currentWeight, cok := answers.Number("weight")
	goalWeight, gok := answers.Number("goalWeight")
	if !fok || !iok || !cok || !gok {
		return MedicalValues{}, false
	}

	heightInches := feet*12 + inches
	if heightInches <= 0 {
		return MedicalValues{}, false
	}
	heightMeters := heightInches * 0.0254
	weightKg := currentWeight * 0.453592
	bmi := weightKg / (heightMeters * heightMeters)

	weeksToGoal := (currentWeight - goalWeight) / averageWeeklyLossLbs

	return MedicalValues{
		BMI:           fmt.Sprintf("%.2f", bmi),
		CurrentWeight: fmt.Sprintf("%.0fLBS", currentWeight),
		GoalWeight:    fmt.Sprintf("%.0fLBS WITHIN %.2f WEEKS", goalWeight, weeksToGoal),
		WeeksToGoal:   fmt.Sprintf("%.2f", weeksToGoal),
	}, true
}
