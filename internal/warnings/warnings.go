// Package warnings turns one day's consumption and activity into
// deterministic, human-readable feedback. No AI is involved.
package warnings

import (
	"fmt"
	"math"
)

// Type is the severity of a feedback entry.
type Type string

const (
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
)

// Category identifies which rule produced an entry.
type Category string

const (
	CalorieExcess     Category = "calorie_excess"
	CalorieDeficit    Category = "calorie_deficit"
	CalorieOnTarget   Category = "calorie_on_target"
	ProteinDeficit    Category = "protein_deficit"
	ProteinExcess     Category = "protein_excess"
	ProteinMet        Category = "protein_met"
	LowActivity       Category = "low_activity"
	ActivityExcellent Category = "activity_excellent"
	ActivityGoalMet   Category = "activity_goal_met"
)

// Rule thresholds.
const (
	calorieExcessMargin  = 300
	calorieDeficitMargin = 500
	calorieOnTargetBand  = 100
	proteinDeficitRatio  = 0.8
	proteinExcessRatio   = 1.4
	lowActivitySteps     = 4000
	stepGoal             = 8000
	excellentSteps       = 12000
)

// Warning is a single feedback entry.
type Warning struct {
	Type     Type     `json:"type"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// Day is the input to Evaluate.
type Day struct {
	TargetKcal      int
	ConsumedKcal    float64
	ProteinTarget   int
	ConsumedProtein float64
	Steps           int
}

// Evaluate applies the calorie, protein and activity rules in that order.
// Each rule group contributes at most one entry.
func Evaluate(d Day) []Warning {
	out := []Warning{}

	if w, ok := calorieRule(d); ok {
		out = append(out, w)
	}
	if w, ok := proteinRule(d); ok {
		out = append(out, w)
	}
	if w, ok := activityRule(d); ok {
		out = append(out, w)
	}
	return out
}

func calorieRule(d Day) (Warning, bool) {
	if d.TargetKcal <= 0 {
		return Warning{}, false
	}
	target := float64(d.TargetKcal)
	switch {
	case d.ConsumedKcal > target+calorieExcessMargin:
		over := int(math.Round(d.ConsumedKcal - target))
		return Warning{TypeWarning, CalorieExcess, fmt.Sprintf("You went over your calorie target (+%d kcal).", over)}, true
	case d.ConsumedKcal > 0 && d.ConsumedKcal < target-calorieDeficitMargin:
		return Warning{TypeWarning, CalorieDeficit, "Your calorie intake is very low today; your energy may drop."}, true
	case math.Abs(d.ConsumedKcal-target) <= calorieOnTargetBand:
		return Warning{TypeSuccess, CalorieOnTarget, "Right on your calorie target. Great job."}, true
	}
	return Warning{}, false
}

func proteinRule(d Day) (Warning, bool) {
	if d.ProteinTarget <= 0 {
		return Warning{}, false
	}
	target := float64(d.ProteinTarget)
	switch {
	case d.ConsumedProtein > 0 && d.ConsumedProtein < target*proteinDeficitRatio:
		return Warning{TypeWarning, ProteinDeficit, fmt.Sprintf("Protein is below target (%.0fg / %dg). Risk of muscle loss.", d.ConsumedProtein, d.ProteinTarget)}, true
	case d.ConsumedProtein > target*proteinExcessRatio:
		return Warning{TypeInfo, ProteinExcess, "Protein intake is quite high. Remember to drink plenty of water."}, true
	case d.ConsumedProtein >= target:
		return Warning{TypeSuccess, ProteinMet, "You hit your protein target!"}, true
	}
	return Warning{}, false
}

// activityRule checks > excellentSteps before >= stepGoal so a single day
// never fires both success messages.
func activityRule(d Day) (Warning, bool) {
	switch {
	case d.Steps < lowActivitySteps:
		return Warning{TypeWarning, LowActivity, "Very little movement today. A short walk would help."}, true
	case d.Steps > excellentSteps:
		return Warning{TypeSuccess, ActivityExcellent, "Excellent activity day! You smashed your step goal."}, true
	case d.Steps >= stepGoal:
		return Warning{TypeSuccess, ActivityGoalMet, "You reached your daily step goal."}, true
	}
	return Warning{}, false
}

// Topic buckets a category for "most frequent warning" reporting.
func Topic(c Category) string {
	switch c {
	case ProteinDeficit, ProteinExcess, ProteinMet:
		return "protein_imbalance"
	case CalorieExcess:
		return "calorie_excess"
	case CalorieDeficit:
		return "calorie_deficit"
	case LowActivity:
		return "low_activity"
	default:
		return "general"
	}
}

// OnlyWarnings filters ws down to warning-typed entries.
func OnlyWarnings(ws []Warning) []Warning {
	out := []Warning{}
	for _, w := range ws {
		if w.Type == TypeWarning {
			out = append(out, w)
		}
	}
	return out
}
