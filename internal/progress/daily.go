package progress

import (
	"time"

	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/warnings"
)

// Status classifies a day's calorie percentage.
type Status string

const (
	StatusExceeded Status = "exceeded"
	StatusLow      Status = "low"
	StatusOnTrack  Status = "on_track"
)

// DayInput is everything AggregateDay needs for one date.
type DayInput struct {
	Date    time.Time
	Entries []LogEntry
	Meals   MealLookup
	Goal    Goal
	// Metrics is the day's resolved metabolism result (see metabolism.ForDay);
	// HasMetrics is false when the user has no profile and no snapshot.
	Metrics    metabolism.Result
	HasMetrics bool
	Steps      int
}

// DailyProgress is the consumed-vs-target view of one day.
type DailyProgress struct {
	Date              string             `json:"date"`
	CalorieTarget     int                `json:"calorie_target"`
	CalorieConsumed   float64            `json:"calorie_consumed"`
	CaloriePct        float64            `json:"calorie_pct"`
	ProteinTarget     int                `json:"protein_target"`
	ProteinConsumed   float64            `json:"protein_consumed"`
	ProteinPct        float64            `json:"protein_pct"`
	CarbsConsumed     float64            `json:"carbs_consumed"`
	FatConsumed       float64            `json:"fat_consumed"`
	RemainingCalories float64            `json:"remaining_calories"`
	RemainingProtein  float64            `json:"remaining_protein"`
	Steps             int                `json:"steps"`
	Status            Status             `json:"status"`
	Warnings          []warnings.Warning `json:"warnings"`
}

// ResolveCalorieTarget picks the day's calorie target: maintain uses TDEE when
// it is known, every other goal type uses the flat goal target.
func ResolveCalorieTarget(g Goal, m metabolism.Result, hasMetrics bool) int {
	if g.Type == metabolism.Maintain && hasMetrics && m.TDEE > 0 {
		return m.TDEE
	}
	return g.CalorieTarget
}

// Percent returns consumed/target as a percentage rounded to one decimal,
// or 0 when target <= 0.
func Percent(consumed float64, target int) float64 {
	if target <= 0 {
		return 0
	}
	return round1(consumed / float64(target) * 100)
}

// ClassifyStatus maps a calorie percentage to a status.
func ClassifyStatus(pct float64) Status {
	switch {
	case pct > 120:
		return StatusExceeded
	case pct < 50:
		return StatusLow
	default:
		return StatusOnTrack
	}
}

// AggregateDay totals the entries logged on in.Date and evaluates them
// against the resolved targets. Entries for other dates are ignored.
func AggregateDay(in DayInput) DailyProgress {
	key := DayKey(in.Date)
	todays := make([]LogEntry, 0, len(in.Entries))
	for _, e := range in.Entries {
		if DayKey(e.Date) == key {
			todays = append(todays, e)
		}
	}
	totals := SumEntries(todays, in.Meals)

	calTarget := ResolveCalorieTarget(in.Goal, in.Metrics, in.HasMetrics)
	protTarget := in.Goal.ProteinTarget
	calPct := Percent(totals.Calories, calTarget)

	return DailyProgress{
		Date:              key,
		CalorieTarget:     calTarget,
		CalorieConsumed:   round1(totals.Calories),
		CaloriePct:        calPct,
		ProteinTarget:     protTarget,
		ProteinConsumed:   round1(totals.ProteinG),
		ProteinPct:        Percent(totals.ProteinG, protTarget),
		CarbsConsumed:     round1(totals.CarbsG),
		FatConsumed:       round1(totals.FatG),
		RemainingCalories: round1(float64(calTarget) - totals.Calories),
		RemainingProtein:  round1(float64(protTarget) - totals.ProteinG),
		Steps:             in.Steps,
		Status:            ClassifyStatus(calPct),
		Warnings: warnings.Evaluate(warnings.Day{
			TargetKcal:      calTarget,
			ConsumedKcal:    totals.Calories,
			ProteinTarget:   protTarget,
			ConsumedProtein: totals.ProteinG,
			Steps:           in.Steps,
		}),
	}
}
