package progress

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MinQualifyingDays is the number of days with at least one resolvable meal
// each side of a comparison needs before any delta is reported.
const MinQualifyingDays = 3

// CompareStatus tells whether a comparison carries measured values.
type CompareStatus string

const (
	CompareOK               CompareStatus = "ok"
	CompareInsufficientData CompareStatus = "insufficient_data"
)

// Acceptance is a user accepting an AI-suggested meal.
type Acceptance struct {
	MealID     int       `json:"meal_id"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// CompareInput is the full log history of a user plus their AI usage.
type CompareInput struct {
	Entries            []LogEntry
	Meals              MealLookup
	FirstAIInteraction time.Time
	Goal               Goal
	Acceptances        []Acceptance
}

// ProteinComparison holds capped protein compliance before and after.
// Nil fields mean the side did not have enough data.
type ProteinComparison struct {
	Before     *float64 `json:"before"`
	After      *float64 `json:"after"`
	Delta      *float64 `json:"delta"`
	ChangePct  *string  `json:"change_pct"`
	BeforeDays int      `json:"before_days"`
	AfterDays  int      `json:"after_days"`
}

// StabilityComparison holds the mean absolute calorie deviation from target.
// A positive Improvement means the user got closer to target after.
type StabilityComparison struct {
	Before      *int `json:"before"`
	After       *int `json:"after"`
	Improvement *int `json:"improvement"`
}

// AIEffect splits the post-AI days into days an accepted suggestion was
// eaten versus the rest.
type AIEffect struct {
	Status              CompareStatus `json:"status"`
	AcceptedDaysProtein *float64      `json:"accepted_days_protein"`
	OtherDaysProtein    *float64      `json:"other_days_protein"`
	AcceptedCount       int           `json:"accepted_count"`
	OtherCount          int           `json:"other_count"`
}

// Comparison is the before/after analysis around the first AI interaction.
type Comparison struct {
	Status           CompareStatus       `json:"status"`
	AIStartDate      string              `json:"ai_start_date"`
	Protein          ProteinComparison   `json:"protein"`
	CalorieStability StabilityComparison `json:"calorie_stability"`
	AIEffect         AIEffect            `json:"ai_effect"`
}

// Compare splits the history at the day of the first AI interaction: days
// strictly before it form "before", the day itself and later form "after".
func Compare(in CompareInput) Comparison {
	startKey := DayKey(in.FirstAIInteraction)

	var beforeEntries, afterEntries []LogEntry
	for _, e := range in.Entries {
		if DayKey(e.Date) < startKey {
			beforeEntries = append(beforeEntries, e)
		} else {
			afterEntries = append(afterEntries, e)
		}
	}
	before := qualifyingDays(beforeEntries, in.Meals)
	after := qualifyingDays(afterEntries, in.Meals)

	out := Comparison{
		Status:      CompareInsufficientData,
		AIStartDate: startKey,
		Protein:     ProteinComparison{BeforeDays: len(before), AfterDays: len(after)},
	}

	beforeOK := len(before) >= MinQualifyingDays
	afterOK := len(after) >= MinQualifyingDays
	pt, ct := in.Goal.ProteinTarget, in.Goal.CalorieTarget

	if beforeOK {
		out.Protein.Before = floatPtr(round2(proteinCompliance(before, pt)))
		out.CalorieStability.Before = intPtr(int(calorieStability(before, ct)))
	}
	if afterOK {
		out.Protein.After = floatPtr(round2(proteinCompliance(after, pt)))
		out.CalorieStability.After = intPtr(int(calorieStability(after, ct)))
	}
	if beforeOK && afterOK {
		out.Status = CompareOK
		delta := proteinCompliance(after, pt) - proteinCompliance(before, pt)
		out.Protein.Delta = floatPtr(round2(delta))
		out.Protein.ChangePct = strPtr(changePct(delta))
		out.CalorieStability.Improvement = intPtr(int(calorieStability(before, ct) - calorieStability(after, ct)))
	}

	out.AIEffect = aiEffect(after, acceptedDays(in.Entries, in.Acceptances), pt)
	return out
}

// qualifyingDays groups entries per day and keeps days with at least one
// meal found in the catalogue.
func qualifyingDays(entries []LogEntry, meals MealLookup) []day {
	all := groupDays(entries, meals, true)
	out := all[:0]
	for _, d := range all {
		if d.meals > 0 {
			out = append(out, d)
		}
	}
	return out
}

// calorieStability is the mean |calories − target| over days.
func calorieStability(days []day, target int) float64 {
	if len(days) == 0 {
		return 0
	}
	var sum float64
	for _, d := range days {
		sum += math.Abs(d.totals.Calories - float64(target))
	}
	return sum / float64(len(days))
}

// acceptedDays returns, for each acceptance, the first day on or after the
// acceptance on which the accepted meal was logged.
func acceptedDays(entries []LogEntry, accs []Acceptance) map[string]bool {
	byMeal := map[int][]string{}
	for _, e := range entries {
		byMeal[e.MealID] = append(byMeal[e.MealID], DayKey(e.Date))
	}
	for id := range byMeal {
		sort.Strings(byMeal[id])
	}

	out := map[string]bool{}
	for _, a := range accs {
		from := DayKey(a.AcceptedAt)
		dates := byMeal[a.MealID]
		i := sort.SearchStrings(dates, from)
		if i < len(dates) {
			out[dates[i]] = true
		}
	}
	return out
}

func aiEffect(after []day, accepted map[string]bool, proteinTarget int) AIEffect {
	var acc, other []day
	for _, d := range after {
		if accepted[DayKey(d.date)] {
			acc = append(acc, d)
		} else {
			other = append(other, d)
		}
	}
	e := AIEffect{
		Status:        CompareInsufficientData,
		AcceptedCount: len(acc),
		OtherCount:    len(other),
	}
	if len(acc) >= MinQualifyingDays {
		e.AcceptedDaysProtein = floatPtr(round2(proteinCompliance(acc, proteinTarget)))
	}
	if len(other) >= MinQualifyingDays {
		e.OtherDaysProtein = floatPtr(round2(proteinCompliance(other, proteinTarget)))
	}
	if e.AcceptedDaysProtein != nil && e.OtherDaysProtein != nil {
		e.Status = CompareOK
	}
	return e
}

// changePct renders a compliance delta as a signed whole percentage, "+12%".
func changePct(delta float64) string {
	pct := int(delta * 100)
	if delta > 0 {
		return fmt.Sprintf("+%d%%", pct)
	}
	return fmt.Sprintf("%d%%", pct)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
