// Package progress aggregates meal logs into daily progress, weekly
// summaries, before/after AI comparisons and logging streaks. All functions
// operate on data the caller has already fetched and never touch storage.
package progress

import (
	"math"
	"sort"
	"time"

	"lg/nutri-coach-go-api/internal/metabolism"
)

// DateLayout is the day key format used across the engine.
const DateLayout = "2006-01-02"

// ComplianceCap bounds a single day's consumed/target ratio before averaging,
// so one extreme day cannot dominate a compliance score. Every compliance
// metric in this package goes through complianceRatio.
const ComplianceCap = 1.5

// Meal is the nutrient profile of one catalogue meal (per portion of 1.0).
type Meal struct {
	ID       int     `json:"meal_id"`
	Name     string  `json:"meal_name"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// MealLookup indexes meals by id.
type MealLookup map[int]Meal

// LogEntry is one logged meal.
type LogEntry struct {
	MealID  int       `json:"meal_id"`
	Date    time.Time `json:"date"`
	Portion float64   `json:"portion"`
}

// Goal is what the user saved on the goals screen.
type Goal struct {
	CalorieTarget int                 `json:"calorie_target"`
	ProteinTarget int                 `json:"protein_target"`
	Type          metabolism.GoalType `json:"goal_type"`
}

// DefaultGoal is used for users who never saved goals.
func DefaultGoal() Goal {
	return Goal{CalorieTarget: 2000, ProteinTarget: 100, Type: metabolism.Maintain}
}

// DailyTotals is the sum of nutrient × portion over one day's logs.
type DailyTotals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// add accumulates one logged meal. Negative portions count as zero. With
// wholeUnits each contribution is truncated to whole kcal/grams first.
func (t *DailyTotals) add(m Meal, portion float64, wholeUnits bool) {
	if portion < 0 {
		portion = 0
	}
	part := func(v float64) float64 {
		x := math.Max(v, 0) * portion
		if wholeUnits {
			return math.Trunc(x)
		}
		return x
	}
	t.Calories += part(m.Calories)
	t.ProteinG += part(m.ProteinG)
	t.CarbsG += part(m.CarbsG)
	t.FatG += part(m.FatG)
}

// SumEntries totals entries against meals. Unknown meal ids are skipped.
func SumEntries(entries []LogEntry, meals MealLookup) DailyTotals {
	var t DailyTotals
	for _, e := range entries {
		if m, ok := meals[e.MealID]; ok {
			t.add(m, e.Portion, false)
		}
	}
	return t
}

// DayKey formats t as a YYYY-MM-DD day key.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Midnight truncates t to the start of its calendar day, keeping t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// day is one calendar day of grouped logs.
type day struct {
	date   time.Time
	totals DailyTotals
	logs   int // entries on this day
	meals  int // entries whose meal was found
}

// groupDays buckets entries by calendar day, ordered by date.
func groupDays(entries []LogEntry, meals MealLookup, wholeUnits bool) []day {
	byKey := map[string]*day{}
	for _, e := range entries {
		key := DayKey(e.Date)
		d, ok := byKey[key]
		if !ok {
			d = &day{date: Midnight(e.Date)}
			byKey[key] = d
		}
		d.logs++
		if m, found := meals[e.MealID]; found {
			d.meals++
			d.totals.add(m, e.Portion, wholeUnits)
		}
	}

	out := make([]day, 0, len(byKey))
	for _, d := range byKey {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}

// complianceRatio is consumed/target capped at ComplianceCap; 0 when target <= 0.
func complianceRatio(consumed float64, target int) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(consumed/float64(target), ComplianceCap)
}

// proteinCompliance averages the capped protein ratio over days.
func proteinCompliance(days []day, target int) float64 {
	if len(days) == 0 {
		return 0
	}
	var sum float64
	for _, d := range days {
		sum += complianceRatio(d.totals.ProteinG, target)
	}
	return sum / float64(len(days))
}

// round1 and round2 round half away from zero to 1 and 2 decimals.
func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
