package progress

import (
	"fmt"
	"time"

	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/warnings"
)

// WeekDays is the fixed length of the summary window and the denominator of
// the consistency score.
const WeekDays = 7

// consistencyBand is the ±15% window around the calorie target.
const consistencyBand = 0.15

// targetHitLow and targetHitHigh bound the dashboard's "target hit" band as
// tenths of the calorie target (80% to 120%).
const (
	targetHitLow  = 8
	targetHitHigh = 12
)

// WeeklyInput is everything Summarize needs. Entries and Activity outside the
// window are ignored.
type WeeklyInput struct {
	End            time.Time
	Entries        []LogEntry
	Meals          MealLookup
	Goal           Goal
	Activity       []metabolism.Snapshot
	AIInteractions int
	AIAcceptances  int
}

// DaySummary is one calendar day of the window. Days without logs have
// HasData=false and zero totals.
type DaySummary struct {
	Date     string  `json:"date"`
	HasData  bool    `json:"has_data"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	Steps    int     `json:"steps"`
	OnTarget bool    `json:"on_target"`
}

// WeeklySummary aggregates the 7 days ending at End.
type WeeklySummary struct {
	WeekRange          string       `json:"week_range"`
	StartDate          string       `json:"start_date"`
	EndDate            string       `json:"end_date"`
	DaysLogged         int          `json:"days_logged"`
	AvgCalories        int          `json:"avg_calorie"`
	AvgProtein         int          `json:"avg_protein"`
	CalorieTarget      int          `json:"calorie_target"`
	ProteinTarget      int          `json:"protein_target"`
	ConsistencyScore   float64      `json:"consistency_score"`
	ProteinCompliance  float64      `json:"protein_compliance"`
	CalorieTrend       Trend        `json:"calorie_trend"`
	ProteinTrend       Trend        `json:"protein_trend"`
	AIInteractionCount int          `json:"ai_interaction_count"`
	AIAcceptanceRate   float64      `json:"ai_acceptance_rate"`
	TopWarning         *string      `json:"top_warning"`
	BestDay            *DaySummary  `json:"best_day"`
	WorstDay           *DaySummary  `json:"worst_day"`
	TargetHitPct       float64      `json:"target_hit_pct"`
	Days               []DaySummary `json:"days"`
}

// Summarize builds the weekly summary for the window [End-6d, End].
func Summarize(in WeeklyInput) WeeklySummary {
	end := Midnight(in.End)
	start := end.AddDate(0, 0, -(WeekDays - 1))
	startKey, endKey := DayKey(start), DayKey(end)

	inWindow := make([]LogEntry, 0, len(in.Entries))
	for _, e := range in.Entries {
		if k := DayKey(e.Date); k >= startKey && k <= endKey {
			inWindow = append(inWindow, e)
		}
	}
	days := groupDays(inWindow, in.Meals, true)

	steps := map[string]int{}
	for _, a := range in.Activity {
		steps[DayKey(a.Date)] = a.Steps
	}

	calTarget, protTarget := in.Goal.CalorieTarget, in.Goal.ProteinTarget
	lower := float64(calTarget) * (1 - consistencyBand)
	upper := float64(calTarget) * (1 + consistencyBand)
	onTarget := func(cal float64) bool { return cal >= lower && cal <= upper }

	var calSum, protSum float64
	var calValues, protValues []float64
	daysOnTarget := 0
	byKey := make(map[string]day, len(days))
	for _, d := range days {
		byKey[DayKey(d.date)] = d
		calSum += d.totals.Calories
		protSum += d.totals.ProteinG
		calValues = append(calValues, d.totals.Calories)
		protValues = append(protValues, d.totals.ProteinG)
		if onTarget(d.totals.Calories) {
			daysOnTarget++
		}
	}

	s := WeeklySummary{
		WeekRange:          weekRangeLabel(start, end),
		StartDate:          startKey,
		EndDate:            endKey,
		DaysLogged:         len(days),
		CalorieTarget:      calTarget,
		ProteinTarget:      protTarget,
		ConsistencyScore:   round2(float64(daysOnTarget) / WeekDays),
		ProteinCompliance:  round2(proteinCompliance(days, protTarget)),
		CalorieTrend:       ClassifyTrend(calValues),
		ProteinTrend:       ClassifyTrend(protValues),
		AIInteractionCount: in.AIInteractions,
		TopWarning:         topWarning(days, steps, in.Goal),
	}
	if s.DaysLogged > 0 {
		s.AvgCalories = int(calSum / float64(s.DaysLogged))
		s.AvgProtein = int(protSum / float64(s.DaysLogged))
	}
	s.AIAcceptanceRate = AcceptanceRate(in.AIAcceptances, in.AIInteractions)

	s.Days = make([]DaySummary, WeekDays)
	for i := 0; i < WeekDays; i++ {
		date := start.AddDate(0, 0, i)
		key := DayKey(date)
		ds := DaySummary{Date: key, Steps: steps[key]}
		if d, ok := byKey[key]; ok {
			ds.HasData = true
			ds.Calories = d.totals.Calories
			ds.ProteinG = d.totals.ProteinG
			ds.CarbsG = d.totals.CarbsG
			ds.FatG = d.totals.FatG
			ds.OnTarget = onTarget(d.totals.Calories)
		}
		s.Days[i] = ds
	}
	s.BestDay, s.WorstDay, s.TargetHitPct = dashboardStats(s.Days, calTarget)
	return s
}

// dashboardStats picks the highest-protein logged day, the lowest-protein day
// with calories > 0, and the share of the 7 days whose calories fall within
// 80-120% of target (×100, 1 decimal). Ties go to the earlier day. Best and
// worst are nil when nothing qualifies; the percentage is 0 for target <= 0.
func dashboardStats(days []DaySummary, calorieTarget int) (best, worst *DaySummary, hitPct float64) {
	hits := 0
	for i := range days {
		d := &days[i]
		if d.HasData && (best == nil || d.ProteinG > best.ProteinG) {
			best = d
		}
		if d.Calories > 0 && (worst == nil || d.ProteinG < worst.ProteinG) {
			worst = d
		}
		// Compared in tenths so the band edges are exact.
		tenths := d.Calories * 10
		if calorieTarget > 0 && tenths >= float64(calorieTarget*targetHitLow) && tenths <= float64(calorieTarget*targetHitHigh) {
			hits++
		}
	}
	if best != nil {
		b := *best
		best = &b
	}
	if worst != nil {
		w := *worst
		worst = &w
	}
	return best, worst, round1(float64(hits) / WeekDays * 100)
}

// topWarning re-runs the warning rules for each logged day with that day's
// steps (0 when no activity was recorded) and returns the most frequent topic
// among warning-typed entries. Ties go to the topic seen first, walking days
// in date order. Returns nil when no warnings fired.
func topWarning(days []day, steps map[string]int, g Goal) *string {
	counts := map[string]int{}
	var order []string
	for _, d := range days {
		ws := warnings.Evaluate(warnings.Day{
			TargetKcal:      g.CalorieTarget,
			ConsumedKcal:    d.totals.Calories,
			ProteinTarget:   g.ProteinTarget,
			ConsumedProtein: d.totals.ProteinG,
			Steps:           steps[DayKey(d.date)],
		})
		for _, w := range warnings.OnlyWarnings(ws) {
			topic := warnings.Topic(w.Category)
			if counts[topic] == 0 {
				order = append(order, topic)
			}
			counts[topic]++
		}
	}
	if len(order) == 0 {
		return nil
	}
	best := order[0]
	for _, topic := range order[1:] {
		if counts[topic] > counts[best] {
			best = topic
		}
	}
	return &best
}

// weekRangeLabel renders "13–19 Oct", or "28 Sep – 4 Oct" across months.
func weekRangeLabel(start, end time.Time) string {
	if start.Month() == end.Month() {
		return fmt.Sprintf("%d–%d %s", start.Day(), end.Day(), end.Format("Jan"))
	}
	return fmt.Sprintf("%d %s – %d %s", start.Day(), start.Format("Jan"), end.Day(), end.Format("Jan"))
}

// AcceptanceRate is accepted/interactions rounded to 2 decimals, 0 without interactions.
func AcceptanceRate(accepted, interactions int) float64 {
	if interactions <= 0 {
		return 0
	}
	return round2(float64(accepted) / float64(interactions))
}
