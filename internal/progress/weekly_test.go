package progress

import (
	"testing"
	"time"

	"lg/nutri-coach-go-api/internal/metabolism"
)

func weeklyFixture() WeeklyInput {
	return WeeklyInput{
		End: date(time.March, 10).Add(18*time.Hour + 30*time.Minute),
		Entries: []LogEntry{
			{MealID: 2, Date: date(time.March, 3), Portion: 1}, // outside the window
			{MealID: 1, Date: date(time.March, 4), Portion: 4},
			{MealID: 2, Date: date(time.March, 6), Portion: 1},
			{MealID: 1, Date: date(time.March, 8), Portion: 4},
			{MealID: 3, Date: date(time.March, 10), Portion: 1},
		},
		Meals: testMeals(),
		Goal:  Goal{CalorieTarget: 2000, ProteinTarget: 100, Type: metabolism.Maintain},
		Activity: []metabolism.Snapshot{
			{Date: date(time.March, 6), Steps: 10000},
		},
		AIInteractions: 4,
		AIAcceptances:  1,
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(weeklyFixture())

	if s.StartDate != "2024-03-04" || s.EndDate != "2024-03-10" {
		t.Errorf("window = %s..%s, want 2024-03-04..2024-03-10", s.StartDate, s.EndDate)
	}
	if s.WeekRange != "4–10 Mar" {
		t.Errorf("WeekRange = %q", s.WeekRange)
	}
	if s.DaysLogged != 4 {
		t.Errorf("DaysLogged = %d, want 4", s.DaysLogged)
	}
	// 2000 + 1000 + 2000 + 300 (300.6 truncated) over 4 days.
	if s.AvgCalories != 1325 {
		t.Errorf("AvgCalories = %d, want 1325", s.AvgCalories)
	}
	// 160 + 20 + 160 + 10 = 350 / 4 = 87.5, truncated.
	if s.AvgProtein != 87 {
		t.Errorf("AvgProtein = %d, want 87", s.AvgProtein)
	}
	if s.ConsistencyScore != 0.29 {
		t.Errorf("ConsistencyScore = %v, want 0.29", s.ConsistencyScore)
	}
	if s.CalorieTrend != TrendDecreasing {
		t.Errorf("CalorieTrend = %s, want decreasing", s.CalorieTrend)
	}
	if s.ProteinTrend != TrendErratic {
		t.Errorf("ProteinTrend = %s, want erratic", s.ProteinTrend)
	}
	if s.AIInteractionCount != 4 || s.AIAcceptanceRate != 0.25 {
		t.Errorf("AI = %d / %v, want 4 / 0.25", s.AIInteractionCount, s.AIAcceptanceRate)
	}
	if s.TopWarning == nil || *s.TopWarning != "low_activity" {
		t.Errorf("TopWarning = %v, want low_activity", s.TopWarning)
	}

	if len(s.Days) != WeekDays {
		t.Fatalf("len(Days) = %d, want 7", len(s.Days))
	}
	if !s.Days[0].HasData || !s.Days[0].OnTarget || s.Days[0].Calories != 2000 {
		t.Errorf("Days[0] = %+v", s.Days[0])
	}
	if s.Days[1].HasData || s.Days[1].Date != "2024-03-05" {
		t.Errorf("Days[1] should be an empty gap day, got %+v", s.Days[1])
	}
	if s.Days[2].Steps != 10000 || s.Days[2].OnTarget {
		t.Errorf("Days[2] = %+v", s.Days[2])
	}
	if s.Days[6].Calories != 300 || s.Days[6].ProteinG != 10 || s.Days[6].FatG != 8 {
		t.Errorf("Days[6] = %+v, want truncated 300/10/8", s.Days[6])
	}
}

// TestSummarize_ConsistencyDenominator verifies the score divides by 7 even
// when fewer days were logged.
func TestSummarize_ConsistencyDenominator(t *testing.T) {
	in := WeeklyInput{
		End:   date(time.March, 10),
		Meals: testMeals(),
		Goal:  DefaultGoal(),
	}
	for _, d := range []int{8, 9, 10} {
		in.Entries = append(in.Entries, LogEntry{MealID: 1, Date: date(time.March, d), Portion: 4})
	}
	s := Summarize(in)
	if s.ConsistencyScore != 0.43 {
		t.Errorf("ConsistencyScore = %v, want 0.43", s.ConsistencyScore)
	}
}

func TestSummarize_TopWarningTieGoesToFirstSeen(t *testing.T) {
	in := WeeklyInput{
		End:      date(time.March, 10),
		Entries:  []LogEntry{{MealID: 2, Date: date(time.March, 6), Portion: 1}},
		Meals:    testMeals(),
		Goal:     DefaultGoal(),
		Activity: []metabolism.Snapshot{{Date: date(time.March, 6), Steps: 10000}},
	}
	s := Summarize(in)
	if s.TopWarning == nil || *s.TopWarning != "calorie_deficit" {
		t.Errorf("TopWarning = %v, want calorie_deficit", s.TopWarning)
	}
}

func TestSummarize_DashboardStats(t *testing.T) {
	s := Summarize(weeklyFixture())

	// Mar 4 and Mar 8 both have 160g protein; the earlier day wins.
	if s.BestDay == nil || s.BestDay.Date != "2024-03-04" || s.BestDay.ProteinG != 160 {
		t.Errorf("BestDay = %+v, want 2024-03-04 with 160g", s.BestDay)
	}
	if s.WorstDay == nil || s.WorstDay.Date != "2024-03-10" || s.WorstDay.ProteinG != 10 {
		t.Errorf("WorstDay = %+v, want 2024-03-10 with 10g", s.WorstDay)
	}
	// 2000 kcal on two days is within 1600..2400; 2/7 = 28.57%.
	if s.TargetHitPct != 28.6 {
		t.Errorf("TargetHitPct = %v, want 28.6", s.TargetHitPct)
	}
}

func TestSummarize_TargetHitBandEdges(t *testing.T) {
	meals := MealLookup{9: {ID: 9, Name: "Kcal unit", Calories: 1}}
	in := WeeklyInput{End: date(time.March, 10), Meals: meals, Goal: DefaultGoal()}

	cases := []struct {
		day     int
		portion float64
	}{
		{4, 1599}, // below 80%
		{5, 1600}, // exactly 80%
		{6, 2000},
		{7, 2400}, // exactly 120%
		{8, 2401}, // above 120%
	}
	for _, tc := range cases {
		in.Entries = append(in.Entries, LogEntry{MealID: 9, Date: date(time.March, tc.day), Portion: tc.portion})
	}

	s := Summarize(in)
	// 1600, 2000 and 2400 count: 3/7 = 42.86%.
	if s.TargetHitPct != 42.9 {
		t.Errorf("TargetHitPct = %v, want 42.9", s.TargetHitPct)
	}
	if s.WorstDay == nil || s.WorstDay.Date != "2024-03-04" {
		t.Errorf("WorstDay = %+v, want the first day with calories", s.WorstDay)
	}

	in.Goal.CalorieTarget = 0
	if got := Summarize(in).TargetHitPct; got != 0 {
		t.Errorf("TargetHitPct with no target = %v, want 0", got)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(WeeklyInput{End: date(time.March, 10), Goal: DefaultGoal()})
	if s.DaysLogged != 0 || s.AvgCalories != 0 || s.AvgProtein != 0 {
		t.Errorf("empty week = %+v", s)
	}
	if s.CalorieTrend != TrendInsufficientData || s.ProteinTrend != TrendInsufficientData {
		t.Errorf("trends = %s/%s, want insufficient_data", s.CalorieTrend, s.ProteinTrend)
	}
	if s.TopWarning != nil {
		t.Errorf("TopWarning = %q, want nil", *s.TopWarning)
	}
	if s.AIAcceptanceRate != 0 {
		t.Errorf("AIAcceptanceRate = %v, want 0", s.AIAcceptanceRate)
	}
	if s.BestDay != nil || s.WorstDay != nil || s.TargetHitPct != 0 {
		t.Errorf("dashboard stats = %v / %v / %v, want nil / nil / 0", s.BestDay, s.WorstDay, s.TargetHitPct)
	}
	if len(s.Days) != WeekDays {
		t.Errorf("len(Days) = %d, want 7", len(s.Days))
	}
}

func TestWeekRangeLabel_AcrossMonths(t *testing.T) {
	s := Summarize(WeeklyInput{End: date(time.April, 2), Goal: DefaultGoal()})
	if s.WeekRange != "27 Mar – 2 Apr" {
		t.Errorf("WeekRange = %q, want %q", s.WeekRange, "27 Mar – 2 Apr")
	}
}
