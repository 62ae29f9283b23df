package warnings

import "testing"

func categories(ws []Warning) []Category {
	out := make([]Category, len(ws))
	for i, w := range ws {
		out[i] = w.Category
	}
	return out
}

func equalCats(a, b []Category) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestEvaluate_Ordering verifies that three simultaneous warnings come back
// in calorie, protein, activity order.
func TestEvaluate_Ordering(t *testing.T) {
	got := Evaluate(Day{TargetKcal: 2000, ConsumedKcal: 2350, ProteinTarget: 100, ConsumedProtein: 60, Steps: 3000})
	want := []Category{CalorieExcess, ProteinDeficit, LowActivity}
	if !equalCats(categories(got), want) {
		t.Fatalf("categories = %v, want %v", categories(got), want)
	}
	for _, w := range got {
		if w.Type != TypeWarning {
			t.Errorf("%s type = %s, want warning", w.Category, w.Type)
		}
	}
	if got[0].Message != "You went over your calorie target (+350 kcal)." {
		t.Errorf("unexpected excess message %q", got[0].Message)
	}
}

func TestEvaluate_Rules(t *testing.T) {
	cases := []struct {
		name string
		day  Day
		want []Category
	}{
		{"nothing logged yet", Day{TargetKcal: 2000, ProteinTarget: 100, Steps: 5000}, []Category{}},
		{"calorie boundary +300 is not excess", Day{TargetKcal: 2000, ConsumedKcal: 2300, Steps: 5000}, []Category{}},
		{"calorie deficit", Day{TargetKcal: 2000, ConsumedKcal: 1400, Steps: 5000}, []Category{CalorieDeficit}},
		{"calorie deficit boundary", Day{TargetKcal: 2000, ConsumedKcal: 1500, Steps: 5000}, []Category{}},
		{"on target within 100", Day{TargetKcal: 2000, ConsumedKcal: 1900, Steps: 5000}, []Category{CalorieOnTarget}},
		{"zero calorie target skips rule", Day{TargetKcal: 0, ConsumedKcal: 50, Steps: 5000}, []Category{}},
		{"protein excess", Day{ProteinTarget: 100, ConsumedProtein: 141, Steps: 5000}, []Category{ProteinExcess}},
		{"protein met", Day{ProteinTarget: 100, ConsumedProtein: 100, Steps: 5000}, []Category{ProteinMet}},
		{"protein between 80% and target", Day{ProteinTarget: 100, ConsumedProtein: 90, Steps: 5000}, []Category{}},
		{"low activity", Day{Steps: 3999}, []Category{LowActivity}},
		{"step goal at 8000", Day{Steps: 8000}, []Category{ActivityGoalMet}},
		{"step goal at 12000", Day{Steps: 12000}, []Category{ActivityGoalMet}},
		{"excellent above 12000", Day{Steps: 12001}, []Category{ActivityExcellent}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := categories(Evaluate(tc.day))
			if !equalCats(got, tc.want) {
				t.Errorf("categories = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestEvaluate_Deterministic verifies repeated calls return identical output.
func TestEvaluate_Deterministic(t *testing.T) {
	d := Day{TargetKcal: 1800, ConsumedKcal: 1750, ProteinTarget: 120, ConsumedProtein: 130, Steps: 13000}
	a, b := Evaluate(d), Evaluate(d)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestTopic(t *testing.T) {
	cases := map[Category]string{
		ProteinDeficit:  "protein_imbalance",
		CalorieExcess:   "calorie_excess",
		CalorieDeficit:  "calorie_deficit",
		LowActivity:     "low_activity",
		CalorieOnTarget: "general",
	}
	for c, want := range cases {
		if got := Topic(c); got != want {
			t.Errorf("Topic(%s) = %s, want %s", c, got, want)
		}
	}
}

func TestOnlyWarnings(t *testing.T) {
	ws := Evaluate(Day{TargetKcal: 2000, ConsumedKcal: 2000, ProteinTarget: 100, ConsumedProtein: 50, Steps: 13000})
	got := OnlyWarnings(ws)
	if len(got) != 1 || got[0].Category != ProteinDeficit {
		t.Errorf("OnlyWarnings = %+v, want only protein deficit", got)
	}
}
