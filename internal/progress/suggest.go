package progress

import (
	"math"
	"sort"
)

const (
	// MaxSuggestions caps SuggestMeals output.
	MaxSuggestions = 5
	// minProteinShare is the fraction of remaining protein a suggested meal must cover.
	minProteinShare = 0.2
)

// Suggestions is the non-AI "what to eat next" view for one day.
type Suggestions struct {
	RemainingCalories float64 `json:"remaining_calories"`
	RemainingProtein  float64 `json:"remaining_protein"`
	Meals             []Meal  `json:"suggestions"`
}

// SuggestMeals picks up to MaxSuggestions catalogue meals that fit in the
// remaining calories and cover at least 20% of the remaining protein, highest
// protein first. Ties break on meal id so output is stable.
func SuggestMeals(catalogue []Meal, consumed DailyTotals, calorieTarget, proteinTarget int) Suggestions {
	remCal := math.Max(0, float64(calorieTarget)-consumed.Calories)
	remProt := math.Max(0, float64(proteinTarget)-consumed.ProteinG)

	picked := make([]Meal, 0, MaxSuggestions)
	for _, m := range catalogue {
		if m.Calories <= remCal && m.ProteinG >= remProt*minProteinShare {
			picked = append(picked, m)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].ProteinG != picked[j].ProteinG {
			return picked[i].ProteinG > picked[j].ProteinG
		}
		return picked[i].ID < picked[j].ID
	})
	if len(picked) > MaxSuggestions {
		picked = picked[:MaxSuggestions]
	}
	return Suggestions{
		RemainingCalories: round1(remCal),
		RemainingProtein:  round1(remProt),
		Meals:             picked,
	}
}
