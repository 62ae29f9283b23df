// Package aicontext assembles the numbers the AI coach is allowed to talk
// about. Every figure is computed by the engine; the model only interprets.
package aicontext

import (
	"fmt"
	"strings"
	"time"

	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/progress"
	"lg/nutri-coach-go-api/internal/warnings"
)

// Fallback activity figures used when the user has no body profile yet.
const (
	fallbackBMR  = 1600
	fallbackTDEE = 2000
)

// History is the user's AI usage so far.
type History struct {
	TotalInteractions int
	Accepted          int
	LastAccepted      bool
}

// Input is the already-fetched data for one user and day. Entries should
// cover at least the 7 days ending at Date.
type Input struct {
	Date     time.Time
	Goal     progress.Goal
	Profile  *metabolism.BodyProfile
	Snapshot *metabolism.Snapshot
	Entries  []progress.LogEntry
	Meals    progress.MealLookup
	History  History
}

type Goals struct {
	Calorie  int                 `json:"calorie"`
	Protein  int                 `json:"protein"`
	GoalType metabolism.GoalType `json:"goal_type"`
}

type Today struct {
	Calorie int `json:"calorie"`
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

type Activity struct {
	Steps int                      `json:"steps"`
	Level metabolism.ActivityLevel `json:"level"`
	TDEE  int                      `json:"tdee"`
	BMR   int                      `json:"bmr"`
}

type WeeklyTrend struct {
	AvgCalorie int `json:"avg_calorie"`
	AvgProtein int `json:"avg_protein"`
	DaysLogged int `json:"days_logged"`
}

type AIHistory struct {
	LastSuggestionAccepted bool    `json:"last_suggestion_accepted"`
	AcceptanceRate         float64 `json:"acceptance_rate"`
	TotalInteractions      int     `json:"total_interactions"`
}

// Context is the structured coach context.
type Context struct {
	Goals       Goals       `json:"goals"`
	Today       Today       `json:"today"`
	Activity    Activity    `json:"activity"`
	WeeklyTrend WeeklyTrend `json:"weekly_trend"`
	Warnings    []string    `json:"warnings"`
	AIHistory   AIHistory   `json:"ai_history"`
}

// Build computes the coach context. Warnings use the resolved daily target
// (TDEE for maintain, the saved goal otherwise) and keep only warning-typed
// messages.
func Build(in Input) Context {
	week := progress.Summarize(progress.WeeklyInput{
		End:     in.Date,
		Entries: in.Entries,
		Meals:   in.Meals,
		Goal:    in.Goal,
	})
	today := week.Days[len(week.Days)-1]

	act := Activity{Level: metabolism.Sedentary, TDEE: fallbackTDEE, BMR: fallbackBMR}
	if in.Snapshot != nil {
		act.Steps = in.Snapshot.Steps
	}
	m, ok := metabolism.ForDay(in.Profile, in.Snapshot, in.Goal.Type, in.Date.Year())
	if ok {
		act.Level = m.ActivityLevel
		act.TDEE = m.TDEE
		act.BMR = m.BMR
	}

	target := in.Goal.CalorieTarget
	if in.Goal.Type == metabolism.Maintain {
		target = act.TDEE
	}
	ws := warnings.OnlyWarnings(warnings.Evaluate(warnings.Day{
		TargetKcal:      target,
		ConsumedKcal:    today.Calories,
		ProteinTarget:   in.Goal.ProteinTarget,
		ConsumedProtein: today.ProteinG,
		Steps:           act.Steps,
	}))
	msgs := make([]string, len(ws))
	for i, w := range ws {
		msgs[i] = w.Message
	}

	return Context{
		Goals: Goals{
			Calorie:  in.Goal.CalorieTarget,
			Protein:  in.Goal.ProteinTarget,
			GoalType: in.Goal.Type,
		},
		Today: Today{
			Calorie: int(today.Calories),
			Protein: int(today.ProteinG),
			Carbs:   int(today.CarbsG),
			Fat:     int(today.FatG),
		},
		Activity: act,
		WeeklyTrend: WeeklyTrend{
			AvgCalorie: week.AvgCalories,
			AvgProtein: week.AvgProtein,
			DaysLogged: week.DaysLogged,
		},
		Warnings: msgs,
		AIHistory: AIHistory{
			LastSuggestionAccepted: in.History.LastAccepted,
			AcceptanceRate:         progress.AcceptanceRate(in.History.Accepted, in.History.TotalInteractions),
			TotalInteractions:      in.History.TotalInteractions,
		},
	}
}

// Format renders c as the plain-text block sent to the model.
func Format(c Context) string {
	var b strings.Builder
	remainingCal := c.Goals.Calorie - c.Today.Calorie
	remainingProt := c.Goals.Protein - c.Today.Protein

	b.WriteString("USER DATA (computed by the backend, interpret only):\n\n")

	b.WriteString("Goals:\n")
	fmt.Fprintf(&b, "- Daily calorie target: %d kcal\n", c.Goals.Calorie)
	fmt.Fprintf(&b, "- Daily protein target: %dg\n", c.Goals.Protein)
	fmt.Fprintf(&b, "- Objective: %s\n\n", c.Goals.GoalType)

	b.WriteString("Today:\n")
	fmt.Fprintf(&b, "- Consumed: %d kcal, %dg protein\n", c.Today.Calorie, c.Today.Protein)
	fmt.Fprintf(&b, "- Carbs: %dg, Fat: %dg\n", c.Today.Carbs, c.Today.Fat)
	fmt.Fprintf(&b, "- Remaining calories: %d kcal\n", remainingCal)
	fmt.Fprintf(&b, "- Remaining protein: %dg\n\n", remainingProt)

	b.WriteString("Activity:\n")
	fmt.Fprintf(&b, "- Steps: %d\n", c.Activity.Steps)
	fmt.Fprintf(&b, "- Activity level: %s\n", c.Activity.Level)
	fmt.Fprintf(&b, "- TDEE: %d kcal/day\n", c.Activity.TDEE)
	fmt.Fprintf(&b, "- BMR: %d kcal/day\n\n", c.Activity.BMR)

	b.WriteString("Weekly trend (last 7 days):\n")
	fmt.Fprintf(&b, "- Average calories: %d kcal\n", c.WeeklyTrend.AvgCalorie)
	fmt.Fprintf(&b, "- Average protein: %dg\n", c.WeeklyTrend.AvgProtein)
	fmt.Fprintf(&b, "- Days logged: %d/7\n\n", c.WeeklyTrend.DaysLogged)

	b.WriteString("Active warnings:\n")
	if len(c.Warnings) == 0 {
		b.WriteString("- None\n")
	}
	for _, w := range c.Warnings {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	b.WriteString("\n")

	accepted := "No"
	if c.AIHistory.LastSuggestionAccepted {
		accepted = "Yes"
	}
	b.WriteString("AI history:\n")
	fmt.Fprintf(&b, "- Last suggestion accepted: %s\n", accepted)
	fmt.Fprintf(&b, "- Overall acceptance rate: %d%%\n", int(c.AIHistory.AcceptanceRate*100))
	fmt.Fprintf(&b, "- Total interactions: %d\n", c.AIHistory.TotalInteractions)
	return b.String()
}
