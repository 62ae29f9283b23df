// Package metabolism computes BMR, TDEE and daily nutrition targets from body
// metrics, step counts and goal type. Every function is pure; the current year
// is passed in so results never depend on the wall clock.
package metabolism

import (
	"math"
	"strings"
	"time"
)

// Gender selects the Mifflin-St Jeor constant.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// GoalType is the user's stated objective.
type GoalType string

const (
	LoseWeight GoalType = "lose_weight"
	Maintain   GoalType = "maintain"
	GainWeight GoalType = "gain_weight"
)

// ActivityLevel is derived from the day's step count.
type ActivityLevel string

const (
	Sedentary ActivityLevel = "sedentary"
	Light     ActivityLevel = "light"
	Moderate  ActivityLevel = "moderate"
	Active    ActivityLevel = "active"
)

// activityMultipliers maps activity levels to their TDEE multiplier.
// This is the single source of truth for valid activity levels.
var activityMultipliers = map[ActivityLevel]float64{
	Sedentary: 1.2,
	Light:     1.375,
	Moderate:  1.55,
	Active:    1.725,
}

// goalAdjustments is the kcal delta applied to TDEE per goal type.
var goalAdjustments = map[GoalType]int{
	LoseWeight: -400,
	Maintain:   0,
	GainWeight: 400,
}

// proteinPerKG is grams of protein per kg of body weight per goal type.
var proteinPerKG = map[GoalType]float64{
	LoseWeight: 2.0,
	Maintain:   1.6,
	GainWeight: 1.8,
}

// legacyGoalTypes maps goal labels written by older clients.
var legacyGoalTypes = map[string]GoalType{
	"kilo_verme": LoseWeight,
	"koruma":     Maintain,
	"kilo_alma":  GainWeight,
}

// BodyProfile is the validated body-metric input. Ranges (height 120–230 cm,
// weight 30–250 kg, birth year 1940–2010) are enforced by the caller.
type BodyProfile struct {
	HeightCM  float64 `json:"height_cm"`
	WeightKG  float64 `json:"weight_kg"`
	Gender    Gender  `json:"gender"`
	BirthYear int     `json:"birth_year"`
}

// Age returns the age used by the BMR formula: currentYear - BirthYear.
func (p BodyProfile) Age(currentYear int) int {
	return currentYear - p.BirthYear
}

// Result is the combined output of FullCalculation.
type Result struct {
	BMR            int           `json:"bmr"`
	ActivityLevel  ActivityLevel `json:"activity_level"`
	Multiplier     float64       `json:"activity_multiplier"`
	TDEE           int           `json:"tdee"`
	TargetCalories int           `json:"target_calories"`
	TargetProtein  int           `json:"target_protein"`
}

// Snapshot is a persisted activity record. Once BMR/TDEE/TargetCalories are
// stored for a date they are authoritative for that date.
type Snapshot struct {
	Date           time.Time `json:"date"`
	Steps          int       `json:"steps"`
	BMR            int       `json:"bmr"`
	TDEE           int       `json:"tdee"`
	TargetCalories int       `json:"target_calories"`
}

// HasMetrics reports whether the snapshot carries stored metrics (rows created
// by step logging before a profile existed have zero metrics).
func (s Snapshot) HasMetrics() bool {
	return s.BMR > 0 && s.TDEE > 0
}

/* ─── Individual calculations ─────────────────────────────────────────── */

// CalculateBMR computes BMR via Mifflin-St Jeor. Any gender other than male
// uses the female constant. The result is rounded half away from zero.
func CalculateBMR(weightKG, heightCM float64, birthYear int, gender Gender, currentYear int) int {
	age := float64(currentYear - birthYear)
	bmr := 10*weightKG + 6.25*heightCM - 5*age
	if gender == Male {
		bmr += 5
	} else {
		bmr -= 161
	}
	return int(math.Round(bmr))
}

// ActivityLevelForSteps buckets a step count. Each band includes its lower edge.
func ActivityLevelForSteps(steps int) ActivityLevel {
	switch {
	case steps < 5000:
		return Sedentary
	case steps < 8000:
		return Light
	case steps < 12000:
		return Moderate
	default:
		return Active
	}
}

// Multiplier returns the TDEE multiplier for level, 1.2 for unknown levels.
func Multiplier(level ActivityLevel) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return activityMultipliers[Sedentary]
}

// CalculateTDEE returns round(bmr × multiplier).
func CalculateTDEE(bmr int, multiplier float64) int {
	return int(math.Round(float64(bmr) * multiplier))
}

// CalculateDailyTarget applies the goal adjustment to TDEE. Unknown goal types
// get no adjustment so a target is always computable.
func CalculateDailyTarget(tdee int, goal GoalType) int {
	return tdee + goalAdjustments[goal]
}

// CalculateProteinTarget returns round(weight × grams-per-kg for goal). Unknown
// goal types use the maintain ratio.
func CalculateProteinTarget(weightKG float64, goal GoalType) int {
	perKG, ok := proteinPerKG[goal]
	if !ok {
		perKG = proteinPerKG[Maintain]
	}
	return int(math.Round(weightKG * perKG))
}

/* ─── Entry points ────────────────────────────────────────────────────── */

// FullCalculation runs every calculation for one profile/steps/goal
// combination. Callers must use this (or ForDay) instead of combining the
// individual functions themselves.
func FullCalculation(p BodyProfile, steps int, goal GoalType, currentYear int) Result {
	bmr := CalculateBMR(p.WeightKG, p.HeightCM, p.BirthYear, p.Gender, currentYear)
	level := ActivityLevelForSteps(steps)
	mult := Multiplier(level)
	tdee := CalculateTDEE(bmr, mult)
	return Result{
		BMR:            bmr,
		ActivityLevel:  level,
		Multiplier:     mult,
		TDEE:           tdee,
		TargetCalories: CalculateDailyTarget(tdee, goal),
		TargetProtein:  CalculateProteinTarget(p.WeightKG, goal),
	}
}

// ForDay resolves the metrics for one day. A snapshot with stored metrics wins
// over a fresh calculation, because the profile may have changed since it was
// written. Without stored metrics the live calculation runs with the
// snapshot's steps, or 0 steps when there is no activity record.
// ok is false when there is neither stored metrics nor a profile.
func ForDay(p *BodyProfile, snap *Snapshot, goal GoalType, currentYear int) (Result, bool) {
	steps := 0
	if snap != nil {
		steps = snap.Steps
	}
	level := ActivityLevelForSteps(steps)

	if snap != nil && snap.HasMetrics() {
		r := Result{
			BMR:            snap.BMR,
			ActivityLevel:  level,
			Multiplier:     Multiplier(level),
			TDEE:           snap.TDEE,
			TargetCalories: snap.TargetCalories,
		}
		if p != nil {
			r.TargetProtein = CalculateProteinTarget(p.WeightKG, goal)
		}
		return r, true
	}
	if p == nil {
		return Result{ActivityLevel: level, Multiplier: Multiplier(level)}, false
	}
	return FullCalculation(*p, steps, goal, currentYear), true
}

// SnapshotFrom converts a calculation into the record persisted for date.
func SnapshotFrom(date time.Time, steps int, r Result) Snapshot {
	return Snapshot{
		Date:           date,
		Steps:          steps,
		BMR:            r.BMR,
		TDEE:           r.TDEE,
		TargetCalories: r.TargetCalories,
	}
}

/* ─── Input normalisation ─────────────────────────────────────────────── */

// ParseGoalType normalises a stored or submitted goal label. ok is false for
// labels that are not recognised; the returned value is then the raw label,
// which the calculators treat as maintain.
func ParseGoalType(s string) (GoalType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch g := GoalType(s); g {
	case LoseWeight, Maintain, GainWeight:
		return g, true
	}
	if g, ok := legacyGoalTypes[s]; ok {
		return g, true
	}
	return GoalType(s), false
}

// ParseGender accepts "male" or "female" in any case.
func ParseGender(s string) (Gender, bool) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case Male, Female:
		return g, true
	}
	return "", false
}

// ValidActivityLevel reports whether level is one of the known activity levels.
func ValidActivityLevel(level string) bool {
	_, ok := activityMultipliers[ActivityLevel(level)]
	return ok
}
