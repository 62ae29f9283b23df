package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/progress"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(progress.DateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+progress.DateLayout+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Table rows ─────────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// meal maps to the meals catalogue. Nutrients are per portion of 1.0.
type meal struct {
	ID       int     `json:"meal_id"   db:"id"`
	Name     string  `json:"meal_name" db:"name"`
	MealType string  `json:"meal_type" db:"meal_type"`
	Calories float64 `json:"calories"  db:"calories"`
	ProteinG float64 `json:"protein_g" db:"protein_g"`
	CarbsG   float64 `json:"carbs_g"   db:"carbs_g"`
	FatG     float64 `json:"fat_g"     db:"fat_g"`
}

func (m meal) engine() progress.Meal {
	return progress.Meal{ID: m.ID, Name: m.Name, Calories: m.Calories, ProteinG: m.ProteinG, CarbsG: m.CarbsG, FatG: m.FatG}
}

// mealLog maps to meal_logs joined with the meal name for display.
type mealLog struct {
	ID        int        `json:"id"         db:"id"`
	MealID    int        `json:"meal_id"    db:"meal_id"`
	MealName  string     `json:"meal_name"  db:"meal_name"`
	LogDate   DateOnly   `json:"log_date"   db:"log_date"`
	Portion   float64    `json:"portion"    db:"portion"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// favoriteMeal maps to favorite_meals joined with the catalogue row.
type favoriteMeal struct {
	MealID      int        `json:"meal_id"      db:"meal_id"`
	MealName    string     `json:"meal_name"    db:"meal_name"`
	MealType    string     `json:"meal_type"    db:"meal_type"`
	Calories    float64    `json:"calories"     db:"calories"`
	ProteinG    float64    `json:"protein_g"    db:"protein_g"`
	CarbsG      float64    `json:"carbs_g"      db:"carbs_g"`
	FatG        float64    `json:"fat_g"        db:"fat_g"`
	FavoritedAt *time.Time `json:"favorited_at" db:"favorited_at"`
}

type addFavoriteRequest struct {
	MealID int `json:"meal_id"`
}

// logEntryRow is the slim shape the engine needs from meal_logs.
type logEntryRow struct {
	MealID  int      `db:"meal_id"`
	LogDate DateOnly `db:"log_date"`
	Portion float64  `db:"portion"`
}

// profileRow maps to user_profiles.
type profileRow struct {
	HeightCM  float64 `db:"height_cm"`
	WeightKG  float64 `db:"weight_kg"`
	Gender    string  `db:"gender"`
	BirthYear int     `db:"birth_year"`
}

func (p profileRow) body() metabolism.BodyProfile {
	return metabolism.BodyProfile{HeightCM: p.HeightCM, WeightKG: p.WeightKG, Gender: metabolism.Gender(p.Gender), BirthYear: p.BirthYear}
}

// goalRow maps to user_goals.
type goalRow struct {
	CalorieTarget int    `db:"calorie_target"`
	ProteinTarget int    `db:"protein_target"`
	GoalType      string `db:"goal_type"`
}

// activityRow maps to activity_records. Zero metrics mean the row was written
// from steps alone and has not been frozen yet.
type activityRow struct {
	ActivityDate   DateOnly `db:"activity_date"`
	Steps          int      `db:"steps"`
	BMR            int      `db:"bmr"`
	TDEE           int      `db:"tdee"`
	TargetCalories int      `db:"target_calories"`
}

func (a activityRow) snapshot() metabolism.Snapshot {
	return metabolism.Snapshot{Date: a.ActivityDate.Time, Steps: a.Steps, BMR: a.BMR, TDEE: a.TDEE, TargetCalories: a.TargetCalories}
}

/* ─── Request bodies ─────────────────────────────────────────────────── */

// createMealLogRequest is the request body for POST /api/logs. Date defaults
// to today and Portion to 1.0.
type createMealLogRequest struct {
	MealID  int      `json:"meal_id"`
	Portion *float64 `json:"portion"`
	Date    string   `json:"log_date"`
}

// profileRequest is the request body for POST /api/profile.
type profileRequest struct {
	HeightCM  float64 `json:"height_cm"`
	WeightKG  float64 `json:"weight_kg"`
	Gender    string  `json:"gender"`
	BirthYear int     `json:"birth_year"`
}

// goalsRequest is the request body for POST /api/goals.
type goalsRequest struct {
	CalorieTarget int    `json:"calorie_target"`
	ProteinTarget int    `json:"protein_target"`
	GoalType      string `json:"goal_type"`
}

// activityRequest is the request body for POST /api/profile/activity.
type activityRequest struct {
	Steps int    `json:"steps"`
	Date  string `json:"activity_date"`
}

// chatRequest is the request body for POST /api/ai/chat.
type chatRequest struct {
	Message string `json:"user_message"`
}

// chatResponse is returned by POST /api/ai/chat. InteractionID is nil when
// the interaction could not be stored.
type chatResponse struct {
	Reply          string          `json:"reply"`
	SuggestedMeals []progress.Meal `json:"suggested_meals"`
	InteractionID  *int            `json:"interaction_id"`
}

// acceptRequest is the request body for POST /api/ai/accept.
type acceptRequest struct {
	InteractionID int `json:"ai_interaction_id"`
	MealID        int `json:"meal_id"`
}
