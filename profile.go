package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/progress"
)

// Accepted body-metric ranges.
const (
	minHeightCM  = 120
	maxHeightCM  = 230
	minWeightKG  = 30
	maxWeightKG  = 250
	minBirthYear = 1940
	maxBirthYear = 2010
	maxSteps     = 100000
)

/* ─── Validation ─────────────────────────────────────────────────────── */

// validateProfile checks ranges and normalises gender. The returned message
// is empty when the request is valid.
func validateProfile(req profileRequest) (metabolism.BodyProfile, string) {
	if req.HeightCM < minHeightCM || req.HeightCM > maxHeightCM {
		return metabolism.BodyProfile{}, fmt.Sprintf("height_cm must be between %d and %d", minHeightCM, maxHeightCM)
	}
	if req.WeightKG < minWeightKG || req.WeightKG > maxWeightKG {
		return metabolism.BodyProfile{}, fmt.Sprintf("weight_kg must be between %d and %d", minWeightKG, maxWeightKG)
	}
	if req.BirthYear < minBirthYear || req.BirthYear > maxBirthYear {
		return metabolism.BodyProfile{}, fmt.Sprintf("birth_year must be between %d and %d", minBirthYear, maxBirthYear)
	}
	gender, ok := metabolism.ParseGender(req.Gender)
	if !ok {
		return metabolism.BodyProfile{}, "gender must be one of: male, female"
	}
	return metabolism.BodyProfile{HeightCM: req.HeightCM, WeightKG: req.WeightKG, Gender: gender, BirthYear: req.BirthYear}, ""
}

// validateGoals checks targets and normalises the goal type, accepting the
// legacy labels older clients send.
func validateGoals(req goalsRequest) (progress.Goal, string) {
	if req.CalorieTarget <= 0 {
		return progress.Goal{}, "calorie_target must be positive"
	}
	if req.ProteinTarget <= 0 {
		return progress.Goal{}, "protein_target must be positive"
	}
	goalType, ok := metabolism.ParseGoalType(req.GoalType)
	if !ok {
		return progress.Goal{}, "goal_type must be one of: lose_weight, maintain, gain_weight"
	}
	return progress.Goal{CalorieTarget: req.CalorieTarget, ProteinTarget: req.ProteinTarget, Type: goalType}, ""
}

// profileJSON is the response shape shared by GET and POST /api/profile.
func profileJSON(p metabolism.BodyProfile, year int) gin.H {
	return gin.H{
		"has_profile": true,
		"height_cm":   p.HeightCM,
		"weight_kg":   p.WeightKG,
		"gender":      p.Gender,
		"birth_year":  p.BirthYear,
		"age":         p.Age(year),
		"bmr":         metabolism.CalculateBMR(p.WeightKG, p.HeightCM, p.BirthYear, p.Gender, year),
	}
}

/* ─── Profile ────────────────────────────────────────────────────────── */

// getProfile returns the body profile with age and BMR, or has_profile=false.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.loadProfile(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"has_profile": false})
		return
	}

	c.JSON(http.StatusOK, profileJSON(*p, h.now().Year()))
}

// upsertProfile creates or replaces the body profile.
// POST /api/profile. Stored activity snapshots keep their metrics; only days
// without a snapshot pick up the new profile.
func (h *Handler) upsertProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body profileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p, msg := validateProfile(body)
	if msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	_, err := h.db.Exec(c,
		`INSERT INTO user_profiles (user_id, height_cm, weight_kg, gender, birth_year)
		 VALUES (@userID, @heightCM, @weightKG, @gender, @birthYear)
		 ON CONFLICT (user_id) DO UPDATE SET
			height_cm = EXCLUDED.height_cm, weight_kg = EXCLUDED.weight_kg,
			gender = EXCLUDED.gender, birth_year = EXCLUDED.birth_year, updated_at = now()`,
		pgx.NamedArgs{
			"userID": userID, "heightCM": p.HeightCM, "weightKG": p.WeightKG,
			"gender": string(p.Gender), "birthYear": p.BirthYear,
		})
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("[upsertProfile] save failed")
		apiError(c, http.StatusInternalServerError, "failed to save profile")
		return
	}

	c.JSON(http.StatusOK, profileJSON(p, h.now().Year()))
}

/* ─── Goals ──────────────────────────────────────────────────────────── */

// getGoals returns the saved goals, or the defaults for users who never saved any.
// GET /api/goals.
func (h *Handler) getGoals(c *gin.Context) {
	userID := c.GetInt("user_id")

	g, err := h.loadGoal(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch goals")
		return
	}

	c.JSON(http.StatusOK, g)
}

// upsertGoals creates or replaces the user's goals.
// POST /api/goals.
func (h *Handler) upsertGoals(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body goalsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	g, msg := validateGoals(body)
	if msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	_, err := h.db.Exec(c,
		`INSERT INTO user_goals (user_id, calorie_target, protein_target, goal_type)
		 VALUES (@userID, @calorieTarget, @proteinTarget, @goalType)
		 ON CONFLICT (user_id) DO UPDATE SET
			calorie_target = EXCLUDED.calorie_target, protein_target = EXCLUDED.protein_target,
			goal_type = EXCLUDED.goal_type, updated_at = now()`,
		pgx.NamedArgs{
			"userID": userID, "calorieTarget": g.CalorieTarget,
			"proteinTarget": g.ProteinTarget, "goalType": string(g.Type),
		})
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("[upsertGoals] save failed")
		apiError(c, http.StatusInternalServerError, "failed to save goals")
		return
	}

	c.JSON(http.StatusOK, g)
}

/* ─── Activity ───────────────────────────────────────────────────────── */

// activityJSON is the response shape for the activity endpoints.
func activityJSON(date time.Time, steps int, r metabolism.Result, goal metabolism.GoalType) gin.H {
	return gin.H{
		"activity_date":       progress.DayKey(date),
		"steps":               steps,
		"activity_level":      r.ActivityLevel,
		"activity_multiplier": r.Multiplier,
		"bmr":                 r.BMR,
		"tdee":                r.TDEE,
		"target_calories":     r.TargetCalories,
		"goal_type":           goal,
	}
}

// snapshotLocked reports whether a stored record for date must not change:
// past days freeze once their metrics are stored, today always recomputes.
func snapshotLocked(existing *metabolism.Snapshot, date, today time.Time) bool {
	return date.Before(today) && existing != nil && existing.HasMetrics()
}

// logActivity records the day's step count and stores the day's metrics.
// POST /api/profile/activity. Today is recomputed on every call; a past day
// that already has stored metrics is rejected with 409.
func (h *Handler) logActivity(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body activityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Steps < 0 || body.Steps > maxSteps {
		apiError(c, http.StatusBadRequest, fmt.Sprintf("steps must be between 0 and %d", maxSteps))
		return
	}
	today := h.today()
	date := today
	if body.Date != "" {
		d, err := time.Parse(progress.DateLayout, body.Date)
		if err != nil {
			apiError(c, http.StatusBadRequest, "activity_date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	if date.After(today) {
		apiError(c, http.StatusBadRequest, "activity_date cannot be in the future")
		return
	}

	profile, err := h.loadProfile(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	if profile == nil {
		apiError(c, http.StatusBadRequest, "create a profile first")
		return
	}
	goal, err := h.loadGoal(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch goals")
		return
	}
	existing, err := h.loadSnapshot(c, userID, date)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch activity")
		return
	}
	if snapshotLocked(existing, date, today) {
		apiError(c, http.StatusConflict, "activity for past days is locked")
		return
	}

	r := metabolism.FullCalculation(*profile, body.Steps, goal.Type, date.Year())
	snap := metabolism.SnapshotFrom(date, body.Steps, r)
	_, err = h.db.Exec(c,
		`INSERT INTO activity_records (user_id, activity_date, steps, bmr, tdee, target_calories)
		 VALUES (@userID, @date, @steps, @bmr, @tdee, @target)
		 ON CONFLICT (user_id, activity_date) DO UPDATE SET
			steps = EXCLUDED.steps, bmr = EXCLUDED.bmr, tdee = EXCLUDED.tdee,
			target_calories = EXCLUDED.target_calories, updated_at = now()`,
		pgx.NamedArgs{
			"userID": userID, "date": progress.DayKey(date), "steps": snap.Steps,
			"bmr": snap.BMR, "tdee": snap.TDEE, "target": snap.TargetCalories,
		})
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("[logActivity] save failed")
		apiError(c, http.StatusInternalServerError, "failed to save activity")
		return
	}
	h.log.WithFields(logrus.Fields{
		"user_id": userID, "date": progress.DayKey(date), "steps": snap.Steps, "tdee": snap.TDEE,
	}).Info("[logActivity] snapshot stored")

	c.JSON(http.StatusOK, activityJSON(date, body.Steps, r, goal.Type))
}

// getActivity returns the day's steps and metrics.
// GET /api/profile/activity?date=YYYY-MM-DD. Date defaults to today.
func (h *Handler) getActivity(c *gin.Context) {
	userID := c.GetInt("user_id")
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}

	profile, err := h.loadProfile(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	goal, err := h.loadGoal(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch goals")
		return
	}
	snap, err := h.loadSnapshot(c, userID, date)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch activity")
		return
	}

	r, ok := metabolism.ForDay(profile, snap, goal.Type, date.Year())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"has_profile": false})
		return
	}
	steps := 0
	if snap != nil {
		steps = snap.Steps
	}

	c.JSON(http.StatusOK, activityJSON(date, steps, r, goal.Type))
}

// getStats returns profile, today's activity and the full metabolism
// calculation in one response.
// GET /api/profile/stats.
func (h *Handler) getStats(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	profile, err := h.loadProfile(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"has_profile": false})
		return
	}
	goal, err := h.loadGoal(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch goals")
		return
	}
	snap, err := h.loadSnapshot(c, userID, today)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch activity")
		return
	}

	r, _ := metabolism.ForDay(profile, snap, goal.Type, today.Year())
	steps := 0
	if snap != nil {
		steps = snap.Steps
	}

	c.JSON(http.StatusOK, gin.H{
		"has_profile": true,
		"profile": gin.H{
			"height_cm": profile.HeightCM,
			"weight_kg": profile.WeightKG,
			"gender":    profile.Gender,
			"age":       profile.Age(today.Year()),
		},
		"activity": gin.H{
			"steps":      steps,
			"level":      r.ActivityLevel,
			"multiplier": r.Multiplier,
		},
		"calculations": gin.H{
			"bmr":             r.BMR,
			"tdee":            r.TDEE,
			"target_calories": r.TargetCalories,
			"target_protein":  r.TargetProtein,
			"goal_type":       goal.Type,
		},
	})
}
