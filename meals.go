package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/progress"
)

// listMeals returns the meal catalogue, optionally filtered by a name search.
// GET /api/meals?q=chicken.
func (h *Handler) listMeals(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))

	meals, err := queryMany[meal](h, c,
		`SELECT id, name, meal_type, calories, protein_g, carbs_g, fat_g FROM meals
		 WHERE @q = '' OR name ILIKE '%' || @q || '%'
		 ORDER BY name`,
		pgx.NamedArgs{"q": q})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch meals")
		return
	}
	if meals == nil {
		meals = []meal{}
	}

	c.JSON(http.StatusOK, meals)
}

// getMealSuggestions returns catalogue meals that fit what is left of the
// day's calorie budget, ranked by protein.
// GET /api/meals/suggestions?date=YYYY-MM-DD. Date defaults to today.
func (h *Handler) getMealSuggestions(c *gin.Context) {
	userID := c.GetInt("user_id")
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}

	goal, err := h.loadGoal(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch goals")
		return
	}
	profile, err := h.loadProfile(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	snap, err := h.loadSnapshot(c, userID, date)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch activity")
		return
	}
	catalogue, lookup, err := h.loadCatalogue(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch meals")
		return
	}
	entries, err := h.loadEntries(c, userID, date, date)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch logs")
		return
	}

	metrics, hasMetrics := metabolism.ForDay(profile, snap, goal.Type, date.Year())
	calTarget := progress.ResolveCalorieTarget(goal, metrics, hasMetrics)
	consumed := progress.SumEntries(entries, lookup)

	c.JSON(http.StatusOK, progress.SuggestMeals(catalogue, consumed, calTarget, goal.ProteinTarget))
}
