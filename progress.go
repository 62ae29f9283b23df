package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/progress"
)

// getDailyProgress returns consumed vs target for one day, with warnings.
// GET /api/progress/daily?date=YYYY-MM-DD. Date defaults to today.
func (h *Handler) getDailyProgress(c *gin.Context) {
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
	_, meals, err := h.loadCatalogue(c)
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
	steps := 0
	if snap != nil {
		steps = snap.Steps
	}

	c.JSON(http.StatusOK, progress.AggregateDay(progress.DayInput{
		Date:       date,
		Entries:    entries,
		Meals:      meals,
		Goal:       goal,
		Metrics:    metrics,
		HasMetrics: hasMetrics,
		Steps:      steps,
	}))
}

// getWeeklySummary returns the 7-day summary ending at end_date.
// GET /api/progress/weekly?end_date=YYYY-MM-DD. end_date defaults to today.
func (h *Handler) getWeeklySummary(c *gin.Context) {
	userID := c.GetInt("user_id")
	end, ok := h.dateParam(c, "end_date")
	if !ok {
		return
	}
	start := end.AddDate(0, 0, -(progress.WeekDays - 1))

	goal, err := h.loadGoal(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch goals")
		return
	}
	_, meals, err := h.loadCatalogue(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch meals")
		return
	}
	entries, err := h.loadEntries(c, userID, start, end)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch logs")
		return
	}
	activity, err := h.loadSnapshots(c, userID, start, end)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch activity")
		return
	}
	interactions, acceptances, err := h.countAIActivity(c, userID, start, end)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch AI history")
		return
	}

	c.JSON(http.StatusOK, progress.Summarize(progress.WeeklyInput{
		End:            end,
		Entries:        entries,
		Meals:          meals,
		Goal:           goal,
		Activity:       activity,
		AIInteractions: interactions,
		AIAcceptances:  acceptances,
	}))
}

// getStreak returns the current and longest run of consecutive logged days.
// GET /api/progress/streak.
func (h *Handler) getStreak(c *gin.Context) {
	userID := c.GetInt("user_id")

	type loggedDay struct {
		LogDate DateOnly `db:"log_date"`
	}
	rows, err := queryMany[loggedDay](h, c,
		"SELECT DISTINCT log_date FROM meal_logs WHERE user_id = @userID ORDER BY log_date",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch logs")
		return
	}
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = r.LogDate.Time
	}

	c.JSON(http.StatusOK, progress.ComputeStreak(dates, h.today()))
}

// getProgressAnalysis compares protein compliance and calorie stability
// before and after the user's first AI interaction.
// GET /api/analysis/progress. Users who never used the coach get
// status=no_ai_usage.
func (h *Handler) getProgressAnalysis(c *gin.Context) {
	userID := c.GetInt("user_id")

	first, err := h.firstAIInteraction(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch AI history")
		return
	}
	if first == nil {
		c.JSON(http.StatusOK, gin.H{"status": "no_ai_usage"})
		return
	}

	goal, err := h.loadGoal(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch goals")
		return
	}
	_, meals, err := h.loadCatalogue(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch meals")
		return
	}
	entries, err := h.loadEntries(c, userID, time.Time{}, h.today())
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch logs")
		return
	}
	acceptances, err := h.loadAcceptances(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch acceptances")
		return
	}

	c.JSON(http.StatusOK, progress.Compare(progress.CompareInput{
		Entries:            entries,
		Meals:              meals,
		FirstAIInteraction: *first,
		Goal:               goal,
		Acceptances:        acceptances,
	}))
}
