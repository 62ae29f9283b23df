package main

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"lg/nutri-coach-go-api/internal/aicontext"
	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/progress"
)

// Loaders fetch rows with pgx and convert them into the plain values the
// engine packages take. None of them write.

// loadGoal returns the user's saved goal, or the default goal when none is saved.
func (h *Handler) loadGoal(c *gin.Context, userID int) (progress.Goal, error) {
	g, err := queryOne[goalRow](h, c,
		"SELECT calorie_target, protein_target, goal_type FROM user_goals WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return progress.DefaultGoal(), nil
	}
	if err != nil {
		return progress.Goal{}, err
	}
	goalType, _ := metabolism.ParseGoalType(g.GoalType)
	return progress.Goal{CalorieTarget: g.CalorieTarget, ProteinTarget: g.ProteinTarget, Type: goalType}, nil
}

// loadProfile returns nil, nil when the user never saved body metrics.
func (h *Handler) loadProfile(c *gin.Context, userID int) (*metabolism.BodyProfile, error) {
	p, err := queryOne[profileRow](h, c,
		"SELECT height_cm, weight_kg, gender, birth_year FROM user_profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	body := p.body()
	return &body, nil
}

// loadSnapshot returns nil, nil when there is no activity record for date.
func (h *Handler) loadSnapshot(c *gin.Context, userID int, date time.Time) (*metabolism.Snapshot, error) {
	a, err := queryOne[activityRow](h, c,
		`SELECT activity_date, steps, bmr, tdee, target_calories FROM activity_records
		 WHERE user_id = @userID AND activity_date = @date`,
		pgx.NamedArgs{"userID": userID, "date": progress.DayKey(date)})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap := a.snapshot()
	return &snap, nil
}

// loadSnapshots returns the activity records in [from, to].
func (h *Handler) loadSnapshots(c *gin.Context, userID int, from, to time.Time) ([]metabolism.Snapshot, error) {
	rows, err := queryMany[activityRow](h, c,
		`SELECT activity_date, steps, bmr, tdee, target_calories FROM activity_records
		 WHERE user_id = @userID AND activity_date BETWEEN @from AND @to
		 ORDER BY activity_date`,
		pgx.NamedArgs{"userID": userID, "from": progress.DayKey(from), "to": progress.DayKey(to)})
	if err != nil {
		return nil, err
	}
	out := make([]metabolism.Snapshot, len(rows))
	for i, r := range rows {
		out[i] = r.snapshot()
	}
	return out, nil
}

// loadEntries returns the user's meal logs in [from, to]. A zero from means
// the whole history up to to.
func (h *Handler) loadEntries(c *gin.Context, userID int, from, to time.Time) ([]progress.LogEntry, error) {
	fromKey := "0001-01-01"
	if !from.IsZero() {
		fromKey = progress.DayKey(from)
	}
	rows, err := queryMany[logEntryRow](h, c,
		`SELECT meal_id, log_date, portion FROM meal_logs
		 WHERE user_id = @userID AND log_date BETWEEN @from AND @to
		 ORDER BY log_date, id`,
		pgx.NamedArgs{"userID": userID, "from": fromKey, "to": progress.DayKey(to)})
	if err != nil {
		return nil, err
	}
	out := make([]progress.LogEntry, len(rows))
	for i, r := range rows {
		out[i] = progress.LogEntry{MealID: r.MealID, Date: r.LogDate.Time, Portion: r.Portion}
	}
	return out, nil
}

// loadCatalogue returns every meal, ordered by id, plus an id index.
func (h *Handler) loadCatalogue(c *gin.Context) ([]progress.Meal, progress.MealLookup, error) {
	rows, err := queryMany[meal](h, c,
		"SELECT id, name, meal_type, calories, protein_g, carbs_g, fat_g FROM meals ORDER BY id",
		pgx.NamedArgs{})
	if err != nil {
		return nil, nil, err
	}
	list := make([]progress.Meal, len(rows))
	lookup := make(progress.MealLookup, len(rows))
	for i, m := range rows {
		list[i] = m.engine()
		lookup[m.ID] = list[i]
	}
	return list, lookup, nil
}

// loadAIHistory counts the user's interactions and acceptances, and whether
// the latest interaction had any suggestion accepted.
func (h *Handler) loadAIHistory(c *gin.Context, userID int) (aicontext.History, error) {
	var hist aicontext.History
	err := h.db.QueryRow(c,
		`SELECT
			(SELECT COUNT(*) FROM ai_interactions WHERE user_id = @userID),
			(SELECT COUNT(*) FROM ai_acceptances WHERE user_id = @userID),
			COALESCE((SELECT EXISTS (SELECT 1 FROM ai_acceptances a WHERE a.ai_interaction_id = i.id)
			          FROM ai_interactions i WHERE i.user_id = @userID
			          ORDER BY i.created_at DESC, i.id DESC LIMIT 1), false)`,
		pgx.NamedArgs{"userID": userID}).Scan(&hist.TotalInteractions, &hist.Accepted, &hist.LastAccepted)
	return hist, err
}

// countAIActivity counts interactions and acceptances created in [from, to].
func (h *Handler) countAIActivity(c *gin.Context, userID int, from, to time.Time) (interactions, acceptances int, err error) {
	err = h.db.QueryRow(c,
		`SELECT
			(SELECT COUNT(*) FROM ai_interactions WHERE user_id = @userID AND created_at::date BETWEEN @from AND @to),
			(SELECT COUNT(*) FROM ai_acceptances WHERE user_id = @userID AND created_at::date BETWEEN @from AND @to)`,
		pgx.NamedArgs{"userID": userID, "from": progress.DayKey(from), "to": progress.DayKey(to)}).Scan(&interactions, &acceptances)
	return interactions, acceptances, err
}

// firstAIInteraction returns nil, nil for users who never used the coach.
func (h *Handler) firstAIInteraction(c *gin.Context, userID int) (*time.Time, error) {
	var first *time.Time
	err := h.db.QueryRow(c,
		"SELECT MIN(created_at) FROM ai_interactions WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID}).Scan(&first)
	return first, err
}

// loadAcceptances returns every accepted suggestion, oldest first.
func (h *Handler) loadAcceptances(c *gin.Context, userID int) ([]progress.Acceptance, error) {
	type acceptanceRow struct {
		MealID    int       `db:"meal_id"`
		CreatedAt time.Time `db:"created_at"`
	}
	rows, err := queryMany[acceptanceRow](h, c,
		"SELECT meal_id, created_at FROM ai_acceptances WHERE user_id = @userID ORDER BY created_at",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, err
	}
	out := make([]progress.Acceptance, len(rows))
	for i, r := range rows {
		out[i] = progress.Acceptance{MealID: r.MealID, AcceptedAt: r.CreatedAt}
	}
	return out, nil
}
