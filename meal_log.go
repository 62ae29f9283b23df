package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"lg/nutri-coach-go-api/internal/progress"
)

// dateParam reads an optional YYYY-MM-DD query parameter. Missing means today.
// Writes a 400 and returns ok=false on a malformed value.
func (h *Handler) dateParam(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return h.today(), true
	}
	d, err := time.Parse(progress.DateLayout, raw)
	if err != nil {
		apiError(c, http.StatusBadRequest, key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// listMealLogs returns the meals logged on one day, oldest first.
// GET /api/logs?date=YYYY-MM-DD. Date defaults to today.
func (h *Handler) listMealLogs(c *gin.Context) {
	userID := c.GetInt("user_id")
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}

	logs, err := queryMany[mealLog](h, c,
		`SELECT l.id, l.meal_id, m.name AS meal_name, l.log_date, l.portion, l.created_at
		 FROM meal_logs l JOIN meals m ON m.id = l.meal_id
		 WHERE l.user_id = @userID AND l.log_date = @date
		 ORDER BY l.created_at, l.id`,
		pgx.NamedArgs{"userID": userID, "date": progress.DayKey(date)})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch logs")
		return
	}
	if logs == nil {
		logs = []mealLog{}
	}

	c.JSON(http.StatusOK, logs)
}

// createMealLog logs a catalogue meal for the user.
// POST /api/logs. Defaults date to today and portion to 1.0.
func (h *Handler) createMealLog(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createMealLogRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.MealID <= 0 {
		apiError(c, http.StatusBadRequest, "meal_id is required")
		return
	}
	portion := 1.0
	if body.Portion != nil {
		portion = *body.Portion
	}
	if portion <= 0 || portion > 20 {
		apiError(c, http.StatusBadRequest, "portion must be greater than 0 and at most 20")
		return
	}
	date := h.today()
	if body.Date != "" {
		d, err := time.Parse(progress.DateLayout, body.Date)
		if err != nil {
			apiError(c, http.StatusBadRequest, "log_date must be YYYY-MM-DD")
			return
		}
		date = d
	}

	item, err := insertMealLog(c, h.db, userID, body.MealID, portion, date)
	if errors.Is(err, pgx.ErrNoRows) {
		apiError(c, http.StatusNotFound, "meal not found")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("[createMealLog] insert failed")
		apiError(c, http.StatusInternalServerError, "failed to create log")
		return
	}

	c.JSON(http.StatusCreated, item)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// insertMealLog inserts a log row for an existing meal. Returns pgx.ErrNoRows
// when the meal id is not in the catalogue.
func insertMealLog(ctx context.Context, q querier, userID, mealID int, portion float64, date time.Time) (mealLog, error) {
	rows, err := q.Query(ctx,
		`WITH inserted AS (
			INSERT INTO meal_logs (user_id, meal_id, log_date, portion)
			SELECT @userID, id, @date, @portion FROM meals WHERE id = @mealID
			RETURNING id, meal_id, log_date, portion, created_at
		 )
		 SELECT i.id, i.meal_id, m.name AS meal_name, i.log_date, i.portion, i.created_at
		 FROM inserted i JOIN meals m ON m.id = i.meal_id`,
		pgx.NamedArgs{"userID": userID, "mealID": mealID, "date": progress.DayKey(date), "portion": portion})
	if err != nil {
		return mealLog{}, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[mealLog])
}

// deleteMealLog removes a meal log entry. Returns 204 on success.
// DELETE /api/logs/:id.
func (h *Handler) deleteMealLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		apiError(c, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	result, err := h.db.Exec(c,
		"DELETE FROM meal_logs WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete log")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "log not found")
		return
	}

	c.Status(http.StatusNoContent)
}
