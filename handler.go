package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/ratelimit"
)

// Handler holds shared dependencies (db pool, logger, AI settings) for all route handlers.
type Handler struct {
	db      *pgxpool.Pool
	log     *logrus.Logger
	limiter ratelimit.Limiter
	openAI  openAIConfig
	now     func() time.Time // overridable for tests
}

// openAIConfig is the chat-completions endpoint the coach talks to.
type openAIConfig struct {
	BaseURL string // overridable for tests
	APIKey  string
	Model   string
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
// pgx.ErrNoRows is returned unlogged so callers can map it to a 404.
func queryOne[T any](h *Handler, c *gin.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := h.db.Query(c, sql, args)
	if err != nil {
		h.log.WithError(err).Error("[queryOne] query error")
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		h.log.WithError(err).Error("[queryOne] scan error")
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](h *Handler, c *gin.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := h.db.Query(c, sql, args)
	if err != nil {
		h.log.WithError(err).Error("[queryMany] query error")
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		h.log.WithError(err).Error("[queryMany] scan error")
	}
	return results, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// today is the current calendar day as a UTC midnight, which is how pgx
// hands back DATE columns.
func (h *Handler) today() time.Time {
	y, m, d := h.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool. We use a pool (not a single conn) because
// Neon closes idle connections after ~5 minutes.
func getDBPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from Neon's server-side prepared statement cache after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	router.Use(requestID(), h.requestLogger())

	// Public routes
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.POST("/logout", h.logout)
	api.GET("/meals", h.listMeals)
	api.GET("/meals/suggestions", h.getMealSuggestions)
	api.GET("/logs", h.listMealLogs)
	api.POST("/logs", h.createMealLog)
	api.DELETE("/logs/:id", h.deleteMealLog)
	api.GET("/favorites", h.listFavorites)
	api.POST("/favorites", h.addFavorite)
	api.DELETE("/favorites/:meal_id", h.removeFavorite)
	api.GET("/profile", h.getProfile)
	api.POST("/profile", h.upsertProfile)
	api.GET("/profile/activity", h.getActivity)
	api.POST("/profile/activity", h.logActivity)
	api.GET("/profile/stats", h.getStats)
	api.GET("/goals", h.getGoals)
	api.POST("/goals", h.upsertGoals)
	api.GET("/progress/daily", h.getDailyProgress)
	api.GET("/progress/weekly", h.getWeeklySummary)
	api.GET("/progress/streak", h.getStreak)
	api.GET("/analysis/progress", h.getProgressAnalysis)

	ai := api.Group("/ai")
	ai.POST("/chat", h.rateLimit(), h.chat)
	ai.POST("/accept", h.acceptSuggestion)
	ai.GET("/stats", h.getAIStats)
	ai.GET("/limits", h.getAILimits)
}
