package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/aicontext"
	"lg/nutri-coach-go-api/internal/progress"
)

const (
	maxChatMessageLen = 1000
	// maxStoredReplyLen caps response_text in ai_interactions.
	maxStoredReplyLen = 500
)

/* ─── OpenAI prompt ──────────────────────────────────────────────────── */

const coachSystemPrompt = `You are a nutrition coach. The user data block below was computed by the backend and is correct.
Rules:
- Never recalculate or invent numbers. Quote the figures you are given.
- Only suggest meals from the provided meal list, using their exact names.
- If protein is below target, prioritise high-protein meals.
- If the user is over their calorie target and wants to lose weight, suggest lower-calorie options.
- Keep the answer short and practical.`

// buildCoachPrompt renders the user turn: the question, the computed context
// and the meal list the model may pick from.
func buildCoachPrompt(message string, ctx aicontext.Context, catalogue []progress.Meal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User message: %s\n\n", message)
	b.WriteString(aicontext.Format(ctx))
	b.WriteString("\nAvailable meals:\n")
	if len(catalogue) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, m := range catalogue {
		fmt.Fprintf(&b, "- %s: %.0f kcal, %.0fg protein\n", m.Name, m.Calories, m.ProteinG)
	}
	return b.String()
}

// matchSuggestedMeals returns the catalogue meals whose names appear in the
// reply, case-insensitively, in catalogue order and capped at MaxSuggestions.
func matchSuggestedMeals(reply string, catalogue []progress.Meal) []progress.Meal {
	lower := strings.ToLower(reply)
	out := []progress.Meal{}
	for _, m := range catalogue {
		if m.Name == "" || !strings.Contains(lower, strings.ToLower(m.Name)) {
			continue
		}
		out = append(out, m)
		if len(out) == progress.MaxSuggestions {
			break
		}
	}
	return out
}

/* ─── OpenAI HTTP client ─────────────────────────────────────────────── */

// openAIMessage is a single message in the OpenAI chat completions request.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIRequest is the request body for the OpenAI chat completions API.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

// callOpenAI sends a chat completions request and returns the raw content string
// from the first choice.
func callOpenAI(ctx context.Context, cfg openAIConfig, messages []openAIMessage) (string, error) {
	if cfg.APIKey == "" {
		return "", errors.New("openai.api_key not set")
	}

	bodyBytes, err := json.Marshal(openAIRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// coachInput loads everything aicontext.Build needs for today. Without a
// database (tests) it returns an empty history with the default goal.
func (h *Handler) coachInput(c *gin.Context, userID int) (aicontext.Input, []progress.Meal, error) {
	today := h.today()
	in := aicontext.Input{Date: today, Goal: progress.DefaultGoal(), Meals: progress.MealLookup{}}
	if h.db == nil {
		return in, nil, nil
	}

	var err error
	if in.Goal, err = h.loadGoal(c, userID); err != nil {
		return in, nil, err
	}
	if in.Profile, err = h.loadProfile(c, userID); err != nil {
		return in, nil, err
	}
	if in.Snapshot, err = h.loadSnapshot(c, userID, today); err != nil {
		return in, nil, err
	}
	catalogue, lookup, err := h.loadCatalogue(c)
	if err != nil {
		return in, nil, err
	}
	in.Meals = lookup
	if in.Entries, err = h.loadEntries(c, userID, today.AddDate(0, 0, -(progress.WeekDays-1)), today); err != nil {
		return in, nil, err
	}
	if in.History, err = h.loadAIHistory(c, userID); err != nil {
		return in, nil, err
	}
	return in, catalogue, nil
}

// chat answers a coaching question grounded in the user's computed numbers.
// POST /api/ai/chat. Rate limited per user. The interaction and the meals
// the reply mentions are stored so acceptances can be tracked.
func (h *Handler) chat(c *gin.Context) {
	userID := c.GetInt("user_id")

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		apiError(c, http.StatusBadRequest, "user_message is required")
		return
	}
	if len(req.Message) > maxChatMessageLen {
		apiError(c, http.StatusBadRequest, fmt.Sprintf("user_message must be at most %d characters", maxChatMessageLen))
		return
	}

	in, catalogue, err := h.coachInput(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load coach context")
		return
	}
	coachCtx := aicontext.Build(in)

	messages := []openAIMessage{
		{Role: "system", Content: coachSystemPrompt},
		{Role: "user", Content: buildCoachPrompt(req.Message, coachCtx, catalogue)},
	}
	reply, err := callOpenAI(c.Request.Context(), h.openAI, messages)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("[chat] OpenAI error")
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}

	suggested := matchSuggestedMeals(reply, catalogue)
	resp := chatResponse{Reply: reply, SuggestedMeals: suggested}
	if h.db != nil {
		id, err := h.recordInteraction(c, userID, req.Message, reply, suggested)
		if err != nil {
			// The user still gets the answer; only acceptance tracking is lost.
			h.log.WithError(err).WithField("user_id", userID).Error("[chat] failed to store interaction")
		} else {
			resp.InteractionID = &id
		}
	}

	h.log.WithFields(logrus.Fields{"user_id": userID, "suggested": len(suggested)}).Info("[chat] answered")
	c.JSON(http.StatusOK, resp)
}

// recordInteraction stores the prompt, the truncated reply and the suggested meal ids.
func (h *Handler) recordInteraction(c *gin.Context, userID int, prompt, reply string, suggested []progress.Meal) (int, error) {
	ids := make([]int32, len(suggested))
	for i, m := range suggested {
		ids[i] = int32(m.ID)
	}
	stored := reply
	if r := []rune(stored); len(r) > maxStoredReplyLen {
		stored = string(r[:maxStoredReplyLen])
	}

	var id int
	err := h.db.QueryRow(c,
		`INSERT INTO ai_interactions (user_id, prompt_text, response_text, suggested_meal_ids)
		 VALUES (@userID, @prompt, @reply, @ids)
		 RETURNING id`,
		pgx.NamedArgs{"userID": userID, "prompt": prompt, "reply": stored, "ids": ids}).Scan(&id)
	return id, err
}

// acceptSuggestion records that the user took a suggested meal and logs
// that meal for today.
// POST /api/ai/accept. 404 when the interaction is not the user's or the
// meal was not among its suggestions.
func (h *Handler) acceptSuggestion(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body acceptRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.InteractionID <= 0 || body.MealID <= 0 {
		apiError(c, http.StatusBadRequest, "ai_interaction_id and meal_id are required")
		return
	}

	item, err := acceptAndLog(c, h.db, userID, body, h.today())
	switch {
	case errors.Is(err, errSuggestionNotFound):
		apiError(c, http.StatusNotFound, "suggestion not found")
		return
	case errors.Is(err, pgx.ErrNoRows):
		apiError(c, http.StatusNotFound, "meal not found")
		return
	case err != nil:
		h.log.WithError(err).WithField("user_id", userID).Error("[acceptSuggestion] failed")
		apiError(c, http.StatusInternalServerError, "failed to record acceptance")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "log": item})
}

var errSuggestionNotFound = errors.New("suggestion not found")

// txBeginner is satisfied by *pgxpool.Pool.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// acceptAndLog records the acceptance and logs the meal for date in one
// transaction. Returns errSuggestionNotFound when the interaction is not the
// user's or the meal was not among its suggestions.
func acceptAndLog(ctx context.Context, db txBeginner, userID int, req acceptRequest, date time.Time) (mealLog, error) {
	var item mealLog
	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO ai_acceptances (ai_interaction_id, user_id, meal_id)
			 SELECT id, user_id, @mealID FROM ai_interactions
			 WHERE id = @interactionID AND user_id = @userID AND @mealID = ANY(suggested_meal_ids)`,
			pgx.NamedArgs{"interactionID": req.InteractionID, "userID": userID, "mealID": req.MealID})
		if err != nil {
			return fmt.Errorf("insert acceptance: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errSuggestionNotFound
		}
		item, err = insertMealLog(ctx, tx, userID, req.MealID, 1.0, date)
		if err != nil {
			return fmt.Errorf("log meal: %w", err)
		}
		return nil
	})
	return item, err
}

// getAIStats returns acceptance figures and the most accepted meals.
// GET /api/ai/stats.
func (h *Handler) getAIStats(c *gin.Context) {
	userID := c.GetInt("user_id")

	hist, err := h.loadAIHistory(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch AI history")
		return
	}

	type topMeal struct {
		MealID   int    `json:"meal_id"   db:"meal_id"`
		MealName string `json:"meal_name" db:"meal_name"`
		Count    int    `json:"count"     db:"count"`
	}
	top, err := queryMany[topMeal](h, c,
		`SELECT a.meal_id, m.name AS meal_name, COUNT(*)::int AS count
		 FROM ai_acceptances a JOIN meals m ON m.id = a.meal_id
		 WHERE a.user_id = @userID
		 GROUP BY a.meal_id, m.name
		 ORDER BY count DESC, a.meal_id
		 LIMIT 5`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch top meals")
		return
	}
	if top == nil {
		top = []topMeal{}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_interactions": hist.TotalInteractions,
		"accepted_count":     hist.Accepted,
		"acceptance_rate":    progress.AcceptanceRate(hist.Accepted, hist.TotalInteractions),
		"top_meals":          top,
	})
}

// getAILimits reports how many coach calls the user has left.
// GET /api/ai/limits.
func (h *Handler) getAILimits(c *gin.Context) {
	userID := c.GetInt("user_id")

	q, err := h.limiter.Remaining(c, userID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("[getAILimits] limiter error")
		apiError(c, http.StatusInternalServerError, "failed to read limits")
		return
	}

	c.JSON(http.StatusOK, q)
}
