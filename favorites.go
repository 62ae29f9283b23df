package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

const favoriteColumns = `m.id AS meal_id, m.name AS meal_name, m.meal_type, m.calories,
	m.protein_g, m.carbs_g, m.fat_g, f.created_at AS favorited_at`

// listFavorites returns the user's favorite meals, most recently added first.
// GET /api/favorites.
func (h *Handler) listFavorites(c *gin.Context) {
	userID := c.GetInt("user_id")

	favs, err := queryMany[favoriteMeal](h, c,
		`SELECT `+favoriteColumns+`
		 FROM favorite_meals f JOIN meals m ON m.id = f.meal_id
		 WHERE f.user_id = @userID
		 ORDER BY f.created_at DESC, f.id DESC`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch favorites")
		return
	}
	if favs == nil {
		favs = []favoriteMeal{}
	}

	c.JSON(http.StatusOK, favs)
}

// addFavorite marks a catalogue meal as a favorite. Adding the same meal
// twice keeps the first entry.
// POST /api/favorites. 404 when the meal is not in the catalogue.
func (h *Handler) addFavorite(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body addFavoriteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.MealID <= 0 {
		apiError(c, http.StatusBadRequest, "meal_id is required")
		return
	}

	fav, err := queryOne[favoriteMeal](h, c,
		`WITH inserted AS (
			INSERT INTO favorite_meals (user_id, meal_id)
			SELECT @userID, id FROM meals WHERE id = @mealID
			ON CONFLICT (user_id, meal_id) DO NOTHING
			RETURNING created_at
		 )
		 SELECT m.id AS meal_id, m.name AS meal_name, m.meal_type, m.calories,
			m.protein_g, m.carbs_g, m.fat_g,
			COALESCE((SELECT created_at FROM inserted), f.created_at) AS favorited_at
		 FROM meals m LEFT JOIN favorite_meals f ON f.meal_id = m.id AND f.user_id = @userID
		 WHERE m.id = @mealID`,
		pgx.NamedArgs{"userID": userID, "mealID": body.MealID})
	if errors.Is(err, pgx.ErrNoRows) {
		apiError(c, http.StatusNotFound, "meal not found")
		return
	}
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to add favorite")
		return
	}

	h.log.WithField("user_id", userID).WithField("meal_id", body.MealID).Info("[addFavorite] saved")
	c.JSON(http.StatusCreated, fav)
}

// removeFavorite drops a meal from the user's favorites. Returns 204.
// DELETE /api/favorites/:meal_id.
func (h *Handler) removeFavorite(c *gin.Context) {
	userID := c.GetInt("user_id")
	mealID, err := strconv.Atoi(c.Param("meal_id"))
	if err != nil || mealID <= 0 {
		apiError(c, http.StatusBadRequest, "meal_id must be a positive integer")
		return
	}

	result, err := h.db.Exec(c,
		"DELETE FROM favorite_meals WHERE user_id = @userID AND meal_id = @mealID",
		pgx.NamedArgs{"userID": userID, "mealID": mealID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to remove favorite")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "favorite not found")
		return
	}

	c.Status(http.StatusNoContent)
}
