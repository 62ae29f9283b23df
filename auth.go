package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// fallbackHash is compared against when the username does not exist, so a
// miss costs the same bcrypt work as a wrong password.
var fallbackHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-user"), bcrypt.DefaultCost)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/login (public). Returns the user's bearer token.
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		apiError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	u, err := queryOne[user](h, c,
		`SELECT id, username, email, auth_token, password, created_at
		 FROM users WHERE username = @username`,
		pgx.NamedArgs{"username": req.Username})
	found := err == nil

	hash := fallbackHash
	if found {
		hash = []byte(u.Password)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil || !found {
		h.log.WithField("username", req.Username).Warn("[login] rejected")
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.log.WithField("user_id", u.ID).Info("[login] ok")
	c.JSON(http.StatusOK, gin.H{"token": u.AuthToken, "user_id": u.ID, "username": u.Username})
}

// POST /api/logout. Rotates the token so the one in use stops working.
func (h *Handler) logout(c *gin.Context) {
	userID := c.GetInt("user_id")
	if _, err := h.db.Exec(c, "UPDATE users SET auth_token = @token WHERE id = @userID",
		pgx.NamedArgs{"token": uuid.NewString(), "userID": userID}); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("[logout] token rotation failed")
		apiError(c, http.StatusInternalServerError, "failed to log out")
		return
	}
	c.Status(http.StatusNoContent)
}

// bearerToken pulls <token> out of "Authorization: Bearer <token>".
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// authMiddleware resolves the bearer token to a user and stores user_id on
// the gin context for the handlers behind it.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		var userID int
		if err := h.db.QueryRow(c, "SELECT id FROM users WHERE auth_token = $1", token).Scan(&userID); err != nil {
			h.log.WithFields(logrus.Fields{"path": c.FullPath(), "request_id": c.GetString(requestIDKey)}).Debug("[authMiddleware] unknown token")
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
