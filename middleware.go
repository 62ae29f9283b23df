package main

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/ratelimit"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID tags every request with an id, reusing the caller's when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs one line per request after it completes.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.log.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if userID := c.GetInt("user_id"); userID != 0 {
			entry = entry.WithField("user_id", userID)
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("[request]")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("[request]")
		default:
			entry.Info("[request]")
		}
	}
}

// rateLimit charges one AI call to the authenticated user and answers 429
// with Retry-After when either window is full. Limiter failures let the
// request through.
func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("user_id")
		err := h.limiter.Allow(c, userID)
		if err == nil {
			c.Next()
			return
		}

		var limitErr *ratelimit.LimitError
		if errors.As(err, &limitErr) {
			secs := int(math.Ceil(limitErr.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			apiError(c, http.StatusTooManyRequests, limitErr.Error())
			c.Abort()
			return
		}

		h.log.WithError(err).WithField("user_id", userID).Warn("[rateLimit] limiter unavailable, allowing request")
		c.Next()
	}
}
