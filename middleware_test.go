package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"lg/nutri-coach-go-api/internal/ratelimit"
)

// brokenLimiter fails every call, as a Redis limiter does when Redis is down.
type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, int) error { return errors.New("connection refused") }
func (brokenLimiter) Remaining(context.Context, int) (ratelimit.Quota, error) {
	return ratelimit.Quota{}, errors.New("connection refused")
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestID())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	generated := w.Header().Get(requestIDHeader)
	if generated == "" || w.Body.String() != generated {
		t.Errorf("expected a generated id echoed in header and context, got header %q body %q", generated, w.Body.String())
	}

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("expected caller id to be kept, got %q", got)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			token, ok := bearerToken(tc.header)
			if ok != tc.ok || (ok && token != tc.token) {
				t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tc.header, token, ok, tc.token, tc.ok)
			}
		})
	}
}

// TestAuthMiddleware_MissingHeader runs without a database: the header check
// rejects the request before any lookup.
func TestAuthMiddleware_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandler(5)
	router := gin.New()
	h.registerRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/progress/daily", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("expected request id header on rejected requests too")
	}
}

func TestLogin_BadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandler(5)
	router := gin.New()
	h.registerRoutes(router)

	for _, body := range []string{`not json`, `{"username":"  ","password":"x"}`, `{"username":"ayse"}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestRateLimit_LimiterFailureAllows(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandler(5)
	h.limiter = brokenLimiter{}
	router := gin.New()
	router.GET("/limited", withUser, h.rateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/limited", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("expected request to pass through, got %d", w.Code)
	}
}
