// internal/api/middleware_test.go
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/satireworks/greenroom/internal/errors"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 3; i++ {
		if !rl.Allow("client-a", 3, time.Minute) {
			t.Fatalf("request %d should be within the budget", i+1)
		}
	}

	if rl.Allow("client-a", 3, time.Minute) {
		t.Error("fourth request should be rejected")
	}

	// Other keys have their own budget.
	if !rl.Allow("client-b", 3, time.Minute) {
		t.Error("a different key should not share the budget")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter()

	if !rl.Allow("client", 1, 10*time.Millisecond) {
		t.Fatal("first request should pass")
	}
	if rl.Allow("client", 1, 10*time.Millisecond) {
		t.Fatal("second request in the window should be rejected")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow("client", 1, 10*time.Millisecond) {
		t.Error("budget should reset after the window passes")
	}
}

func TestRateLimitMiddlewareHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(2, time.Minute, func(c *gin.Context) string {
		return "fixed-test-key-headers"
	}))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want 2", w.Header().Get("X-RateLimit-Limit"))
	}
	if w.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Errorf("X-RateLimit-Remaining = %q, want 1", w.Header().Get("X-RateLimit-Remaining"))
	}

	// Exhaust the budget, then expect a 429 with the standard payload.
	for i := 0; i < 2; i++ {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	}

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal 429 body: %v", err)
	}
	if payload["code"] != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %v, want RATE_LIMIT_EXCEEDED", payload["code"])
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(requestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	// Generated when missing.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Body.String() == "" {
		t.Error("a request ID should be generated when none is supplied")
	}

	// Caller-supplied IDs pass through.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	r.ServeHTTP(w, req)
	if w.Body.String() != "trace-123" {
		t.Errorf("request_id = %q, want trace-123", w.Body.String())
	}
}

func TestCORSMiddlewarePreflights(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(corsMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestServiceErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		status int
		path   string
	}{
		{"validation", http.StatusBadRequest, "/validation"},
		{"not found", http.StatusNotFound, "/notfound"},
		{"unauthorized", http.StatusUnauthorized, "/unauthorized"},
		{"conflict", http.StatusConflict, "/conflict"},
	}

	helper := NewResponseHelper()
	r := gin.New()
	r.GET("/validation", func(c *gin.Context) {
		helper.ServiceError(c, apperrors.NewValidationError("bad input", nil))
	})
	r.GET("/notfound", func(c *gin.Context) {
		helper.ServiceError(c, apperrors.NewNotFoundError("no such thing", nil))
	})
	r.GET("/unauthorized", func(c *gin.Context) {
		helper.ServiceError(c, apperrors.NewUnauthorizedError("who are you", nil))
	})
	r.GET("/conflict", func(c *gin.Context) {
		helper.ServiceError(c, apperrors.NewConflictError("already taken", nil))
	})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != tc.status {
				t.Errorf("status = %d, want %d", w.Code, tc.status)
			}

			var resp APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal body: %v", err)
			}
			if resp.Success {
				t.Error("success should be false for error responses")
			}
			if resp.Error == nil || resp.Error.Message == "" {
				t.Error("error payload should carry a message")
			}
		})
	}
}
