package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type erroringStore struct{}

func (erroringStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("store down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestLimitBlocksOverBudget(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryStore(), testLogger(), WithLimit(2, time.Minute))
	handler := limiter.Limit(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/office-gate", nil)
		r.RemoteAddr = "203.0.113.42:51000"
		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/office-gate", nil)
	r.RemoteAddr = "203.0.113.42:51000"
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"ok":false,"error":"rate_limit_exceeded"}`, w.Body.String())
}

func TestLimitKeysByPeerAddress(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryStore(), testLogger(), WithLimit(1, time.Minute))
	handler := limiter.Limit(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.42:51000"
	// A spoofed forwarded header must not move the caller to a fresh bucket.
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.42:52000"
	r.Header.Set("X-Forwarded-For", "198.51.100.2")
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLimitFailsOpenOnStoreError(t *testing.T) {
	limiter := NewRateLimiter(erroringStore{}, testLogger(), WithLimit(1, time.Minute))
	handler := limiter.Limit(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.42:51000"
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimitDisabled(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryStore(), testLogger(), WithLimit(1, time.Minute), WithDisabled(true))
	handler := limiter.Limit(okHandler())

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.42:51000"
		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestLimitSetsRateHeaders(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryStore(), testLogger(), WithLimit(5, time.Minute))
	handler := limiter.Limit(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.42:51000"
	handler.ServeHTTP(w, r)

	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}
