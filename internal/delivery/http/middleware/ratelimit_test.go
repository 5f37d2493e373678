package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventhub/internal/adapters/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLimiter struct {
	decision cache.Decision
	err      error
	keys     []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (cache.Decision, error) {
	f.keys = append(f.keys, key)
	return f.decision, f.err
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name           string
		limiter        *fakeLimiter
		userID         string
		wantStatus     int
		wantKey        string
		wantRetryAfter string
	}{
		{
			name:       "allowed user",
			limiter:    &fakeLimiter{decision: cache.Decision{Allowed: true, Remaining: 4}},
			userID:     "user-1",
			wantStatus: http.StatusOK,
			wantKey:    "rsvp:user:user-1",
		},
		{
			name:           "denied sets retry-after",
			limiter:        &fakeLimiter{decision: cache.Decision{Allowed: false, RetryAfter: 1500 * time.Millisecond}},
			userID:         "user-1",
			wantStatus:     http.StatusTooManyRequests,
			wantKey:        "rsvp:user:user-1",
			wantRetryAfter: "2",
		},
		{
			name:       "anonymous keyed by ip",
			limiter:    &fakeLimiter{decision: cache.Decision{Allowed: true}},
			wantStatus: http.StatusOK,
			wantKey:    "rsvp:ip:192.0.2.1",
		},
		{
			name:       "limiter failure lets request through",
			limiter:    &fakeLimiter{err: errors.New("redis down")},
			userID:     "user-1",
			wantStatus: http.StatusOK,
			wantKey:    "rsvp:user:user-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
			handler := RateLimit(tt.limiter, "rsvp", quietLogger)(next)

			req := httptest.NewRequest(http.MethodPost, "/api/events/x/rsvp", nil)
			if tt.userID != "" {
				req = req.WithContext(WithUserID(req.Context(), tt.userID))
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			require.Len(t, tt.limiter.keys, 1)
			assert.Equal(t, tt.wantKey, tt.limiter.keys[0])
			assert.Equal(t, tt.wantRetryAfter, rr.Header().Get("Retry-After"))
		})
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	rr := httptest.NewRecorder()
	RateLimit(nil, "rsvp", quietLogger)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestClientKey_ForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "ip:203.0.113.7", clientKey(req))
}
