package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute})
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestLimiter_Allow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := range 3 {
		if !rl.Allow("user-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("user-1") {
		t.Error("fourth request in the window should be refused")
	}
	if !rl.Allow("user-2") {
		t.Error("other keys have their own budget")
	}
	if got := rl.Rejected(); got != 1 {
		t.Errorf("Rejected() = %d, want 1", got)
	}

	if got := rl.RetryAfter("user-1"); got != 60 {
		t.Errorf("RetryAfter() = %d, want 60", got)
	}
	clock.advance(45 * time.Second)
	if got := rl.RetryAfter("user-1"); got != 15 {
		t.Errorf("RetryAfter() = %d, want 15", got)
	}

	clock.advance(15 * time.Second)
	if !rl.Allow("user-1") {
		t.Error("a new window should reset the budget")
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 10)
	rl.Allow("old")
	clock.advance(11 * time.Minute)
	rl.Allow("fresh")

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("cleanupStaleEntries() = %d, want 1", removed)
	}
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients() = %d, want 1", got)
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	var retry int
	h := rl.Middleware(
		func(r *http.Request) string { return r.Header.Get("X-User-ID") },
		func(w http.ResponseWriter, r *http.Request, retryAfter int) {
			retry = retryAfter
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		user   string
		status int
	}{
		{"first request", "user-1", http.StatusNoContent},
		{"over budget", "user-1", http.StatusTooManyRequests},
		{"anonymous passes", "", http.StatusNoContent},
		{"anonymous again", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
			if tt.user != "" {
				req.Header.Set("X-User-ID", tt.user)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}
	if retry != 60 {
		t.Errorf("onLimit retryAfter = %d, want 60", retry)
	}
}
