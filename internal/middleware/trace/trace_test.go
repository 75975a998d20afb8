package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finledger/internal/log"
)

func TestMiddleware_RequestID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when missing", "", false},
		{"propagated when valid", "abc-123", true},
		{"replaced when too long", strings.Repeat("x", 65), false},
		{"replaced when it has spaces", "abc 123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderRequestID, tt.incoming)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if seen == "" {
				t.Fatal("request id missing from context")
			}
			if got := rr.Header().Get(HeaderRequestID); got != seen {
				t.Errorf("response header = %q, context = %q", got, seen)
			}
			if tt.keep && seen != tt.incoming {
				t.Errorf("request id = %q, want %q", seen, tt.incoming)
			}
			if !tt.keep && !strings.HasPrefix(seen, "req_") {
				t.Errorf("request id = %q, want a generated one", seen)
			}
		})
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Component: log.ComponentHTTP, Output: &buf})

	access := NewAccessLog(
		func(*http.Request) string { return "203.0.113.7" },
		func(r *http.Request) string { return r.Header.Get("X-User-ID") },
	)
	h := log.Middleware(logger)(Middleware(log.RequestIDMiddleware(RequestID)(access.Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}),
	))))

	req := httptest.NewRequest(http.MethodGet, "/bills/missing", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set(HeaderRequestID, "trace-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{`"level":"WARN"`, `"status_code":404`, `"user_id":"user-1"`, `"request_id":"trace-1"`, `"client_ip":"203.0.113.7"`} {
		if !strings.Contains(out, want) {
			t.Errorf("access log missing %s: %s", want, out)
		}
	}
	if access.TotalRequests() != 1 {
		t.Errorf("TotalRequests() = %d, want 1", access.TotalRequests())
	}
}
