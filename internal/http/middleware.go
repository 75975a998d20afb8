package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	applog "finledger/internal/log"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"

	// HeaderUserID identifies the acting user. Authentication happens in
	// front of this service.
	HeaderUserID = "X-User-ID"

	maxUserIDLen = 128
)

// userFromHeader returns the trimmed X-User-ID value if it is acceptable.
func userFromHeader(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" || len(id) > maxUserIDLen || sanitizeInput(id) != id {
		return ""
	}
	return id
}

// userID returns the user stored by requireUser.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// requireUser rejects requests without a usable X-User-ID header and tags
// the request logger with the user.
func requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := userFromHeader(r)
		if id == "" {
			UnauthorizedError("missing or invalid " + HeaderUserID + " header").Write(w)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, id)
		logger := applog.FromContext(ctx).With(applog.FieldUserID, id)
		next(w, r.WithContext(applog.WithContext(ctx, logger)))
	}
}

// tooManyRequests is the rate limiter's rejection response.
func tooManyRequests(w http.ResponseWriter, r *http.Request, retryAfter int) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldUserID, userFromHeader(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").
		Header("Retry-After", strconv.Itoa(max(retryAfter, 1))).
		Write(w)
}
