package http

import (
	"net/http"
	"strings"
	"time"
)

// parseYearMonth extracts year and month from query parameters, defaulting
// to the month of now.
func parseYearMonth(r *http.Request, now time.Time) (year, month int, err error) {
	if year, err = queryInt(r, "year", now.Year()); err != nil {
		return 0, 0, err
	}
	if month, err = queryInt(r, "month", int(now.Month())); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
