package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"finledger/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Data(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header missing")
	}
	if got := w.Body.String(); got != "{\"ok\":true,\"data\":{\"n\":1}}\n" {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_EmptyListIsKept(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data([]core.Account{}).Write(w)
	if got := w.Body.String(); got != "{\"ok\":true,\"data\":[]}\n" {
		t.Errorf("Body = %q", got)
	}
}

func TestFromError(t *testing.T) {
	partial := &core.PartialWorkflowError{Workflow: "pay bill", Completed: []string{"bill marked paid"}, Err: errors.New("disk full")}
	tests := []struct {
		name    string
		err     error
		status  int
		field   string
		partial bool
		message string
	}{
		{
			name:   "validation",
			err:    fmt.Errorf("create account: %w", &core.ValidationError{Field: "name", Reason: "empty name"}),
			status: http.StatusUnprocessableEntity,
			field:  "name",
		},
		{
			name:   "insufficient funds",
			err:    &core.InsufficientFundsError{AccountName: "Bank", Available: core.Cents(100), Required: core.Cents(300)},
			status: http.StatusConflict,
		},
		{name: "not found", err: &core.NotFoundError{Entity: "bill", ID: "b1"}, status: http.StatusNotFound},
		{name: "conflict", err: fmt.Errorf("insert bill: %w", core.ErrConflict), status: http.StatusConflict},
		{name: "partial", err: partial, status: http.StatusInternalServerError, partial: true},
		{name: "bad request", err: badRequest("request body is empty"), status: http.StatusBadRequest},
		{name: "unknown", err: errors.New("sql: database is closed"), status: http.StatusInternalServerError, message: "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(tt.err).Write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body envelope
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.OK || body.Error == "" {
				t.Errorf("expected failure envelope, got %+v", body)
			}
			if body.Field != tt.field || body.Partial != tt.partial {
				t.Errorf("field=%q partial=%v, want %q %v", body.Field, body.Partial, tt.field, tt.partial)
			}
			if tt.message != "" && body.Error != tt.message {
				t.Errorf("error = %q, want %q", body.Error, tt.message)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Groceries  ", "Groceries"},
		{"Line\x00Break\x07", "LineBreak"},
		{"tab\tkept", "tab\tkept"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
