package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finledger/internal/core"
	applog "finledger/internal/log"
)

// envelope is the body of every API response.
type envelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
	Partial bool   `json:"partial,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building envelope responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
}

// NewJSONResponse creates a successful response with status 200.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		body:       envelope{OK: true},
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Data(data any) *JSONResponseBuilder {
	b.body.Data = data
	return b
}

// Error turns the response into a failure carrying message.
func (b *JSONResponseBuilder) Error(message string) *JSONResponseBuilder {
	b.body.OK = false
	b.body.Error = message
	return b
}

// Field names the offending input of a validation failure.
func (b *JSONResponseBuilder) Field(name string) *JSONResponseBuilder {
	b.body.Field = name
	return b
}

// Partial marks a failure whose workflow left some steps applied.
func (b *JSONResponseBuilder) Partial() *JSONResponseBuilder {
	b.body.Partial = true
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// ErrorResponse creates a failure response with the given status.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Error(message)
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// FromError maps a ledger error to its response. Unknown errors become a
// generic 500 so storage details do not leak to clients.
func FromError(err error) *JSONResponseBuilder {
	var (
		ve  *core.ValidationError
		bad *badRequestError
	)
	switch {
	case errors.As(err, &bad):
		return BadRequestError(bad.Error())
	case errors.As(err, &ve):
		return ErrorResponse(http.StatusUnprocessableEntity, ve.Error()).Field(ve.Field)
	case core.IsInsufficientFunds(err):
		return ErrorResponse(http.StatusConflict, err.Error())
	case core.IsNotFound(err):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrConflict):
		return ErrorResponse(http.StatusConflict, "resource already exists")
	case core.IsPartial(err):
		return InternalServerError(err.Error()).Partial()
	}
	return InternalServerError("internal error")
}

// errorType classifies err for the error_type log field.
func errorType(err error) string {
	switch {
	case core.IsValidation(err):
		return applog.ErrorTypeValidation
	case core.IsInsufficientFunds(err):
		return applog.ErrorTypeInsufficientFunds
	case core.IsNotFound(err):
		return applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrConflict):
		return applog.ErrorTypeConflict
	case core.IsPartial(err):
		return applog.ErrorTypePartial
	}
	return applog.ErrorTypeInternal
}
