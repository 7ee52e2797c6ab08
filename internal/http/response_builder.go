// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses, including the
// error envelope {"error": {"message": ..., "status": ...}} shared by every
// failing request.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse(payload any) *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		payload:    payload,
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
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
	_ = json.NewEncoder(w).Encode(b.payload)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ErrorResponse creates the error envelope with the given status.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse(errorBody{Error: errorDetail{Message: message, Status: statusCode}}).
		Status(statusCode)
}

// StatusFor maps a domain error to its HTTP status. Conflicts are reported as
// bad requests.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrBadRequest), errors.Is(err, core.ErrConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorFrom builds the error envelope for err. Messages of unexpected errors
// are not exposed.
func ErrorFrom(err error) *JSONResponseBuilder {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		return ErrorResponse(status, http.StatusText(status))
	}
	return ErrorResponse(status, err.Error())
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "Not Found")
}

// UnauthorizedError creates a 401 Unauthorized error response.
func UnauthorizedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, "Unauthorized")
}

// TooManyRequestsError creates a 429 error response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
