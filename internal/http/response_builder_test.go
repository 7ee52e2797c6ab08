package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"expensetracker/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse(map[string]int{"deleted": 3}).
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Error("Expected custom header to be set")
	}
	if got := w.Body.String(); got != "{\"deleted\":3}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestErrorFrom(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"not found", core.NotFoundError("category", 9), http.StatusNotFound, "No category: 9"},
		{"unauthorized", core.UnauthorizedError("Invalid email/password"), http.StatusUnauthorized, "Invalid email/password"},
		{"bad request", core.BadRequestError(core.ErrEmptyName), http.StatusBadRequest, "empty name"},
		{"conflict", core.ConflictError("Duplicate email: a@b.co"), http.StatusBadRequest, "Duplicate email: a@b.co"},
		{"wrapped", fmt.Errorf("load: %w", core.NotFoundError("user", 1)), http.StatusNotFound, "load: No user: 1"},
		{"unexpected", errors.New("disk I/O error"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFrom(tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid envelope %q: %v", w.Body.String(), err)
			}
			if body.Error.Status != tt.wantStatus || body.Error.Message != tt.wantMessage {
				t.Errorf("envelope = %+v, want {%q %d}", body.Error, tt.wantMessage, tt.wantStatus)
			}
		})
	}
}

func TestFixedErrorResponses(t *testing.T) {
	tests := []struct {
		builder *JSONResponseBuilder
		status  int
	}{
		{NotFoundError(), http.StatusNotFound},
		{UnauthorizedError(), http.StatusUnauthorized},
		{TooManyRequestsError(), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		tt.builder.Write(w)
		if w.Code != tt.status {
			t.Errorf("status = %d, want %d", w.Code, tt.status)
		}
		var body errorBody
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error.Status != tt.status {
			t.Errorf("envelope %q does not carry status %d", w.Body.String(), tt.status)
		}
	}
}
