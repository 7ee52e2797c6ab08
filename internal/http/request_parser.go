// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for decoding and validating request data:
// JSON bodies, path identifiers and query parameters.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into dst. Unknown fields, trailing
// data and oversized bodies are rejected as bad requests.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.BadRequestError(errors.New("request body is required"))
		case errors.As(err, &maxErr):
			return core.BadRequestError(fmt.Errorf("request body exceeds %d bytes", maxErr.Limit))
		case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrInvalidDate):
			return core.BadRequestError(err)
		default:
			return core.BadRequestError(fmt.Errorf("invalid request body: %v", err))
		}
	}
	if dec.More() {
		return core.BadRequestError(errors.New("request body must contain a single JSON object"))
	}
	return nil
}

// Amount is a request amount: a positive decimal with at most two fractional
// digits, given as a JSON number or string.
type Amount struct {
	core.Money
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %s", core.ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", core.ErrInvalidAmount)
	}
	if !d.Equal(d.Truncate(2)) {
		return fmt.Errorf("%w: at most two decimal places", core.ErrInvalidAmount)
	}
	m, err := core.ParseMoney(s)
	if err != nil {
		return err
	}
	a.Money = m
	return nil
}

// pathID parses the named path value as a positive identifier.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.BadRequestError(fmt.Errorf("invalid %s: %q", name, raw))
	}
	return id, nil
}

// queryLimit parses the limit query parameter, defaulting to def and capping
// at maxLimit.
func queryLimit(r *http.Request, def, maxLimit int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, core.BadRequestError(fmt.Errorf("invalid limit: %q", raw))
	}
	return min(n, maxLimit), nil
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

// requireFields reports the first empty field by name.
func requireFields(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return core.BadRequestError(fmt.Errorf("%s is required", f[0]))
		}
	}
	return nil
}
