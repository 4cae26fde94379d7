// This file implements parsing and validation of request bodies and query
// parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lifeledger/internal/core"
	"lifeledger/internal/ledger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var (
	ErrEmptyBody   = errors.New("request body is required")
	ErrInvalidJSON = errors.New("invalid JSON body")
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters. Missing
// values default to the month of now in UTC; malformed or out-of-range values
// are validation errors.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	now = now.UTC()
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.Invalid("year", core.ErrInvalidYear)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.Invalid("month", core.ErrInvalidMonth)
		}
		params.Month = m
	}

	if err := core.ValidateYearMonth(params.Year, params.Month); err != nil {
		return MonthParams{}, err
	}
	return params, nil
}

// ParseLimit reads the "limit" query parameter, falling back to def when absent.
func ParseLimit(query url.Values, def int) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid("limit", ledger.ErrInvalidLimit)
	}
	if err := ledger.ValidateLimit(limit); err != nil {
		return 0, err
	}
	return limit, nil
}

// DecodeJSON decodes a single JSON document from the request body into v.
// Unknown fields are ignored. Field-level decode failures that carry a domain
// sentinel (bad amount, bad date) surface as validation errors with that cause.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.Invalid("", ErrInvalidJSON)
	}
	return nil
}

func decodeError(err error) error {
	var maxErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return core.Invalid("", ErrEmptyBody)
	case errors.As(err, &maxErr):
		return core.Invalid("", fmt.Errorf("request body exceeds %d bytes", maxErr.Limit))
	case errors.Is(err, core.ErrInvalidAmount):
		return core.Invalid("amount", core.ErrInvalidAmount)
	case errors.Is(err, core.ErrInvalidDate):
		return core.Invalid("date", core.ErrInvalidDate)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return core.Invalid(typeErr.Field, fmt.Errorf("must be a %s", typeErr.Type))
	default:
		return core.Invalid("", ErrInvalidJSON)
	}
}
