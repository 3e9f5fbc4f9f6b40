package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"worklife/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// MonthParams is a validated year and month.
type MonthParams struct {
	Year  int
	Month int
}

func (p MonthParams) key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParseMonthQuery reads ?year=&month=, defaulting each to now's value.
func ParseMonthQuery(r *http.Request, now time.Time) (MonthParams, error) {
	p := MonthParams{Year: now.Year(), Month: int(now.Month())}
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%w: year %q", core.ErrValidation, v)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%w: month %q", core.ErrValidation, v)
		}
		p.Month = m
	}
	return p, core.ValidateYearMonth(p.Year, p.Month)
}

// ParseMonthPath reads the {year} and {month} path values.
func ParseMonthPath(r *http.Request) (MonthParams, error) {
	y, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return MonthParams{}, fmt.Errorf("%w: year %q", core.ErrValidation, r.PathValue("year"))
	}
	m, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		return MonthParams{}, fmt.Errorf("%w: month %q", core.ErrValidation, r.PathValue("month"))
	}
	p := MonthParams{Year: y, Month: m}
	return p, core.ValidateYearMonth(y, m)
}

// ParseDatePath reads a YYYY-MM-DD path value.
func ParseDatePath(r *http.Request, name string) (core.Date, error) {
	return core.ParseDate(r.PathValue(name))
}

// ParseID reads a positive integer path value.
func ParseID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", core.ErrValidation, name, raw)
	}
	return id, nil
}

// ParseDateRange reads ?from=&to=. A missing bound defaults to the start
// or the end of def's month.
func ParseDateRange(r *http.Request, def core.Date) (from, to core.Date, err error) {
	q := r.URL.Query()
	from = core.NewDate(def.Year(), def.Month(), 1)
	to = core.NewDate(def.Year(), def.Month(), core.DaysIn(def.Year(), def.Month()))
	if v := q.Get("from"); v != "" {
		if from, err = core.ParseDate(v); err != nil {
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = core.ParseDate(v); err != nil {
			return
		}
	}
	if to.Before(from.Time) {
		err = fmt.Errorf("%w: range ends before it starts", core.ErrValidation)
	}
	return
}

// ParseBool reads an optional boolean query value.
func ParseBool(r *http.Request, name string) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s %q", core.ErrValidation, name, v)
	}
	return b, nil
}

// errBadBody marks a body that is not the JSON the handler expects.
var errBadBody = errors.New("malformed request body")

// DecodeJSON strictly decodes the request body into dst. Unknown fields,
// trailing data and oversized bodies are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, core.ErrValidation):
			return err
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadBody, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadBody)
		default:
			return fmt.Errorf("%w: %v", errBadBody, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}
