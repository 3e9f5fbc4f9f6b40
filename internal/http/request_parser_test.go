package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"worklife/internal/core"
)

func TestParseMonthQuery(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{name: "defaults to now", query: "", wantYear: 2025, wantMonth: 3},
		{name: "both given", query: "?year=2024&month=11", wantYear: 2024, wantMonth: 11},
		{name: "only month", query: "?month=7", wantYear: 2025, wantMonth: 7},
		{name: "spaces trimmed", query: "?month=%207%20", wantYear: 2025, wantMonth: 7},
		{name: "month out of range", query: "?month=13", wantErr: true},
		{name: "not a number", query: "?year=next", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/overview"+tt.query, nil)
			p, err := ParseMonthQuery(req, now)
			if tt.wantErr {
				if !errors.Is(err, core.ErrValidation) {
					t.Fatalf("error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Year != tt.wantYear || p.Month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", p.Year, p.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestMonthParamsKey(t *testing.T) {
	if got := (MonthParams{Year: 2025, Month: 3}).key(); got != "2025-03" {
		t.Errorf("key() = %q, want %q", got, "2025-03")
	}
}

func TestParseMonthPath(t *testing.T) {
	tests := []struct {
		year, month string
		want        MonthParams
		wantErr     bool
	}{
		{year: "2025", month: "2", want: MonthParams{Year: 2025, Month: 2}},
		{year: "2025", month: "0", wantErr: true},
		{year: "abc", month: "2", wantErr: true},
		{year: "2025", month: "", wantErr: true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("year", tt.year)
		req.SetPathValue("month", tt.month)

		p, err := ParseMonthPath(req)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMonthPath(%q, %q) error = %v, wantErr %v", tt.year, tt.month, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && p != tt.want {
			t.Errorf("ParseMonthPath(%q, %q) = %+v, want %+v", tt.year, tt.month, p, tt.want)
		}
	}
}

func TestParseMonthPathThroughMux(t *testing.T) {
	var got MonthParams
	mux := http.NewServeMux()
	mux.HandleFunc("GET /months/{year}/{month}", func(w http.ResponseWriter, r *http.Request) {
		got, _ = ParseMonthPath(r)
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/months/2024/12", nil))

	if got != (MonthParams{Year: 2024, Month: 12}) {
		t.Errorf("got %+v", got)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "42", want: 42},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "1e3", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", tt.raw)
		id, err := ParseID(req, "id")
		if tt.wantErr {
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("ParseID(%q) error = %v, want validation error", tt.raw, err)
			}
			continue
		}
		if err != nil || id != tt.want {
			t.Errorf("ParseID(%q) = %d, %v; want %d", tt.raw, id, err, tt.want)
		}
	}
}

func TestParseDatePath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("date", "2025-02-29")
	if _, err := ParseDatePath(req, "date"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("2025-02-29 error = %v, want validation error", err)
	}

	req.SetPathValue("date", "2024-02-29")
	d, err := ParseDatePath(req, "date")
	if err != nil || d != core.NewDate(2024, 2, 29) {
		t.Errorf("got %v, %v", d, err)
	}
}

func TestParseDateRange(t *testing.T) {
	def := core.NewDate(2025, 2, 14)
	tests := []struct {
		name     string
		query    string
		from, to core.Date
		wantErr  bool
	}{
		{name: "whole month by default", query: "", from: core.NewDate(2025, 2, 1), to: core.NewDate(2025, 2, 28)},
		{name: "explicit", query: "?from=2025-01-01&to=2025-03-31", from: core.NewDate(2025, 1, 1), to: core.NewDate(2025, 3, 31)},
		{name: "only from", query: "?from=2025-02-10", from: core.NewDate(2025, 2, 10), to: core.NewDate(2025, 2, 28)},
		{name: "single day", query: "?from=2025-02-10&to=2025-02-10", from: core.NewDate(2025, 2, 10), to: core.NewDate(2025, 2, 10)},
		{name: "reversed", query: "?from=2025-02-10&to=2025-02-01", wantErr: true},
		{name: "malformed", query: "?to=yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			from, to, err := ParseDateRange(req, def)
			if tt.wantErr {
				if !errors.Is(err, core.ErrValidation) {
					t.Fatalf("error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if from != tt.from || to != tt.to {
				t.Errorf("got %s..%s, want %s..%s", from, to, tt.from, tt.to)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		query   string
		want    bool
		wantErr bool
	}{
		{query: "", want: false},
		{query: "?archived=true", want: true},
		{query: "?archived=1", want: true},
		{query: "?archived=false", want: false},
		{query: "?archived=maybe", wantErr: true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		got, err := ParseBool(req, "archived")
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBool(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBool(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name   string     `json:"name"`
		Amount core.Money `json:"amount"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "valid", body: `{"name":"lunch","amount":"12,50"}`},
		{name: "empty body", body: "", wantErr: errBadBody},
		{name: "unknown field", body: `{"name":"x","colour":"red"}`, wantErr: errBadBody},
		{name: "trailing data", body: `{"name":"x"} {"name":"y"}`, wantErr: errBadBody},
		{name: "wrong type", body: `{"name":7}`, wantErr: errBadBody},
		{name: "syntax error", body: `{"name":`, wantErr: errBadBody},
		{name: "invalid amount", body: `{"amount":"lots"}`, wantErr: core.ErrValidation},
		{name: "oversized", body: `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, wantErr: errBadBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.Name != "lunch" || p.Amount.Cents != 1250 {
					t.Errorf("decoded %+v", p)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
