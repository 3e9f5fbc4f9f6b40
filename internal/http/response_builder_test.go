package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"worklife/internal/middleware/trace"
)

func TestJSONResponseBuilderData(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	NewJSONResponse().
		Status(http.StatusCreated).
		Data(map[string]int{"id": 7}).
		Meta("year", 2025).
		Header("Location", "/api/habits/7").
		Write(w, r)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/habits/7" {
		t.Errorf("Location = %q", got)
	}

	var body struct {
		Data  map[string]int `json:"data"`
		Meta  map[string]int `json:"meta"`
		Error *ErrorBody     `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	if body.Data["id"] != 7 || body.Meta["year"] != 2025 || body.Error != nil {
		t.Errorf("body = %+v", body)
	}
}

func TestJSONResponseBuilderEmptyList(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data([]string{}).Write(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.TrimSpace(w.Body.String()); got != `{"data":[]}` {
		t.Errorf("body = %s", got)
	}
}

func TestJSONResponseBuilderCached(t *testing.T) {
	tests := []struct {
		hit  bool
		want string
	}{
		{hit: true, want: "HIT"},
		{hit: false, want: "MISS"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		NewJSONResponse().Data("x").Cached(tt.hit).Write(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if got := w.Header().Get("X-Cache"); got != tt.want {
			t.Errorf("Cached(%v): X-Cache = %q, want %q", tt.hit, got, tt.want)
		}
	}
}

func TestJSONResponseBuilderNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data("ignored").NoContent().Write(w, httptest.NewRequest(http.MethodDelete, "/", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "" {
		t.Errorf("204 should carry no Content-Type")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
		code    string
	}{
		{"bad request", BadRequestError("broken"), http.StatusBadRequest, CodeBadRequest},
		{"validation", UnprocessableEntityError("broken"), http.StatusUnprocessableEntity, CodeValidation},
		{"not found", NotFoundError("broken"), http.StatusNotFound, CodeNotFound},
		{"conflict", ConflictError("broken"), http.StatusConflict, CodeConflict},
		{"internal", InternalServerError("broken"), http.StatusInternalServerError, CodeInternal},
		{"custom", ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "broken"), http.StatusTooManyRequests, CodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(trace.WithRequestID(r.Context(), "req_test"))

			tt.builder.Write(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body Envelope
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Error == nil {
				t.Fatal("missing error body")
			}
			want := ErrorBody{Code: tt.code, Message: "broken", RequestID: "req_test"}
			if *body.Error != want {
				t.Errorf("error = %+v, want %+v", *body.Error, want)
			}
		})
	}
}
