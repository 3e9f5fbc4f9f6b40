package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"worklife/internal/core"
	"worklife/internal/log"
	"worklife/internal/middleware/trace"
)

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding space.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w, r)
}

// writeError maps err onto a status code. Only validation and lookup
// failures expose their message; anything else is logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadBody):
		BadRequestError(err.Error()).Write(w, r)
	case errors.Is(err, core.ErrValidation):
		UnprocessableEntityError(err.Error()).Write(w, r)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(err.Error()).Write(w, r)
	case errors.Is(err, core.ErrConflict):
		ConflictError(err.Error()).Write(w, r)
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the response.
		w.WriteHeader(499)
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(),
			"Request failed", err, log.ErrorTypeInternal, r.Method+" "+r.Pattern, nil)
		InternalServerError("internal error").Write(w, r)
	}
}
