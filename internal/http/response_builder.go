package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any            `json:"data"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorBody     `json:"error,omitempty"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// JSONResponseBuilder assembles a JSON response before writing it.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	envelope   Envelope
	noBody     bool
}

// NewJSONResponse starts a 200 response.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.envelope.Data = v
	return b
}

// Meta adds a key to the meta object.
func (b *JSONResponseBuilder) Meta(key string, value any) *JSONResponseBuilder {
	if b.envelope.Meta == nil {
		b.envelope.Meta = make(map[string]any)
	}
	b.envelope.Meta[key] = value
	return b
}

// Cached marks whether the data came from a read cache.
func (b *JSONResponseBuilder) Cached(hit bool) *JSONResponseBuilder {
	if hit {
		return b.Header("X-Cache", "HIT")
	}
	return b.Header("X-Cache", "MISS")
}

func (b *JSONResponseBuilder) Error(code, message string) *JSONResponseBuilder {
	b.envelope.Error = &ErrorBody{Code: code, Message: message}
	return b
}

// NoContent drops the body and sets 204.
func (b *JSONResponseBuilder) NoContent() *JSONResponseBuilder {
	b.statusCode = http.StatusNoContent
	b.noBody = true
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.noBody {
		w.WriteHeader(b.statusCode)
		return
	}

	if b.envelope.Error != nil {
		b.envelope.Error.RequestID = requestID(r)
	}
	body, err := json.Marshal(b.envelope)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "path", r.URL.Path)
		http.Error(w, `{"error":{"code":"internal","message":"encoding failed"}}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// Error codes reported in ErrorBody.Code.
const (
	CodeBadRequest  = "bad_request"
	CodeValidation  = "validation"
	CodeNotFound    = "not_found"
	CodeConflict    = "conflict"
	CodeRateLimited = "rate_limited"
	CodeUnavailable = "unavailable"
	CodeInternal    = "internal"
)

func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Error(code, message)
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, CodeValidation, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

func ConflictError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, CodeConflict, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message)
}
