package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogger stores a request scoped logger in the context and logs
// each completed request. requestID and clientIP may be nil.
func RequestLogger(logger *Logger, requestID, clientIP func(*http.Request) string) func(http.Handler) http.Handler {
	sl := NewStructuredLogger(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			var id, ip string
			if requestID != nil {
				id = requestID(r)
			}
			if clientIP != nil {
				ip = clientIP(r)
			}

			reqLogger := logger.WithComponent(ComponentHTTP)
			if id != "" {
				reqLogger = reqLogger.With(FieldRequestID, id)
			}
			ctx := NewContext(r.Context(), reqLogger)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			sl.LogHTTPEnd(ctx, r, status, time.Since(start).Milliseconds(), id, ip)
		})
	}
}

// StructuredLogger logs recurring events with a consistent field layout.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs a finished request at a level derived from its status.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, requestID, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithHTTPResponse(statusCode, durationMs).
		WithRequestID(requestID)
	if r.Pattern != "" {
		fields.Set(FieldRoute, r.Pattern)
	}
	if clientIP != "" {
		fields.WithClientIP(clientIP)
	}

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogTransactionCreated logs a new ledger transaction.
func (sl *StructuredLogger) LogTransactionCreated(ctx context.Context, id int64, kind string, amountCents int64, category string) {
	fields := NewFields().
		WithTransaction(id, kind, amountCents, category).
		WithOperation(OpCreate)
	sl.logger.InfoContext(ctx, "Transaction created", fields.ToSlice()...)
}

// LogError logs err with its category and operation. fields may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, errorType, operation string, fields *LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err, errorType).WithOperation(operation)
	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
