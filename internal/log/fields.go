package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldRoute       = "route"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldTxID        = "transaction_id"
	FieldTxKind      = "transaction_kind"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldHabitID     = "habit_id"
	FieldOutcome     = "outcome"
	FieldLoanID      = "loan_id"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentWork      = "work"
	ComponentHabits    = "habits"
	ComponentFocus     = "focus"
	ComponentLedger    = "ledger"
	ComponentLoans     = "loans"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentPrefs     = "prefs"
	ComponentCLI       = "cli"
)

// Operations
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpComplete = "complete"
	OpProject  = "project"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Error categories reported in FieldErrorType.
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeConflict   = "conflict_error"
	ErrorTypeDatabase   = "database_error"
	ErrorTypeInternal   = "internal_error"
)

// LogFields builds slog attributes in a fixed key order.
type LogFields struct {
	keys   []string
	values map[string]any
}

func NewFields() *LogFields {
	return &LogFields{values: make(map[string]any)}
}

// Set adds or replaces a field. Replaced fields keep their position.
func (f *LogFields) Set(key string, value any) *LogFields {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	return f
}

func (f *LogFields) WithComponent(component string) *LogFields {
	return f.Set(FieldComponent, component)
}

func (f *LogFields) WithRequestID(requestID string) *LogFields {
	if requestID == "" {
		return f
	}
	return f.Set(FieldRequestID, requestID)
}

func (f *LogFields) WithClientIP(ip string) *LogFields {
	return f.Set(FieldClientIP, ip)
}

// WithError records err and its category. A nil err is ignored.
func (f *LogFields) WithError(err error, errorType string) *LogFields {
	if err == nil {
		return f
	}
	f.Set(FieldError, err.Error())
	if errorType != "" {
		f.Set(FieldErrorType, errorType)
	}
	return f
}

func (f *LogFields) WithOperation(op string) *LogFields {
	return f.Set(FieldOperation, op)
}

func (f *LogFields) WithMonth(year, month int) *LogFields {
	return f.Set(FieldYear, year).Set(FieldMonth, month)
}

func (f *LogFields) WithTransaction(id int64, kind string, amountCents int64, category string) *LogFields {
	return f.Set(FieldTxID, id).
		Set(FieldTxKind, kind).
		Set(FieldAmountCents, amountCents).
		Set(FieldCategory, category)
}

func (f *LogFields) WithHTTPRequest(method, path, query, userAgent string) *LogFields {
	f.Set(FieldMethod, method).Set(FieldPath, path)
	if query != "" {
		f.Set(FieldQuery, query)
	}
	if userAgent != "" {
		f.Set(FieldUserAgent, userAgent)
	}
	return f
}

func (f *LogFields) WithHTTPResponse(statusCode int, durationMs int64) *LogFields {
	return f.Set(FieldStatusCode, statusCode).
		Set(FieldDuration, durationMs).
		Set(FieldSuccess, statusCode < 400)
}

// Get returns the value stored under key.
func (f *LogFields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// ToSlice returns the fields as alternating key/value pairs for slog.
func (f *LogFields) ToSlice() []any {
	out := make([]any, 0, len(f.keys)*2)
	for _, k := range f.keys {
		out = append(out, k, f.values[k])
	}
	return out
}
