package log

import "github.com/shopspring/decimal"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldCategory    = "category"
	FieldFrom        = "from"
	FieldTo          = "to"
	FieldRecordID    = "record_id"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldDescription = "description"
	FieldCount       = "count"
	FieldLimit       = "limit"
	FieldSpent       = "spent"
	FieldSeverity    = "severity"
	FieldMonth       = "month"
	FieldPath        = "path"
	FieldBackend     = "backend"

	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldURLPath    = "url"
	FieldQuery      = "query"
	FieldUserAgent  = "user_agent"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldClientIP   = "client_ip"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentStore       = "store"
	ComponentBudget      = "budget"
	ComponentPersistence = "persistence"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentBackend     = "backend"
	ComponentCache       = "cache"
	ComponentCLI         = "cli"
	ComponentHTTP        = "http"
)

// Operations defines standard operation names
const (
	OpAdd       = "add"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpUndo      = "undo"
	OpClear     = "clear"
	OpMerge     = "merge"
	OpRemove    = "remove"
	OpMigrate   = "migrate"
	OpLoad      = "load"
	OpSave      = "save"
	OpPublish   = "publish"
	OpSetBudget = "set_budget"
	OpAlerts    = "alerts"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypeNotFound    = "not_found_error"
	ErrorTypeConflict    = "conflict_error"
	ErrorTypePersistence = "persistence_error"
	ErrorTypeNetwork     = "network_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category field
func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

// WithCategory adds category field
func (f LogFields) WithCategory(category string) LogFields {
	f[FieldCategory] = category
	return f
}

// WithRename adds the source and target of a category rename or merge
func (f LogFields) WithRename(from, to string) LogFields {
	f[FieldFrom] = from
	f[FieldTo] = to
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(category string, id int64, amount decimal.Decimal, date string) LogFields {
	f[FieldCategory] = category
	f[FieldRecordID] = id
	f[FieldAmount] = amount.String()
	f[FieldDate] = date
	return f
}

// WithBudget adds budget-related fields
func (f LogFields) WithBudget(category string, limit, spent decimal.Decimal) LogFields {
	f[FieldCategory] = category
	f[FieldLimit] = limit.String()
	f[FieldSpent] = spent.String()
	return f
}

// WithCount adds a count field
func (f LogFields) WithCount(n int) LogFields {
	f[FieldCount] = n
	return f
}

// WithPath adds a file path field
func (f LogFields) WithPath(path string) LogFields {
	f[FieldPath] = path
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldURLPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
