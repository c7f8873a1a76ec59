// Package http serves the expense store and budget ledger as a JSON API.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/budget"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := json.Marshal(b.body)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(data, '\n'))
}

// errorBody is the payload of every failed request.
type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// TooManyRequests answers requests rejected by the rate limiter.
func TooManyRequests(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, retry later").Write(w)
}

// Blocked answers requests rejected by the suspicious request detector.
func Blocked(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).Warn("Blocked suspicious request",
		applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).ToSlice()...)
	BadRequestError("request rejected").Write(w)
}

// statusFor maps store and ledger errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidLimit),
		errors.Is(err, core.ErrInvalidCategoryName):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateCategory),
		errors.Is(err, core.ErrProtectedCategory):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err with the request logger and writes it as JSON.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	fields := applog.NewFields().WithOperation(op).WithError(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields.ToSlice()...)
	} else {
		logger.Warn("Request rejected", fields.WithErrorType(applog.ErrorTypeValidation).ToSlice()...)
	}
	ErrorResponse(status, err.Error()).Write(w)
}

type recordJSON struct {
	ID          int64  `json:"id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func toRecordJSON(r core.ExpenseRecord) recordJSON {
	return recordJSON{
		ID:          r.ID,
		Amount:      core.FormatAmount(r.Amount),
		Date:        r.Date.String(),
		Description: r.Description,
	}
}

type matchJSON struct {
	Category string `json:"category"`
	recordJSON
}

type alertJSON struct {
	Category   string `json:"category"`
	Severity   string `json:"severity"`
	Spent      string `json:"spent"`
	Limit      string `json:"limit"`
	Overspend  string `json:"overspend,omitempty"`
	Percentage string `json:"percentage"`
	Message    string `json:"message"`
}

func toAlertsJSON(alerts []budget.Alert) []alertJSON {
	out := make([]alertJSON, 0, len(alerts))
	for _, a := range alerts {
		aj := alertJSON{
			Category:   a.Category,
			Severity:   a.Severity.String(),
			Spent:      core.FormatAmount(a.Spent),
			Limit:      core.FormatAmount(a.Limit),
			Percentage: a.Percentage.StringFixed(0),
			Message:    a.Message,
		}
		if a.Severity == budget.SeverityCritical {
			aj.Overspend = core.FormatAmount(a.Overspend)
		}
		out = append(out, aj)
	}
	return out
}

type progressJSON struct {
	Category   string `json:"category"`
	Limit      string `json:"limit"`
	Spent      string `json:"spent"`
	Remaining  string `json:"remaining"`
	Percentage string `json:"percentage"`
	Severity   string `json:"severity"`
}

func toProgressJSON(p budget.Progress) progressJSON {
	return progressJSON{
		Category:   p.Category,
		Limit:      core.FormatAmount(p.Limit),
		Spent:      core.FormatAmount(p.Spent),
		Remaining:  core.FormatAmount(p.Remaining),
		Percentage: p.Percentage.StringFixed(0),
		Severity:   p.Severity.String(),
	}
}
