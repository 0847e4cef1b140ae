package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"igreja/internal/core"
	applog "igreja/internal/log"
	"igreja/internal/services"
)

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
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

func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the response. A nil body writes the status only.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error      string            `json:"error"`
	Fields     []core.FieldError `json:"fields,omitempty"`
	Constraint core.Constraint   `json:"constraint,omitempty"`
	Row        *int              `json:"row,omitempty"`
	MemberID   int64             `json:"member_id,omitempty"`
}

// errorStatus maps the domain error taxonomy to HTTP.
func errorStatus(err error) (int, string) {
	var (
		verr *core.ValidationError
		rerr *core.ReferenceError
		derr *core.DuplicateError
		nerr *core.NotFoundError
		serr *core.StoreError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
	case errors.As(err, &rerr):
		return http.StatusUnprocessableEntity, applog.ErrorTypeReference
	case errors.As(err, &derr):
		return http.StatusConflict, applog.ErrorTypeConflict
	case errors.As(err, &nerr):
		return http.StatusNotFound, applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrReadOnly), errors.Is(err, core.ErrNoAccess):
		return http.StatusForbidden, applog.ErrorTypeAuth
	case errors.As(err, &serr):
		return http.StatusInternalServerError, applog.ErrorTypeDatabase
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

// writeError renders err with its status. Store failures keep the raw
// driver message in the body.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, kind := errorStatus(err)
	body := errorResponse{Error: err.Error()}

	var verr *core.ValidationError
	if errors.As(err, &verr) {
		body.Error = "validation failed"
		body.Fields = verr.Fields
	}
	var derr *core.DuplicateError
	if errors.As(err, &derr) {
		body.Constraint = derr.Constraint
	}
	var berr *services.BatchError
	if errors.As(err, &berr) {
		row := berr.Row
		body.Row = &row
		body.MemberID = berr.MemberID
	}

	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, kind, op, nil)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, op,
			applog.FieldErrorType, kind,
			applog.FieldError, err.Error())
	}
	writeJSON(w, status, body)
}

// writeBadRequest is for bodies or parameters that cannot be decoded at all.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
