package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreja/internal/core"
	"igreja/internal/services"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/members/3").
		Body(map[string]int{"id": 3}).
		Write(rec)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/members/3", rec.Header().Get("Location"))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":3}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestErrorStatus(t *testing.T) {
	verr := &core.ValidationError{}
	verr.Add("name", "is required")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", verr, http.StatusUnprocessableEntity},
		{"reference", &core.ReferenceError{Entity: "member", ID: 9}, http.StatusUnprocessableEntity},
		{"duplicate", &core.DuplicateError{Constraint: core.ConstraintRegistrationNumber, Value: "1"}, http.StatusConflict},
		{"not found", &core.NotFoundError{Entity: "member", ID: "1"}, http.StatusNotFound},
		{"read only", core.ErrReadOnly, http.StatusForbidden},
		{"no access", core.ErrNoAccess, http.StatusForbidden},
		{"store", &core.StoreError{Op: "list", Err: errors.New("disk I/O error")}, http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("read ledger: %w", &core.NotFoundError{Entity: "x"}), http.StatusNotFound},
		{"batch", &services.BatchError{Row: 2, MemberID: 5, Err: verr}, http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := errorStatus(tt.err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestWriteErrorKeepsStoreMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	writeError(rec, req, "list_members", &core.StoreError{Op: "list members", Err: errors.New("database disk image is malformed")})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "database disk image is malformed")
}

func TestWriteErrorValidationFields(t *testing.T) {
	verr := &core.ValidationError{}
	verr.Add("phone", "must have exactly 11 characters")
	verr.Add("spouse_name", "is required")

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodPost, "/members", nil), "create_member", verr)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"validation failed","fields":[
		{"field":"phone","message":"must have exactly 11 characters"},
		{"field":"spouse_name","message":"is required"}]}`, rec.Body.String())
}
