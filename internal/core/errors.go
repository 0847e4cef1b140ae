package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReadOnly is returned when a write is attempted without write capability.
var ErrReadOnly = errors.New("operation requires write capability")

// ErrNoAccess is returned when a report is requested without read capability.
var ErrNoAccess = errors.New("operation requires read capability")

// FieldError names one offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every offending field, never just the first.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field is among the offending fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no field was collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Constraint identifies which uniqueness rule a DuplicateError violated.
type Constraint string

const (
	ConstraintLedgerCompetency   Constraint = "ledger_member_competency"
	ConstraintRegistrationNumber Constraint = "member_registration_number"
)

type DuplicateError struct {
	Constraint Constraint
	Value      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value %q violates %s", e.Value, e.Constraint)
}

// IsDuplicate reports whether err is a DuplicateError for the given constraint.
func IsDuplicate(err error, c Constraint) bool {
	var dup *DuplicateError
	return errors.As(err, &dup) && dup.Constraint == c
}

// ReferenceError reports a foreign key target that does not exist.
type ReferenceError struct {
	Entity string
	ID     int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("referenced %s %d does not exist", e.Entity, e.ID)
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// StoreError wraps a persistence failure not classified otherwise. The raw
// driver message is kept for diagnosis.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
