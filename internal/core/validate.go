package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator. Date and Money are validated
// through their scalar forms so "required" and "gte" apply to them.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(Date); ok {
				return d.String()
			}
			return nil
		}, Date{})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if m, ok := field.Interface().(Money); ok {
				return m.Cents
			}
			return nil
		}, Money{})
		validate = v
	})
	return validate
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "numeric":
		return "must contain only digits"
	case "len":
		return fmt.Sprintf("must have exactly %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// fieldPath turns "Contribution.competency.month" into "competency.month".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// validateStruct runs tag validation and collects every failure.
func validateStruct(s any) *ValidationError {
	verr := &ValidationError{}
	err := validatorInstance().Struct(s)
	if err == nil {
		return verr
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		verr.Add("_", err.Error())
		return verr
	}
	for _, fe := range errs {
		verr.Add(fieldPath(fe), messageFor(fe))
	}
	return verr
}

// Validate checks every required organization field at once.
func (o Organization) Validate() error {
	return validateStruct(o).OrNil()
}

// Validate applies the member field policy. Tag rules cover presence and
// formats; cross-field date rules are checked here.
func (m Member) Validate() error {
	verr := validateStruct(m)
	if !m.DepartureDate.IsZero() && (m.DepartureReason == "" || m.DepartureReason == DepartureNone) {
		verr.Add("departure_reason", "is required when departure_date is set")
	}
	if m.DepartureDate.IsZero() && m.DepartureReason != "" && m.DepartureReason != DepartureNone {
		verr.Add("departure_date", "is required when departure_reason is set")
	}
	if !m.DisciplineStart.IsZero() && !m.DisciplineEnd.IsZero() && m.DisciplineEnd.Before(m.DisciplineStart.Time) {
		verr.Add("discipline_end", "must not be before discipline_start")
	}
	if !m.DisciplineEnd.IsZero() && m.DisciplineStart.IsZero() {
		verr.Add("discipline_start", "is required when discipline_end is set")
	}
	return verr.OrNil()
}

// Validate checks a contribution before it reaches the store.
func (c Contribution) Validate() error {
	return validateStruct(c).OrNil()
}
