// Package validation checks request payloads against their `validate`
// struct tags and reports failures as apperr.ErrValidation with one
// message per offending field, keyed by its json name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/caasmo/notespieces/apperr"
	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates s, a struct or a pointer to one.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation: %w", err)
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fieldPath(fe)
		if _, seen := details[field]; !seen {
			details[field] = message(fe)
		}
	}
	return apperr.ErrValidation.WithDetails(details).Wrap(err)
}

// fieldPath drops the struct name from the namespace: "tags[2]", not
// "CreateInput.tags[2]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	unit := "characters"
	switch fe.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = "items"
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s %s", fe.Param(), unit)
	case "min":
		return fmt.Sprintf("must be at least %s %s", fe.Param(), unit)
	case "datetime":
		return fmt.Sprintf("must be a date formatted as %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}
