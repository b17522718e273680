package api

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected input field. Field is prefixed with the
// request part it came from, e.g. "body.title" or "params.id".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a request fails validation. It is always
// rendered as 400.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Field + ": " + d.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// isoDateTime accepts UTC timestamps such as 2024-01-02T03:04:05Z with an
// optional fractional second.
var isoDateTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z$`)

// Validator implements echo.Validator on top of go-playground/validator.
// Struct fields are reported by their json name.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the custom tags used by request types:
//
//	hashid      the value decodes with ids
//	isodatetime strict ISO-8601 UTC datetime
func NewValidator(ids IDCodec) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hashid", func(fl validator.FieldLevel) bool {
		_, err := ids.DecodeID(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("isodatetime", func(fl validator.FieldLevel) bool {
		return parseISODateTime(fl.Field().String()) != nil
	})
	return &Validator{v: v}
}

// Validate checks a request body struct.
func (v *Validator) Validate(i any) error {
	return fieldErrors("body", v.v.Struct(i))
}

// Param checks a single path parameter against tag.
func (v *Validator) Param(name, value, tag string) error {
	err := v.v.Var(value, tag)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, len(verrs))
		for i, fe := range verrs {
			details[i] = FieldError{Field: "params." + name, Message: messageFor(name, fe.Tag())}
		}
		return &ValidationError{Details: details}
	}
	return err
}

func fieldErrors(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	details := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		details[i] = FieldError{Field: prefix + "." + fe.Field(), Message: messageFor(fe.Field(), fe.Tag())}
	}
	return &ValidationError{Details: details}
}

func messageFor(field, tag string) string {
	switch tag {
	case "alphanum":
		return "Invalid ID format"
	case "hashid":
		return "Invalid or corrupted ID"
	case "isodatetime":
		return "Invalid date format"
	}

	switch field {
	case "title":
		if tag == "max" {
			return "Title is too long"
		}
		return "Title is required"
	case "description":
		return "Description is too long"
	case "status", "targetStatus":
		return "Invalid status"
	case "priority":
		return "Invalid priority"
	case "id", "taskId", "prevId", "nextId", "dashboardId":
		return "Invalid ID format"
	}
	return "Invalid value"
}

func parseISODateTime(s string) *time.Time {
	if !isoDateTime.MatchString(s) {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
