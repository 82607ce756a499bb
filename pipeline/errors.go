package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. A Kind is itself an error so callers
// can test with errors.Is(err, pipeline.InvalidAge).
type Kind string

const (
	MissingField     Kind = "MissingField"
	InvalidCategory  Kind = "InvalidCategory"
	NotNumeric       Kind = "NotNumeric"
	OutOfRange       Kind = "OutOfRange"
	InvalidAge       Kind = "InvalidAge"
	SchemaMismatch   Kind = "SchemaMismatch"
	TransformFailure Kind = "TransformFailure"
	InferenceFailure Kind = "InferenceFailure"
)

func (k Kind) Error() string { return string(k) }

// ClientError reports whether the caller can fix the failure by correcting input.
func (k Kind) ClientError() bool {
	switch k {
	case MissingField, InvalidCategory, NotNumeric, OutOfRange, InvalidAge:
		return true
	}
	return false
}

// Error is a failure raised while validating input or assembling features.
type Error struct {
	Kind  Kind
	Field string
	Value string
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("field %s is required", e.Field)
	case InvalidCategory:
		return fmt.Sprintf("invalid value for %s: %q (expected Low/Medium/High)", e.Field, e.Value)
	case NotNumeric:
		return fmt.Sprintf("%s must be numeric, got %q", e.Field, e.Value)
	case OutOfRange:
		return fmt.Sprintf("%s must be >= 0, got %s", e.Field, e.Value)
	case InvalidAge:
		return fmt.Sprintf("%s must be an integer between 0 and 120, got %q", e.Field, e.Value)
	case SchemaMismatch:
		if e.Err != nil {
			return fmt.Sprintf("schema mismatch: %v", e.Err)
		}
		return fmt.Sprintf("schema mismatch: column %q missing from %s", e.Value, e.Field)
	case TransformFailure:
		return fmt.Sprintf("error applying scaler: %v", e.Err)
	case InferenceFailure:
		return fmt.Sprintf("error in prediction: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind carried by err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

func fieldError(kind Kind, field string, value any) *Error {
	return &Error{Kind: kind, Field: field, Value: describe(value)}
}

func schemaError(source, column string) *Error {
	return &Error{Kind: SchemaMismatch, Field: source, Value: column}
}

func describe(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
