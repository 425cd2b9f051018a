package exprconv

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"github.com/theplant/exprconv/predicate"
)

var (
	ErrPropertyNotFound    = errors.New("property not found")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrConversion          = errors.New("conversion failed")
	ErrMalformedInput      = errors.New("malformed input")
	ErrComplexityExceeded  = errors.New("complexity exceeded")
)

// PropertyNotFoundError reports a path that resolves neither directly nor under the fallback container.
type PropertyNotFoundError struct {
	Type     reflect.Type
	Path     string
	Fallback string
}

func (e *PropertyNotFoundError) Error() string {
	if e.Fallback != "" {
		return fmt.Sprintf("property %q not found on %s or under %q", e.Path, e.Type, e.Fallback)
	}
	return fmt.Sprintf("property %q not found on %s", e.Path, e.Type)
}

func (e *PropertyNotFoundError) Is(target error) bool { return target == ErrPropertyNotFound }

// UnsupportedOperatorError reports an operator that has no mapping for the field it is applied to.
type UnsupportedOperatorError struct {
	Operator predicate.Operator
	Path     string
	Type     reflect.Type
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("operator %s is not supported on %q of type %s", e.Operator, e.Path, e.Type)
}

func (e *UnsupportedOperatorError) Is(target error) bool { return target == ErrUnsupportedOperator }

// ConversionError reports a literal that cannot be coerced to a field type.
type ConversionError struct {
	Value any
	Type  reflect.Type
	Err   error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert %v (%T) to %s", e.Value, e.Value, e.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

func (e *ConversionError) Unwrap() error { return e.Err }

// MalformedInputError reports a missing or ill-shaped argument.
type MalformedInputError struct {
	Arg    string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := e.Arg + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

func (e *MalformedInputError) Unwrap() error { return e.Err }
