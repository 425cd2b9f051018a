// Package exprconv translates filter predicates written against one schema into equivalent
// predicates against a related target schema.
//
// A source predicate is an expr.Lambda. Translate flattens it into atomic conditions,
// resolves each field path on the target type (directly, under a fallback container, or
// per element of a nested collection), coerces each literal to the target field's type and
// folds the results into a predicate.Predicate that can be evaluated in memory or rendered
// to SQL with gormpredicate.
package exprconv

import (
	"reflect"

	"github.com/theplant/exprconv/expr"
	"github.com/theplant/exprconv/predicate"
)

// Translate converts src into a predicate over T.
func Translate[T any](src *expr.Lambda, opts ...Option) (*predicate.Predicate[T], error) {
	if src == nil || src.Body == nil {
		return nil, &MalformedInputError{Arg: "src", Reason: "predicate is nil"}
	}
	o := newOptions(opts)
	if err := CheckComplexity(src.Body, o.Limits); err != nil {
		return nil, &MalformedInputError{Arg: "src", Reason: "predicate too complex", Err: err}
	}

	body, err := buildPredicate(reflect.TypeFor[T](), ExtractConditions(src.Body), o)
	if err != nil {
		return nil, err
	}
	return predicate.New[T](body), nil
}
