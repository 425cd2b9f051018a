package exprconv

import (
	"github.com/theplant/exprconv/predicate"
)

// AndIf returns base AndAlso extra when cond holds, otherwise base.
func AndIf[T any](base *predicate.Predicate[T], cond bool, extra *predicate.Predicate[T]) *predicate.Predicate[T] {
	if !cond {
		return base
	}
	return combine(predicate.AndAlso, base, extra)
}

// OrIf returns base Or extra when cond holds, otherwise base. Both sides are evaluated.
func OrIf[T any](base *predicate.Predicate[T], cond bool, extra *predicate.Predicate[T]) *predicate.Predicate[T] {
	if !cond {
		return base
	}
	return combine(predicate.Or, base, extra)
}

func combine[T any](op predicate.Connective, base, extra *predicate.Predicate[T]) *predicate.Predicate[T] {
	switch {
	case base == nil:
		return extra
	case extra == nil:
		return base
	}
	return predicate.New[T](predicate.Join(op, base.Body, extra.Body))
}
