// Package predicate holds typed predicate trees over a target type and evaluates them in memory.
package predicate

import (
	"reflect"

	"github.com/samber/lo"
)

// Predicate is a boolean function over T expressed as a node tree.
type Predicate[T any] struct {
	Body Node
}

func New[T any](body Node) *Predicate[T] {
	return &Predicate[T]{Body: body}
}

// Match evaluates the predicate against v. A nil predicate or body matches everything.
func (p *Predicate[T]) Match(v T) bool {
	if p == nil || p.Body == nil {
		return true
	}
	return p.Body.eval(reflect.ValueOf(&v).Elem())
}

// Filter returns the elements of vs that match, in order.
func (p *Predicate[T]) Filter(vs []T) []T {
	return lo.Filter(vs, func(v T, _ int) bool {
		return p.Match(v)
	})
}

func (p *Predicate[T]) String() string {
	if p == nil {
		return Format(nil)
	}
	return Format(p.Body)
}
