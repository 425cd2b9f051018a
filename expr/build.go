package expr

import (
	"reflect"

	"github.com/theplant/exprconv/predicate"
)

// Root is the parameter of predicates built with Where.
var Root = &Param{Name: "x"}

// Where wraps body as a predicate over Root.
func Where(body Expr) *Lambda {
	return &Lambda{Param: Root, Body: body}
}

// Field reads a dotted chain of members from the lambda parameter, Field("Profile", "Name")
// is x.Profile.Name.
func Field(names ...string) Expr {
	var e Expr
	for _, name := range names {
		e = &Member{Target: e, Name: name}
	}
	return e
}

func Value(v any) *Constant { return &Constant{Value: v} }

// Capture defers reading a caller variable until translation.
func Capture(name string, eval func() any) *Captured {
	return &Captured{Name: name, Eval: eval}
}

func Cast(e Expr, t reflect.Type) *Convert { return &Convert{Operand: e, Type: t} }

func Eq(l, r Expr) *Compare { return &Compare{Op: predicate.Equal, Left: l, Right: r} }
func Ne(l, r Expr) *Compare { return &Compare{Op: predicate.NotEqual, Left: l, Right: r} }
func Gt(l, r Expr) *Compare { return &Compare{Op: predicate.GreaterThan, Left: l, Right: r} }
func Ge(l, r Expr) *Compare { return &Compare{Op: predicate.GreaterThanOrEqual, Left: l, Right: r} }
func Lt(l, r Expr) *Compare { return &Compare{Op: predicate.LessThan, Left: l, Right: r} }
func Le(l, r Expr) *Compare { return &Compare{Op: predicate.LessThanOrEqual, Left: l, Right: r} }

func And(l, r Expr) *Logical     { return &Logical{Op: predicate.And, Left: l, Right: r} }
func AndAlso(l, r Expr) *Logical { return &Logical{Op: predicate.AndAlso, Left: l, Right: r} }
func Or(l, r Expr) *Logical      { return &Logical{Op: predicate.Or, Left: l, Right: r} }
func OrElse(l, r Expr) *Logical  { return &Logical{Op: predicate.OrElse, Left: l, Right: r} }

// Any is true when some element of coll satisfies body. Inside body, Field reads from the element.
func Any(coll Expr, body Expr) *Call {
	return &Call{
		Method: MethodAny,
		Object: coll,
		Args:   []Expr{&Lambda{Param: &Param{Name: "e"}, Body: body}},
	}
}

// In tests whether values contains field, like slices.Contains(values, x.Field).
func In(values Expr, field Expr) *Call {
	return &Call{Method: MethodContains, Object: values, Args: []Expr{field}}
}

// Has tests whether the collection field contains value, like slices.Contains(x.Tags, v).
func Has(field Expr, value Expr) *Call {
	return &Call{Method: MethodContains, Object: field, Args: []Expr{value}}
}

// StringContains tests whether the text field contains substr.
func StringContains(field Expr, substr Expr) *Call {
	return &Call{Method: MethodStringContains, Object: field, Args: []Expr{substr}}
}
