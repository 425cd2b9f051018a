package exprconv

import (
	"slices"
	"strings"

	"github.com/theplant/exprconv/expr"
	"github.com/theplant/exprconv/predicate"
)

// Condition is an atomic test extracted from a source predicate.
// Connective joins it to the conditions before it and is ignored on the first one.
type Condition struct {
	Path       string
	Operator   predicate.Operator
	Value      any
	Connective predicate.Connective
}

// ExtractConditions flattens a source predicate into its atomic conditions, left to right.
// Shapes that carry no field condition are skipped.
func ExtractConditions(e expr.Expr) []Condition {
	var conds []Condition
	extract(e, predicate.And, &conds)
	return conds
}

func extract(e expr.Expr, conn predicate.Connective, out *[]Condition) {
	switch e := e.(type) {
	case *expr.Lambda:
		extract(e.Body, conn, out)
	case *expr.Logical:
		extract(e.Left, e.Op, out)
		extract(e.Right, e.Op, out)
	case *expr.Compare:
		if c, ok := compareCondition(e); ok {
			c.Connective = conn
			*out = append(*out, c)
		}
	case *expr.Call:
		if c, ok := callCondition(e); ok {
			c.Connective = conn
			*out = append(*out, c)
		}
	case *expr.Member, *expr.Convert:
		if path, ok := memberPath(e); ok {
			*out = append(*out, Condition{Path: path, Operator: predicate.OperatorNone, Connective: conn})
		}
	}
}

func compareCondition(e *expr.Compare) (Condition, bool) {
	if path, ok := memberPath(e.Left); ok {
		if value, ok := literal(e.Right); ok {
			return Condition{Path: path, Operator: e.Op, Value: value}, true
		}
		return Condition{}, false
	}
	// 5 < x.Age is read as x.Age > 5
	if path, ok := memberPath(e.Right); ok {
		if value, ok := literal(e.Left); ok {
			return Condition{Path: path, Operator: e.Op.Mirror(), Value: value}, true
		}
	}
	return Condition{}, false
}

func callCondition(e *expr.Call) (Condition, bool) {
	switch e.Method {
	case expr.MethodAny:
		return anyCondition(e)
	case expr.MethodContains, expr.MethodStringContains:
		if len(e.Args) != 1 {
			return Condition{}, false
		}
		field, value := e.Object, e.Args[0]
		if e.Method == expr.MethodContains {
			if _, ok := memberPath(field); !ok {
				field, value = value, field
			}
		}
		path, ok := memberPath(field)
		if !ok {
			return Condition{}, false
		}
		v, ok := literal(value)
		if !ok {
			return Condition{}, false
		}
		return Condition{Path: path, Operator: predicate.Contains, Value: v}, true
	}
	return Condition{}, false
}

// anyCondition reads coll.Any(e => inner) as one condition on coll.<inner path>.
func anyCondition(e *expr.Call) (Condition, bool) {
	coll, ok := memberPath(e.Object)
	if !ok || len(e.Args) != 1 {
		return Condition{}, false
	}
	lambda, ok := e.Args[0].(*expr.Lambda)
	if !ok {
		return Condition{}, false
	}

	var inner Condition
	switch body := lambda.Body.(type) {
	case *expr.Compare:
		inner, ok = compareCondition(body)
	case *expr.Call:
		if body.Method == expr.MethodAny {
			return Condition{}, false
		}
		inner, ok = callCondition(body)
	case *expr.Member, *expr.Convert:
		var path string
		path, ok = memberPath(body)
		inner = Condition{Path: path, Operator: predicate.OperatorNone}
	default:
		ok = false
	}
	if !ok {
		return Condition{}, false
	}
	inner.Path = coll + "." + inner.Path
	return inner, true
}

// memberPath joins the member names of a field access, looking through conversions.
func memberPath(e expr.Expr) (string, bool) {
	var names []string
	for {
		switch m := e.(type) {
		case *expr.Convert:
			e = m.Operand
			continue
		case *expr.Member:
			if m.Name == "" {
				return "", false
			}
			names = append(names, m.Name)
			e = m.Target
			continue
		case *expr.Param, nil:
			if len(names) == 0 {
				return "", false
			}
		default:
			return "", false
		}
		break
	}
	slices.Reverse(names)
	return strings.Join(names, "."), true
}

// literal evaluates a constant side. Captured values are evaluated here, once.
func literal(e expr.Expr) (any, bool) {
	switch v := e.(type) {
	case *expr.Constant:
		return v.Value, true
	case *expr.Captured:
		if v.Eval == nil {
			return nil, true
		}
		return v.Eval(), true
	case *expr.Convert:
		return literal(v.Operand)
	}
	return nil, false
}
