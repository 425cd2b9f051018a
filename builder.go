package exprconv

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/theplant/exprconv/internal/hook"
	"github.com/theplant/exprconv/predicate"
	"github.com/theplant/exprconv/schema"
)

// BuildPredicate resolves conds against T and folds them left to right into one predicate.
// Each condition is joined to everything before it with its own connective; source grouping is not restored.
func BuildPredicate[T any](conds []Condition, opts ...Option) (*predicate.Predicate[T], error) {
	body, err := buildPredicate(reflect.TypeFor[T](), conds, newOptions(opts))
	if err != nil {
		return nil, err
	}
	return predicate.New[T](body), nil
}

func buildPredicate(root reflect.Type, conds []Condition, o *Options) (predicate.Node, error) {
	if len(conds) == 0 {
		return nil, &MalformedInputError{Arg: "conditions", Reason: "no condition to translate"}
	}

	build := hook.Apply(o.conditionHook, BuildConditionFunc(defaultBuildCondition))

	var acc predicate.Node
	for i, c := range conds {
		n, err := build(&BuildConditionInput{
			Index:     i,
			Condition: c,
			Root:      root,
			Fallback:  o.Fallback,
			Narrowing: o.Narrowing,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "condition %d (%s)", i, c.Path)
		}
		if n == nil {
			return nil, errors.Errorf("condition %d (%s): builder returned no node", i, c.Path)
		}
		if acc == nil {
			acc = n
			continue
		}
		acc = &predicate.Logical{Op: foldConnective(c.Connective), Left: acc, Right: n}
	}
	return acc, nil
}

func foldConnective(c predicate.Connective) predicate.Connective {
	switch c {
	case predicate.And, predicate.AndAlso, predicate.OrElse:
		return c
	}
	return predicate.Or
}

func defaultBuildCondition(input *BuildConditionInput) (predicate.Node, error) {
	r := &resolver{root: input.Root, fallback: input.Fallback, narrowing: input.Narrowing}
	rp, err := r.resolve(input.Condition.Path)
	if err != nil {
		return nil, err
	}
	return buildResolved(r, rp, input.Condition)
}

// buildResolved builds the node for a resolved condition, descending into collections
// as existential nodes whose inner paths start at the element.
func buildResolved(r *resolver, rp *resolvedPath, c Condition) (predicate.Node, error) {
	if !rp.Existential {
		return buildLeaf(rp.Steps, c)
	}
	inner := &resolver{root: rp.Elem, narrowing: r.narrowing}
	irp, err := inner.resolve(rp.Inner)
	if err != nil {
		return nil, err
	}
	ic := c
	ic.Path = rp.Inner
	n, err := buildResolved(inner, irp, ic)
	if err != nil {
		return nil, err
	}
	return &predicate.Existential{Path: rp.Steps, Inner: n}, nil
}

func buildLeaf(path predicate.Path, c Condition) (predicate.Node, error) {
	f := path.Last()
	unsupported := &UnsupportedOperatorError{Operator: c.Operator, Path: c.Path, Type: f.Type}

	switch c.Operator {
	case predicate.OperatorNone:
		if !f.IsBool() {
			return nil, unsupported
		}
		return &predicate.Truth{Path: path}, nil

	case predicate.Equal, predicate.NotEqual,
		predicate.GreaterThan, predicate.GreaterThanOrEqual, predicate.LessThan, predicate.LessThanOrEqual:
		if c.Operator.IsOrdering() && !schema.IsOrdered(f.Type) {
			return nil, unsupported
		}
		if isCollectionLiteral(c.Value) && !f.IsCollection() {
			return nil, &ConversionError{Value: c.Value, Type: f.Type, Err: errors.New("collection literal for a scalar field")}
		}
		v, err := coerce(f.Type, c.Value)
		if err != nil {
			return nil, err
		}
		return &predicate.Comparison{Path: path, Op: c.Operator, Value: v}, nil

	case predicate.Contains:
		switch {
		case f.IsCollection():
			values, err := coerceElements(f.Elem(), c.Value)
			if err != nil {
				return nil, err
			}
			return &predicate.Membership{Path: path, Values: values, FieldIsCollection: true}, nil

		case isCollectionLiteral(c.Value):
			values, err := coerceElements(f.Type, c.Value)
			if err != nil {
				return nil, err
			}
			return &predicate.Membership{Path: path, Values: values}, nil

		case f.IsText():
			if isNil(c.Value) {
				return nil, &ConversionError{Value: c.Value, Type: f.Type, Err: errors.New("substring is null")}
			}
			v, err := coerce(f.Type, c.Value)
			if err != nil {
				return nil, err
			}
			return &predicate.Comparison{Path: path, Op: predicate.Contains, Value: v}, nil
		}
		return nil, unsupported
	}
	return nil, unsupported
}

// coerceElements coerces a literal, or each element of a collection literal, to t.
func coerceElements(t reflect.Type, raw any) ([]any, error) {
	if !isCollectionLiteral(raw) {
		v, err := coerce(t, raw)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	v, err := coerce(reflect.SliceOf(t), raw)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		ev := rv.Index(i)
		if ev.Kind() == reflect.Ptr {
			if ev.IsNil() {
				continue
			}
			ev = ev.Elem()
		}
		out[i] = ev.Interface()
	}
	return out, nil
}
