package predicate

import (
	"cmp"
	"reflect"
	"strings"
	"time"

	"github.com/theplant/exprconv/schema"
)

func (n *Comparison) eval(v reflect.Value) bool {
	fv, ok := n.Path.Get(v)
	if ok {
		fv, ok = schema.Deref(fv)
	}
	if n.Value == nil {
		switch n.Op {
		case Equal:
			return !ok
		case NotEqual:
			return ok
		}
		return false
	}
	if !ok {
		return n.Op == NotEqual
	}

	lit := reflect.ValueOf(n.Value)
	switch n.Op {
	case Equal:
		return equal(fv, lit)
	case NotEqual:
		return !equal(fv, lit)
	case Contains:
		if fv.Kind() != reflect.String || lit.Kind() != reflect.String {
			return false
		}
		return strings.Contains(fv.String(), lit.String())
	case GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual:
		c, ok := compare(fv, lit)
		if !ok {
			return false
		}
		switch n.Op {
		case GreaterThan:
			return c > 0
		case GreaterThanOrEqual:
			return c >= 0
		case LessThan:
			return c < 0
		default:
			return c <= 0
		}
	}
	return false
}

func (n *Membership) eval(v reflect.Value) bool {
	fv, ok := n.Path.Get(v)
	if ok {
		fv, ok = schema.Deref(fv)
	}
	if !ok {
		for _, lit := range n.Values {
			if lit == nil && !n.FieldIsCollection {
				return true
			}
		}
		return false
	}

	if !n.FieldIsCollection {
		for _, lit := range n.Values {
			if lit != nil && equal(fv, reflect.ValueOf(lit)) {
				return true
			}
		}
		return false
	}

	if fv.Kind() != reflect.Slice && fv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < fv.Len(); i++ {
		ev, ok := schema.Deref(fv.Index(i))
		for _, lit := range n.Values {
			if lit == nil {
				if !ok {
					return true
				}
				continue
			}
			if ok && equal(ev, reflect.ValueOf(lit)) {
				return true
			}
		}
	}
	return false
}

func (n *Existential) eval(v reflect.Value) bool {
	fv, ok := n.Path.Get(v)
	if ok {
		fv, ok = schema.Deref(fv)
	}
	if !ok || (fv.Kind() != reflect.Slice && fv.Kind() != reflect.Array) {
		return false
	}
	for i := 0; i < fv.Len(); i++ {
		// a nil element has no fields to test
		ev, ok := schema.Deref(fv.Index(i))
		if ok && n.Inner.eval(ev) {
			return true
		}
	}
	return false
}

func (n *Logical) eval(v reflect.Value) bool {
	switch n.Op {
	case AndAlso:
		return n.Left.eval(v) && n.Right.eval(v)
	case OrElse:
		return n.Left.eval(v) || n.Right.eval(v)
	}
	l, r := n.Left.eval(v), n.Right.eval(v)
	if n.Op.IsConjunction() {
		return l && r
	}
	return l || r
}

func (n *Truth) eval(v reflect.Value) bool {
	fv, ok := n.Path.Get(v)
	if ok {
		fv, ok = schema.Deref(fv)
	}
	return ok && fv.Kind() == reflect.Bool && fv.Bool()
}

func (n Const) eval(reflect.Value) bool {
	return n.Value
}

var timeType = reflect.TypeOf(time.Time{})

func equal(a, b reflect.Value) bool {
	if a.Type() == timeType && b.Type() == timeType {
		return a.Interface().(time.Time).Equal(b.Interface().(time.Time))
	}
	if a.Type() != b.Type() {
		if c, ok := compare(a, b); ok {
			return c == 0
		}
		return false
	}
	if a.Comparable() {
		return a.Equal(b)
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

// compare orders two values of the same kind family.
func compare(a, b reflect.Value) (int, bool) {
	switch {
	case a.Type() == timeType && b.Type() == timeType:
		return a.Interface().(time.Time).Compare(b.Interface().(time.Time)), true
	case a.CanInt() && b.CanInt():
		return cmp.Compare(a.Int(), b.Int()), true
	case a.CanUint() && b.CanUint():
		return cmp.Compare(a.Uint(), b.Uint()), true
	case a.CanFloat() && b.CanFloat():
		return cmp.Compare(a.Float(), b.Float()), true
	case a.Kind() == reflect.String && b.Kind() == reflect.String:
		return strings.Compare(a.String(), b.String()), true
	}
	return 0, false
}
