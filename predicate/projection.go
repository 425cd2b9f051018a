package predicate

import (
	"reflect"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tidwall/sjson"

	"github.com/theplant/exprconv/schema"
)

// Projection is an eager-load path on a target type.
type Projection struct {
	Path Path
}

// Name returns the dotted path, the form gorm Preload and similar loaders take.
func (p *Projection) Name() string {
	return p.Path.String()
}

// Values reads the projected field from v. Collections met on the way are fanned out,
// so Orders.Total yields the total of every order.
func (p *Projection) Values(v any) []any {
	cur := []reflect.Value{reflect.ValueOf(v)}
	for _, step := range p.Path {
		var next []reflect.Value
		for _, c := range cur {
			next = append(next, expand(c, step)...)
		}
		cur = next
	}
	return lo.Map(cur, func(v reflect.Value, _ int) any { return v.Interface() })
}

func expand(v reflect.Value, step Step) []reflect.Value {
	v, ok := schema.Deref(v)
	if !ok {
		return nil
	}
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type() != step.Field.Owner {
		var out []reflect.Value
		for i := 0; i < v.Len(); i++ {
			out = append(out, expand(v.Index(i), step)...)
		}
		return out
	}
	fv, ok := step.Field.Get(v)
	if !ok {
		return nil
	}
	return []reflect.Value{fv}
}

// Pick renders the projected fields of v as a sparse JSON object keyed by field name.
// A path ends at the first collection it crosses, which is written whole.
func Pick(v any, projections []*Projection) ([]byte, error) {
	paths := lo.Map(projections, func(p *Projection, _ int) Path {
		return truncateAtCollection(p.Path)
	})

	doc := []byte("{}")
	for i, path := range paths {
		if len(path) == 0 || extended(path, paths) || slices.ContainsFunc(paths[:i], func(o Path) bool {
			return o.String() == path.String()
		}) {
			continue
		}
		var value any
		if fv, ok := path.Get(reflect.ValueOf(v)); ok {
			value = fv.Interface()
		}
		var err error
		doc, err = sjson.SetBytes(doc, path.String(), value)
		if err != nil {
			return nil, errors.Wrapf(err, "pick %s", path)
		}
	}
	return doc, nil
}

func truncateAtCollection(p Path) Path {
	for i, step := range p {
		if step.Field.IsCollection() {
			return p[:i+1]
		}
	}
	return p
}

func extended(p Path, all []Path) bool {
	prefix := p.String() + "."
	return lo.SomeBy(all, func(o Path) bool {
		return strings.HasPrefix(o.String(), prefix)
	})
}
