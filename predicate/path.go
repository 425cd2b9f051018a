package predicate

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/theplant/exprconv/schema"
)

// Step is one field access of a Path.
// A non-nil As asserts the value reached so far is of that type before the field is read.
type Step struct {
	Field *schema.Field
	As    reflect.Type
}

// Path is a chain of field accesses from a root value.
type Path []Step

// NewPath resolves names directly against t, without dives into collections.
func NewPath(t reflect.Type, names ...string) (Path, error) {
	path := make(Path, 0, len(names))
	for _, name := range names {
		s, err := schema.Parse(t)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %s", strings.Join(names, "."))
		}
		f, ok := s.FieldsByName[name]
		if !ok {
			return nil, errors.Errorf("missing field %q in %s", name, s.Type)
		}
		path = append(path, Step{Field: f})
		t = f.Type
	}
	return path, nil
}

func (p Path) Names() []string {
	return lo.Map(p, func(s Step, _ int) string { return s.Field.Name })
}

func (p Path) String() string {
	return strings.Join(p.Names(), ".")
}

// Last returns the field read by the final step.
func (p Path) Last() *schema.Field {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1].Field
}

// Type returns the declared type of the final field.
func (p Path) Type() reflect.Type {
	if f := p.Last(); f != nil {
		return f.Type
	}
	return nil
}

// Get reads the path from v. It reports false when a nil is met on the way
// or a narrowing assertion fails.
func (p Path) Get(v reflect.Value) (reflect.Value, bool) {
	for _, step := range p {
		fv, ok := step.Field.Get(v)
		if !ok {
			return reflect.Value{}, false
		}
		v = fv
	}
	return v, v.IsValid()
}
