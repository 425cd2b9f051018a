package exprconv

import (
	"reflect"
	"slices"
	"strings"

	"github.com/theplant/exprconv/predicate"
	"github.com/theplant/exprconv/schema"
)

// resolvedPath is a chain of field accesses from the target root. When Existential is set the
// chain stops at a collection of non-text elements and Inner is left to resolve against Elem.
type resolvedPath struct {
	Steps       predicate.Path
	Existential bool
	Elem        reflect.Type
	Inner       string
}

type resolver struct {
	root      reflect.Type
	fallback  string
	narrowing reflect.Type
}

// resolve looks path up directly from the root, then under the fallback container.
func (r *resolver) resolve(path string) (*resolvedPath, error) {
	segs := strings.Split(path, ".")
	if rp, ok := r.segments(r.root, segs); ok {
		return rp, nil
	}
	if container, ok := r.container(); ok {
		if rp, ok := r.segments(container.Type(), segs); ok {
			rp.Steps = append(slices.Clone(container), rp.Steps...)
			return rp, nil
		}
	}
	return nil, &PropertyNotFoundError{Type: r.root, Path: path, Fallback: r.fallback}
}

// container resolves the fallback container path, which may not cross a collection.
func (r *resolver) container() (predicate.Path, bool) {
	if r.fallback == "" {
		return nil, false
	}
	rp, ok := r.segments(r.root, strings.Split(r.fallback, "."))
	if !ok || rp.Existential {
		return nil, false
	}
	return rp.Steps, true
}

func (r *resolver) segments(t reflect.Type, segs []string) (*resolvedPath, bool) {
	steps := make(predicate.Path, 0, len(segs))
	for i, name := range segs {
		step, ok := r.lookup(t, name)
		if !ok {
			return nil, false
		}
		steps = append(steps, step)
		if i < len(segs)-1 && schema.IsDivePoint(step.Field.Type) {
			return &resolvedPath{
				Steps:       steps,
				Existential: true,
				Elem:        step.Field.Elem(),
				Inner:       strings.Join(segs[i+1:], "."),
			}, true
		}
		t = step.Field.Type
	}
	return &resolvedPath{Steps: steps}, true
}

// lookup finds name on t. When t is an interface the narrowing type implements,
// the field is looked up on the narrowing type and the step asserts it.
func (r *resolver) lookup(t reflect.Type, name string) (predicate.Step, bool) {
	if name == "" {
		return predicate.Step{}, false
	}
	if s, err := schema.Parse(t); err == nil {
		if f, ok := s.FieldsByName[name]; ok {
			return predicate.Step{Field: f}, true
		}
	}
	if !r.narrows(t) {
		return predicate.Step{}, false
	}
	s, err := schema.Parse(r.narrowing)
	if err != nil {
		return predicate.Step{}, false
	}
	f, ok := s.FieldsByName[name]
	if !ok {
		return predicate.Step{}, false
	}
	return predicate.Step{Field: f, As: r.narrowing}, true
}

func (r *resolver) narrows(t reflect.Type) bool {
	if r.narrowing == nil {
		return false
	}
	it := schema.Indirect(t)
	if it == nil || it.Kind() != reflect.Interface {
		return false
	}
	return r.narrowing.Implements(it) || reflect.PointerTo(r.narrowing).Implements(it)
}
