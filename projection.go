package exprconv

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/theplant/exprconv/expr"
	"github.com/theplant/exprconv/predicate"
	"github.com/theplant/exprconv/schema"
)

// BuildProjections maps single-field references to projections on T.
// A reference is looked up by its last member name on T, then under the fallback container.
// Paths given with WithExtraPaths are appended as by BuildProjectionPaths.
// A nil refs is malformed unless extra paths are given; an empty one yields no projections.
func BuildProjections[T any](refs []expr.Expr, opts ...Option) ([]*predicate.Projection, error) {
	o := newOptions(opts)
	if refs == nil && len(o.ExtraPaths) == 0 {
		return nil, &MalformedInputError{Arg: "refs", Reason: "no references given"}
	}
	root := reflect.TypeFor[T]()
	r := &resolver{root: root, fallback: o.Fallback, narrowing: o.Narrowing}

	projs := make([]*predicate.Projection, 0, len(refs)+len(o.ExtraPaths))
	for i, ref := range refs {
		name, ok := refName(ref)
		if !ok {
			return nil, &MalformedInputError{Arg: "refs", Reason: "reference at index " + strconv.Itoa(i) + " is not a member access"}
		}
		if step, ok := r.lookup(root, name); ok {
			projs = append(projs, &predicate.Projection{Path: predicate.Path{step}})
			continue
		}
		container, ok := r.container()
		if ok {
			if step, ok := r.lookup(container.Type(), name); ok {
				path := append(slices.Clone(container), step)
				projs = append(projs, &predicate.Projection{Path: path})
				continue
			}
		}
		return nil, &PropertyNotFoundError{Type: root, Path: name, Fallback: o.Fallback}
	}

	if len(o.ExtraPaths) > 0 {
		extra, err := buildProjectionPaths(r, o.ExtraPaths)
		if err != nil {
			return nil, err
		}
		projs = append(projs, extra...)
	}
	return projs, nil
}

// BuildProjectionPaths maps dotted paths to projections on T, one for every prefix of each path,
// so "Orders.Lines" yields Orders and Orders.Lines. Order and duplicates are kept.
func BuildProjectionPaths[T any](paths ...string) ([]*predicate.Projection, error) {
	return buildProjectionPaths(&resolver{root: reflect.TypeFor[T]()}, paths)
}

func buildProjectionPaths(r *resolver, paths []string) ([]*predicate.Projection, error) {
	var projs []*predicate.Projection
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return nil, &MalformedInputError{Arg: "paths", Reason: "empty path"}
		}
		t := r.root
		var cur predicate.Path
		for _, name := range strings.Split(p, ".") {
			step, ok := r.lookup(t, name)
			if !ok && schema.IsDivePoint(t) {
				t = schema.Indirect(t).Elem()
				step, ok = r.lookup(t, name)
			}
			if !ok {
				return nil, errors.WithStack(&PropertyNotFoundError{Type: r.root, Path: p})
			}
			cur = append(slices.Clone(cur), step)
			projs = append(projs, &predicate.Projection{Path: cur})
			t = step.Field.Type
		}
	}
	return projs, nil
}

func refName(ref expr.Expr) (string, bool) {
	for {
		switch e := ref.(type) {
		case *expr.Lambda:
			ref = e.Body
		case *expr.Convert:
			ref = e.Operand
		case *expr.Member:
			if e.Name == "" {
				return "", false
			}
			return e.Name, true
		default:
			return "", false
		}
	}
}
