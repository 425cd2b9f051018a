// Package schema provides a typed field registry built once per Go type.
//
// A Schema lists the readable (exported, visible) fields of a struct in declaration order,
// with promoted fields of embedded structs included, so field lookups by name are map hits
// instead of repeated reflective probing.
package schema

import (
	"encoding"
	"reflect"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Schema describes the readable fields of a struct or interface type.
type Schema struct {
	Type         reflect.Type
	Fields       []*Field
	FieldsByName map[string]*Field
}

// Field is a readable field of a Schema.
type Field struct {
	Name         string
	Type         reflect.Type // declared type, may be a pointer
	IndirectType reflect.Type // Type with pointers stripped
	Index        []int
	Owner        reflect.Type
}

var (
	cacheStore sync.Map

	timeType            = reflect.TypeOf(time.Time{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Parse returns the schema of t. Pointers are stripped; t must then be a struct or an interface.
// Interfaces have an empty schema, fields behind them are reached through a narrowing type.
func Parse(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, errors.New("schema: nil type")
	}
	t = Indirect(t)
	if v, ok := cacheStore.Load(t); ok {
		return v.(*Schema), nil
	}

	switch t.Kind() {
	case reflect.Struct, reflect.Interface:
	default:
		return nil, errors.Errorf("schema: %s is not a struct or interface", t)
	}

	s := &Schema{
		Type:         t,
		FieldsByName: make(map[string]*Field),
	}
	if t.Kind() == reflect.Struct {
		for _, sf := range reflect.VisibleFields(t) {
			if !sf.IsExported() || !reachable(t, sf.Index) {
				continue
			}
			if _, ok := s.FieldsByName[sf.Name]; ok {
				continue
			}
			f := &Field{
				Name:         sf.Name,
				Type:         sf.Type,
				IndirectType: Indirect(sf.Type),
				Index:        sf.Index,
				Owner:        t,
			}
			s.Fields = append(s.Fields, f)
			s.FieldsByName[f.Name] = f
		}
	}

	v, _ := cacheStore.LoadOrStore(t, s)
	return v.(*Schema), nil
}

// reachable reports whether every embedded struct on the way to index is exported,
// otherwise reading the promoted field through reflection would panic.
func reachable(t reflect.Type, index []int) bool {
	for i := 1; i < len(index); i++ {
		if !t.FieldByIndex(index[:i]).IsExported() {
			return false
		}
	}
	return true
}

// Get reads the field from v, dereferencing pointers and interfaces on the way.
// It reports false when v is nil or is not a value of the field's owner.
func (f *Field) Get(v reflect.Value) (reflect.Value, bool) {
	v, ok := Deref(v)
	if !ok || v.Kind() != reflect.Struct || v.Type() != f.Owner {
		return reflect.Value{}, false
	}
	fv, err := v.FieldByIndexErr(f.Index)
	if err != nil {
		return reflect.Value{}, false
	}
	return fv, true
}

func (f *Field) IsText() bool { return IsText(f.Type) }

func (f *Field) IsBool() bool { return f.IndirectType.Kind() == reflect.Bool }

func (f *Field) IsCollection() bool { return IsCollection(f.Type) }

// Elem returns the element type of a collection field.
func (f *Field) Elem() reflect.Type {
	if !f.IsCollection() {
		return nil
	}
	return f.IndirectType.Elem()
}

// Indirect strips all pointer levels from t.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Deref follows pointers and interfaces, reporting false on nil.
func Deref(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

// IsText reports whether t is string-kinded.
func IsText(t reflect.Type) bool {
	t = Indirect(t)
	return t != nil && t.Kind() == reflect.String
}

// IsScalarText reports whether values of t are parsed from text, like uuid.UUID.
func IsScalarText(t reflect.Type) bool {
	t = Indirect(t)
	return t != nil && t.Kind() != reflect.String && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// IsCollection reports whether t is a slice or array holding elements.
// Byte slices and text-encoded arrays such as uuid.UUID are scalars.
func IsCollection(t reflect.Type) bool {
	t = Indirect(t)
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return false
	}
	if t.Elem().Kind() == reflect.Uint8 || IsScalarText(t) {
		return false
	}
	return true
}

// IsDivePoint reports whether t is a collection of non-text elements,
// beyond which a path continues per element.
func IsDivePoint(t reflect.Type) bool {
	return IsCollection(t) && !IsText(Indirect(t).Elem())
}

// IsOrdered reports whether values of t support <, <=, > and >=.
func IsOrdered(t reflect.Type) bool {
	t = Indirect(t)
	if t == nil {
		return false
	}
	if t == timeType {
		return true
	}
	if _, ok := LookupEnum(t); ok {
		return true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return true
	}
	return false
}

// IsTime reports whether t is time.Time.
func IsTime(t reflect.Type) bool {
	return Indirect(t) == timeType
}
