package schema

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Integer is a type constraint for integer types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Enum is a named integer type with named members.
type Enum struct {
	Type   reflect.Type
	byName map[string]int64
	names  map[int64]string
}

var (
	enumStore sync.Map

	protoEnumType = reflect.TypeOf((*protoreflect.Enum)(nil)).Elem()
)

// RegisterEnum registers E as an enum whose members are values, named by their String method.
// Registering the same type again replaces its members.
func RegisterEnum[E interface {
	Integer
	String() string
}](values ...E) {
	t := reflect.TypeFor[E]()
	e := newEnum(t)
	for _, v := range values {
		e.add(v.String(), reflect.ValueOf(v))
	}
	enumStore.Store(t, e)
}

// LookupEnum returns the enum registered for t, with pointers stripped.
// Protobuf enums are recognised without registration.
func LookupEnum(t reflect.Type) (*Enum, bool) {
	t = Indirect(t)
	if t == nil {
		return nil, false
	}
	if v, ok := enumStore.Load(t); ok {
		return v.(*Enum), true
	}
	if !isIntegerKind(t.Kind()) || !t.Implements(protoEnumType) {
		return nil, false
	}
	v, _ := enumStore.LoadOrStore(t, protoEnum(t))
	return v.(*Enum), true
}

// protoEnum indexes every value of a protobuf enum under its full name (TYPE_DOUBLE),
// the name without the type prefix (DOUBLE) and the Pascal form of the latter (Double).
func protoEnum(t reflect.Type) *Enum {
	e := newEnum(t)
	desc := reflect.Zero(t).Interface().(protoreflect.Enum).Descriptor()
	prefix := toScreamingSnakeCase(string(desc.Name())) + "_"
	values := desc.Values()
	for i := 0; i < values.Len(); i++ {
		ev := values.Get(i)
		n := reflect.New(t).Elem()
		n.SetInt(int64(ev.Number()))

		fullName := string(ev.Name())
		e.add(fullName, n)
		if short, ok := strings.CutPrefix(fullName, prefix); ok && short != "" {
			e.add(short, n)
			e.add(lo.PascalCase(short), n)
		}
	}
	return e
}

var fixDigitalRegex = regexp.MustCompile(`_(\d+)`)

func toScreamingSnakeCase(s string) string {
	s = fixDigitalRegex.ReplaceAllString(lo.SnakeCase(s), "${1}")
	return strings.ToUpper(s)
}

func newEnum(t reflect.Type) *Enum {
	return &Enum{
		Type:   t,
		byName: make(map[string]int64),
		names:  make(map[int64]string),
	}
}

func (e *Enum) add(name string, v reflect.Value) {
	n := toInt64(v)
	if _, ok := e.byName[name]; !ok {
		e.byName[name] = n
	}
	if _, ok := e.names[n]; !ok {
		e.names[n] = name
	}
}

// Parse returns the member named name.
func (e *Enum) Parse(name string) (reflect.Value, error) {
	n, ok := e.byName[name]
	if !ok {
		return reflect.Value{}, errors.Errorf("%q is not a member of %s", name, e.Type)
	}
	return e.FromInt(n)
}

// FromInt converts n to the enum type, failing when the underlying integer overflows.
// Unnamed numbers are accepted.
func (e *Enum) FromInt(n int64) (reflect.Value, error) {
	v := reflect.New(e.Type).Elem()
	switch {
	case v.CanInt():
		if v.OverflowInt(n) {
			return reflect.Value{}, errors.Errorf("%d overflows %s", n, e.Type)
		}
		v.SetInt(n)
	case v.CanUint():
		if n < 0 || v.OverflowUint(uint64(n)) {
			return reflect.Value{}, errors.Errorf("%d overflows %s", n, e.Type)
		}
		v.SetUint(uint64(n))
	default:
		return reflect.Value{}, errors.Errorf("%s is not integer kinded", e.Type)
	}
	return v, nil
}

// Name returns the first registered name of v.
func (e *Enum) Name(v reflect.Value) (string, bool) {
	name, ok := e.names[toInt64(v)]
	return name, ok
}

func toInt64(v reflect.Value) int64 {
	if v.CanInt() {
		return v.Int()
	}
	return int64(v.Uint())
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
