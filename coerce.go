package exprconv

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/theplant/exprconv/schema"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
}

// coerce converts raw to the type of a field declared as t, with pointers stripped.
// A nil raw stays nil. A collection literal becomes a slice whose elements are coerced one by one,
// of t itself when t is a collection and of t's base type otherwise.
func coerce(t reflect.Type, raw any) (any, error) {
	if isNil(raw) {
		return nil, nil
	}
	base := schema.Indirect(t)

	if isCollectionLiteral(raw) {
		rv := derefValue(reflect.ValueOf(raw))
		sliceType := reflect.SliceOf(base)
		elemType := base
		if schema.IsCollection(base) {
			elemType = base.Elem()
			sliceType = reflect.SliceOf(elemType)
		}
		out := reflect.MakeSlice(sliceType, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev := rv.Index(i).Interface()
			if isNil(ev) {
				if !canBeNil(elemType) {
					return nil, &ConversionError{Value: raw, Type: t, Err: errors.Errorf("null element at index %d", i)}
				}
				out = reflect.Append(out, reflect.Zero(elemType))
				continue
			}
			cv, err := convertScalar(schema.Indirect(elemType), ev)
			if err != nil {
				return nil, &ConversionError{Value: raw, Type: t, Err: errors.Wrapf(err, "index %d", i)}
			}
			if elemType.Kind() == reflect.Ptr {
				p := reflect.New(elemType.Elem())
				p.Elem().Set(cv)
				cv = p
			}
			out = reflect.Append(out, cv)
		}
		if schema.IsCollection(base) && base.Kind() == reflect.Slice && base != sliceType {
			return out.Convert(base).Interface(), nil
		}
		return out.Interface(), nil
	}

	if schema.IsCollection(base) {
		return nil, &ConversionError{Value: raw, Type: t, Err: errors.New("scalar literal for a collection")}
	}

	v, err := convertScalar(base, raw)
	if err != nil {
		return nil, &ConversionError{Value: raw, Type: t, Err: err}
	}
	return v.Interface(), nil
}

func convertScalar(base reflect.Type, raw any) (reflect.Value, error) {
	if ts, ok := raw.(*timestamppb.Timestamp); ok && schema.IsTime(base) {
		if err := ts.CheckValid(); err != nil {
			return reflect.Value{}, errors.Wrap(err, "invalid timestamp")
		}
		return reflect.ValueOf(ts.AsTime()), nil
	}

	rv := derefValue(reflect.ValueOf(raw))
	if !rv.IsValid() {
		return reflect.Value{}, errors.New("null value")
	}
	if rv.Type() == base {
		return rv, nil
	}
	if base.Kind() == reflect.Interface && rv.Type().Implements(base) {
		out := reflect.New(base).Elem()
		out.Set(rv)
		return out, nil
	}

	if e, ok := schema.LookupEnum(base); ok {
		return convertEnum(e, rv)
	}

	if schema.IsTime(base) {
		if rv.Kind() != reflect.String {
			return reflect.Value{}, errors.Errorf("unsupported source type %s", rv.Type())
		}
		return parseTime(rv.String())
	}

	if schema.IsScalarText(base) {
		var text []byte
		switch {
		case rv.Kind() == reflect.String:
			text = []byte(rv.String())
		case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
			text = rv.Bytes()
		default:
			return reflect.Value{}, errors.Errorf("unsupported source type %s", rv.Type())
		}
		p := reflect.New(base)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText(text); err != nil {
			return reflect.Value{}, errors.Wrap(err, "unmarshal text")
		}
		return p.Elem(), nil
	}

	out := reflect.New(base).Elem()
	switch {
	case base.Kind() == reflect.Bool:
		switch {
		case rv.Kind() == reflect.Bool:
			out.SetBool(rv.Bool())
		case rv.Kind() == reflect.String:
			b, err := strconv.ParseBool(rv.String())
			if err != nil {
				return reflect.Value{}, errors.WithStack(err)
			}
			out.SetBool(b)
		default:
			return reflect.Value{}, errors.Errorf("unsupported source type %s", rv.Type())
		}

	case out.CanInt():
		n, err := toInt64(rv)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, errors.Errorf("%d overflows %s", n, base)
		}
		out.SetInt(n)

	case out.CanUint():
		n, err := toUint64(rv)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, errors.Errorf("%d overflows %s", n, base)
		}
		out.SetUint(n)

	case out.CanFloat():
		f, err := toFloat64(rv)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, errors.Errorf("%v overflows %s", f, base)
		}
		out.SetFloat(f)

	case base.Kind() == reflect.String:
		s, err := toString(rv)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetString(s)

	default:
		if rv.Kind() == base.Kind() && rv.Type().ConvertibleTo(base) {
			return rv.Convert(base), nil
		}
		return reflect.Value{}, errors.Errorf("unsupported source type %s", rv.Type())
	}
	return out, nil
}

// convertEnum accepts a member name, or a number converted through the enum's integer type.
func convertEnum(e *schema.Enum, rv reflect.Value) (reflect.Value, error) {
	if rv.Kind() == reflect.String {
		v, err := e.Parse(rv.String())
		if err == nil {
			return v, nil
		}
		n, perr := strconv.ParseInt(rv.String(), 10, 64)
		if perr != nil {
			return reflect.Value{}, err
		}
		return e.FromInt(n)
	}
	n, err := toInt64(rv)
	if err != nil {
		return reflect.Value{}, err
	}
	return e.FromInt(n)
}

func parseTime(s string) (reflect.Value, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return reflect.ValueOf(t), nil
		}
	}
	return reflect.Value{}, errors.Errorf("%q is not a recognised time", s)
}

func toInt64(rv reflect.Value) (int64, error) {
	switch {
	case rv.CanInt():
		return rv.Int(), nil
	case rv.CanUint():
		if rv.Uint() > math.MaxInt64 {
			return 0, errors.Errorf("%d overflows int64", rv.Uint())
		}
		return int64(rv.Uint()), nil
	case rv.CanFloat():
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, errors.Errorf("%v is not integral", f)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, errors.Errorf("%v overflows int64", f)
		}
		return int64(f), nil
	case rv.Kind() == reflect.String:
		n, err := strconv.ParseInt(rv.String(), 10, 64)
		return n, errors.WithStack(err)
	}
	return 0, errors.Errorf("unsupported source type %s", rv.Type())
}

func toUint64(rv reflect.Value) (uint64, error) {
	switch {
	case rv.CanUint():
		return rv.Uint(), nil
	case rv.Kind() == reflect.String:
		n, err := strconv.ParseUint(rv.String(), 10, 64)
		return n, errors.WithStack(err)
	case rv.CanFloat() && rv.Float() >= math.MaxInt64:
		f := rv.Float()
		if f != math.Trunc(f) || f >= math.MaxUint64 {
			return 0, errors.Errorf("%v overflows uint64", f)
		}
		return uint64(f), nil
	}
	n, err := toInt64(rv)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.Errorf("%d is negative", n)
	}
	return uint64(n), nil
}

func toFloat64(rv reflect.Value) (float64, error) {
	switch {
	case rv.CanFloat():
		return rv.Float(), nil
	case rv.CanInt():
		return float64(rv.Int()), nil
	case rv.CanUint():
		return float64(rv.Uint()), nil
	case rv.Kind() == reflect.String:
		f, err := strconv.ParseFloat(rv.String(), 64)
		return f, errors.WithStack(err)
	}
	return 0, errors.Errorf("unsupported source type %s", rv.Type())
}

func toString(rv reflect.Value) (string, error) {
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	// enums and ids render by name
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String(), nil
	}
	switch {
	case rv.CanInt():
		return strconv.FormatInt(rv.Int(), 10), nil
	case rv.CanUint():
		return strconv.FormatUint(rv.Uint(), 10), nil
	case rv.CanFloat():
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case rv.Kind() == reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	}
	return "", errors.Errorf("unsupported source type %s", rv.Type())
}

func isNil(v any) bool {
	return v == nil || lo.IsNil(v)
}

func derefValue(rv reflect.Value) reflect.Value {
	v, _ := schema.Deref(rv)
	return v
}

func isCollectionLiteral(v any) bool {
	if isNil(v) {
		return false
	}
	return schema.IsCollection(reflect.TypeOf(v))
}

func canBeNil(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}
	return false
}
