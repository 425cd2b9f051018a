package exprconv

import (
	"reflect"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/theplant/exprconv/predicate"
)

// CustomCondition is one condition of a filter built without a source predicate.
// Connective joins it to the conditions before it: Or and OrElse give a disjunction,
// anything else a conjunction.
type CustomCondition struct {
	Path       string               `json:"field" yaml:"field"`
	Value      any                  `json:"value" yaml:"value"`
	Operator   predicate.Operator   `json:"op" yaml:"op"`
	Connective predicate.Connective `json:"connective" yaml:"connective"`
}

// Cond is a condition joined with AndAlso.
func Cond(path string, value any, op predicate.Operator) CustomCondition {
	return CustomCondition{Path: path, Value: value, Operator: op, Connective: predicate.AndAlso}
}

func CondWith(path string, value any, op predicate.Operator, connective predicate.Connective) CustomCondition {
	return CustomCondition{Path: path, Value: value, Operator: op, Connective: connective}
}

// BuildCustomFilter builds a predicate over T from conds, resolving paths on T only.
// Conditions with a nil or blank value are skipped; when all are skipped the predicate is always true.
func BuildCustomFilter[T any](conds ...CustomCondition) (*predicate.Predicate[T], error) {
	r := &resolver{root: reflect.TypeFor[T]()}

	var acc predicate.Node
	for i, cc := range conds {
		if isBlank(cc.Value) {
			continue
		}
		c := Condition{Path: cc.Path, Operator: cc.Operator, Value: cc.Value, Connective: cc.Connective}
		rp, err := r.resolve(c.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "condition %d (%s)", i, c.Path)
		}
		n, err := buildResolved(r, rp, c)
		if err != nil {
			return nil, errors.Wrapf(err, "condition %d (%s)", i, c.Path)
		}
		switch {
		case acc == nil:
			acc = n
		case c.Connective == predicate.Or || c.Connective == predicate.OrElse:
			acc = &predicate.Logical{Op: predicate.OrElse, Left: acc, Right: n}
		default:
			acc = &predicate.Logical{Op: predicate.AndAlso, Left: acc, Right: n}
		}
	}
	if acc == nil {
		acc = predicate.True
	}
	return predicate.New[T](acc), nil
}

func isBlank(v any) bool {
	if isNil(v) {
		return true
	}
	rv := derefValue(reflect.ValueOf(v))
	return rv.Kind() == reflect.String && strings.TrimSpace(rv.String()) == ""
}

var jsoniterForConditions = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// ParseConditions decodes a JSON array of conditions such as
//
//	[{"field": "profile.name", "op": "eq", "value": "Ann"}, {"field": "age", "op": "gte", "value": 18, "connective": "or"}]
//
// Field paths are normalised to Go field names with SmartPascalCase.
func ParseConditions(data []byte) ([]CustomCondition, error) {
	var conds []CustomCondition
	if err := jsoniterForConditions.Unmarshal(data, &conds); err != nil {
		return nil, &MalformedInputError{Arg: "conditions", Reason: "invalid json", Err: errors.WithStack(err)}
	}
	return normalizeConditions(conds)
}

// ParseConditionsYAML decodes a YAML sequence of conditions with the same fields as ParseConditions.
func ParseConditionsYAML(data []byte) ([]CustomCondition, error) {
	var conds []CustomCondition
	if err := yaml.Unmarshal(data, &conds); err != nil {
		return nil, &MalformedInputError{Arg: "conditions", Reason: "invalid yaml", Err: errors.WithStack(err)}
	}
	return normalizeConditions(conds)
}

func normalizeConditions(conds []CustomCondition) ([]CustomCondition, error) {
	for i := range conds {
		if strings.TrimSpace(conds[i].Path) == "" {
			return nil, &MalformedInputError{Arg: "conditions", Reason: "missing field at index " + strconv.Itoa(i)}
		}
		conds[i].Path = NormalizePath(conds[i].Path)
	}
	return conds, nil
}
