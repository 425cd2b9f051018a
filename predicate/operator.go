package predicate

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Operator is the comparison applied by a condition.
// The zero value is used for a boolean field standing alone as the predicate.
type Operator int

const (
	OperatorNone Operator = iota
	Equal
	NotEqual
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
	Contains
)

var operatorNames = map[Operator]string{
	OperatorNone:       "None",
	Equal:              "Equal",
	NotEqual:           "NotEqual",
	GreaterThan:        "GreaterThan",
	GreaterThanOrEqual: "GreaterThanOrEqual",
	LessThan:           "LessThan",
	LessThanOrEqual:    "LessThanOrEqual",
	Contains:           "Contains",
}

var operatorSymbols = map[Operator]string{
	Equal:              "==",
	NotEqual:           "!=",
	GreaterThan:        ">",
	GreaterThanOrEqual: ">=",
	LessThan:           "<",
	LessThanOrEqual:    "<=",
	Contains:           "Contains",
}

// short names accepted by ParseOperator
var operatorAliases = map[string]Operator{
	"eq":       Equal,
	"neq":      NotEqual,
	"ne":       NotEqual,
	"gt":       GreaterThan,
	"gte":      GreaterThanOrEqual,
	"ge":       GreaterThanOrEqual,
	"lt":       LessThan,
	"lte":      LessThanOrEqual,
	"le":       LessThanOrEqual,
	"in":       Contains,
	"contains": Contains,
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "Operator(" + strconv.Itoa(int(o)) + ")"
}

// Symbol returns the operator as written in a rendered predicate.
func (o Operator) Symbol() string {
	if s, ok := operatorSymbols[o]; ok {
		return s
	}
	return o.String()
}

// Mirror returns the operator that holds after swapping its operands, e.g. 5 < x becomes x > 5.
func (o Operator) Mirror() Operator {
	switch o {
	case GreaterThan:
		return LessThan
	case GreaterThanOrEqual:
		return LessThanOrEqual
	case LessThan:
		return GreaterThan
	case LessThanOrEqual:
		return GreaterThanOrEqual
	default:
		return o
	}
}

// IsOrdering reports whether the operator needs an ordered operand type.
func (o Operator) IsOrdering() bool {
	switch o {
	case GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual:
		return true
	}
	return false
}

// ParseOperator parses an operator name case-insensitively.
// Full names (GreaterThan), short forms (gt) and symbols (>) are accepted.
func ParseOperator(s string) (Operator, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if op, ok := operatorAliases[key]; ok {
		return op, nil
	}
	for op, name := range operatorNames {
		if op != OperatorNone && (strings.ToLower(name) == key || operatorSymbols[op] == key) {
			return op, nil
		}
	}
	return OperatorNone, errors.Errorf("unknown operator %q", s)
}

func (o Operator) MarshalText() ([]byte, error) {
	if _, ok := operatorNames[o]; !ok {
		return nil, errors.Errorf("unknown operator %d", int(o))
	}
	return []byte(o.String()), nil
}

func (o *Operator) UnmarshalText(text []byte) error {
	op, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Connective joins a condition to the conditions before it.
type Connective int

const (
	And Connective = iota
	AndAlso
	Or
	OrElse
)

var connectiveNames = map[Connective]string{
	And:     "And",
	AndAlso: "AndAlso",
	Or:      "Or",
	OrElse:  "OrElse",
}

func (c Connective) String() string {
	if name, ok := connectiveNames[c]; ok {
		return name
	}
	return "Connective(" + strconv.Itoa(int(c)) + ")"
}

// IsConjunction reports whether c is And or AndAlso.
func (c Connective) IsConjunction() bool {
	return c == And || c == AndAlso
}

// IsShortCircuit reports whether the right operand is skipped once the left decides the result.
func (c Connective) IsShortCircuit() bool {
	return c == AndAlso || c == OrElse
}

// Symbol returns the connective as written in a rendered predicate.
func (c Connective) Symbol() string {
	switch c {
	case And:
		return "&"
	case AndAlso:
		return "&&"
	case Or:
		return "|"
	case OrElse:
		return "||"
	}
	return c.String()
}

// ParseConnective parses a connective name case-insensitively; "&&" style symbols are accepted too.
func ParseConnective(s string) (Connective, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for c, name := range connectiveNames {
		if strings.ToLower(name) == key || c.Symbol() == key {
			return c, nil
		}
	}
	return And, errors.Errorf("unknown connective %q", s)
}

func (c Connective) MarshalText() ([]byte, error) {
	if _, ok := connectiveNames[c]; !ok {
		return nil, errors.Errorf("unknown connective %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Connective) UnmarshalText(text []byte) error {
	v, err := ParseConnective(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
