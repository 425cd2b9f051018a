// Package expr models a source predicate as a closed expression tree.
//
// A source predicate is a Lambda whose Body is built from Logical, Compare, Call, Member,
// Convert, Constant and Captured nodes. Shapes the translator does not understand are
// skipped, Unsupported exists so callers can carry them without losing the tree.
package expr

import (
	"reflect"

	"github.com/theplant/exprconv/predicate"
)

// Expr is implemented by every node of a source predicate.
type Expr interface {
	// exprMarker prevents implementations outside this package.
	exprMarker()
}

// Lambda is a single-parameter function. Param names the element inside an Any call.
type Lambda struct {
	Param *Param
	Body  Expr
}

// Param is the lambda parameter.
type Param struct {
	Name string
}

// Member reads Name from Target. A nil Target is the lambda parameter.
type Member struct {
	Target Expr
	Name   string
}

// Convert is a type conversion of Operand, e.g. a nullable lift or an enum to int cast.
type Convert struct {
	Operand Expr
	Type    reflect.Type
}

// Constant is a literal value. A nil Value is null.
type Constant struct {
	Value any
}

// Captured is a value captured from the caller, evaluated when the tree is translated.
type Captured struct {
	Name string
	Eval func() any
}

// Logical joins two predicates.
type Logical struct {
	Op    predicate.Connective
	Left  Expr
	Right Expr
}

// Compare compares two operands.
type Compare struct {
	Op    predicate.Operator
	Left  Expr
	Right Expr
}

// Method identifies a call recognised by the translator.
type Method int

const (
	MethodUnknown Method = iota
	// MethodAny is Object.Any(Args[0]) with Args[0] a *Lambda over the element.
	MethodAny
	// MethodContains is a membership test, Object contains Args[0].
	MethodContains
	// MethodStringContains is a substring test, Object contains Args[0].
	MethodStringContains
)

func (m Method) String() string {
	switch m {
	case MethodAny:
		return "Any"
	case MethodContains:
		return "Contains"
	case MethodStringContains:
		return "StringContains"
	}
	return "Unknown"
}

// Call is a method call.
type Call struct {
	Method Method
	Object Expr
	Args   []Expr
}

// Unsupported stands for a source shape with no translation.
type Unsupported struct {
	Description string
}

func (*Lambda) exprMarker()      {}
func (*Param) exprMarker()       {}
func (*Member) exprMarker()      {}
func (*Convert) exprMarker()     {}
func (*Constant) exprMarker()    {}
func (*Captured) exprMarker()    {}
func (*Logical) exprMarker()     {}
func (*Compare) exprMarker()     {}
func (*Call) exprMarker()        {}
func (*Unsupported) exprMarker() {}
