package predicate

import (
	"reflect"
	"strings"
)

// Node is a node of a target predicate tree.
type Node interface {
	isNode()
	eval(v reflect.Value) bool
	format(b *strings.Builder, param string, depth int)
}

// Comparison compares the field at Path with Value. A nil Value stands for null.
type Comparison struct {
	Path  Path
	Op    Operator
	Value any
}

// Membership is true when the collection field at Path contains one of Values,
// or, without FieldIsCollection, when Values contains the field's value.
type Membership struct {
	Path              Path
	Values            []any
	FieldIsCollection bool
}

// Existential is true when at least one element of the collection at Path satisfies Inner.
// Paths inside Inner start from the element.
type Existential struct {
	Path  Path
	Inner Node
}

// Logical joins two nodes with a connective. And and Or evaluate both sides;
// AndAlso and OrElse skip the right side once the left decides.
type Logical struct {
	Op    Connective
	Left  Node
	Right Node
}

// Truth uses a boolean field as the predicate.
type Truth struct {
	Path Path
}

// Const is the always-true or always-false predicate.
type Const struct {
	Value bool
}

var (
	True  Node = Const{Value: true}
	False Node = Const{Value: false}
)

func (*Comparison) isNode()  {}
func (*Membership) isNode()  {}
func (*Existential) isNode() {}
func (*Logical) isNode()     {}
func (*Truth) isNode()       {}
func (Const) isNode()        {}

// Join combines left and right with op, treating a nil side as absent.
func Join(op Connective, left, right Node) Node {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	}
	return &Logical{Op: op, Left: left, Right: right}
}

// Walk calls fn for n and every node below it, depth first.
// Returning false from fn skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Logical:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Existential:
		Walk(n.Inner, fn)
	}
}
