package predicate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// RootParam names the root value in a rendered predicate.
const RootParam = "find"

// Format renders n as a lambda over RootParam, e.g.
//
//	find => ((find.Age > 18) && find.Orders.Any(e1 => (e1.Total > 100)))
func Format(n Node) string {
	var b strings.Builder
	b.WriteString(RootParam)
	b.WriteString(" => ")
	if n == nil {
		b.WriteString("true")
	} else {
		n.format(&b, RootParam, 0)
	}
	return b.String()
}

func writePath(b *strings.Builder, param string, p Path) {
	expr := param
	for _, step := range p {
		if step.As != nil {
			expr = "(" + expr + ".(" + typeName(step.As) + "))"
		}
		expr += "." + step.Field.Name
	}
	b.WriteString(expr)
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		return "*" + typeName(t.Elem())
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return strconv.Quote(v.Format(time.RFC3339Nano))
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
			return strconv.Quote(rv.String())
		}
		return strconv.Quote(v.String())
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return strconv.Quote(rv.String())
	}
	return fmt.Sprint(v)
}

func formatValues(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatValue(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (n *Comparison) format(b *strings.Builder, param string, _ int) {
	if n.Op == Contains {
		writePath(b, param, n.Path)
		b.WriteString(".Contains(")
		b.WriteString(formatValue(n.Value))
		b.WriteString(")")
		return
	}
	b.WriteString("(")
	writePath(b, param, n.Path)
	b.WriteString(" " + n.Op.Symbol() + " ")
	b.WriteString(formatValue(n.Value))
	b.WriteString(")")
}

func (n *Membership) format(b *strings.Builder, param string, _ int) {
	if n.FieldIsCollection {
		writePath(b, param, n.Path)
		b.WriteString(".Contains(")
		if len(n.Values) == 1 {
			b.WriteString(formatValue(n.Values[0]))
		} else {
			b.WriteString(formatValues(n.Values))
		}
		b.WriteString(")")
		return
	}
	b.WriteString(formatValues(n.Values))
	b.WriteString(".Contains(")
	writePath(b, param, n.Path)
	b.WriteString(")")
}

func (n *Existential) format(b *strings.Builder, param string, depth int) {
	elem := "e" + strconv.Itoa(depth+1)
	writePath(b, param, n.Path)
	b.WriteString(".Any(" + elem + " => ")
	n.Inner.format(b, elem, depth+1)
	b.WriteString(")")
}

func (n *Logical) format(b *strings.Builder, param string, depth int) {
	b.WriteString("(")
	n.Left.format(b, param, depth)
	b.WriteString(" " + n.Op.Symbol() + " ")
	n.Right.format(b, param, depth)
	b.WriteString(")")
}

func (n *Truth) format(b *strings.Builder, param string, _ int) {
	writePath(b, param, n.Path)
}

func (n Const) format(b *strings.Builder, _ string, _ int) {
	b.WriteString(strconv.FormatBool(n.Value))
}
