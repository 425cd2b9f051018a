// Package gormpredicate renders translated predicates as gorm clauses.
//
// Columns are qualified with their table. A path that crosses a relationship becomes
// an IN subquery on the related table, so soft delete and other query clauses of the
// related model still apply.
package gormpredicate

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormschema "gorm.io/gorm/schema"

	"github.com/theplant/exprconv/predicate"
)

// Scope filters a query with p. The query model, or its destination, decides the table.
func Scope[T any](p *predicate.Predicate[T]) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if db == nil {
			return nil
		}
		if p == nil || p.Body == nil {
			return db
		}
		model := cmp.Or(db.Statement.Model, db.Statement.Dest)
		if model == nil {
			model = new(T)
		}
		expr, err := Expression(db, model, p.Body)
		if err != nil {
			db.AddError(err)
			return db
		}
		return db.Where(expr)
	}
}

// Expression renders n against the table of model.
func Expression(db *gorm.DB, model any, n predicate.Node) (clause.Expression, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, errors.Wrap(err, "parse schema with db")
	}
	s := &scope{
		db:     db,
		schema: stmt.Schema,
		table:  cmp.Or(db.Statement.Table, stmt.Table),
	}
	return s.expr(n)
}

type scope struct {
	db     *gorm.DB
	schema *gormschema.Schema
	table  string
}

type leafFunc func(col clause.Column, f *gormschema.Field) (clause.Expression, error)

func (s *scope) expr(n predicate.Node) (clause.Expression, error) {
	switch n := n.(type) {
	case predicate.Const:
		if n.Value {
			return clause.Expr{SQL: "1 = 1"}, nil
		}
		return clause.Expr{SQL: "1 = 0"}, nil

	case *predicate.Logical:
		conj := n.Op.IsConjunction()
		var exprs []clause.Expression
		for _, side := range []predicate.Node{n.Left, n.Right} {
			e, err := s.expr(side)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, flatten(conj, e)...)
		}
		if conj {
			return clause.And(exprs...), nil
		}
		return clause.Or(exprs...), nil

	case *predicate.Comparison:
		return s.column(n.Path, func(col clause.Column, f *gormschema.Field) (clause.Expression, error) {
			return comparison(col, f, n.Op, n.Value)
		})

	case *predicate.Membership:
		return s.column(n.Path, func(col clause.Column, f *gormschema.Field) (clause.Expression, error) {
			return membership(col, f, n)
		})

	case *predicate.Truth:
		return s.column(n.Path, func(col clause.Column, _ *gormschema.Field) (clause.Expression, error) {
			return clause.Eq{Column: col, Value: true}, nil
		})

	case *predicate.Existential:
		return s.relation(n.Path, func(inner *scope) (clause.Expression, error) {
			return inner.expr(n.Inner)
		})
	}
	return nil, errors.Errorf("unsupported node %T", n)
}

// flatten lifts the operands of a nested group joined by the same connective.
func flatten(conj bool, e clause.Expression) []clause.Expression {
	switch v := e.(type) {
	case clause.AndConditions:
		if conj {
			return v.Exprs
		}
	case clause.OrConditions:
		if !conj {
			return v.Exprs
		}
	}
	return []clause.Expression{e}
}

func comparison(col clause.Column, f *gormschema.Field, op predicate.Operator, value any) (clause.Expression, error) {
	switch op {
	case predicate.Equal:
		return clause.Eq{Column: col, Value: value}, nil
	case predicate.NotEqual:
		// a null field differs from every non-null value
		if value != nil && nullable(f) {
			return clause.Or(clause.Neq{Column: col, Value: value}, clause.Eq{Column: col, Value: nil}), nil
		}
		return clause.Neq{Column: col, Value: value}, nil
	case predicate.GreaterThan:
		return clause.Gt{Column: col, Value: value}, nil
	case predicate.GreaterThanOrEqual:
		return clause.Gte{Column: col, Value: value}, nil
	case predicate.LessThan:
		return clause.Lt{Column: col, Value: value}, nil
	case predicate.LessThanOrEqual:
		return clause.Lte{Column: col, Value: value}, nil
	case predicate.Contains:
		return clause.Expr{
			SQL:  "? LIKE ? ESCAPE ?",
			Vars: []any{col, "%" + likeEscaper.Replace(fmt.Sprint(value)) + "%", `\`},
		}, nil
	}
	return nil, errors.Errorf("unsupported operator %s for column %q", op, col.Name)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// nullable reports whether the Go field can hold nil, which is stored as NULL.
func nullable(f *gormschema.Field) bool {
	if f == nil || f.PrimaryKey || f.NotNull {
		return false
	}
	switch f.FieldType.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

func membership(col clause.Column, f *gormschema.Field, n *predicate.Membership) (clause.Expression, error) {
	if !n.FieldIsCollection {
		values := lo.Filter(n.Values, func(v any, _ int) bool { return v != nil })
		if len(values) == len(n.Values) {
			return clause.IN{Column: col, Values: values}, nil
		}
		isNull := clause.Eq{Column: col, Value: nil}
		if len(values) == 0 {
			return isNull, nil
		}
		return clause.Or(clause.IN{Column: col, Values: values}, isNull), nil
	}
	if f.DataType != "json" && f.Serializer == nil {
		return nil, errors.Errorf("column %q is not stored as a json array", col.Name)
	}
	exprs := make([]clause.Expression, 0, len(n.Values))
	for _, v := range n.Values {
		exprs = append(exprs, datatypes.JSONArrayQuery(col.Table+"."+col.Name).Contains(v))
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return clause.Or(exprs...), nil
}

// column resolves path to a column of the scope's table and applies leaf to it.
// A relationship met before the last step moves the rest of the path into a subquery.
func (s *scope) column(path predicate.Path, leaf leafFunc) (clause.Expression, error) {
	var bind []string
	for i, step := range path {
		if len(bind) == 0 {
			if err := s.check(step); err != nil {
				return nil, err
			}
			if rel, ok := s.schema.Relationships.Relations[step.Field.Name]; ok {
				if i == len(path)-1 {
					return nil, errors.Errorf("field %q of %s is a relationship, not a column", step.Field.Name, s.schema.Name)
				}
				rest := path[i+1:]
				return s.join(rel, func(inner *scope) (clause.Expression, error) {
					return inner.column(rest, leaf)
				})
			}
		} else if step.As != nil {
			return nil, errors.Errorf("field %q is read through a type assertion and has no column", step.Field.Name)
		}
		bind = append(bind, step.Field.Name)
	}

	f := s.schema.FieldsByBindName[strings.Join(bind, ".")]
	if f == nil && len(bind) == 1 {
		f = s.schema.FieldsByName[bind[0]]
	}
	if f == nil || f.DBName == "" {
		return nil, errors.Errorf("field %q of %s has no column", strings.Join(bind, "."), s.schema.Name)
	}
	return leaf(clause.Column{Table: s.table, Name: f.DBName}, f)
}

// relation follows a path made only of relationships and builds inner against the last one.
func (s *scope) relation(path predicate.Path, inner func(*scope) (clause.Expression, error)) (clause.Expression, error) {
	if len(path) == 0 {
		return nil, errors.New("empty relationship path")
	}
	step := path[0]
	if err := s.check(step); err != nil {
		return nil, err
	}
	rel, ok := s.schema.Relationships.Relations[step.Field.Name]
	if !ok {
		return nil, errors.Errorf("field %q of %s is not a relationship", step.Field.Name, s.schema.Name)
	}
	if len(path) == 1 {
		return s.join(rel, inner)
	}
	return s.join(rel, func(next *scope) (clause.Expression, error) {
		return next.relation(path[1:], inner)
	})
}

func (s *scope) check(step predicate.Step) error {
	if step.As != nil {
		return errors.Errorf("field %q is read through a type assertion and has no column", step.Field.Name)
	}
	if step.Field.Owner != s.schema.ModelType {
		return errors.Errorf("field %q belongs to %s, not %s", step.Field.Name, step.Field.Owner, s.schema.ModelType)
	}
	return nil
}

// join keeps the rows of the scope's table that have a related row matching build.
func (s *scope) join(rel *gormschema.Relationship, build func(*scope) (clause.Expression, error)) (clause.Expression, error) {
	related := &scope{db: s.db, schema: rel.FieldSchema, table: rel.FieldSchema.Table}
	cond, err := build(related)
	if err != nil {
		return nil, err
	}
	conds := []clause.Expression{cond}

	if rel.Type == gormschema.Many2Many {
		return s.many2many(rel, related, conds)
	}

	var own, sel *gormschema.Field
	for _, ref := range rel.References {
		switch {
		case ref.PrimaryValue != "":
			conds = append(conds, clause.Eq{
				Column: clause.Column{Table: related.table, Name: ref.ForeignKey.DBName},
				Value:  ref.PrimaryValue,
			})
		case own != nil:
			return nil, errors.Errorf("relationship %q has a composite key", rel.Name)
		case ref.OwnPrimaryKey:
			own, sel = ref.PrimaryKey, ref.ForeignKey
		default:
			own, sel = ref.ForeignKey, ref.PrimaryKey
		}
	}
	if own == nil {
		return nil, errors.Errorf("relationship %q has no key", rel.Name)
	}

	sub := related.subquery(sel, conds)
	return inSubquery(clause.Column{Table: s.table, Name: own.DBName}, sub), nil
}

func (s *scope) many2many(rel *gormschema.Relationship, related *scope, conds []clause.Expression) (clause.Expression, error) {
	var own, other *gormschema.Reference
	for _, ref := range rel.References {
		switch {
		case ref.OwnPrimaryKey && own == nil:
			own = ref
		case !ref.OwnPrimaryKey && other == nil:
			other = ref
		default:
			return nil, errors.Errorf("relationship %q has a composite key", rel.Name)
		}
	}
	if own == nil || other == nil {
		return nil, errors.Errorf("relationship %q has no key", rel.Name)
	}

	join := rel.JoinTable.Table
	relatedSub := related.subquery(other.PrimaryKey, conds)
	joinSub := s.db.Session(&gorm.Session{NewDB: true}).
		Table(join).
		Clauses(clause.Select{Columns: []clause.Column{{Table: join, Name: own.ForeignKey.DBName}}}).
		Where(inSubquery(clause.Column{Table: join, Name: other.ForeignKey.DBName}, relatedSub))
	return inSubquery(clause.Column{Table: s.table, Name: own.PrimaryKey.DBName}, joinSub), nil
}

// subquery selects the selected column of the scope's table from rows matching conds.
func (s *scope) subquery(selected *gormschema.Field, conds []clause.Expression) *gorm.DB {
	return s.db.Session(&gorm.Session{NewDB: true}).
		Model(reflect.New(s.schema.ModelType).Interface()).
		Clauses(clause.Select{Columns: []clause.Column{{Table: s.table, Name: selected.DBName}}}).
		Where(clause.And(conds...))
}

func inSubquery(col clause.Column, sub *gorm.DB) clause.Expression {
	return clause.Expr{SQL: "? IN (?)", Vars: []any{col, sub}}
}
