package gormpredicate

import (
	"cmp"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"

	"github.com/theplant/exprconv/predicate"
)

// Preload eager loads the relationships named by projs. A projection is cut at the first step
// that is not a relationship, so Orders.Total preloads Orders and Age preloads nothing.
func Preload[T any](projs ...*predicate.Projection) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if db == nil {
			return nil
		}
		model := cmp.Or(db.Statement.Model, db.Statement.Dest)
		if model == nil {
			model = new(T)
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			db.AddError(errors.Wrap(err, "parse schema with db"))
			return db
		}

		seen := map[string]bool{}
		for _, p := range projs {
			name := relationPath(stmt.Schema, p.Path)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			db = db.Preload(name)
		}
		return db
	}
}

func relationPath(s *gormschema.Schema, path predicate.Path) string {
	names := make([]string, 0, len(path))
	for _, step := range path {
		if step.As != nil {
			break
		}
		rel, ok := s.Relationships.Relations[step.Field.Name]
		if !ok {
			break
		}
		names = append(names, rel.Name)
		s = rel.FieldSchema
	}
	return strings.Join(names, ".")
}
