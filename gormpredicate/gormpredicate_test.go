package gormpredicate_test

import (
	"reflect"
	"slices"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/theplant/exprconv"
	"github.com/theplant/exprconv/expr"
	"github.com/theplant/exprconv/gormpredicate"
	"github.com/theplant/exprconv/predicate"
)

type Company struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

type Group struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

type Address struct {
	ID        uint `gorm:"primaryKey"`
	OwnerID   uint
	OwnerType string
	City      string
}

type Line struct {
	ID      uint `gorm:"primaryKey"`
	OrderID uint
	SKU     string
	Qty     int
}

type Order struct {
	ID         uint `gorm:"primaryKey"`
	CustomerID uint
	Total      float64
	DeletedAt  gorm.DeletedAt `gorm:"index"`
	Lines      []*Line
}

type Customer struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	Age       int
	Active    bool
	Tags      datatypes.JSONSlice[string]
	CompanyID *uint
	Company   *Company
	Address   *Address `gorm:"polymorphic:Owner"`
	Orders    []*Order
	Groups    []*Group `gorm:"many2many:customer_groups"`
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=exprconv dbname=exprconv sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestScope(t *testing.T) {
	db := dryRunDB(t)

	tests := []struct {
		name     string
		src      expr.Expr
		custom   []exprconv.CustomCondition
		wantSQL  string
		wantVars []any
	}{
		{
			name: "conjunction",
			src: expr.AndAlso(
				expr.Ge(expr.Field("Age"), expr.Value(18)),
				expr.Field("Active"),
			),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."age" >= $1 AND "customers"."active" = $2`,
			wantVars: []any{18, true},
		},
		{
			name: "disjunction",
			src: expr.OrElse(
				expr.Lt(expr.Field("Age"), expr.Value(18)),
				expr.Gt(expr.Field("Age"), expr.Value("60")),
			),
			wantSQL:  `SELECT * FROM "customers" WHERE ("customers"."age" < $1 OR "customers"."age" > $2)`,
			wantVars: []any{18, 60},
		},
		{
			name:     "substring",
			src:      expr.StringContains(expr.Field("Name"), expr.Value("nn")),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."name" LIKE $1 ESCAPE $2`,
			wantVars: []any{"%nn%", `\`},
		},
		{
			name:     "substring with wildcards",
			src:      expr.StringContains(expr.Field("Name"), expr.Value(`5%_off\`)),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."name" LIKE $1 ESCAPE $2`,
			wantVars: []any{`%5\%\_off\\%`, `\`},
		},
		{
			name:     "not equal on a nullable column",
			src:      expr.Ne(expr.Field("CompanyID"), expr.Value(1)),
			wantSQL:  `SELECT * FROM "customers" WHERE ("customers"."company_id" <> $1 OR "customers"."company_id" IS NULL)`,
			wantVars: []any{uint(1)},
		},
		{
			name:     "not equal on a column without nulls",
			src:      expr.Ne(expr.Field("Age"), expr.Value(1)),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."age" <> $1`,
			wantVars: []any{1},
		},
		{
			name:    "not equal to null",
			src:     expr.Ne(expr.Field("CompanyID"), expr.Value(nil)),
			wantSQL: `SELECT * FROM "customers" WHERE "customers"."company_id" IS NOT NULL`,
		},
		{
			name:     "membership",
			src:      expr.In(expr.Value([]any{17, "52"}), expr.Field("Age")),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."age" IN ($1,$2)`,
			wantVars: []any{17, 52},
		},
		{
			name:     "membership with null",
			src:      expr.In(expr.Value([]any{1, nil, 2}), expr.Field("CompanyID")),
			wantSQL:  `SELECT * FROM "customers" WHERE ("customers"."company_id" IN ($1,$2) OR "customers"."company_id" IS NULL)`,
			wantVars: []any{uint(1), uint(2)},
		},
		{
			name:    "membership of null only",
			src:     expr.In(expr.Value([]any{nil}), expr.Field("CompanyID")),
			wantSQL: `SELECT * FROM "customers" WHERE "customers"."company_id" IS NULL`,
		},
		{
			name:    "null",
			src:     expr.Eq(expr.Field("CompanyID"), expr.Value(nil)),
			wantSQL: `SELECT * FROM "customers" WHERE "customers"."company_id" IS NULL`,
		},
		{
			name:     "has many",
			src:      expr.Gt(expr.Field("Orders", "Total"), expr.Value(100)),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."id" IN (SELECT "orders"."customer_id" FROM "orders" WHERE "orders"."total" > $1 AND "orders"."deleted_at" IS NULL)`,
			wantVars: []any{float64(100)},
		},
		{
			name:     "nested has many",
			src:      expr.Eq(expr.Field("Orders", "Lines", "SKU"), expr.Value("A-1")),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."id" IN (SELECT "orders"."customer_id" FROM "orders" WHERE "orders"."id" IN (SELECT "lines"."order_id" FROM "lines" WHERE "lines"."sku" = $1) AND "orders"."deleted_at" IS NULL)`,
			wantVars: []any{"A-1"},
		},
		{
			name:     "belongs to",
			src:      expr.Eq(expr.Field("Company", "Name"), expr.Value("Acme")),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."company_id" IN (SELECT "companies"."id" FROM "companies" WHERE "companies"."name" = $1)`,
			wantVars: []any{"Acme"},
		},
		{
			name:     "polymorphic has one",
			src:      expr.Eq(expr.Field("Address", "City"), expr.Value("Lisbon")),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."id" IN (SELECT "addresses"."owner_id" FROM "addresses" WHERE "addresses"."city" = $1 AND "addresses"."owner_type" = $2)`,
			wantVars: []any{"Lisbon", "customers"},
		},
		{
			name:     "many to many",
			src:      expr.Any(expr.Field("Groups"), expr.Eq(expr.Field("Name"), expr.Value("vip"))),
			wantSQL:  `SELECT * FROM "customers" WHERE "customers"."id" IN (SELECT "customer_groups"."customer_id" FROM "customer_groups" WHERE "customer_groups"."group_id" IN (SELECT "groups"."id" FROM "groups" WHERE "groups"."name" = $1))`,
			wantVars: []any{"vip"},
		},
		{
			name: "relationship next to a column",
			src: expr.OrElse(
				expr.Field("Active"),
				expr.Any(expr.Field("Orders"), expr.Le(expr.Field("Total"), expr.Value(0))),
			),
			wantSQL:  `SELECT * FROM "customers" WHERE ("customers"."active" = $1 OR "customers"."id" IN (SELECT "orders"."customer_id" FROM "orders" WHERE "orders"."total" <= $2 AND "orders"."deleted_at" IS NULL))`,
			wantVars: []any{true, float64(0)},
		},
		{
			name:    "custom filter with every value blank",
			custom:  []exprconv.CustomCondition{exprconv.Cond("Name", " ", predicate.Equal)},
			wantSQL: `SELECT * FROM "customers" WHERE 1 = 1`,
		},
		{
			name: "custom filter",
			custom: []exprconv.CustomCondition{
				exprconv.Cond("Company.Name", "Acme", predicate.Equal),
				exprconv.CondWith("Age", 30, predicate.LessThan, predicate.Or),
			},
			wantSQL:  `SELECT * FROM "customers" WHERE ("customers"."company_id" IN (SELECT "companies"."id" FROM "companies" WHERE "companies"."name" = $1) OR "customers"."age" < $2)`,
			wantVars: []any{"Acme", 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				p   *predicate.Predicate[Customer]
				err error
			)
			if tt.custom != nil {
				p, err = exprconv.BuildCustomFilter[Customer](tt.custom...)
			} else {
				p, err = exprconv.Translate[Customer](expr.Where(tt.src))
			}
			require.NoError(t, err)

			stmt := db.Model(&Customer{}).Scopes(gormpredicate.Scope(p)).Find(&[]Customer{})
			require.NoError(t, stmt.Error)
			require.Equal(t, tt.wantSQL, stmt.Statement.SQL.String())
			if len(tt.wantVars) == 0 {
				require.Empty(t, stmt.Statement.Vars)
				return
			}
			require.Equal(t, tt.wantVars, stmt.Statement.Vars)
		})
	}
}

func TestScopeJSONArray(t *testing.T) {
	db := dryRunDB(t)

	p, err := exprconv.Translate[Customer](expr.Where(expr.Has(expr.Field("Tags"), expr.Value("vip"))))
	require.NoError(t, err)

	stmt := db.Model(&Customer{}).Scopes(gormpredicate.Scope(p)).Find(&[]Customer{})
	require.NoError(t, stmt.Error)
	assert.Contains(t, stmt.Statement.SQL.String(), `SELECT * FROM "customers" WHERE `)
}

func TestScopeErrors(t *testing.T) {
	db := dryRunDB(t)

	t.Run("predicate for another model", func(t *testing.T) {
		p, err := exprconv.Translate[Customer](expr.Where(expr.Gt(expr.Field("Age"), expr.Value(1))))
		require.NoError(t, err)

		stmt := db.Model(&Order{}).Scopes(gormpredicate.Scope(p)).Find(&[]Order{})
		require.ErrorContains(t, stmt.Error, `field "Age" belongs to`)
	})

	t.Run("relationship compared as a column", func(t *testing.T) {
		_, err := gormpredicate.Expression(db, &Customer{}, &predicate.Truth{Path: mustPath(t, "Company")})
		require.ErrorContains(t, err, `field "Company" of Customer is a relationship, not a column`)
	})

	t.Run("nil predicate", func(t *testing.T) {
		stmt := db.Model(&Customer{}).Scopes(gormpredicate.Scope[Customer](nil)).Find(&[]Customer{})
		require.NoError(t, stmt.Error)
		require.Equal(t, `SELECT * FROM "customers"`, stmt.Statement.SQL.String())
	})
}

func TestPreload(t *testing.T) {
	db := dryRunDB(t)

	projs, err := exprconv.BuildProjectionPaths[Customer]("Age", "Orders.Lines.SKU", "Company.Name", "Orders")
	require.NoError(t, err)

	tx := gormpredicate.Preload[Customer](projs...)(db.Model(&Customer{}))
	require.NoError(t, tx.Error)

	preloads := lo.Keys(tx.Statement.Preloads)
	slices.Sort(preloads)
	assert.Equal(t, []string{"Company", "Orders", "Orders.Lines"}, preloads)
}

func mustPath(t *testing.T, names ...string) predicate.Path {
	t.Helper()
	p, err := predicate.NewPath(reflect.TypeFor[Customer](), names...)
	require.NoError(t, err)
	return p
}
