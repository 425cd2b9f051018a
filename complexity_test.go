package exprconv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theplant/exprconv"
	"github.com/theplant/exprconv/expr"
)

func TestCalculateComplexity(t *testing.T) {
	tests := []struct {
		name     string
		src      expr.Expr
		expected *exprconv.ComplexityResult
	}{
		{
			name:     "single comparison",
			src:      expr.Where(expr.Eq(expr.Field("Age"), expr.Value(1))),
			expected: &exprconv.ComplexityResult{Conditions: 1, PathDepth: 1},
		},
		{
			name: "nested logical",
			src: expr.Where(expr.AndAlso(
				expr.Field("Active"),
				expr.OrElse(
					expr.Eq(expr.Field("Profile", "City"), expr.Value("Lisbon")),
					expr.Lt(expr.Field("Age"), expr.Value(18)),
				),
			)),
			expected: &exprconv.ComplexityResult{Conditions: 3, LogicalDepth: 2, PathDepth: 2},
		},
		{
			name: "any adds the collection path",
			src: expr.Where(expr.Any(expr.Field("Orders"),
				expr.Any(expr.Field("Lines"), expr.Eq(expr.Field("SKU"), expr.Value("A-1"))),
			)),
			expected: &exprconv.ComplexityResult{Conditions: 1, DiveDepth: 2, PathDepth: 3},
		},
		{
			name: "captured values are not evaluated",
			src: expr.Where(expr.Eq(expr.Field("Age"), expr.Capture("age", func() any {
				panic("evaluated")
			}))),
			expected: &exprconv.ComplexityResult{Conditions: 1, PathDepth: 1},
		},
		{
			name:     "unsupported shapes count nothing",
			src:      expr.Where(&expr.Unsupported{Description: "x.Age * 2"}),
			expected: &exprconv.ComplexityResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exprconv.CalculateComplexity(tt.src))
		})
	}
}

func TestCheckComplexity(t *testing.T) {
	deep := expr.Where(expr.Any(expr.Field("Orders"),
		expr.Any(expr.Field("Lines"), expr.Eq(expr.Field("SKU"), expr.Value("A-1"))),
	))

	tests := []struct {
		name      string
		src       expr.Expr
		limits    *exprconv.ComplexityLimits
		expectErr string
	}{
		{
			name:   "nil limits",
			src:    deep,
			limits: nil,
		},
		{
			name:   "within default limits",
			src:    deep,
			limits: exprconv.DefaultLimits,
		},
		{
			name:      "dive depth exceeds strict limits",
			src:       deep,
			limits:    exprconv.StrictLimits,
			expectErr: "collection nesting depth 2 exceeds limit 1",
		},
		{
			name:      "path depth",
			src:       expr.Where(expr.Eq(expr.Field("A", "B", "C", "D", "E"), expr.Value(1))),
			limits:    exprconv.DefaultLimits,
			expectErr: "path depth 5 exceeds limit 4",
		},
		{
			name: "condition count",
			src: expr.Where(expr.Or(
				expr.Or(expr.Field("A"), expr.Field("B")),
				expr.Or(expr.Field("C"), expr.Field("D")),
			)),
			limits:    &exprconv.ComplexityLimits{MaxConditions: 3},
			expectErr: "condition count 4 exceeds limit 3",
		},
		{
			name: "zero means unlimited",
			src: expr.Where(expr.Or(
				expr.Or(expr.Field("A"), expr.Field("B")),
				expr.Or(expr.Field("C"), expr.Field("D")),
			)),
			limits: &exprconv.ComplexityLimits{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exprconv.CheckComplexity(tt.src, tt.limits)
			if tt.expectErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, exprconv.ErrComplexityExceeded)
			assert.Contains(t, err.Error(), tt.expectErr)
		})
	}
}
