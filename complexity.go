package exprconv

import (
	"github.com/pkg/errors"

	"github.com/theplant/exprconv/expr"
)

// ComplexityLimits defines limits for source predicate complexity.
// A value of 0 means no limit for that metric.
type ComplexityLimits struct {
	MaxConditions   int // Maximum number of atomic conditions
	MaxLogicalDepth int // Maximum nesting depth of logical operators
	MaxDiveDepth    int // Maximum nesting of Any calls
	MaxPathDepth    int // Maximum number of segments in a field path
}

// ComplexityResult contains the calculated complexity metrics of a source predicate.
type ComplexityResult struct {
	Conditions   int
	LogicalDepth int
	DiveDepth    int
	PathDepth    int
}

// Predefined complexity limits
var (
	// DefaultLimits provides reasonable defaults for most use cases.
	DefaultLimits = &ComplexityLimits{
		MaxConditions:   10,
		MaxLogicalDepth: 6,
		MaxDiveDepth:    2,
		MaxPathDepth:    4,
	}

	// StrictLimits provides tighter limits for security-sensitive contexts.
	StrictLimits = &ComplexityLimits{
		MaxConditions:   5,
		MaxLogicalDepth: 3,
		MaxDiveDepth:    1,
		MaxPathDepth:    3,
	}

	// RelaxedLimits provides looser limits for trusted/internal use.
	RelaxedLimits = &ComplexityLimits{
		MaxConditions:   20,
		MaxLogicalDepth: 10,
		MaxDiveDepth:    3,
		MaxPathDepth:    6,
	}
)

// CheckComplexity validates that a source predicate doesn't exceed the specified limits.
// Returns an error wrapping ErrComplexityExceeded, or nil if within limits.
// If limits is nil, no validation is performed.
func CheckComplexity(e expr.Expr, limits *ComplexityLimits) error {
	if limits == nil {
		return nil
	}

	result := CalculateComplexity(e)

	if limits.MaxConditions > 0 && result.Conditions > limits.MaxConditions {
		return errors.Wrapf(ErrComplexityExceeded, "condition count %d exceeds limit %d", result.Conditions, limits.MaxConditions)
	}
	if limits.MaxLogicalDepth > 0 && result.LogicalDepth > limits.MaxLogicalDepth {
		return errors.Wrapf(ErrComplexityExceeded, "logical nesting depth %d exceeds limit %d", result.LogicalDepth, limits.MaxLogicalDepth)
	}
	if limits.MaxDiveDepth > 0 && result.DiveDepth > limits.MaxDiveDepth {
		return errors.Wrapf(ErrComplexityExceeded, "collection nesting depth %d exceeds limit %d", result.DiveDepth, limits.MaxDiveDepth)
	}
	if limits.MaxPathDepth > 0 && result.PathDepth > limits.MaxPathDepth {
		return errors.Wrapf(ErrComplexityExceeded, "path depth %d exceeds limit %d", result.PathDepth, limits.MaxPathDepth)
	}

	return nil
}

// CalculateComplexity analyzes a source predicate and returns its complexity metrics.
// Captured values are not evaluated.
func CalculateComplexity(e expr.Expr) *ComplexityResult {
	result := &ComplexityResult{}
	calculateComplexityRecursive(e, 0, 0, 0, result)
	return result
}

func calculateComplexityRecursive(e expr.Expr, logicalDepth, diveDepth, pathPrefix int, result *ComplexityResult) {
	switch e := e.(type) {
	case *expr.Lambda:
		calculateComplexityRecursive(e.Body, logicalDepth, diveDepth, pathPrefix, result)

	case *expr.Logical:
		logicalDepth++
		result.LogicalDepth = max(result.LogicalDepth, logicalDepth)
		calculateComplexityRecursive(e.Left, logicalDepth, diveDepth, pathPrefix, result)
		calculateComplexityRecursive(e.Right, logicalDepth, diveDepth, pathPrefix, result)

	case *expr.Compare:
		result.Conditions++
		observePath(e.Left, pathPrefix, result)
		observePath(e.Right, pathPrefix, result)

	case *expr.Call:
		if e.Method == expr.MethodAny {
			diveDepth++
			result.DiveDepth = max(result.DiveDepth, diveDepth)
			prefix := pathPrefix + memberDepth(e.Object)
			for _, arg := range e.Args {
				calculateComplexityRecursive(arg, logicalDepth, diveDepth, prefix, result)
			}
			return
		}
		result.Conditions++
		observePath(e.Object, pathPrefix, result)
		for _, arg := range e.Args {
			observePath(arg, pathPrefix, result)
		}

	case *expr.Member, *expr.Convert:
		result.Conditions++
		observePath(e, pathPrefix, result)
	}
}

func observePath(e expr.Expr, prefix int, result *ComplexityResult) {
	if d := memberDepth(e); d > 0 {
		result.PathDepth = max(result.PathDepth, prefix+d)
	}
}

func memberDepth(e expr.Expr) int {
	depth := 0
	for {
		switch m := e.(type) {
		case *expr.Convert:
			e = m.Operand
		case *expr.Member:
			depth++
			e = m.Target
		default:
			return depth
		}
	}
}
