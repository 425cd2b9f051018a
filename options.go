package exprconv

import (
	"reflect"

	"github.com/theplant/exprconv/internal/hook"
	"github.com/theplant/exprconv/predicate"
)

// BuildConditionInput is what a condition builder receives.
type BuildConditionInput struct {
	Index     int
	Condition Condition
	Root      reflect.Type
	Fallback  string
	Narrowing reflect.Type
}

// BuildConditionFunc turns one condition into a predicate node.
// To pass control to the next handler in the chain, call next(input).
type BuildConditionFunc func(input *BuildConditionInput) (predicate.Node, error)

// Options configures translation and projection mapping.
type Options struct {
	// Fallback is a dotted container path searched when a field is not found on the root.
	Fallback string
	// Narrowing is the concrete type tried for fields behind interface-typed values.
	Narrowing  reflect.Type
	ExtraPaths []string
	Limits     *ComplexityLimits

	conditionHook func(next BuildConditionFunc) BuildConditionFunc
}

type Option func(*Options)

func WithFallback(path string) Option {
	return func(o *Options) {
		o.Fallback = path
	}
}

func WithNarrowing(t reflect.Type) Option {
	return func(o *Options) {
		o.Narrowing = t
	}
}

func WithNarrowingOf[N any]() Option {
	return WithNarrowing(reflect.TypeFor[N]())
}

// WithExtraPaths appends dotted projection paths to the result of BuildProjections.
func WithExtraPaths(paths ...string) Option {
	return func(o *Options) {
		o.ExtraPaths = append(o.ExtraPaths, paths...)
	}
}

// WithComplexityLimits rejects source predicates exceeding limits. A nil limits disables the check.
func WithComplexityLimits(limits *ComplexityLimits) Option {
	return func(o *Options) {
		o.Limits = limits
	}
}

// WithConditionHook adds condition builder hooks.
// Hooks are applied in the order they are added.
// The default builder is always at the end of the chain.
func WithConditionHook(hooks ...func(next BuildConditionFunc) BuildConditionFunc) Option {
	return func(o *Options) {
		o.conditionHook = hook.Append(o.conditionHook, hooks...)
	}
}

func newOptions(opts []Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
