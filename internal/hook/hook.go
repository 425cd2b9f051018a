// Package hook composes middleware of the form func(next F) F.
package hook

// Chain composes hooks so that the first one runs outermost.
// It returns nil when no non-nil hook is given.
func Chain[F any](hooks ...func(next F) F) func(next F) F {
	var live []func(next F) F
	for _, h := range hooks {
		if h != nil {
			live = append(live, h)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return func(next F) F {
		for i := len(live) - 1; i >= 0; i-- {
			next = live[i](next)
		}
		return next
	}
}

// Append runs hooks after those already in current, in the order given.
func Append[F any](current func(next F) F, hooks ...func(next F) F) func(next F) F {
	return Chain(append([]func(next F) F{current}, hooks...)...)
}

// Apply wraps next with h, returning next unchanged for a nil h.
func Apply[F any](h func(next F) F, next F) F {
	if h == nil {
		return next
	}
	return h(next)
}
