// Package callable adapts concrete node implementations — pure functions,
// HTTP tools, and LLM chat models — to the dagcore.Callable interface the
// scheduler dispatches against.
package callable

import (
	"context"

	"github.com/dshills/flowdag/dagcore"
)

// Func adapts a plain Go function to dagcore.Callable. sig is returned
// verbatim by Signature(); most pure-function nodes have no defaulted
// parameters, so the zero Signature is usually fine.
type Func struct {
	sig dagcore.Signature
	fn  func(ctx context.Context, params map[string]any) (any, error)
}

// NewFunc builds a Func callable.
func NewFunc(sig dagcore.Signature, fn func(ctx context.Context, params map[string]any) (any, error)) *Func {
	return &Func{sig: sig, fn: fn}
}

func (f *Func) Signature() dagcore.Signature { return f.sig }

func (f *Func) Invoke(ctx context.Context, params map[string]any) (any, error) {
	return f.fn(ctx, params)
}
