package dagcore

import (
	"context"
)

// funcCallable adapts a plain function to the Callable interface for tests.
type funcCallable struct {
	sig Signature
	fn  func(params map[string]any) (any, error)
}

func (f funcCallable) Signature() Signature { return f.sig }

func (f funcCallable) Invoke(_ context.Context, params map[string]any) (any, error) {
	return f.fn(params)
}

func passthrough(name string) funcCallable {
	return funcCallable{fn: func(params map[string]any) (any, error) {
		return params[name], nil
	}}
}

func constant(v any) funcCallable {
	return funcCallable{fn: func(map[string]any) (any, error) {
		return v, nil
	}}
}
