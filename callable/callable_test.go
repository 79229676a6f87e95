package callable

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/flowdag/dagcore"
)

func TestFuncInvokeDelegatesToFn(t *testing.T) {
	sig := dagcore.Signature{Params: []dagcore.ParamSpec{{Name: "x"}}}
	var gotParams map[string]any
	f := NewFunc(sig, func(_ context.Context, params map[string]any) (any, error) {
		gotParams = params
		return params["x"].(int) * 2, nil
	})

	if got := f.Signature(); len(got.Params) != 1 || got.Params[0].Name != "x" {
		t.Fatalf("expected sig to be returned verbatim, got %+v", got)
	}

	out, err := f.Invoke(context.Background(), map[string]any{"x": 21})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != 42 {
		t.Fatalf("expected 42, got %v", out)
	}
	if gotParams["x"] != 21 {
		t.Fatalf("expected fn to receive the params map, got %+v", gotParams)
	}
}

func TestFuncInvokePropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	f := NewFunc(dagcore.Signature{}, func(context.Context, map[string]any) (any, error) {
		return nil, wantErr
	})

	_, err := f.Invoke(context.Background(), nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped wantErr, got %v", err)
	}
}
