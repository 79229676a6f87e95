package callable

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/flowdag/dagcore"
)

type countingCallable struct {
	sig   dagcore.Signature
	calls int
}

func (c *countingCallable) Signature() dagcore.Signature { return c.sig }

func (c *countingCallable) Invoke(context.Context, map[string]any) (any, error) {
	c.calls++
	return c.calls, nil
}

func TestRateLimitedDelegatesSignature(t *testing.T) {
	sig := dagcore.Signature{Params: []dagcore.ParamSpec{{Name: "x"}}}
	inner := &countingCallable{sig: sig}
	rl := NewRateLimited(inner, 100, 1)

	if got := rl.Signature(); len(got.Params) != 1 || got.Params[0].Name != "x" {
		t.Fatalf("expected inner signature, got %+v", got)
	}
}

func TestRateLimitedInvokesInner(t *testing.T) {
	inner := &countingCallable{}
	rl := NewRateLimited(inner, 100, 5)

	out, err := rl.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != 1 || inner.calls != 1 {
		t.Fatalf("expected inner to be called once, got out=%v calls=%d", out, inner.calls)
	}
}

func TestRateLimitedThrottlesBeyondBurst(t *testing.T) {
	inner := &countingCallable{}
	// 1 request per second, burst of 1: the second call within the same
	// tick has to wait for the bucket to refill.
	rl := NewRateLimited(inner, 1, 1)

	start := time.Now()
	if _, err := rl.Invoke(context.Background(), nil); err != nil {
		t.Fatalf("first Invoke: %v", err)
	}
	if _, err := rl.Invoke(context.Background(), nil); err != nil {
		t.Fatalf("second Invoke: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Fatalf("expected the second call to wait for the limiter, elapsed only %v", elapsed)
	}
}

func TestRateLimitedReturnsContextError(t *testing.T) {
	inner := &countingCallable{}
	rl := NewRateLimited(inner, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := rl.Invoke(ctx, nil); err == nil {
		t.Fatal("expected error from canceled context")
	}
	if inner.calls != 0 {
		t.Fatalf("expected inner not to be called when limiter wait fails, got %d calls", inner.calls)
	}
}
