package store

import (
	"context"
	"os"
	"testing"
	"time"
)

// getTestRedisAddr returns a live Redis address to exercise
// RedisStatusCache against, or "" if TEST_REDIS_ADDR is unset.
func getTestRedisAddr() string {
	return os.Getenv("TEST_REDIS_ADDR")
}

func TestNewRedisStatusCacheImplementsStatusCache(t *testing.T) {
	var _ StatusCache = NewRedisStatusCache("localhost:6379", time.Minute)
}

func TestRedisStatusCacheIntegration(t *testing.T) {
	addr := getTestRedisAddr()
	if addr == "" {
		t.Skip("skipping Redis integration test: TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	c := NewRedisStatusCache(addr, time.Minute)
	defer c.Close()

	run := RunRecord{RunID: "redis-it-1", FlowPath: "flow.yaml", TotalLines: 2, Completed: 1, Status: "Running"}
	if err := c.PutRunStatus(ctx, run); err != nil {
		t.Fatalf("PutRunStatus: %v", err)
	}

	got, err := c.GetRunStatus(ctx, "redis-it-1")
	if err != nil {
		t.Fatalf("GetRunStatus: %v", err)
	}
	if got.Completed != 1 || got.Status != "Running" {
		t.Fatalf("unexpected cached run: %+v", got)
	}

	if _, err := c.GetRunStatus(ctx, "redis-it-missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on cache miss, got %v", err)
	}
}
