package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStatusCache is not a full Store: it caches a RunRecord under a TTL so
// the CLI runner's `--watch` status endpoint can poll run progress without
// hitting the durable Store on every request. Line records are never cached
// here — only the coarse run-level summary changes often enough to matter.
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ StatusCache = (*RedisStatusCache)(nil)

// NewRedisStatusCache connects to addr (host:port) and returns a cache with
// the given TTL for cached run summaries.
func NewRedisStatusCache(addr string, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (c *RedisStatusCache) key(runID string) string {
	return fmt.Sprintf("flowdag:run:%s", runID)
}

// PutRunStatus refreshes the cached summary for runID.
func (c *RedisStatusCache) PutRunStatus(ctx context.Context, run RunRecord) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run status: %w", err)
	}
	return c.client.Set(ctx, c.key(run.RunID), data, c.ttl).Err()
}

// GetRunStatus returns the cached summary, or ErrNotFound on a cache miss
// (callers should fall back to Store.LoadRun).
func (c *RedisStatusCache) GetRunStatus(ctx context.Context, runID string) (RunRecord, error) {
	data, err := c.client.Get(ctx, c.key(runID)).Bytes()
	if err == redis.Nil {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, err
	}
	var run RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal run status: %w", err)
	}
	return run, nil
}

func (c *RedisStatusCache) Close() error { return c.client.Close() }
