package cmd

import (
	"encoding/json"
	"net/http"

	"github.com/dshills/flowdag/store"
)

// serveWatch starts an HTTP status endpoint backed by cache, reporting runID's
// progress as a JSON-encoded store.RunRecord at GET /status. Mirrors the
// --metrics-addr server's shape: a bare http.Server run in its own goroutine
// for the duration of the batch.
func serveWatch(addr string, cache store.StatusCache, runID string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		run, err := cache.GetRunStatus(r.Context(), runID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(run)
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
