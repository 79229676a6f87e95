package batch

import (
	"time"

	"github.com/dshills/flowdag/observability"
	"github.com/dshills/flowdag/sidecar"
	"github.com/dshills/flowdag/store"
)

// Option configures an Engine. Mirrors the functional-options style used
// throughout the rest of this module: chainable, self-documenting, and
// optional.
type Option func(*Config)

// Config holds everything an Engine needs beyond the flow and row source,
// which are passed to NewEngine directly since every batch run needs them.
type Config struct {
	InputsMapping   map[string]string
	OutDir          string
	FlowPath        string
	Concurrency     int // W: concurrent lines
	LineConcurrency int // P: concurrent nodes within one line
	Sidecar         sidecar.Store
	Emitter         observability.Emitter
	Logger          observability.Logger
	Metrics         *observability.PrometheusMetrics
	Store           store.Store
	StatusCache     store.StatusCache
	RunID           string
	Now             func() time.Time
}

func defaultConfig() Config {
	return Config{
		Concurrency:     4,
		LineConcurrency: 1,
		Emitter:         observability.NewNullEmitter(),
	}
}

// WithInputsMapping sets the per-flow-input `${data.<col>}` templates used
// to build each line's inputs from its row.
func WithInputsMapping(mapping map[string]string) Option {
	return func(c *Config) { c.InputsMapping = mapping }
}

// WithOutDir sets the directory outputs.jsonl and side-car files are
// written under.
func WithOutDir(dir string) Option {
	return func(c *Config) { c.OutDir = dir }
}

// WithConcurrency sets W, the number of lines run concurrently. Default 4.
func WithConcurrency(w int) Option {
	return func(c *Config) { c.Concurrency = w }
}

// WithLineConcurrency sets P, the per-line node concurrency cap. Default 1.
func WithLineConcurrency(p int) Option {
	return func(c *Config) { c.LineConcurrency = p }
}

// WithSidecarStore sets where multimedia output artifacts are externalized.
// Without one, base64 outputs are left inline.
func WithSidecarStore(s sidecar.Store) Option {
	return func(c *Config) { c.Sidecar = s }
}

// WithEmitter overrides the domain event sink. Default discards events.
func WithEmitter(e observability.Emitter) Option {
	return func(c *Config) { c.Emitter = e }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l observability.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *observability.PrometheusMetrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithNow overrides the clock used for NodeRunInfo timestamps; tests use
// this to get deterministic output.
func WithNow(now func() time.Time) Option {
	return func(c *Config) { c.Now = now }
}

// WithStore persists a RunRecord at run start/end and one LineRecord per
// completed line. Without one, a batch run leaves no durable trace of its
// own beyond outputs.jsonl.
func WithStore(s store.Store) Option {
	return func(c *Config) { c.Store = s }
}

// WithFlowPath records the flow definition's source path in persisted
// RunRecords. Purely informational — the engine never re-reads it.
func WithFlowPath(path string) Option {
	return func(c *Config) { c.FlowPath = path }
}

// WithStatusCache refreshes a coarse RunRecord in cache as lines complete,
// for a status endpoint to poll without touching the durable Store.
func WithStatusCache(c store.StatusCache) Option {
	return func(cfg *Config) { cfg.StatusCache = c }
}

// WithRunID fixes the run's ID instead of letting Run generate one, so a
// caller can know it before the run starts (to serve a status endpoint at a
// predictable URL, for instance).
func WithRunID(id string) Option {
	return func(c *Config) { c.RunID = id }
}
