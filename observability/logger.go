package observability

import "go.uber.org/zap"

// Logger is the diagnostic-logging surface of the batch engine (set with
// batch.WithLogger; it reports failures to persist line records) and the
// CLI runner — distinct from the domain Event stream, which callers consume
// for batch-level observability. dagcore itself does not log: its non-fatal
// output warnings are returned in LineResult.Warnings.
type Logger = *zap.SugaredLogger

// NewNopLogger returns a Logger that discards everything; the CLI runner
// uses it when --verbose is not set.
func NewNopLogger() Logger {
	return zap.NewNop().Sugar()
}

// NewProductionLogger builds a JSON-encoded, info-level Logger suitable for
// the CLI runner's default configuration.
func NewProductionLogger() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
