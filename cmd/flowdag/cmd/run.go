package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dshills/flowdag/batch"
	"github.com/dshills/flowdag/dagcore"
	"github.com/dshills/flowdag/loader"
	"github.com/dshills/flowdag/observability"
	"github.com/dshills/flowdag/sidecar"
)

type runOptions struct {
	FlowPath        string
	RowsPath        string
	OutDir          string
	Concurrency     int
	LineConcurrency int
	Pretty          bool
	SidecarDir      string
	SidecarS3Bucket string
	SidecarS3Region string
	SidecarS3Prefix string
	MetricsAddr     string
	Trace           bool
	StoreBackend    string
	StorePath       string
	StoreDSN        string
	WatchAddr       string
	RedisAddr       string
}

var runOpts runOptions

func init() {
	addFlowFlag(runCmd.Flags(), &runOpts.FlowPath)
	runCmd.Flags().StringVar(&runOpts.RowsPath, "rows", "", "Path to a newline-delimited JSON row file (required)")
	runCmd.Flags().StringVar(&runOpts.OutDir, "out", "", "Directory to write outputs.jsonl and side-car files into (required)")
	runCmd.Flags().IntVarP(&runOpts.Concurrency, "concurrency", "w", 4, "Maximum concurrent lines")
	runCmd.Flags().IntVarP(&runOpts.LineConcurrency, "line-concurrency", "p", 1, "Maximum concurrent nodes within one line")
	runCmd.Flags().BoolVar(&runOpts.Pretty, "pretty", false, "Print a colorized status table instead of raw JSON")
	runCmd.Flags().StringVar(&runOpts.SidecarDir, "sidecar-dir", "", "Local directory for multimedia side-car artifacts (default: <out>/sidecar)")
	runCmd.Flags().StringVar(&runOpts.SidecarS3Bucket, "sidecar-s3-bucket", "", "S3 bucket for side-car artifacts (overrides --sidecar-dir)")
	runCmd.Flags().StringVar(&runOpts.SidecarS3Region, "sidecar-s3-region", "", "S3 region, required with --sidecar-s3-bucket")
	runCmd.Flags().StringVar(&runOpts.SidecarS3Prefix, "sidecar-s3-prefix", "", "S3 key prefix for side-car artifacts")
	runCmd.Flags().StringVar(&runOpts.MetricsAddr, "metrics-addr", "", "If set, serve Prometheus metrics on this address while the batch runs")
	runCmd.Flags().BoolVar(&runOpts.Trace, "trace", false, "Emit an OpenTelemetry span per node dispatch")
	runCmd.Flags().StringVar(&runOpts.StoreBackend, "store-backend", "sqlite", "Run/line persistence backend: sqlite, mysql, memory, or none")
	runCmd.Flags().StringVar(&runOpts.StorePath, "store-path", "", "SQLite database path (default: <out>/flowdag.db)")
	runCmd.Flags().StringVar(&runOpts.StoreDSN, "store-dsn", "", "MySQL DSN, required with --store-backend=mysql")
	runCmd.Flags().StringVar(&runOpts.WatchAddr, "watch-addr", "", "If set, serve run status as JSON on this address at /status")
	runCmd.Flags().StringVar(&runOpts.RedisAddr, "redis-addr", "", "Redis address for the --watch status cache (host:port)")

	for _, name := range []string{"flow", "rows", "out"} {
		_ = runCmd.MarkFlagRequired(name)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a flow definition over a batch of rows",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	flow, err := loader.Load(runOpts.FlowPath)
	if err != nil {
		return fmt.Errorf("load flow: %w", err)
	}
	specs, err := loader.CallableSpecs(runOpts.FlowPath)
	if err != nil {
		return fmt.Errorf("load callable specs: %w", err)
	}
	registry, err := buildRegistry(specs)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	rowsFile, err := os.Open(runOpts.RowsPath)
	if err != nil {
		return fmt.Errorf("open rows file: %w", err)
	}
	defer rowsFile.Close()

	total, err := countLines(runOpts.RowsPath)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}
	rows := batch.NewJSONLRowSource(rowsFile)

	var metricsReg *prometheus.Registry
	var metrics *observability.PrometheusMetrics
	if runOpts.MetricsAddr != "" {
		metricsReg = prometheus.NewRegistry()
		metrics = observability.NewPrometheusMetrics(metricsReg)
		srv := &http.Server{Addr: runOpts.MetricsAddr, Handler: promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{})}
		go func() { _ = srv.ListenAndServe() }()
		defer srv.Close()
	}

	sidecarStore, err := buildSidecarStore(ctx, runOpts)
	if err != nil {
		return fmt.Errorf("build side-car store: %w", err)
	}

	runStore, err := buildStore(runOpts)
	if err != nil {
		return fmt.Errorf("build run store: %w", err)
	}
	if runStore != nil {
		defer runStore.Close()
	}

	statusCache, err := buildStatusCache(runOpts)
	if err != nil {
		return fmt.Errorf("build status cache: %w", err)
	}
	runID := uuid.NewString()
	if statusCache != nil {
		defer statusCache.Close()
		watchSrv := serveWatch(runOpts.WatchAddr, statusCache, runID)
		defer watchSrv.Close()
	}

	traceEmitter, shutdownTracing := buildTraceEmitter(runOpts.Trace)
	defer shutdownTracing(ctx)
	var inner observability.Emitter = observability.NewNullEmitter()
	if traceEmitter != nil {
		inner = traceEmitter
	}
	progress := newProgressEmitter(total, inner)
	defer progress.Flush(ctx)
	emitter := observability.Emitter(progress)

	opts := []batch.Option{
		batch.WithInputsMapping(defaultInputsMapping(flow)),
		batch.WithOutDir(runOpts.OutDir),
		batch.WithFlowPath(runOpts.FlowPath),
		batch.WithConcurrency(runOpts.Concurrency),
		batch.WithLineConcurrency(runOpts.LineConcurrency),
		batch.WithEmitter(emitter),
		batch.WithLogger(logger),
		batch.WithRunID(runID),
	}
	if sidecarStore != nil {
		opts = append(opts, batch.WithSidecarStore(sidecarStore))
	}
	if metrics != nil {
		opts = append(opts, batch.WithMetrics(metrics))
	}
	if runStore != nil {
		opts = append(opts, batch.WithStore(runStore))
	}
	if statusCache != nil {
		opts = append(opts, batch.WithStatusCache(statusCache))
	}

	engine := batch.NewEngine(flow, registry, rows, opts...)
	result, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("run batch: %w", err)
	}

	if runOpts.Pretty {
		printPrettySummary(cmd, result)
		return nil
	}
	return printJSONSummary(cmd, result)
}

func buildSidecarStore(ctx context.Context, opts runOptions) (sidecar.Store, error) {
	if opts.SidecarS3Bucket != "" {
		return sidecar.NewS3Store(ctx, sidecar.S3Config{
			Region: opts.SidecarS3Region,
			Bucket: opts.SidecarS3Bucket,
			Prefix: opts.SidecarS3Prefix,
		})
	}
	dir := opts.SidecarDir
	if dir == "" {
		dir = opts.OutDir + "/sidecar"
	}
	return sidecar.NewLocalStore(dir), nil
}

// defaultInputsMapping builds a `${data.<name>}` mapping for every flow
// input declared by the loaded flow — the CLI's default row-to-line
// binding, used when the flow document names its inputs after the row
// columns they read.
func defaultInputsMapping(flow *dagcore.Flow) map[string]string {
	mapping := make(map[string]string, len(flow.DeclaredInputs))
	for name := range flow.DeclaredInputs {
		mapping[name] = fmt.Sprintf("${data.%s}", name)
	}
	return mapping
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	count := 0
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	return count, scanner.Err()
}

func printJSONSummary(cmd *cobra.Command, result *batch.Result) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"run_id":      result.RunID,
		"status":      result.Status,
		"aggregation": result.Aggregation,
	})
}

func printPrettySummary(cmd *cobra.Command, result *batch.Result) {
	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(out, "run %s\n", result.RunID)
	fmt.Fprintf(out, "lines: %s completed, %s failed, %s canceled (total %d)\n",
		green(result.Status.Lines.Completed), red(result.Status.Lines.Failed),
		yellow(result.Status.Lines.Canceled), result.Status.Lines.Total)

	for name, counts := range result.Status.Nodes {
		fmt.Fprintf(out, "  %-20s completed=%s bypassed=%s failed=%s\n",
			name, green(counts.Completed), yellow(counts.Bypassed), red(counts.Failed))
	}
}
