package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/internal/pipeline"
	"github.com/ajitpratap0/reshape/pkg/compression"
	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/logger"
	"github.com/ajitpratap0/reshape/pkg/metrics"
	"github.com/ajitpratap0/reshape/pkg/pool"
	"github.com/ajitpratap0/reshape/pkg/stream"
	csvstream "github.com/ajitpratap0/reshape/pkg/stream/csv"
	"github.com/ajitpratap0/reshape/pkg/stream/jsonl"
	"github.com/ajitpratap0/reshape/pkg/stream/postgres"
	"github.com/ajitpratap0/reshape/pkg/transform"
)

// Build metadata, set via ldflags.
var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes: 0 success (rejected rows included), 1 configuration error,
// 2 I/O collaborator error.
const (
	exitConfigError = 1
	exitIOError     = 2
)

// runFlags holds the run command's flag values after viper resolution.
type runFlags struct {
	specFile      string
	inputFile     string
	outputFile    string
	errorsFile    string
	table         string
	dsn           string
	batchSize     int
	progress      int64
	compressionA  string
	level         string
	logLevel      string
	metricsListen string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "reshape",
		Short: "Reshape - declarative tabular record transformation",
		Long: `Reshape turns an input record stream into a fixed target schema using a
declarative transformation spec. Per-row failures are isolated into a
diagnostics stream so one bad row never aborts the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Reshape v%s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", date)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "operations",
		Short: "List registered operation kinds",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available operations:")
			for _, kind := range transform.Kinds() {
				fmt.Printf("  - %s: %s\n", kind.Name, kind.Description)
				fmt.Printf("    required: %s\n", strings.Join(kind.RequiredFields, ", "))
			}
		},
	})

	flags := &runFlags{}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a transformation",
		Long: `Run a transformation spec over an input file.

Example:
  reshape run --config spec.json --input orders.csv --output clean.csv --errors rejected.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolveFlags(cmd, flags)
			return run(cmd.Context(), flags)
		},
	}

	runCmd.Flags().StringVarP(&flags.specFile, "config", "c", "", "Path to the transformation spec document (required)")
	runCmd.Flags().StringVarP(&flags.inputFile, "input", "i", "", "Path to the input file (required)")
	runCmd.Flags().StringVarP(&flags.outputFile, "output", "o", "", "Path for accepted rows")
	runCmd.Flags().StringVarP(&flags.errorsFile, "errors", "e", "", "Path for rejected-row diagnostics (optional)")
	runCmd.Flags().StringVar(&flags.table, "table", "", "Load accepted rows into this PostgreSQL table instead of a file")
	runCmd.Flags().StringVar(&flags.dsn, "dsn", "", "PostgreSQL connection string for --table")
	runCmd.Flags().IntVar(&flags.batchSize, "batch-size", postgres.DefaultBatchSize, "Rows per bulk-load batch for --table")
	runCmd.Flags().Int64Var(&flags.progress, "progress", 1000, "Log progress every N rows (0 disables)")
	runCmd.Flags().StringVar(&flags.compressionA, "compression", "auto", "File compression: none, gzip, zstd, s2, lz4, or auto (by extension)")
	runCmd.Flags().StringVar(&flags.level, "compression-level", "default", "Compression level: fastest, default, better, best")
	runCmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&flags.metricsListen, "metrics-listen", "", "Serve Prometheus metrics on this address (optional)")
	_ = runCmd.MarkFlagRequired("config")
	_ = runCmd.MarkFlagRequired("input")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.IsType(err, errors.ErrorTypeConfig) {
			os.Exit(exitConfigError)
		}
		os.Exit(exitIOError)
	}
}

// resolveFlags lets RESHAPE_* environment variables fill flags the user did
// not set explicitly: flag beats env, env beats default.
func resolveFlags(cmd *cobra.Command, flags *runFlags) {
	v := viper.New()
	v.SetEnvPrefix("RESHAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(cmd.Flags())

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			_ = f.Value.Set(v.GetString(f.Name))
		}
	})
}

func run(ctx context.Context, flags *runFlags) error {
	if err := logger.Init(logger.Config{Level: flags.logLevel, Encoding: "json"}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid --log-level")
	}
	defer func() { _ = logger.Sync() }()

	// Tag every log line of this invocation with a unique run ID and the
	// input stream driver so concurrent runs can be told apart.
	ctx = context.WithValue(ctx, logger.RunIDKey, pool.GenerateID("run"))
	ctx = context.WithValue(ctx, logger.StreamKey, streamName(flags.inputFile))
	log := logger.WithContext(ctx).With(zap.String("component", "reshape-cli"))

	algo, err := compression.ParseAlgorithm(flags.compressionA)
	if err != nil {
		return err
	}
	level, err := compression.ParseLevel(flags.level)
	if err != nil {
		return err
	}
	if flags.table == "" && flags.outputFile == "" {
		return errors.New(errors.ErrorTypeConfig, "either --output or --table is required")
	}
	if flags.table != "" && flags.dsn == "" {
		return errors.New(errors.ErrorTypeConfig, "--table requires --dsn")
	}

	// Configuration phase: any failure here aborts with zero rows processed.
	spec, err := config.Load(flags.specFile)
	if err != nil {
		return err
	}
	proc, err := pipeline.New(spec, pipeline.Options{ProgressEvery: flags.progress})
	if err != nil {
		return err
	}
	log.Info("spec loaded",
		zap.String("path", flags.specFile),
		zap.Int("target_columns", len(spec.TargetColumns)),
		zap.Int("operations", len(spec.Transformations)))

	if flags.metricsListen != "" {
		if err := metrics.Serve(flags.metricsListen); err != nil {
			return err
		}
		log.Info("metrics listener started", zap.String("addr", flags.metricsListen))
	}

	// I/O phase: open the input, the accepted sink, and the diagnostics sink.
	in, err := compression.OpenInput(flags.inputFile, algo)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	src, err := newSource(flags.inputFile, in)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	out, closeOut, err := newSink(ctx, flags, spec.TargetColumns, algo, level)
	if err != nil {
		return err
	}

	diag, closeDiag, err := newDiagnosticSink(flags, src.Columns(), algo, level)
	if err != nil {
		_ = closeOut()
		return err
	}

	res, runErr := proc.Run(ctx, src, out, diag)

	// Sinks close even on failure so partial output is flushed for
	// inspection; close errors on a successful run are still fatal.
	if err := closeOut(); err != nil && runErr == nil {
		runErr = err
	}
	if err := closeDiag(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		log.Error("run aborted",
			zap.Int64("rows_read", res.RowsRead),
			zap.Error(runErr))
		return runErr
	}

	rowsPerSec := float64(0)
	if res.Duration.Seconds() > 0 {
		rowsPerSec = float64(res.RowsRead) / res.Duration.Seconds()
	}
	log.Info("run completed",
		zap.Int64("rows_read", res.RowsRead),
		zap.Int64("accepted", res.Accepted),
		zap.Int64("rejected", res.Rejected),
		zap.Duration("duration", res.Duration),
		zap.Float64("rows_per_second", rowsPerSec))
	return nil
}

// newSource picks the source driver from the input file name: .jsonl or
// .ndjson (before any compression suffix) means JSON Lines, anything else
// is CSV.
func newSource(path string, r io.Reader) (stream.Source, error) {
	if isJSONL(path) {
		return jsonl.NewSource(r), nil
	}
	return csvstream.NewSource(r)
}

// newSink builds the accepted-row sink: a PostgreSQL bulk loader when
// --table is set, otherwise a file sink in the format matching the output
// file name. The returned closer flushes the sink and its file.
func newSink(ctx context.Context, flags *runFlags, targetColumns []string, algo compression.Algorithm, level compression.Level) (stream.Sink, func() error, error) {
	if flags.table != "" {
		sink, closeConn, err := postgres.Connect(ctx, flags.dsn, flags.table, targetColumns, flags.batchSize)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() error {
			err := sink.Close()
			if cerr := closeConn(); err == nil {
				err = cerr
			}
			return err
		}, nil
	}

	w, err := compression.CreateOutput(flags.outputFile, algo, level)
	if err != nil {
		return nil, nil, err
	}
	var sink stream.Sink
	if isJSONL(flags.outputFile) {
		sink = jsonl.NewSink(w, targetColumns)
	} else {
		sink, err = csvstream.NewSink(w, targetColumns)
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
	}
	return sink, func() error {
		err := sink.Close()
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

// newDiagnosticSink builds the rejected-row sink, or a discard sink when no
// --errors path is configured.
func newDiagnosticSink(flags *runFlags, sourceColumns []string, algo compression.Algorithm, level compression.Level) (stream.DiagnosticSink, func() error, error) {
	if flags.errorsFile == "" {
		return stream.Discard{}, func() error { return nil }, nil
	}

	w, err := compression.CreateOutput(flags.errorsFile, algo, level)
	if err != nil {
		return nil, nil, err
	}
	var sink stream.DiagnosticSink
	if isJSONL(flags.errorsFile) {
		sink = jsonl.NewDiagnosticSink(w, sourceColumns)
	} else {
		sink, err = csvstream.NewDiagnosticSink(w, sourceColumns)
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
	}
	return sink, func() error {
		err := sink.Close()
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

// streamName names the source driver selected for a path.
func streamName(path string) string {
	if isJSONL(path) {
		return "jsonl"
	}
	return "csv"
}

// isJSONL reports whether a path names a JSON Lines file, ignoring any
// trailing compression extension (orders.jsonl.gz is still JSONL).
func isJSONL(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gz", ".gzip", ".zst", ".zstd", ".s2", ".lz4":
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ext)))
	}
	return ext == ".jsonl" || ext == ".ndjson"
}
