// Package pipeline runs the per-row transformation loop: pull one record,
// run every compiled field operation in spec order, emit the accepted row
// or exactly one diagnostic, and move on. One bad row never aborts the run.
package pipeline

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/logger"
	"github.com/ajitpratap0/reshape/pkg/metrics"
	"github.com/ajitpratap0/reshape/pkg/record"
	"github.com/ajitpratap0/reshape/pkg/stream"
	"github.com/ajitpratap0/reshape/pkg/transform"
)

// Options tune the processing loop.
type Options struct {
	// ProgressEvery emits a progress callback and log line every N rows.
	// Zero disables progress reporting.
	ProgressEvery int64

	// OnProgress is invoked at the ProgressEvery cadence with the number
	// of rows processed so far. Observability only, never correctness.
	OnProgress func(rows int64)
}

// Result summarizes a completed run. Accepted plus Rejected always equals
// RowsRead.
type Result struct {
	RowsRead int64
	Accepted int64
	Rejected int64
	Duration time.Duration
}

// Processor executes a compiled spec over an input stream. The spec and
// its compiled operations are immutable after New; a processor may be
// reused for several runs but not concurrently.
type Processor struct {
	spec   *config.Spec
	ops    []transform.FieldOperation
	opts   Options
	logger *zap.Logger
}

// New compiles the spec's operations and verifies they cover the target
// schema exactly. Any failure here is a configuration error, raised before
// a single row is read.
func New(spec *config.Spec, opts Options) (*Processor, error) {
	ops, err := transform.CompileSpec(spec)
	if err != nil {
		return nil, err
	}
	return &Processor{
		spec:   spec,
		ops:    ops,
		opts:   opts,
		logger: logger.Get().With(zap.String("component", "processor")),
	}, nil
}

// Run pulls records from src until io.EOF, writing accepted rows to out
// and one diagnostic per rejected row to diag. Collaborator errors abort
// the run; operation errors never do. Rows are processed strictly in input
// order and no state carries between rows except the row counter.
func (p *Processor) Run(ctx context.Context, src stream.Source, out stream.Sink, diag stream.DiagnosticSink) (*Result, error) {
	timer := metrics.NewRunTimer()
	res := &Result{}

	for {
		if err := ctx.Err(); err != nil {
			timer.ObserveDuration()
			return res, errors.Wrap(err, errors.ErrorTypeInternal, "run canceled")
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			timer.ObserveDuration()
			return res, err
		}

		res.RowsRead++
		metrics.RowsRead.Inc()

		if err := p.processRow(rec, out, diag, res); err != nil {
			rec.Release()
			timer.ObserveDuration()
			return res, err
		}
		rec.Release()

		if p.opts.ProgressEvery > 0 && res.RowsRead%p.opts.ProgressEvery == 0 {
			p.logger.Info("progress",
				zap.Int64("rows", res.RowsRead),
				zap.Int64("accepted", res.Accepted),
				zap.Int64("rejected", res.Rejected))
			if p.opts.OnProgress != nil {
				p.opts.OnProgress(res.RowsRead)
			}
		}
	}

	res.Duration = timer.ObserveDuration()
	return res, nil
}

// processRow runs the operation chain for one record. The first operation
// failure short-circuits the row: exactly one diagnostic, no partial output.
func (p *Processor) processRow(rec *record.Record, out stream.Sink, diag stream.DiagnosticSink, res *Result) error {
	output := record.AcquireOutput(p.spec.TargetColumns)
	defer output.Release()

	for _, op := range p.ops {
		v, opErr := op.Apply(rec)
		if opErr != nil {
			res.Rejected++
			metrics.RowsRejected.WithLabelValues(opErr.TargetColumn).Inc()
			return diag.Write(&record.Diagnostic{
				RowNumber:    rec.Number,
				FailedColumn: opErr.TargetColumn,
				ErrorMessage: opErr.Message,
				Original:     rec,
			})
		}
		output.Set(op.TargetColumn(), v)
	}

	// Compilation guarantees coverage; this guards the emit invariant
	// anyway so a broken operation cannot leak a partial row.
	if !output.Complete() {
		return errors.Newf(errors.ErrorTypeInternal,
			"row %d produced an incomplete output record", rec.Number)
	}

	if err := out.Write(output); err != nil {
		return err
	}
	res.Accepted++
	metrics.RowsAccepted.Inc()
	return nil
}
