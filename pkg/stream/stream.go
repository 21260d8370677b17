// Package stream defines the boundary between the transformation engine and
// its I/O collaborators: a forward-only record source, an accepted-row sink,
// and a diagnostic sink. Drivers own decoding and serialization; the engine
// never opens or closes files itself. Concrete drivers live in the csv,
// jsonl, and postgres subpackages.
package stream

import (
	"github.com/ajitpratap0/reshape/pkg/record"
)

// Source supplies input records one at a time, in input order. It is
// forward-only: the engine never rewinds or peeks ahead.
type Source interface {
	// Columns returns the source column names in input order, known as
	// soon as the source is constructed (e.g. from a CSV header).
	Columns() []string

	// Next returns the next record, or io.EOF when the stream is
	// exhausted. Any other error is a collaborator failure and aborts
	// the run. Ownership of the returned record passes to the caller.
	Next() (*record.Record, error)

	// Close releases the source's resources.
	Close() error
}

// Sink consumes accepted output records. Write does not take ownership;
// the caller releases the record after Write returns.
type Sink interface {
	Write(out *record.Output) error

	// Close flushes and releases the sink's resources. A run's output is
	// not durable until Close returns nil.
	Close() error
}

// DiagnosticSink consumes one Diagnostic per rejected row, in row order.
// Write does not take ownership of the diagnostic's original record.
type DiagnosticSink interface {
	Write(d *record.Diagnostic) error
	Close() error
}

// Discard is a DiagnosticSink that drops diagnostics, used when no error
// output is configured. Rejected rows are still counted by the processor.
type Discard struct{}

func (Discard) Write(*record.Diagnostic) error { return nil }
func (Discard) Close() error                   { return nil }
