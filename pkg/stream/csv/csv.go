// Package csv implements the primary stream drivers: a header-driven record
// source and the accepted/diagnostic row sinks. The diagnostic file layout
// is fixed: row_number, error_message, failed_column, then one original_<c>
// column per input header in input order.
package csv

import (
	stdcsv "encoding/csv"
	"io"

	"github.com/ajitpratap0/reshape/pkg/coerce"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/pool"
	"github.com/ajitpratap0/reshape/pkg/record"
)

// Source reads one record per CSV data row. The header row defines the
// ordered source schema; ragged rows are collaborator errors that abort
// the run.
type Source struct {
	reader  *stdcsv.Reader
	columns []string
	rows    int64
}

// NewSource wraps a reader and consumes the header row. An empty input or
// an unreadable header is a file error.
func NewSource(r io.Reader) (*Source, error) {
	cr := stdcsv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeFile, "input has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input header")
	}

	columns := make([]string, len(header))
	copy(columns, header)
	return &Source{reader: cr, columns: columns}, nil
}

// Columns returns the header fields in input order.
func (s *Source) Columns() []string { return s.columns }

// Next returns the next data row as a record, or io.EOF at end of input.
func (s *Source) Next() (*record.Record, error) {
	row, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "malformed input row").
			WithDetail("row", s.rows+1)
	}

	s.rows++
	rec := record.Acquire(s.columns)
	rec.Number = s.rows
	for i, col := range s.columns {
		rec.Set(col, row[i])
	}
	return rec, nil
}

// Close is a no-op; the caller owns the underlying reader.
func (s *Source) Close() error { return nil }

// Sink writes accepted rows in target-column order, header first.
type Sink struct {
	writer  *stdcsv.Writer
	columns []string
}

// NewSink wraps a writer and emits the target schema header immediately.
func NewSink(w io.Writer, targetColumns []string) (*Sink, error) {
	cw := stdcsv.NewWriter(w)
	if err := cw.Write(targetColumns); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write output header")
	}
	return &Sink{writer: cw, columns: targetColumns}, nil
}

// Write serializes one accepted row in target-column order.
func (s *Sink) Write(out *record.Output) error {
	row := pool.GetStringSlice()
	defer pool.PutStringSlice(row)

	for _, col := range s.columns {
		v, _ := out.Value(col)
		row = append(row, coerce.Format(v))
	}
	if err := s.writer.Write(row); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write output row")
	}
	return nil
}

// Close flushes buffered rows.
func (s *Sink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output")
	}
	return nil
}

// DiagnosticSink writes one row per rejected record.
type DiagnosticSink struct {
	writer        *stdcsv.Writer
	sourceColumns []string
	headerWritten bool
}

// NewDiagnosticSink wraps a writer for the given input schema. A nil schema
// means the source does not know its columns up front (JSON Lines input);
// the first diagnostic's record supplies them instead, so the header is
// deferred until the first Write, or Close for a run with no rejects.
func NewDiagnosticSink(w io.Writer, sourceColumns []string) (*DiagnosticSink, error) {
	s := &DiagnosticSink{writer: stdcsv.NewWriter(w), sourceColumns: sourceColumns}
	if sourceColumns != nil {
		if err := s.writeHeader(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *DiagnosticSink) writeHeader() error {
	header := pool.GetStringSlice()
	defer pool.PutStringSlice(header)

	header = append(header, "row_number", "error_message", "failed_column")
	for _, col := range s.sourceColumns {
		header = append(header, "original_"+col)
	}
	if err := s.writer.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write diagnostics header")
	}
	s.headerWritten = true
	return nil
}

// Write serializes one diagnostic with the original source fields echoed
// back in input order.
func (s *DiagnosticSink) Write(d *record.Diagnostic) error {
	if !s.headerWritten {
		if s.sourceColumns == nil && d.Original != nil {
			cols := d.Original.Columns()
			s.sourceColumns = make([]string, len(cols))
			copy(s.sourceColumns, cols)
		}
		if err := s.writeHeader(); err != nil {
			return err
		}
	}

	row := pool.GetStringSlice()
	defer pool.PutStringSlice(row)

	row = append(row, coerce.Format(d.RowNumber), d.ErrorMessage, d.FailedColumn)
	for _, col := range s.sourceColumns {
		v, _ := d.Original.Get(col)
		row = append(row, v)
	}
	if err := s.writer.Write(row); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write diagnostic row")
	}
	return nil
}

// Close flushes buffered diagnostics, writing the header first when no
// diagnostic ever did.
func (s *DiagnosticSink) Close() error {
	if !s.headerWritten {
		if err := s.writeHeader(); err != nil {
			return err
		}
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush diagnostics")
	}
	return nil
}
