// Package jsonl implements JSON Lines stream drivers: one JSON object per
// line. The source preserves the document's member order as the record's
// column order; sinks emit members in target-column order with typed values
// (integers and decimals as JSON numbers, dates as YYYY-MM-DD strings).
package jsonl

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/reshape/pkg/coerce"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/record"
)

// Source reads one record per non-blank line. Nested objects and arrays
// are collaborator errors; scalar values keep their literal text form and
// null becomes the empty string.
type Source struct {
	scanner *bufio.Scanner
	columns []string
	rows    int64
}

// NewSource wraps a reader. Unlike the CSV driver there is no header, so
// Columns is empty until the first record is read; the first record's
// member order defines the reported source schema.
func NewSource(r io.Reader) *Source {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Source{scanner: sc}
}

// Columns returns the member names of the first record read, in document
// order.
func (s *Source) Columns() []string { return s.columns }

// Next returns the next record, or io.EOF when input is exhausted.
func (s *Source) Next() (*record.Record, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		columns, values, err := parseObject(line)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "malformed input line").
				WithDetail("row", s.rows+1)
		}

		s.rows++
		if s.columns == nil {
			s.columns = columns
		}
		rec := record.Acquire(columns)
		rec.Number = s.rows
		for i, col := range columns {
			rec.Set(col, values[i])
		}
		return rec, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input")
	}
	return nil, io.EOF
}

// Close is a no-op; the caller owns the underlying reader.
func (s *Source) Close() error { return nil }

// parseObject walks one JSON object token by token so member order
// survives; a plain Unmarshal into a map would lose it.
func parseObject(line []byte) ([]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New(errors.ErrorTypeData, "line is not a JSON object")
	}

	var columns, values []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		var raw string
		switch v := valTok.(type) {
		case string:
			raw = v
		case json.Number:
			raw = v.String()
		case bool:
			raw = strconv.FormatBool(v)
		case nil:
			raw = ""
		case json.Delim:
			return nil, nil, errors.Newf(errors.ErrorTypeData, "member %q is not a scalar", key)
		default:
			return nil, nil, errors.Newf(errors.ErrorTypeData, "member %q has unsupported value", key)
		}

		columns = append(columns, key)
		values = append(values, raw)
	}
	return columns, values, nil
}

// Sink writes one JSON object per accepted row, members in target-column
// order.
type Sink struct {
	writer  *bufio.Writer
	columns []string
	buf     bytes.Buffer
}

// NewSink wraps a writer for the given target schema.
func NewSink(w io.Writer, targetColumns []string) *Sink {
	return &Sink{writer: bufio.NewWriter(w), columns: targetColumns}
}

// Write serializes one accepted row.
func (s *Sink) Write(out *record.Output) error {
	s.buf.Reset()
	s.buf.WriteByte('{')
	for i, col := range s.columns {
		if i > 0 {
			s.buf.WriteByte(',')
		}
		if err := writeMember(&s.buf, col, func(b *bytes.Buffer) error {
			v, _ := out.Value(col)
			return writeValue(b, v)
		}); err != nil {
			return err
		}
	}
	s.buf.WriteString("}\n")

	if _, err := s.writer.Write(s.buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write output row")
	}
	return nil
}

// Close flushes buffered rows.
func (s *Sink) Close() error {
	if err := s.writer.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output")
	}
	return nil
}

// DiagnosticSink mirrors the CSV diagnostic layout as JSON members:
// row_number, error_message, failed_column, then original_<c> per input
// column in input order.
type DiagnosticSink struct {
	writer        *bufio.Writer
	sourceColumns []string
	buf           bytes.Buffer
}

// NewDiagnosticSink wraps a writer for the given input schema.
func NewDiagnosticSink(w io.Writer, sourceColumns []string) *DiagnosticSink {
	return &DiagnosticSink{writer: bufio.NewWriter(w), sourceColumns: sourceColumns}
}

// Write serializes one diagnostic.
func (s *DiagnosticSink) Write(d *record.Diagnostic) error {
	s.buf.Reset()
	s.buf.WriteByte('{')
	s.buf.WriteString(`"row_number":`)
	s.buf.WriteString(strconv.FormatInt(d.RowNumber, 10))
	s.buf.WriteByte(',')
	if err := writeMember(&s.buf, "error_message", func(b *bytes.Buffer) error {
		return writeString(b, d.ErrorMessage)
	}); err != nil {
		return err
	}
	s.buf.WriteByte(',')
	if err := writeMember(&s.buf, "failed_column", func(b *bytes.Buffer) error {
		return writeString(b, d.FailedColumn)
	}); err != nil {
		return err
	}
	columns := s.sourceColumns
	if columns == nil && d.Original != nil {
		columns = d.Original.Columns()
	}
	for _, col := range columns {
		s.buf.WriteByte(',')
		if err := writeMember(&s.buf, "original_"+col, func(b *bytes.Buffer) error {
			v, _ := d.Original.Get(col)
			return writeString(b, v)
		}); err != nil {
			return err
		}
	}
	s.buf.WriteString("}\n")

	if _, err := s.writer.Write(s.buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write diagnostic row")
	}
	return nil
}

// Close flushes buffered diagnostics.
func (s *DiagnosticSink) Close() error {
	if err := s.writer.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush diagnostics")
	}
	return nil
}

func writeMember(b *bytes.Buffer, key string, value func(*bytes.Buffer) error) error {
	if err := writeString(b, key); err != nil {
		return err
	}
	b.WriteByte(':')
	return value(b)
}

func writeString(b *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode string")
	}
	b.Write(data)
	return nil
}

// writeValue renders a typed value: integers and decimals as JSON numbers,
// dates as YYYY-MM-DD strings, everything else as a JSON string.
func writeValue(b *bytes.Buffer, v interface{}) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
		return nil
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
		return nil
	case decimal.Decimal:
		b.WriteString(t.String())
		return nil
	case time.Time:
		b.WriteByte('"')
		b.WriteString(t.Format(coerce.DateLayout))
		b.WriteByte('"')
		return nil
	case string:
		return writeString(b, t)
	default:
		return writeString(b, coerce.Format(t))
	}
}
