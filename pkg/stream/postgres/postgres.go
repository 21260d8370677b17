// Package postgres implements a bulk-load destination for accepted rows
// using the CopyFrom protocol. The copy callback is injected so the sink is
// testable without a live server; Connect wires it to a real connection.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/record"
)

// DefaultBatchSize is the number of rows buffered per CopyFrom call.
const DefaultBatchSize = 1000

// CopyFunc is the CopyFrom capability the sink needs from a connection.
// *pgx.Conn and pgxpool.Pool both satisfy it.
type CopyFunc func(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)

// Sink buffers accepted rows and bulk-loads them in batches. The target
// table's column list is the target schema; values are converted to their
// driver-native forms (int64, string for decimals, time.Time for dates).
type Sink struct {
	ctx       context.Context
	copyFrom  CopyFunc
	table     pgx.Identifier
	columns   []string
	batchSize int
	batch     [][]interface{}
	copied    int64
}

// NewSink creates a bulk-load sink. A batchSize of zero or less uses
// DefaultBatchSize. The table name may be schema-qualified ("public.orders").
func NewSink(ctx context.Context, copyFrom CopyFunc, table string, targetColumns []string, batchSize int) *Sink {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Sink{
		ctx:       ctx,
		copyFrom:  copyFrom,
		table:     tableIdentifier(table),
		columns:   targetColumns,
		batchSize: batchSize,
		batch:     make([][]interface{}, 0, batchSize),
	}
}

// Connect opens a connection and returns a sink bound to its CopyFrom,
// plus the connection closer for the caller to defer.
func Connect(ctx context.Context, dsn, table string, targetColumns []string, batchSize int) (*Sink, func() error, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to postgres")
	}
	closer := func() error { return conn.Close(ctx) }
	return NewSink(ctx, conn.CopyFrom, table, targetColumns, batchSize), closer, nil
}

// Write buffers one accepted row, flushing when the batch is full.
func (s *Sink) Write(out *record.Output) error {
	row := make([]interface{}, len(s.columns))
	for i, col := range s.columns {
		v, _ := out.Value(col)
		row[i] = driverValue(v)
	}
	s.batch = append(s.batch, row)

	if len(s.batch) >= s.batchSize {
		return s.flush()
	}
	return nil
}

// Close flushes the remaining partial batch. It does not close the
// underlying connection; that belongs to whoever opened it.
func (s *Sink) Close() error {
	return s.flush()
}

// Copied returns the number of rows loaded so far.
func (s *Sink) Copied() int64 { return s.copied }

func (s *Sink) flush() error {
	if len(s.batch) == 0 {
		return nil
	}
	n, err := s.copyFrom(s.ctx, s.table, s.columns, pgx.CopyFromRows(s.batch))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "bulk load failed").
			WithDetail("table", s.table.Sanitize()).
			WithDetail("rows", len(s.batch))
	}
	s.copied += n
	s.batch = s.batch[:0]
	return nil
}

// driverValue converts an engine-typed value to what the driver encodes
// best. Decimals go as their exact string form so numeric columns keep
// full precision.
func driverValue(v interface{}) interface{} {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t
	default:
		return v
	}
}

// tableIdentifier splits an optionally schema-qualified name into a pgx
// identifier.
func tableIdentifier(table string) pgx.Identifier {
	var parts []string
	start := 0
	for i := 0; i < len(table); i++ {
		if table[i] == '.' {
			parts = append(parts, table[start:i])
			start = i + 1
		}
	}
	parts = append(parts, table[start:])
	return pgx.Identifier(parts)
}
