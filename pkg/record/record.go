// Package record defines the row values that move through a transformation
// run: the raw input Record, the typed Output assembled per row, and the
// Diagnostic attached to a rejected row.
package record

import (
	"github.com/ajitpratap0/reshape/pkg/pool"
)

// Record is one input row: an ordered mapping from source field name to the
// raw text read by the stream driver. The column slice is shared with the
// driver's header and must not be modified. Records are never mutated once
// handed to the row processor.
type Record struct {
	// Number is the 1-based position of the row in the input stream.
	Number int64

	columns []string
	values  map[string]string
}

var recordPool = pool.New(
	func() *Record { return &Record{} },
	func(r *Record) {
		r.Number = 0
		r.columns = nil
		r.values = nil
	},
)

// Acquire returns a pooled Record bound to the given source columns.
// The caller owns the record until it is handed off downstream; whoever
// consumes it last calls Release.
func Acquire(columns []string) *Record {
	r := recordPool.Get()
	r.columns = columns
	r.values = pool.GetValueMap()
	return r
}

// New returns an unpooled Record, convenient for tests and library callers
// that do not want pool discipline. Release is still safe to call.
func New(columns []string, values map[string]string) *Record {
	return &Record{columns: columns, values: values}
}

// Release returns the record's resources to their pools.
func (r *Record) Release() {
	if r == nil {
		return
	}
	if r.values != nil {
		pool.PutValueMap(r.values)
		r.values = nil
	}
	r.columns = nil
	recordPool.Put(r)
}

// Set stores a raw field value. Only stream drivers call this, while the
// record is being built.
func (r *Record) Set(column, value string) {
	if r.values == nil {
		r.values = pool.GetValueMap()
	}
	r.values[column] = value
}

// Get returns the raw value for a source column and whether it is present.
func (r *Record) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the source column names in input order.
func (r *Record) Columns() []string {
	return r.columns
}

// Len returns the number of fields in the record.
func (r *Record) Len() int {
	return len(r.values)
}

// Output is one accepted row being assembled: target column name to typed
// value (int64, decimal.Decimal, string, or time.Time). Columns shares the
// spec's target schema slice and fixes serialization order.
type Output struct {
	columns []string
	values  map[string]interface{}
}

var outputPool = pool.New(
	func() *Output { return &Output{} },
	func(o *Output) {
		o.columns = nil
		o.values = nil
	},
)

// AcquireOutput returns a pooled Output bound to the target schema.
func AcquireOutput(columns []string) *Output {
	o := outputPool.Get()
	o.columns = columns
	o.values = pool.GetTypedMap()
	return o
}

// Release returns the output's resources to their pools.
func (o *Output) Release() {
	if o == nil {
		return
	}
	if o.values != nil {
		pool.PutTypedMap(o.values)
		o.values = nil
	}
	o.columns = nil
	outputPool.Put(o)
}

// Set stores a typed value for a target column.
func (o *Output) Set(column string, value interface{}) {
	if o.values == nil {
		o.values = pool.GetTypedMap()
	}
	o.values[column] = value
}

// Value returns the typed value for a target column and whether it is set.
func (o *Output) Value(column string) (interface{}, bool) {
	v, ok := o.values[column]
	return v, ok
}

// Columns returns the target column names in output order.
func (o *Output) Columns() []string {
	return o.columns
}

// Len returns the number of values set so far.
func (o *Output) Len() int {
	return len(o.values)
}

// Complete reports whether every target column has a value and no extra
// keys are present. The row processor checks this before emitting a row.
func (o *Output) Complete() bool {
	if len(o.values) != len(o.columns) {
		return false
	}
	for _, c := range o.columns {
		if _, ok := o.values[c]; !ok {
			return false
		}
	}
	return true
}

// Diagnostic describes why one row was rejected. Original keeps the
// unmodified source record so error sinks can echo the row back; ownership
// of the record passes to whoever consumes the diagnostic.
type Diagnostic struct {
	RowNumber    int64
	FailedColumn string
	ErrorMessage string
	Original     *Record
}
