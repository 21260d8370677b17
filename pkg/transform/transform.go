// Package transform compiles declarative operation descriptors into
// executable field operations. Compilation happens once at spec-load time;
// per-row execution is a direct interface call with no re-parsing of
// configuration. Unknown kinds, missing descriptor fields, and malformed
// fixed-value literals are configuration errors raised before any row runs.
package transform

import (
	"fmt"

	"github.com/ajitpratap0/reshape/pkg/record"
)

// FieldOperation is one compiled unit of work: given an input record it
// produces the typed value for its target column, or an OperationError.
// Implementations are immutable after compilation and safe to share
// read-only across an entire run.
type FieldOperation interface {
	// TargetColumn returns the output column this operation writes.
	TargetColumn() string

	// Apply reads from the input record and returns the typed value for
	// the target column. The returned value is one of int64,
	// decimal.Decimal, string, or time.Time. Apply never mutates the
	// input record.
	Apply(r *record.Record) (interface{}, *OperationError)
}

// OperationError reports one field operation failing for one row. It is a
// plain two-field struct on the hot path, converted by the row processor
// into a Diagnostic; it is never propagated as a wrapped error chain.
type OperationError struct {
	TargetColumn string
	Message      string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.TargetColumn, e.Message)
}

// opError builds the per-row failure for a target column.
func opError(targetColumn, format string, args ...interface{}) *OperationError {
	return &OperationError{
		TargetColumn: targetColumn,
		Message:      fmt.Sprintf(format, args...),
	}
}

// missingColumn is the shared failure for a source column absent from the
// input record.
func missingColumn(targetColumn, sourceColumn string) *OperationError {
	return opError(targetColumn, "missing source column '%s'", sourceColumn)
}

// parseFailure wraps a coercion error into the row-level message format:
// "<reason> parsing '<raw>' as <target_type>".
func parseFailure(targetColumn string, reason error, raw, targetType string) *OperationError {
	return opError(targetColumn, "%v parsing '%s' as %s", reason, raw, targetType)
}
