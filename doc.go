// Package reshape reshapes tabular records: a declarative transformation
// spec is compiled once into per-field operations, then executed per row
// with error isolation so one bad row never aborts the run.
//
// # Architecture
//
// The engine is split into small packages with one concern each:
//
//   - pkg/config: the transformation spec document (target schema plus
//     ordered operation steps) and its structural validation.
//   - pkg/transform: the operation registry and the compiled field
//     operations; unknown kinds and malformed descriptors fail at compile
//     time, never at row time.
//   - pkg/coerce: typed parsing (strict integers, exact decimals with
//     locale-aware grouping, trimmed strings, strftime calendar dates).
//   - internal/pipeline: the per-row loop; the first failing operation
//     short-circuits the row into exactly one diagnostic.
//   - pkg/stream: source/sink contracts, with CSV, JSON Lines, and
//     PostgreSQL bulk-load drivers underneath.
//   - pkg/compression: transparent gzip/zstd/s2/lz4 file wrapping.
//
// # Quick Start
//
// Transform a CSV file with a spec document:
//
//	reshape run --config spec.json --input orders.csv \
//	    --output clean.csv --errors rejected.csv
//
// A run either completes having partitioned every input row into accepted
// and rejected streams (exit 0), or aborts before any row is processed on
// a configuration error (exit 1). I/O failures abort with exit 2.
package reshape
