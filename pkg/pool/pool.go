// Package pool provides object pooling for reshape's row processing path.
// It offers type-safe recycling of records, maps, and scratch slices so that
// steady-state row throughput allocates close to nothing per row.
//
// The package provides:
//   - Generic type-safe object pooling with Pool[T]
//   - Pre-configured global pools for common types (Maps, Slices)
//   - Statistics for leak detection and tuning
//
// Example usage:
//
//	values := pool.GetValueMap()
//	defer pool.PutValueMap(values)
//
//	// Using custom pools
//	myPool := pool.New(
//	    func() *MyType { return &MyType{} },
//	    func(obj *MyType) { obj.Reset() },
//	)
//	obj := myPool.Get()
//	defer myPool.Put(obj)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with additional features like statistics tracking
// and automatic reset functionality. The pool is safe for concurrent use.
//
// Type parameter T can be any type, but pointer types are recommended
// for efficiency. The pool maintains statistics on allocations, usage,
// and hit/miss rates for monitoring and optimization.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		hits      int64
		misses    int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The new function is called when the pool is empty and a new object is needed.
// The reset function is called before returning an object to the pool, allowing
// for efficient cleanup and reuse.
//
// Example:
//
//	pool := New(
//	    func() *Buffer { return &Buffer{data: make([]byte, 0, 1024)} },
//	    func(b *Buffer) { b.data = b.data[:0] },
//	)
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   new,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		atomic.AddInt64(&p.stats.misses, 1)
		return new()
	}
	return p
}

// Get retrieves an object from the pool. If the pool is empty, it creates
// a new object using the factory function provided in New. The method is
// safe for concurrent use and updates pool statistics.
//
// The returned object should be returned to the pool using Put when no
// longer needed to enable reuse and reduce allocations.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	before := atomic.LoadInt64(&p.stats.misses)
	obj := p.pool.Get().(T)
	// A Get that did not trigger the allocation callback was served from
	// the pool. Approximate under concurrent misses; stats are advisory.
	if atomic.LoadInt64(&p.stats.misses) == before {
		atomic.AddInt64(&p.stats.hits, 1)
	}
	return obj
}

// Put returns an object to the pool for reuse. If a reset function was
// provided during pool creation, it is called to clean up the object
// before returning it to the pool. The method is safe for concurrent use.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns current pool statistics including allocation count,
// objects currently in use, cache hits, and cache misses. These metrics
// are useful for monitoring pool efficiency and detecting record leaks
// (a steadily growing inUse count means a Release call is missing).
func (p *Pool[T]) Stats() (allocated, inUse, hits, misses int64) {
	return atomic.LoadInt64(&p.stats.allocated),
		atomic.LoadInt64(&p.stats.inUse),
		atomic.LoadInt64(&p.stats.hits),
		atomic.LoadInt64(&p.stats.misses)
}

// Global pools shared by the stream drivers and the row processor.
var (
	// ValueMapPool provides pooling for the raw field maps carried by input
	// records. Maps are pre-allocated with capacity 16 and cleared on return.
	ValueMapPool = New(
		func() map[string]string {
			return make(map[string]string, 16)
		},
		func(m map[string]string) {
			for k := range m {
				delete(m, k)
			}
		},
	)

	// TypedMapPool provides pooling for the typed field maps carried by
	// output records.
	TypedMapPool = New(
		func() map[string]interface{} {
			return make(map[string]interface{}, 16)
		},
		func(m map[string]interface{}) {
			for k := range m {
				delete(m, k)
			}
		},
	)

	// StringSlicePool provides pooling for []string scratch slices used when
	// assembling rows for serialization. Slices are pre-allocated with
	// capacity 32 and reset to zero length on return.
	StringSlicePool = New(
		func() []string {
			return make([]string, 0, 32)
		},
		func(s []string) {
			for i := range s {
				s[i] = ""
			}
		},
	)

	// idBufferPool backs GenerateID.
	idBufferPool = New(
		func() []byte {
			return make([]byte, 0, 64)
		},
		func(b []byte) {
		},
	)
)

// idCounter provides atomic unique ID generation
var idCounter uint64

// GetValueMap retrieves a map[string]string from the global pool.
// The returned map is empty and ready for use.
func GetValueMap() map[string]string {
	return ValueMapPool.Get()
}

// PutValueMap returns a raw field map to the global pool for reuse.
// The map is automatically cleared before being pooled.
// This function is safe to call with nil maps.
func PutValueMap(m map[string]string) {
	if m != nil {
		ValueMapPool.Put(m)
	}
}

// GetTypedMap retrieves a map[string]interface{} from the global pool.
func GetTypedMap() map[string]interface{} {
	return TypedMapPool.Get()
}

// PutTypedMap returns a typed field map to the global pool for reuse.
// This function is safe to call with nil maps.
func PutTypedMap(m map[string]interface{}) {
	if m != nil {
		TypedMapPool.Put(m)
	}
}

// GetStringSlice retrieves a string slice from the global pool.
// The returned slice has zero length and capacity 32.
func GetStringSlice() []string {
	s := StringSlicePool.Get()
	return s[:0]
}

// PutStringSlice returns a string slice to the global pool for reuse.
// This function is safe to call with nil slices.
func PutStringSlice(s []string) {
	if s != nil {
		StringSlicePool.Put(s)
	}
}

// GenerateID generates a unique ID with the specified prefix using pooled
// buffers. The ID format is "prefix-number" where number is an atomic counter.
// This function is safe for concurrent use.
//
// Example:
//
//	id := pool.GenerateID("run")  // Returns "run-1", "run-2", etc.
func GenerateID(prefix string) string {
	buf := idBufferPool.Get()
	defer idBufferPool.Put(buf)
	buf = buf[:0]

	// Use atomic counter for uniqueness
	id := atomic.AddUint64(&idCounter, 1)

	buf = append(buf, prefix...)
	buf = append(buf, '-')
	buf = appendUint64(buf, id)

	return string(buf)
}

// appendUint64 efficiently appends uint64 to byte slice
func appendUint64(buf []byte, n uint64) []byte {
	if n == 0 {
		return append(buf, '0')
	}

	// Calculate digits
	temp := n
	digits := 0
	for temp > 0 {
		temp /= 10
		digits++
	}

	// Extend buffer
	start := len(buf)
	buf = buf[:start+digits]

	// Fill digits from right to left
	for i := digits - 1; i >= 0; i-- {
		buf[start+i] = byte('0' + n%10)
		n /= 10
	}

	return buf
}

// Stats represents pool statistics for monitoring and optimization.
type Stats struct {
	// Allocated is the total number of objects created by the pool
	Allocated int64
	// InUse is the current number of objects checked out from the pool
	InUse int64
	// Hits is the number of successful pool retrievals
	Hits int64
	// Misses is the number of times a new object had to be created
	Misses int64
}

// GetGlobalStats returns statistics for the global pools, keyed by pool name.
// Useful for spotting leaks at the end of a run: every pool's InUse should be
// back to zero once all records and buffers are released.
func GetGlobalStats() map[string]Stats {
	valueAlloc, valueInUse, valueHits, valueMisses := ValueMapPool.Stats()
	typedAlloc, typedInUse, typedHits, typedMisses := TypedMapPool.Stats()
	stringAlloc, stringInUse, stringHits, stringMisses := StringSlicePool.Stats()

	return map[string]Stats{
		"value_map": {
			Allocated: valueAlloc,
			InUse:     valueInUse,
			Hits:      valueHits,
			Misses:    valueMisses,
		},
		"typed_map": {
			Allocated: typedAlloc,
			InUse:     typedInUse,
			Hits:      typedHits,
			Misses:    typedMisses,
		},
		"string_slice": {
			Allocated: stringAlloc,
			InUse:     stringInUse,
			Hits:      stringHits,
			Misses:    stringMisses,
		},
	}
}
