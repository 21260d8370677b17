// Package metrics provides run observability for reshape using Prometheus
// collectors: row counters, rejection counts by failed column, run duration,
// and an active-run gauge.
//
// Metrics are registered automatically via promauto. Short CLI runs simply
// increment them; long runs can expose them with Serve and --metrics-listen.
//
//	metrics.RowsRead.Inc()
//	metrics.RowsRejected.WithLabelValues("OrderDate").Inc()
//
//	timer := metrics.NewRunTimer()
//	defer timer.ObserveDuration()
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajitpratap0/reshape/pkg/errors"
)

var (
	// RowsRead counts every record pulled from the input source.
	RowsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reshape_rows_read_total",
			Help: "Total number of input rows read",
		},
	)

	// RowsAccepted counts rows that passed every field operation.
	RowsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reshape_rows_accepted_total",
			Help: "Total number of rows written to the accepted output",
		},
	)

	// RowsRejected counts rows excluded by an operation failure, labeled
	// by the target column whose operation failed first.
	RowsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reshape_rows_rejected_total",
			Help: "Total number of rows rejected with a diagnostic",
		},
		[]string{"failed_column"},
	)

	// RunDuration tracks whole-run wall time in seconds.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reshape_run_duration_seconds",
			Help:    "Duration of transformation runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	// ActiveRuns tracks runs currently in flight.
	ActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reshape_active_runs",
			Help: "Number of transformation runs in progress",
		},
	)
)

// RunTimer observes a run's duration and its active-run window.
type RunTimer struct {
	start time.Time
}

// NewRunTimer marks a run as active and starts timing.
func NewRunTimer() *RunTimer {
	ActiveRuns.Inc()
	return &RunTimer{start: time.Now()}
}

// ObserveDuration records the elapsed run time, marks the run inactive,
// and returns the duration.
func (t *RunTimer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	RunDuration.Observe(d.Seconds())
	ActiveRuns.Dec()
	return d
}

// Serve exposes /metrics on addr in a background goroutine. Intended for
// long runs; the listener dies with the process.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	ln := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- ln.ListenAndServe()
	}()

	// Give a bad address a moment to fail synchronously.
	select {
	case err := <-errCh:
		return errors.Wrap(err, errors.ErrorTypeConnection, "metrics listener failed").
			WithDetail("addr", addr)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}
