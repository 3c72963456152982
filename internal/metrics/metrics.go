// Package metrics owns the Prometheus collectors of the ingestion pipeline
// and the HTTP API.
//
// Registers:
//
//	#b3cotahist_lines_decoded_total
//	#b3cotahist_records_kept_total
//	#b3cotahist_batches_total{result}
//	#b3cotahist_rows_loaded_total
//	#b3cotahist_http_request_duration_seconds{method,route,status}
//	#go_* and process_* system metrics
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "b3cotahist"

var (
	once     sync.Once
	registry = prometheus.NewRegistry()

	linesDecoded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lines_decoded_total",
		Help:      "Data lines decoded from COTAHIST files",
	})
	recordsKept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_kept_total",
		Help:      "Decoded records accepted by the round-lot share filter",
	})
	batches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_total",
		Help:      "Loader batches by result (committed or failed)",
	}, []string{"result"})
	rowsLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_loaded_total",
		Help:      "Rows committed to stock_data",
	})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Init registers every collector once. Safe to call repeatedly.
func Init() {
	once.Do(func() {
		registry.MustRegister(
			linesDecoded,
			recordsKept,
			batches,
			rowsLoaded,
			httpDuration,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Decoded adds n decoded lines.
func Decoded(n int) { linesDecoded.Add(float64(n)) }

// Kept adds n filtered records.
func Kept(n int) { recordsKept.Add(float64(n)) }

// BatchCommitted records a committed loader batch of rows rows.
func BatchCommitted(rows int) {
	batches.WithLabelValues("committed").Inc()
	rowsLoaded.Add(float64(rows))
}

// BatchFailed records a rolled back loader batch.
func BatchFailed() { batches.WithLabelValues("failed").Inc() }

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
