// Package metrics holds the pipeline's prometheus instrumentation.
//
// The entry points are one-shot batch processes, so metrics are delivered by
// pushing to a gateway after the run rather than being scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// CacheHits counts attendance windows served from the local cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_cache_hits_total",
		Help: "Attendance windows served from cache without a remote fetch.",
	})

	// CacheMisses counts windows that required a remote fetch.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_cache_misses_total",
		Help: "Attendance windows that fell through to the SEQTA endpoint.",
	})

	// FetchDuration observes how long the remote fetch takes; the endpoint
	// regularly needs tens of seconds for a full window.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_fetch_duration_seconds",
		Help:    "Duration of SEQTA attendance fetches.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// WorklistRows records the size of the last reconciled worklist.
	WorklistRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attendance_worklist_rows",
		Help: "Rows in the most recent reconciled absence worklist.",
	})
)

// Push publishes the default registry to a push gateway under the given job
// name. Callers treat failures as non-fatal; a lost sample never outweighs a
// completed run.
func Push(gatewayURL, job string) error {
	return push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).Push()
}
