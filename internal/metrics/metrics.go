package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "aisearch"

var (
	// SearchesTotal counts pipeline calls by outcome ("ok" or an error kind)
	SearchesTotal *prometheus.CounterVec

	// UpstreamRequestsTotal counts provider calls by provider and outcome
	UpstreamRequestsTotal *prometheus.CounterVec

	// UpstreamDuration observes provider call latency
	UpstreamDuration *prometheus.HistogramVec

	// ClassificationsTotal counts classifier results, fallback="true" when the default was used
	ClassificationsTotal *prometheus.CounterVec

	// SummariesTotal counts synthesis outcomes: "ok", "skipped" or "failed"
	SummariesTotal *prometheus.CounterVec

	// Registry holds every collector above; served at /metrics
	Registry = prometheus.NewRegistry()
)

func init() {
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of pipeline searches",
		},
		[]string{"outcome"},
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total upstream provider requests",
		},
		[]string{"provider", "outcome"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "duration_seconds",
			Help:      "Upstream provider request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider"},
	)

	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total query classifications",
		},
		[]string{"search_type", "fallback"},
	)

	SummariesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Total summary synthesis attempts",
		},
		[]string{"outcome"},
	)

	Registry.MustRegister(
		SearchesTotal,
		UpstreamRequestsTotal,
		UpstreamDuration,
		ClassificationsTotal,
		SummariesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveUpstream records one provider call
func ObserveUpstream(provider, outcome string, elapsed time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(provider, outcome).Inc()
	UpstreamDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}
