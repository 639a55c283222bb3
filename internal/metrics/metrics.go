// Package metrics holds the Prometheus collectors for docqa.
// Collectors are registered on a private registry exposed by Handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docqa"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Registry is the registry every docqa collector is registered on.
var Registry = prometheus.NewRegistry()

var (
	answers = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers produced, by the cascade tier that produced them",
		},
		[]string{"tier"},
	)

	llmLatency = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Language model call latency",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"model"},
	)

	llmFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "failures_total",
			Help:      "Language model calls that failed, by reason",
		},
		[]string{"model", "reason"},
	)

	searchLatency = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Semantic search latency including query fan-out",
			Buckets:   prometheus.DefBuckets,
		},
	)

	vectorOps = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vector",
			Name:      "operations_total",
			Help:      "Vector store operations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
)

// RecordAnswer counts an answer produced by tier.
func RecordAnswer(tier string) {
	answers.WithLabelValues(tier).Inc()
}

// ObserveLLM records the latency of a model call.
func ObserveLLM(model string, d time.Duration) {
	llmLatency.WithLabelValues(model).Observe(d.Seconds())
}

// RecordLLMFailure counts a failed model call.
func RecordLLMFailure(model, reason string) {
	llmFailures.WithLabelValues(model, reason).Inc()
}

// ObserveSearch records the latency of a search.
func ObserveSearch(d time.Duration) {
	searchLatency.Observe(d.Seconds())
}

// RecordVectorOp counts a vector store operation.
func RecordVectorOp(op string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	vectorOps.WithLabelValues(op, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
