// Package metrics exposes pipeline, cache, job and HTTP measurements as
// Prometheus collectors.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"
)

const namespace = "clauseguard"

var (
	generationBuckets = []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120}
	jobBuckets        = []float64{1, 5, 10, 30, 60, 120, 300, 600}
	httpBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// Metrics holds every collector. It implements pipeline.Observer and
// cache.LookupObserver.
type Metrics struct {
	recommendations    *prometheus.CounterVec
	droppedClauses     prometheus.Counter
	truncatedPairs     prometheus.Counter
	generationTotal    *prometheus.CounterVec
	generationDuration prometheus.Histogram
	cacheLookups       *prometheus.CounterVec
	jobsTotal          *prometheus.CounterVec
	jobDuration        prometheus.Histogram
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

var _ pipeline.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with registerer. A nil
// registerer means prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations produced, by clause type and source.",
		}, []string{"clause_type", "source"}),
		droppedClauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_clauses_total",
			Help:      "Clauses dropped because no reference clause was available.",
		}),
		truncatedPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncated_pairs_total",
			Help:      "Matched clauses cut by the recommendation limit.",
		}),
		generationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_calls_total",
			Help:      "Batched generation calls, by outcome.",
		}, []string{"outcome"}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of batched generation calls.",
			Buckets:   generationBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_cache_lookups_total",
			Help:      "Reference cache lookups, by result.",
		}, []string{"result"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_jobs_total",
			Help:      "Finished analysis jobs, by status.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_job_duration_seconds",
			Help:      "Wall time of analysis jobs.",
			Buckets:   jobBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   httpBuckets,
		}, []string{"method", "route"}),
	}

	collectors := []prometheus.Collector{
		m.recommendations, m.droppedClauses, m.truncatedPairs,
		m.generationTotal, m.generationDuration, m.cacheLookups,
		m.jobsTotal, m.jobDuration, m.httpRequests, m.httpDuration,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) ObserveGeneration(outcome string, elapsed time.Duration) {
	m.generationTotal.WithLabelValues(outcome).Inc()
	if outcome != pipeline.OutcomeUnavailable {
		m.generationDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveRecommendation(clauseType models.ClauseType, source models.RecommendationSource) {
	m.recommendations.WithLabelValues(string(clauseType), string(source)).Inc()
}

func (m *Metrics) ObserveDropped(n int) {
	m.droppedClauses.Add(float64(n))
}

func (m *Metrics) ObserveTruncated(n int) {
	m.truncatedPairs.Add(float64(n))
}

// ObserveCacheLookup counts a reference cache hit or miss
func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveJob records a finished analysis job
func (m *Metrics) ObserveJob(status models.AnalysisJobStatus, elapsed time.Duration) {
	m.jobsTotal.WithLabelValues(string(status)).Inc()
	m.jobDuration.Observe(elapsed.Seconds())
}

// GinMiddleware records request counts and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
