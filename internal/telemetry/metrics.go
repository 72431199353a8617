// Package telemetry exports engine and HTTP timings as Prometheus metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gobasket/ports"
)

// Collector holds all Prometheus metrics for the application. Each collector
// owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Engine metrics
	Queries         *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	MiningRuns      *prometheus.CounterVec
	MiningDuration  *prometheus.HistogramVec
	MinedRules      *prometheus.GaugeVec
	MinedItemsets   *prometheus.GaugeVec
	Transactions    prometheus.Gauge
	SessionDuration prometheus.Gauge
}

var _ ports.AnalysisObserver = (*Collector)(nil)

// NewCollector creates a collector with the given namespace
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of analysis queries by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Analysis query duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"kind"},
		),
		MiningRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mining_runs_total",
				Help:      "Total number of frequent itemset mining runs",
			},
			[]string{"dimension", "status"},
		),
		MiningDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mining_duration_seconds",
				Help:      "Frequent itemset mining duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"dimension"},
		),
		MinedRules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mined_rules",
				Help:      "Rules produced by the latest mining run",
			},
			[]string{"dimension"},
		),
		MinedItemsets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mined_itemsets",
				Help:      "Frequent itemsets found by the latest mining run",
			},
			[]string{"dimension"},
		),
		Transactions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "session_transactions",
				Help:      "Distinct transactions in the active analysis session",
			},
		),
		SessionDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "session_build_seconds",
				Help:      "Time spent indexing the active analysis session",
			},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.Queries,
		c.QueryDuration,
		c.MiningRuns,
		c.MiningDuration,
		c.MinedRules,
		c.MinedItemsets,
		c.Transactions,
		c.SessionDuration,
	)
	return c
}

// Registry returns the registry backing the collector
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveQuery(kind string, duration time.Duration, err error) {
	c.Queries.WithLabelValues(kind, status(err)).Inc()
	c.QueryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (c *Collector) ObserveMining(dimension string, duration time.Duration, itemsets, rules int, err error) {
	c.MiningRuns.WithLabelValues(dimension, status(err)).Inc()
	c.MiningDuration.WithLabelValues(dimension).Observe(duration.Seconds())
	if err == nil {
		c.MinedItemsets.WithLabelValues(dimension).Set(float64(itemsets))
		c.MinedRules.WithLabelValues(dimension).Set(float64(rules))
	}
}

func (c *Collector) ObserveSession(transactions int, duration time.Duration) {
	c.Transactions.Set(float64(transactions))
	c.SessionDuration.Set(duration.Seconds())
}

// GinMiddleware records request counts and latencies by route template
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
