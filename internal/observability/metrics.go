package observability

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every chatbook collector.
var Registry = prometheus.NewRegistry()

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbook_operations_total",
			Help: "Total number of chat service operations by outcome.",
		},
		[]string{"operation", "result"},
	)
	chatsGauge = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "chatbook_chats",
			Help: "Number of chats held in memory.",
		},
		func() float64 { return storeValue(StoreStats.ChatCount) },
	)
	messagesGauge = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "chatbook_messages",
			Help: "Number of messages held in memory.",
		},
		func() float64 { return storeValue(StoreStats.MessageCount) },
	)
	eventPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbook_event_publish_errors_total",
			Help: "Total number of chat event publish errors.",
		},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbook_http_requests_total",
			Help: "Total number of HTTP requests processed by the ops server.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbook_http_request_duration_seconds",
			Help:    "Ops server HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	Registry.MustRegister(
		operationsTotal,
		chatsGauge,
		messagesGauge,
		eventPublishErrorsTotal,
		httpRequestsTotal,
		httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func ObserveOperation(operation, result string) {
	operationsTotal.WithLabelValues(operation, result).Inc()
}

// StoreStats is the read-only view of a chat store.
type StoreStats interface {
	ChatCount() int
	MessageCount() int
}

type storeSource struct {
	stats StoreStats
}

var exportedStore atomic.Pointer[storeSource]

// ExportStoreSize makes the chatbook_chats and chatbook_messages gauges report
// stats, read at scrape time. Only one store is exported per process; other
// stores in the same process do not affect the gauges. nil stops the export.
func ExportStoreSize(stats StoreStats) {
	if stats == nil {
		exportedStore.Store(nil)
		return
	}
	exportedStore.Store(&storeSource{stats: stats})
}

func storeValue(read func(StoreStats) int) float64 {
	src := exportedStore.Load()
	if src == nil {
		return 0
	}
	return float64(read(src.stats))
}

func IncEventPublishError() {
	eventPublishErrorsTotal.Inc()
}
