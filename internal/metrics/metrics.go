package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polyring",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "polyring",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})

	// Geometry metrics
	PolylinesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polyring",
		Subsystem: "polyline",
		Name:      "decoded_total",
		Help:      "Encoded polylines decoded successfully",
	})

	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polyring",
		Subsystem: "polyline",
		Name:      "decode_failures_total",
		Help:      "Encoded polylines rejected as malformed",
	})

	VertexMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polyring",
		Subsystem: "polygon",
		Name:      "vertex_mutations_total",
		Help:      "Vertex insertions and deletions applied",
	}, []string{"op"})

	PolygonsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "polyring",
		Subsystem: "polygon",
		Name:      "stored",
		Help:      "Polygons currently held in memory",
	})

	FlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "polyring",
		Subsystem: "persistence",
		Name:      "flush_duration_seconds",
		Help:      "Duration of cache and store flushes",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"target"})
)

// Middleware records request count and latency per route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
