package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics holds prometheus instruments for the HTTP surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP instruments on the default registry.
func NewHTTPMetrics() *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "homewatt_http_requests_total",
		Help: "Total HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homewatt_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "homewatt_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})

	prometheus.MustRegister(requests, duration, inflight)

	return &HTTPMetrics{
		requests: requests,
		duration: duration,
		inflight: inflight,
	}
}

// GinMiddleware records request counts, latency and in-flight gauge.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		m.inflight.Inc()
		c.Next()
		m.inflight.Dec()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.requests.WithLabelValues(route, method, status).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
