package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HistogramBuckets covers fast webhook handling up to slow platform calls (ms).
var HistogramBuckets = []float64{
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	750, 1000, 1500, 2000,
	3000, 5000, 7500, 10000, 15000, 30000, 60000,
}

// Metrics bundles the HTTP metrics and the subscription-lifecycle counters.
type Metrics struct {
	registry *prometheus.Registry

	reqCount    *prometheus.CounterVec
	reqDuration *prometheus.HistogramVec

	PaymentsCommitted    prometheus.Counter
	PaymentsDuplicate    prometheus.Counter
	SubscriptionsRevoked prometheus.Counter
	SweepFailures        prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
		}, []string{"code", "method", "route"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds, partitioned by route.",
			Buckets:   HistogramBuckets,
		}, []string{"route"}),
		PaymentsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: "payments",
			Name:      "committed_total",
			Help:      "Payment notifications that created or refreshed a subscription.",
		}),
		PaymentsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: "payments",
			Name:      "duplicate_total",
			Help:      "Replayed payment notifications short-circuited as already committed.",
		}),
		SubscriptionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: "sweeper",
			Name:      "revoked_total",
			Help:      "Expired subscriptions revoked and deleted by the sweeper.",
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: "sweeper",
			Name:      "revoke_failures_total",
			Help:      "Revocations skipped because the platform call failed.",
		}),
	}

	m.registry.MustRegister(
		m.reqCount, m.reqDuration,
		m.PaymentsCommitted, m.PaymentsDuplicate,
		m.SubscriptionsRevoked, m.SweepFailures,
	)
	return m
}

// GinMiddleware records request count and latency per registered route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.reqCount.WithLabelValues(strconv.Itoa(c.Writer.Status()), c.Request.Method, route).Inc()
		m.reqDuration.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// ListenAndServe exposes /metrics on a dedicated listener.
func (m *Metrics) ListenAndServe(addr string, log *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorw("metrics listener stopped", "addr", addr, "err", err)
		}
	}()
}

var Module = fx.Options(
	fx.Provide(New),
)
