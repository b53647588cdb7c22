package metrics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// kind: like | follow, result: created | deleted | noop
	SocialToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_toggles_total",
			Help: "Total number of like/follow toggles by outcome",
		},
		[]string{"kind", "result"},
	)

	// action: create | update | delete | comment
	SocialPosts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_posts_total",
			Help: "Total number of post and comment writes",
		},
		[]string{"action"},
	)
)

// Register adds all collectors to reg. Pass prometheus.DefaultRegisterer in
// production; tests use a fresh registry.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		HttpRequestsTotal,
		HttpRequestDuration,
		ActiveConnections,
		SocialToggles,
		SocialPosts,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Middleware records request count, duration and in-flight requests.
// The route template (e.g. /post/:id/) is used as the path label to keep
// cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "/metrics" {
			// Skip collecting metrics from metrics endpoint itself
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}

		timer := prometheus.NewTimer(HttpRequestDuration.WithLabelValues(path))
		ActiveConnections.Inc()

		defer func() {
			status := c.Writer.Status()
			rec := recover()
			if rec != nil {
				// the outer recovery renders the 500 after we unwind
				status = http.StatusInternalServerError
			}
			timer.ObserveDuration()
			ActiveConnections.Dec()
			HttpRequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(status)).Inc()
			if rec != nil {
				panic(rec)
			}
		}()

		c.Next()
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
