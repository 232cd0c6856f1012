package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pokedex"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "store_errors_total",
		Help:      "Failed record store operations.",
	}, []string{"operation"})
)

// Metrics records request count, latency and in-flight requests. Routes are
// labelled by their template so /pokemons/:id stays one series. A panicking
// handler is counted as a 500 and the panic is passed on to Recovery.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()

		defer func() {
			status := c.Writer.Status()
			recovered := recover()
			if recovered != nil {
				status = http.StatusInternalServerError
			}

			httpInFlight.Dec()
			path := c.FullPath()
			if path == "" {
				path = "unmatched"
			}
			httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())

			if recovered != nil {
				panic(recovered)
			}
		}()

		c.Next()
	}
}
