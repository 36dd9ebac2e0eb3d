// Package metrics owns the Prometheus registry served on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blousecraft",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blousecraft",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blousecraft",
		Name:      "orders_created_total",
		Help:      "Orders booked.",
	})

	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blousecraft",
		Name:      "order_status_transitions_total",
		Help:      "Order status updates by target status.",
	}, []string{"status"})

	ReviewsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blousecraft",
		Name:      "reviews_created_total",
		Help:      "Reviews attached to delivered orders.",
	})

	NotificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blousecraft",
		Name:      "notifications_published_total",
		Help:      "Notification events handed to the event publisher, by outcome.",
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		HTTPRequests,
		HTTPDuration,
		OrdersCreated,
		OrderTransitions,
		ReviewsCreated,
		NotificationsPublished,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
