package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dramatis",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of API requests broken down by route and result.",
	}, []string{"method", "route", "result"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dramatis",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latency distribution for API requests.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10,
		},
	}, []string{"method", "route", "result"})
)

// Metrics records request counts and latency by matched route, so ids in
// the path do not blow up label cardinality.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		result := ResultOf(status)
		apiRequests.WithLabelValues(c.Request().Method, route, result).Inc()
		apiLatency.WithLabelValues(c.Request().Method, route, result).Observe(time.Since(start).Seconds())
		return err
	}
}

// ResultOf buckets a status code into the result label.
func ResultOf(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status == 422 || status == 409:
		return "invalid"
	case status == 404:
		return "not_found"
	case status >= 400:
		return "rejected"
	case status >= 200:
		return "ok"
	}
	return "unknown"
}
