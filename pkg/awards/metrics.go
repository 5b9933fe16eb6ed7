package awards

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolutionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dramatis",
		Subsystem: "awards",
		Name:      "resolution_seconds",
		Help:      "Latency of award exposure resolution broken down by view and result.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5,
		},
	}, []string{"view", "result"})

	resolvedNominations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dramatis",
		Subsystem: "awards",
		Name:      "nominations_total",
		Help:      "Total number of nominations attributed to a subject broken down by view.",
	}, []string{"view"})
)

func recordResolution(view View, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	resolutionLatency.WithLabelValues(string(view), result).Observe(time.Since(start).Seconds())
}

func recordNominations(view View, n int) {
	if n == 0 {
		return
	}
	resolvedNominations.WithLabelValues(string(view)).Add(float64(n))
}
