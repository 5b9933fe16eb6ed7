package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dramatis_catalog_writes_total",
		Help: "Committed catalog writes by kind and action.",
	}, []string{"kind", "action"})

	rejectedWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dramatis_catalog_rejected_writes_total",
		Help: "Writes rejected by validation or graph consistency checks, by kind.",
	}, []string{"kind"})
)
