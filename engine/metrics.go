package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "catlog"
	subsystem = "engine"
)

var (
	// RecordsTotal counts record deliveries by result: written, suppressed, failed.
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_total",
			Help:      "Log records by delivery result.",
		},
		[]string{"result"},
	)

	// ReloadsTotal counts rule reloads by result: ok, failed.
	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reloads_total",
			Help:      "Rule set reloads by result.",
		},
		[]string{"result"},
	)

	// Categories is the number of categories held by every live engine in the process.
	Categories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "categories",
			Help:      "Categories currently held in the registry.",
		},
	)
)

var (
	recordsWritten    = RecordsTotal.WithLabelValues("written")
	recordsSuppressed = RecordsTotal.WithLabelValues("suppressed")
	recordsFailed     = RecordsTotal.WithLabelValues("failed")
	reloadsOK         = ReloadsTotal.WithLabelValues("ok")
	reloadsFailed     = ReloadsTotal.WithLabelValues("failed")
)
