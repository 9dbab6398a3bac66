package datastore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "travel_backoffice"

// RequestsTotal counts store operations by table, logical method and outcome status.
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "datastore",
		Name:      "requests_total",
		Help:      "Total number of table store operations, labelled by outcome status.",
	},
	[]string{"table", "method", "status"},
)

var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "datastore",
		Name:      "request_duration_seconds",
		Help:      "Latency of table store operations including retries.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"table", "method"},
)

var RetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "datastore",
		Name:      "retries_total",
		Help:      "Retried attempts of table store operations.",
	},
	[]string{"table", "method"},
)
