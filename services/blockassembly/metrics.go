package blockassembly

import (
	"sync"

	"github.com/bsv-blockchain/txhandler/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusSelectorAccepted      *prometheus.CounterVec
	prometheusSelectorRejected      *prometheus.CounterVec
	prometheusSelectorApplyFailures *prometheus.CounterVec
	prometheusSelectorSweeps        prometheus.Histogram
	prometheusSelectorDuration      *prometheus.HistogramVec
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusSelectorAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txhandler",
			Subsystem: "blockassembly",
			Name:      "accepted_transactions",
			Help:      "Number of transactions accepted and applied by a selector",
		},
		[]string{"strategy"},
	)

	prometheusSelectorRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txhandler",
			Subsystem: "blockassembly",
			Name:      "rejected_transactions",
			Help:      "Number of batch transactions left out by a selector",
		},
		[]string{"strategy"},
	)

	prometheusSelectorApplyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txhandler",
			Subsystem: "blockassembly",
			Name:      "apply_failures",
			Help:      "Number of valid transactions that could not be applied to the pool",
		},
		[]string{"strategy"},
	)

	prometheusSelectorSweeps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "txhandler",
			Subsystem: "blockassembly",
			Name:      "maxfee_sweeps",
			Help:      "Histogram of retry sweeps run by the max-fee selector",
			Buckets:   util.MetricsBucketsCount,
		},
	)

	prometheusSelectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "txhandler",
			Subsystem: "blockassembly",
			Name:      "select",
			Help:      "Histogram of selection duration",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
		[]string{"strategy"},
	)
}
