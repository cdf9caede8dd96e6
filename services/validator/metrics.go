package validator

import (
	"sync"

	"github.com/bsv-blockchain/txhandler/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusInvalidTransactions *prometheus.CounterVec
	prometheusTransactionValidate prometheus.Histogram
	prometheusCheckBatch          prometheus.Histogram
	prometheusSigCacheHits        prometheus.Counter
	prometheusSigCacheMisses      prometheus.Counter
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusInvalidTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txhandler",
			Subsystem: "validator",
			Name:      "invalid_transactions",
			Help:      "Number of transactions found invalid by the validator, by error code",
		},
		[]string{"reason"},
	)

	prometheusTransactionValidate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "txhandler",
			Subsystem: "validator",
			Name:      "transactions_validate",
			Help:      "Histogram of transaction validation",
			Buckets:   util.MetricsBucketsMicroSeconds,
		},
	)

	prometheusCheckBatch = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "txhandler",
			Subsystem: "validator",
			Name:      "check_batch",
			Help:      "Histogram of concurrent batch checks",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusSigCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txhandler",
			Subsystem: "validator",
			Name:      "sig_cache_hits",
			Help:      "Number of signature verifications answered from the cache",
		},
	)

	prometheusSigCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txhandler",
			Subsystem: "validator",
			Name:      "sig_cache_misses",
			Help:      "Number of signature verifications passed to the underlying verifier",
		},
	)
}
