package blockassembly

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/ulogger"
	"github.com/bsv-blockchain/txhandler/util/test"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func histogramCount(t *testing.T, m prometheus.Metric) uint64 {
	metric := &dto.Metric{}
	require.NoError(t, m.Write(metric))

	return metric.GetHistogram().GetSampleCount()
}

func histogramSum(t *testing.T, m prometheus.Metric) float64 {
	metric := &dto.Metric{}
	require.NoError(t, m.Write(metric))

	return metric.GetHistogram().GetSampleSum()
}

func TestSelectorMetrics(t *testing.T) {
	for name, newSelector := range selectors() {
		t.Run(name, func(t *testing.T) {
			selector := newSelector(test.CreateBaseTestSettings())

			accepted := testutil.ToFloat64(prometheusSelectorAccepted.WithLabelValues(name))
			rejected := testutil.ToFloat64(prometheusSelectorRejected.WithLabelValues(name))
			durations := histogramCount(t, prometheusSelectorDuration.WithLabelValues(name).(prometheus.Metric))
			sweeps := histogramCount(t, prometheusSelectorSweeps)
			sweepSum := histogramSum(t, prometheusSelectorSweeps)

			pool, a := singleUTXOPool(t, 10, k1)
			tx1 := test.NewTx().Spend(a, k1).Pay(4, k2).Build(t)
			tx2 := test.NewTx().Spend(a, k1).Pay(9, k3).Build(t)

			result, err := selector.Select(context.Background(), pool, []*model.Transaction{tx1, tx2})
			require.NoError(t, err)

			assert.InDelta(t, 1, testutil.ToFloat64(prometheusSelectorAccepted.WithLabelValues(name))-accepted, 0)
			assert.InDelta(t, 1, testutil.ToFloat64(prometheusSelectorRejected.WithLabelValues(name))-rejected, 0)
			assert.Equal(t, durations+1, histogramCount(t, prometheusSelectorDuration.WithLabelValues(name).(prometheus.Metric)))

			if name == strategyMaxFee {
				assert.Equal(t, sweeps+1, histogramCount(t, prometheusSelectorSweeps))
				assert.InDelta(t, float64(result.Sweeps), histogramSum(t, prometheusSelectorSweeps)-sweepSum, 0)
			} else {
				assert.Equal(t, sweeps, histogramCount(t, prometheusSelectorSweeps))
			}
		})
	}
}

func TestApplyFailureMetric(t *testing.T) {
	tSettings := test.CreateBaseTestSettings()
	selector := NewBasicSelector(ulogger.TestLogger{}, tSettings, newValidator(tSettings))

	before := testutil.ToFloat64(prometheusSelectorApplyFailures.WithLabelValues(strategyBasic))

	pool, a := singleUTXOPool(t, 10, k1)
	tx := test.NewTx().Spend(a, k1).Pay(2, k2).Build(t)
	require.NoError(t, pool.Add(outputUTXO(t, tx, 0), model.Output{Value: 1}))

	_, err := selector.Select(context.Background(), pool, []*model.Transaction{tx})
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(prometheusSelectorApplyFailures.WithLabelValues(strategyBasic))-before, 0)
}
