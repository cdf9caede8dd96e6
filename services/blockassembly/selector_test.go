package blockassembly

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/services/validator"
	"github.com/bsv-blockchain/txhandler/settings"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
	"github.com/bsv-blockchain/txhandler/stores/utxo/memory"
	"github.com/bsv-blockchain/txhandler/ulogger"
	"github.com/bsv-blockchain/txhandler/util/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	k1 = test.PrivateKey("k1")
	k2 = test.PrivateKey("k2")
	k3 = test.PrivateKey("k3")
)

type selectorFactory func(tSettings *settings.Settings) Selector

func selectors() map[string]selectorFactory {
	return map[string]selectorFactory{
		"basic": func(tSettings *settings.Settings) Selector {
			return NewBasicSelector(ulogger.TestLogger{}, tSettings, newValidator(tSettings))
		},
		"maxfee": func(tSettings *settings.Settings) Selector {
			return NewMaxFeeSelector(ulogger.TestLogger{}, tSettings, newValidator(tSettings))
		},
	}
}

func newValidator(tSettings *settings.Settings) *validator.TxValidator {
	return validator.NewTxValidator(ulogger.TestLogger{}, tSettings)
}

// singleUTXOPool holds UTXO A worth value, owned by key.
func singleUTXOPool(t *testing.T, value int64, key *bec.PrivateKey) (*memory.Memory, model.UTXO) {
	genesis := test.Genesis(t, model.Output{PublicKey: test.PublicKey(key), Value: value})

	a, err := genesis.OutputUTXO(0)
	require.NoError(t, err)

	return test.PoolFromTx(t, genesis), a
}

func outputUTXO(t *testing.T, tx *model.Transaction, index int) model.UTXO {
	u, err := tx.OutputUTXO(index)
	require.NoError(t, err)

	return u
}

// assertReplay checks that the accepted transactions are mutually valid: applied in
// acceptance order to the initial pool, each one is valid when reached.
func assertReplay(t *testing.T, initial utxo.Pool, result *Result) {
	tSettings := test.CreateBaseTestSettings()
	pool := initial.Clone()
	tv := newValidator(tSettings)

	for _, tx := range result.Accepted {
		require.NoError(t, tv.ValidateTransaction(pool, tx))
		require.NoError(t, apply(pool, tx))
	}
}

// assertPool checks the pool equals initial minus consumed plus created UTXOs.
func assertPool(t *testing.T, initial, final utxo.Pool, accepted []*model.Transaction) {
	expected := initial.Clone()

	for _, tx := range accepted {
		for _, in := range tx.Inputs {
			require.NoError(t, expected.Remove(in.UTXO()))
		}

		for i, out := range tx.Outputs {
			require.NoError(t, expected.Add(outputUTXO(t, tx, i), *out))
		}
	}

	assert.Equal(t, expected.All(), final.All())
}

func TestScenarioConflict(t *testing.T) {
	for name, newSelector := range selectors() {
		t.Run(name, func(t *testing.T) {
			pool, a := singleUTXOPool(t, 10, k1)
			initial := pool.Clone()

			tx1 := test.NewTx().Spend(a, k1).Pay(4, k2).Build(t)
			tx2 := test.NewTx().Spend(a, k1).Pay(9, k3).Build(t)

			result, err := newSelector(test.CreateBaseTestSettings()).Select(context.Background(), pool, []*model.Transaction{tx2, tx1})
			require.NoError(t, err)

			require.Len(t, result.Accepted, 1)
			require.Len(t, result.Rejected, 1)

			if name == "maxfee" {
				assert.Equal(t, tx1.Hash(), result.Accepted[0].Hash())
				assert.Equal(t, int64(6), result.TotalFees)
			} else {
				assert.Equal(t, tx2.Hash(), result.Accepted[0].Hash())
				assert.Equal(t, int64(1), result.TotalFees)
			}

			assert.False(t, pool.Contains(a))
			assertReplay(t, initial, result)
			assertPool(t, initial, pool, result.Accepted)
		})
	}
}

func TestScenarioChain(t *testing.T) {
	for name, newSelector := range selectors() {
		t.Run(name, func(t *testing.T) {
			pool, a := singleUTXOPool(t, 10, k1)
			initial := pool.Clone()

			tx2 := test.NewTx().Spend(a, k1).Pay(8, k2).Build(t)
			tx3 := test.NewTx().Spend(outputUTXO(t, tx2, 0), k2).Pay(5, k3).Build(t)

			result, err := newSelector(test.CreateBaseTestSettings()).Select(context.Background(), pool, []*model.Transaction{tx3, tx2})
			require.NoError(t, err)

			if name == "basic" {
				require.Len(t, result.Accepted, 1)
				assert.Equal(t, tx2.Hash(), result.Accepted[0].Hash())
				require.Len(t, result.Rejected, 1)
				assert.Equal(t, tx3.Hash(), result.Rejected[0].Hash())
				assert.Equal(t, int64(2), result.TotalFees)
				assert.True(t, pool.Contains(outputUTXO(t, tx2, 0)))
			} else {
				require.Len(t, result.Accepted, 2)
				assert.Equal(t, tx2.Hash(), result.Accepted[0].Hash())
				assert.Equal(t, tx3.Hash(), result.Accepted[1].Hash())
				assert.Empty(t, result.Rejected)
				assert.Equal(t, int64(5), result.TotalFees)
				assert.True(t, pool.Contains(outputUTXO(t, tx3, 0)))
				assert.False(t, pool.Contains(outputUTXO(t, tx2, 0)))
			}

			assertReplay(t, initial, result)
			assertPool(t, initial, pool, result.Accepted)
		})
	}
}

func TestScenarioMinting(t *testing.T) {
	for name, newSelector := range selectors() {
		t.Run(name, func(t *testing.T) {
			pool, _ := singleUTXOPool(t, 10, k1)

			mint := test.NewTx().Pay(5, k1).Build(t)
			empty := test.NewTx().Build(t)

			result, err := newSelector(test.CreateBaseTestSettings()).Select(context.Background(), pool, []*model.Transaction{mint, empty})
			require.NoError(t, err)

			// the empty transaction is valid and creates nothing
			require.Len(t, result.Accepted, 1)
			assert.Equal(t, empty.Hash(), result.Accepted[0].Hash())
			require.Len(t, result.Rejected, 1)
			assert.Equal(t, mint.Hash(), result.Rejected[0].Hash())
			assert.Equal(t, 1, pool.Len())
		})
	}
}

func TestEqualFeesAreNotMerged(t *testing.T) {
	genesis := test.Genesis(t,
		model.Output{PublicKey: test.PublicKey(k1), Value: 10},
		model.Output{PublicKey: test.PublicKey(k2), Value: 10},
	)
	pool := test.PoolFromTx(t, genesis)

	tx1 := test.NewTx().Spend(outputUTXO(t, genesis, 0), k1).Pay(5, k3).Build(t)
	tx2 := test.NewTx().Spend(outputUTXO(t, genesis, 1), k2).Pay(5, k3).Build(t)

	tSettings := test.CreateBaseTestSettings()
	result, err := NewMaxFeeSelector(ulogger.TestLogger{}, tSettings, newValidator(tSettings)).
		Select(context.Background(), pool, []*model.Transaction{tx1, tx2})
	require.NoError(t, err)

	require.Len(t, result.Accepted, 2)
	assert.Equal(t, int64(10), result.TotalFees)

	first, second := result.Accepted[0].Hash(), result.Accepted[1].Hash()
	assert.Negative(t, bytes.Compare(first[:], second[:]), "equal fees are ranked by hash")
}

func TestCompareRanked(t *testing.T) {
	low := rankedTx{fee: 1, feeOK: true}
	high := rankedTx{fee: 9, feeOK: true}
	undefined := rankedTx{feeOK: false}

	low.hash[0] = 0x01
	high.hash[0] = 0x02
	undefined.hash[0] = 0x00

	assert.Equal(t, -1, compareRanked(high, low))
	assert.Equal(t, 1, compareRanked(low, high))
	assert.Equal(t, -1, compareRanked(low, undefined))
	assert.Equal(t, 1, compareRanked(undefined, high))

	sameFee := rankedTx{fee: 1, feeOK: true}
	sameFee.hash[0] = 0x03
	assert.Equal(t, -1, compareRanked(low, sameFee))
	assert.Equal(t, 0, compareRanked(low, low))
}

// descendingChain returns c1..c5 where c1 spends a and every later transaction spends
// output 0 of the one before. c2..c5 have strictly descending hashes, so the max-fee
// selector can resolve only one of them per sweep.
func descendingChain(t *testing.T, a model.UTXO, value int64) []*model.Transaction {
	keys := []*bec.PrivateKey{k1, k2, k3, k1, k2, k3}
	// first hash byte ranges for c2..c5
	ranges := [][2]byte{{0xc0, 0xff}, {0x80, 0xbf}, {0x40, 0x7f}, {0x00, 0x3f}}

	chain := []*model.Transaction{test.NewTx().Spend(a, keys[0]).Pay(value-1, keys[1]).Build(t)}
	value--

	for i, r := range ranges {
		parent := chain[len(chain)-1]

		var child *model.Transaction

		for fee := int64(0); fee < value; fee++ {
			candidate := test.NewTx().Spend(outputUTXO(t, parent, 0), keys[i+1]).Pay(value-fee, keys[i+2]).Build(t)

			h := candidate.Hash()
			if h[0] >= r[0] && h[0] <= r[1] {
				child = candidate
				value -= fee

				break
			}
		}

		require.NotNil(t, child, "no child hash found in range %x-%x", r[0], r[1])

		chain = append(chain, child)
	}

	return chain
}

func TestMaxFeeSweeps(t *testing.T) {
	tests := []struct {
		name         string
		maxSweeps    int
		wantAccepted int
		wantSweeps   int
	}{
		{"unbounded", 0, 5, 3},
		{"one sweep", 1, 3, 1},
		{"two sweeps", 2, 4, 2},
		{"limit above need", 10, 5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, a := singleUTXOPool(t, 1000, k1)
			initial := pool.Clone()
			chain := descendingChain(t, a, 1000)

			tSettings := test.CreateBaseTestSettings()
			tSettings.BlockAssembly.MaxSweeps = tt.maxSweeps

			batch := []*model.Transaction{chain[4], chain[3], chain[2], chain[1], chain[0]}

			result, err := NewMaxFeeSelector(ulogger.TestLogger{}, tSettings, newValidator(tSettings)).
				Select(context.Background(), pool, batch)
			require.NoError(t, err)

			assert.Len(t, result.Accepted, tt.wantAccepted)
			assert.Len(t, result.Rejected, 5-tt.wantAccepted)
			assert.Equal(t, tt.wantSweeps, result.Sweeps)

			for i := 0; i < tt.wantAccepted; i++ {
				assert.Equal(t, chain[i].Hash(), result.Accepted[i].Hash())
			}

			assertReplay(t, initial, result)
			assertPool(t, initial, pool, result.Accepted)
		})
	}

	t.Run("basic selector needs parents first", func(t *testing.T) {
		pool, a := singleUTXOPool(t, 1000, k1)
		chain := descendingChain(t, a, 1000)

		tSettings := test.CreateBaseTestSettings()
		basic := NewBasicSelector(ulogger.TestLogger{}, tSettings, newValidator(tSettings))

		result, err := basic.Select(context.Background(), pool.Clone(), []*model.Transaction{chain[4], chain[3], chain[2], chain[1], chain[0]})
		require.NoError(t, err)
		assert.Len(t, result.Accepted, 1)
		assert.Equal(t, 0, result.Sweeps)

		result, err = basic.Select(context.Background(), pool, chain)
		require.NoError(t, err)
		assert.Len(t, result.Accepted, 5)
	})
}

func TestMaxFeeTerminates(t *testing.T) {
	pool, a := singleUTXOPool(t, 10, k1)

	// spends an output that is never created
	orphanParent := test.NewTx().Spend(a, k1).Pay(3, k2).Build(t)
	orphan := test.NewTx().Spend(outputUTXO(t, orphanParent, 0), k2).Pay(1, k3).Build(t)
	// signed by the wrong key, never valid
	badSig := test.NewTx().Spend(a, k2).Pay(1, k3).Build(t)
	good := test.NewTx().Spend(a, k1).Pay(2, k3).Build(t)

	tSettings := test.CreateBaseTestSettings()
	result, err := NewMaxFeeSelector(ulogger.TestLogger{}, tSettings, newValidator(tSettings)).
		Select(context.Background(), pool, []*model.Transaction{orphan, badSig, good})
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	assert.Equal(t, good.Hash(), result.Accepted[0].Hash())
	assert.Len(t, result.Rejected, 2)
	assert.Equal(t, 1, result.Sweeps)
	assert.LessOrEqual(t, result.Sweeps, 3)
}

func TestDuplicateAndNilTransactions(t *testing.T) {
	for name, newSelector := range selectors() {
		t.Run(name, func(t *testing.T) {
			pool, a := singleUTXOPool(t, 10, k1)
			tx := test.NewTx().Spend(a, k1).Pay(4, k2).Build(t)

			result, err := newSelector(test.CreateBaseTestSettings()).Select(context.Background(), pool, []*model.Transaction{tx, nil, tx})
			require.NoError(t, err)

			require.Len(t, result.Accepted, 1)
			assert.Empty(t, result.Rejected)
			assert.Equal(t, int64(6), result.TotalFees)
		})
	}
}

func TestMalformedTransactions(t *testing.T) {
	for name, newSelector := range selectors() {
		t.Run(name, func(t *testing.T) {
			pool, a := singleUTXOPool(t, 10, k1)
			initial := pool.Clone()

			nilInput := &model.Transaction{Inputs: []*model.Input{nil}}
			nilOutput := &model.Transaction{Outputs: []*model.Output{nil}}
			good := test.NewTx().Spend(a, k1).Pay(4, k2).Build(t)

			var (
				result *Result
				err    error
			)

			require.NotPanics(t, func() {
				result, err = newSelector(test.CreateBaseTestSettings()).
					Select(context.Background(), pool, []*model.Transaction{nilInput, good, nilOutput})
			})
			require.NoError(t, err)

			require.Len(t, result.Accepted, 1)
			assert.Equal(t, good.Hash(), result.Accepted[0].Hash())

			require.Len(t, result.Rejected, 2)
			assert.Contains(t, result.Rejected, nilInput)
			assert.Contains(t, result.Rejected, nilOutput)
			assert.Len(t, result.RejectedHashes(), 2)

			assert.Equal(t, int64(6), result.TotalFees)
			assertPool(t, initial, pool, result.Accepted)
		})
	}
}

func TestEmptyBatch(t *testing.T) {
	for name, newSelector := range selectors() {
		t.Run(name, func(t *testing.T) {
			pool, _ := singleUTXOPool(t, 10, k1)

			result, err := newSelector(test.CreateBaseTestSettings()).Select(context.Background(), pool, nil)
			require.NoError(t, err)

			assert.Empty(t, result.Accepted)
			assert.Empty(t, result.Rejected)
			assert.Equal(t, 0, result.Sweeps)
			assert.Equal(t, 1, pool.Len())
		})
	}
}

func TestApplyFailureRollsBack(t *testing.T) {
	for name, newSelector := range selectors() {
		t.Run(name, func(t *testing.T) {
			pool, a := singleUTXOPool(t, 10, k1)
			tx := test.NewTx().Spend(a, k1).Pay(2, k2).Pay(3, k3).Build(t)

			// output 1 of tx already exists, so applying tx must fail half way
			require.NoError(t, pool.Add(outputUTXO(t, tx, 1), model.Output{Value: 1}))
			before := pool.All()

			result, err := newSelector(test.CreateBaseTestSettings()).Select(context.Background(), pool, []*model.Transaction{tx})
			require.Error(t, err)

			assert.True(t, errors.Is(err, errors.ErrProcessing))
			assert.True(t, errors.Is(err, errors.ErrUtxoAlreadyExists))

			var data *errors.ApplyErrData
			require.True(t, errors.AsData(err, &data))
			assert.Equal(t, "add", data.Stage)
			assert.Equal(t, tx.Hash().String(), data.TxHash)

			require.NotNil(t, result)
			assert.Empty(t, result.Accepted)
			require.Len(t, result.Rejected, 1)
			assert.Equal(t, int64(0), result.TotalFees)

			assert.Equal(t, before, pool.All())
			assert.True(t, pool.Contains(a))
			assert.False(t, pool.Contains(outputUTXO(t, tx, 0)))
		})
	}
}

// addFailingPool refuses every Add, so a rollback of a removed input cannot succeed.
type addFailingPool struct {
	utxo.Pool
}

func (p *addFailingPool) Add(u model.UTXO, _ model.Output) error {
	return utxo.NewAlreadyExistsError(u)
}

func TestApplyRollbackFailure(t *testing.T) {
	inner, a := singleUTXOPool(t, 10, k1)
	pool := &addFailingPool{Pool: inner}

	tx := test.NewTx().Spend(a, k1).Pay(2, k2).Build(t)

	err := apply(pool, tx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStorageError))
	assert.Equal(t, errors.ERR_STORAGE_ERROR, errors.CodeOf(err))
}

func TestApplyMissingInput(t *testing.T) {
	pool, a := singleUTXOPool(t, 10, k1)
	tx := test.NewTx().Spend(a, k1).Spend(outputUTXO(t, test.Genesis(t, model.Output{Value: 99}), 0), k1).Pay(1, k2).Build(t)

	err := apply(pool, tx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUtxoNotFound))

	// the first input was removed and put back
	assert.True(t, pool.Contains(a))
	assert.Equal(t, 1, pool.Len())
}

func TestNewSelector(t *testing.T) {
	tests := []struct {
		strategy string
		want     interface{}
		wantErr  bool
	}{
		{"basic", &BasicSelector{}, false},
		{"maxfee", &MaxFeeSelector{}, false},
		{"MaxFee", &MaxFeeSelector{}, false},
		{"greedy", nil, true},
		{"", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			tSettings := test.CreateBaseTestSettings()
			tSettings.BlockAssembly.SelectorStrategy = tt.strategy

			selector, err := NewSelector(ulogger.TestLogger{}, tSettings, newValidator(tSettings))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrConfiguration))

				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.want, selector)
		})
	}
}

// TestRandomBatches checks the selection invariants on batches full of conflicts, chains
// and invalid transactions.
func TestRandomBatches(t *testing.T) {
	rnd := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data
	keys := []*bec.PrivateKey{k1, k2, k3}

	for round := 0; round < 5; round++ {
		outputs := make([]model.Output, 6)
		owners := make([]*bec.PrivateKey, 6)

		for i := range outputs {
			owners[i] = keys[rnd.Intn(len(keys))]
			outputs[i] = model.Output{PublicKey: test.PublicKey(owners[i]), Value: int64(10 + round + rnd.Intn(50))}
		}

		genesis := test.Genesis(t, outputs...)
		initial := test.PoolFromTx(t, genesis)

		var batch []*model.Transaction

		for i := 0; i < 10; i++ {
			src := rnd.Intn(len(outputs))
			signer := owners[src]

			if rnd.Intn(5) == 0 {
				signer = keys[rnd.Intn(len(keys))]
			}

			pay := rnd.Int63n(outputs[src].Value + 5)
			tx := test.NewTx().Spend(outputUTXO(t, genesis, src), signer).Pay(pay, keys[rnd.Intn(len(keys))]).Build(t)
			batch = append(batch, tx)

			// sometimes spend the new output in the same batch
			if rnd.Intn(2) == 0 {
				recipient := tx.Outputs[0]
				var recipientKey *bec.PrivateKey

				for _, k := range keys {
					if bytes.Equal(test.PublicKey(k), recipient.PublicKey) {
						recipientKey = k
					}
				}

				child := test.NewTx().Spend(outputUTXO(t, tx, 0), recipientKey).Pay(recipient.Value/2, k1).Build(t)
				batch = append(batch, child)
			}
		}

		rnd.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })

		for name, newSelector := range selectors() {
			pool := initial.Clone()

			result, err := newSelector(test.CreateBaseTestSettings()).Select(context.Background(), pool, batch)
			require.NoError(t, err, name)

			distinct := map[string]struct{}{}
			for _, tx := range batch {
				distinct[tx.Hash().String()] = struct{}{}
			}

			assert.Len(t, distinct, len(result.Accepted)+len(result.Rejected), name)
			assert.LessOrEqual(t, result.Sweeps, len(batch), name)

			var fees int64

			replay := initial.Clone()
			tv := newValidator(test.CreateBaseTestSettings())

			for _, tx := range result.Accepted {
				fee, ok := tv.Fee(replay, tx)
				require.True(t, ok)
				assert.GreaterOrEqual(t, fee, int64(0))

				fees += fee

				require.NoError(t, tv.ValidateTransaction(replay, tx), name)
				require.NoError(t, apply(replay, tx))
			}

			assert.Equal(t, fees, result.TotalFees, name)
			assert.Equal(t, replay.All(), pool.All(), name)
		}
	}
}
