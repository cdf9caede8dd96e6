// Package tests holds the behaviour every utxo.Pool implementation must show. Store
// packages run these against their own constructor.
package tests

import (
	"sync"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	Hash  = chainhash.HashH([]byte("tests-hash"))
	Hash2 = chainhash.HashH([]byte("tests-hash-2"))

	UTXO0 = model.NewUTXO(Hash, 0)
	UTXO1 = model.NewUTXO(Hash, 1)
	UTXO2 = model.NewUTXO(Hash2, 0)

	Output = model.Output{PublicKey: []byte{0x02, 0x01}, Value: 100}
)

// Store checks the basic Pool contract: add, lookup, remove and their failure modes.
func Store(t *testing.T, pool utxo.Pool) {
	require.Equal(t, 0, pool.Len())
	assert.False(t, pool.Contains(UTXO0))

	_, err := pool.Get(UTXO0)
	require.Error(t, err)
	assert.True(t, utxo.IsNotFound(err))

	require.NoError(t, pool.Add(UTXO0, Output))
	assert.True(t, pool.Contains(UTXO0))
	assert.Equal(t, 1, pool.Len())

	out, err := pool.Get(UTXO0)
	require.NoError(t, err)
	assert.Equal(t, Output, out)

	// never overwrite
	err = pool.Add(UTXO0, model.Output{Value: 1})
	require.Error(t, err)
	assert.True(t, utxo.IsAlreadyExists(err))

	out, err = pool.Get(UTXO0)
	require.NoError(t, err)
	assert.Equal(t, int64(100), out.Value)

	require.NoError(t, pool.Remove(UTXO0))
	assert.False(t, pool.Contains(UTXO0))
	assert.Equal(t, 0, pool.Len())

	// removing an absent utxo fails
	err = pool.Remove(UTXO0)
	require.Error(t, err)
	assert.True(t, utxo.IsNotFound(err))
}

// All checks that the snapshot is complete and ordered by hash bytes, then index.
func All(t *testing.T, pool utxo.Pool) {
	require.NoError(t, pool.Add(UTXO2, Output))
	require.NoError(t, pool.Add(UTXO1, Output))
	require.NoError(t, pool.Add(UTXO0, Output))

	keys := pool.All()
	require.Len(t, keys, 3)

	for i := 1; i < len(keys); i++ {
		assert.Negative(t, keys[i-1].Compare(keys[i]))
	}

	assert.ElementsMatch(t, []model.UTXO{UTXO0, UTXO1, UTXO2}, keys)

	// the snapshot does not follow later changes
	require.NoError(t, pool.Remove(UTXO1))
	assert.Len(t, keys, 3)
	assert.Len(t, pool.All(), 2)
}

// Clone checks that a copy and its source never observe each other's changes.
func Clone(t *testing.T, pool utxo.Pool) {
	require.NoError(t, pool.Add(UTXO0, Output))

	clone := pool.Clone()
	require.True(t, clone.Contains(UTXO0))

	require.NoError(t, clone.Remove(UTXO0))
	require.NoError(t, clone.Add(UTXO1, Output))

	assert.True(t, pool.Contains(UTXO0))
	assert.False(t, pool.Contains(UTXO1))

	require.NoError(t, pool.Add(UTXO2, Output))
	assert.False(t, clone.Contains(UTXO2))
}

// Isolation checks that outputs handed to or returned by the pool are copies.
func Isolation(t *testing.T, pool utxo.Pool) {
	out := model.Output{PublicKey: []byte{0x02, 0x01}, Value: 5}
	require.NoError(t, pool.Add(UTXO0, out))

	out.PublicKey[0] = 0xff

	stored, err := pool.Get(UTXO0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), stored.PublicKey[0])

	stored.PublicKey[1] = 0xff

	again, err := pool.Get(UTXO0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), again.PublicKey[1])
}

// Concurrent checks that readers may run alongside each other while writers are exclusive.
func Concurrent(t *testing.T, pool utxo.Pool) {
	const n = 64

	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(2)

		go func(i int) {
			defer wg.Done()

			_ = pool.Add(model.NewUTXO(Hash, uint32(i)), Output) //nolint:gosec // small test index
		}(i)

		go func(i int) {
			defer wg.Done()

			_ = pool.Contains(model.NewUTXO(Hash, uint32(i))) //nolint:gosec // small test index
			_ = pool.Len()
		}(i)
	}

	wg.Wait()

	assert.Equal(t, n, pool.Len())
}
