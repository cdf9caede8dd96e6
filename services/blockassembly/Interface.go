// Package blockassembly selects which transactions of a batch are applied to a UTXO pool.
//
// Two selectors are provided. The basic selector applies every valid transaction in the
// order given. The max-fee selector ranks the batch by fee first and then keeps sweeping
// over the transactions it could not yet accept, so that a transaction spending the output
// of another one in the same batch is accepted once its parent has been applied.
package blockassembly

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
)

// Selector applies a subset of batch to pool. The pool must not be used by anyone else
// while Select runs. Select always returns a result; a non-nil error reports transactions
// that were valid but could not be applied, those are listed in Result.Rejected.
type Selector interface {
	Select(ctx context.Context, pool utxo.Pool, batch []*model.Transaction) (*Result, error)
}

// Result is the outcome of one Select call.
type Result struct {
	// Accepted holds the applied transactions in the order they were applied.
	Accepted []*model.Transaction
	// Rejected holds the remaining distinct transactions of the batch, malformed ones
	// included.
	Rejected []*model.Transaction
	// TotalFees is the sum of the fees of the accepted transactions, each measured
	// against the pool just before it was applied.
	TotalFees int64
	// Sweeps is the number of retry sweeps run after the first pass.
	Sweeps int
}

// AcceptedHashes returns the hashes of Accepted, in acceptance order.
func (r *Result) AcceptedHashes() []chainhash.Hash {
	return hashes(r.Accepted)
}

// RejectedHashes returns the hashes of Rejected.
func (r *Result) RejectedHashes() []chainhash.Hash {
	return hashes(r.Rejected)
}

func hashes(txs []*model.Transaction) []chainhash.Hash {
	h := make([]chainhash.Hash, len(txs))

	for i, tx := range txs {
		h[i] = tx.Hash()
	}

	return h
}
