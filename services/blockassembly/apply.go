package blockassembly

import (
	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
)

type removedUTXO struct {
	utxo   model.UTXO
	output model.Output
}

// apply removes the UTXOs consumed by tx from pool and adds one UTXO per output. Either
// every change is made or, on the first failure, the changes already made are undone.
func apply(pool utxo.Pool, tx *model.Transaction) error {
	txHash := tx.Hash().String()

	removed := make([]removedUTXO, 0, len(tx.Inputs))
	added := make([]model.UTXO, 0, len(tx.Outputs))

	for _, input := range tx.Inputs {
		u := input.UTXO()

		output, err := pool.Get(u)
		if err == nil {
			err = pool.Remove(u)
		}

		if err != nil {
			return rollback(pool, removed, added, errors.NewApplyError(txHash, u.String(), "remove", err))
		}

		removed = append(removed, removedUTXO{utxo: u, output: output})
	}

	for i, output := range tx.Outputs {
		u, err := tx.OutputUTXO(i)
		if err == nil {
			err = pool.Add(u, *output)
		}

		if err != nil {
			return rollback(pool, removed, added, errors.NewApplyError(txHash, u.String(), "add", err))
		}

		added = append(added, u)
	}

	return nil
}

// rollback undoes added and removed in reverse order and returns cause, or a storage
// error when the pool could not be restored.
func rollback(pool utxo.Pool, removed []removedUTXO, added []model.UTXO, cause error) error {
	var errs []error

	for i := len(added) - 1; i >= 0; i-- {
		if err := pool.Remove(added[i]); err != nil {
			errs = append(errs, err)
		}
	}

	for i := len(removed) - 1; i >= 0; i-- {
		if err := pool.Add(removed[i].utxo, removed[i].output); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.NewStorageError("[apply] rollback failed after: %v", cause, errors.Join(errs...))
	}

	return cause
}
