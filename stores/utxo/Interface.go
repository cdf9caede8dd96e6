// Package utxo defines the pool of currently spendable outputs that transactions are
// validated against and applied to.
package utxo

import (
	"github.com/bsv-blockchain/txhandler/model"
)

// Pool maps UTXOs to the outputs they identify. Keys are unique: Add never overwrites and
// Remove of an absent UTXO fails. A Pool is owned by one selection call at a time.
type Pool interface {
	Contains(u model.UTXO) bool
	// Get returns ERR_UTXO_NOT_FOUND when u is absent.
	Get(u model.UTXO) (model.Output, error)
	// Add returns ERR_UTXO_ALREADY_EXISTS when u is present.
	Add(u model.UTXO, out model.Output) error
	// Remove returns ERR_UTXO_NOT_FOUND when u is absent.
	Remove(u model.UTXO) error
	// All returns a snapshot of the keys ordered by hash bytes, then index.
	All() []model.UTXO
	Len() int
	// Clone returns an independent copy. Changes to either pool are not visible in the other.
	Clone() Pool
}
