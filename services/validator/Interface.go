package validator

import (
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
)

// Interface is the read-only view of a transaction validator used by the selectors.
// None of the methods mutate the pool or the transaction.
type Interface interface {
	// ValidateTransaction returns nil when tx is valid against pool, otherwise a coded
	// error naming the first rule the transaction breaks.
	ValidateTransaction(pool utxo.Pool, tx *model.Transaction) error

	// IsValid reports whether ValidateTransaction returns nil.
	IsValid(pool utxo.Pool, tx *model.Transaction) bool

	// Fee returns the sum of the referenced input values minus the sum of the output
	// values. ok is false when a referenced UTXO is absent from pool or the sums overflow.
	Fee(pool utxo.Pool, tx *model.Transaction) (fee int64, ok bool)
}

// Verifier checks a signature over message against publicKey. It must not panic on
// malformed input, it returns false instead.
type Verifier interface {
	Verify(publicKey, message, signature []byte) bool
}

// SigningMessageFunc returns the bytes the owner of the output claimed by input index signs.
type SigningMessageFunc func(tx *model.Transaction, index int) ([]byte, error)

// DefaultSigningMessage is the signing message defined by model.Transaction.
func DefaultSigningMessage(tx *model.Transaction, index int) ([]byte, error) {
	return tx.SigningMessage(index)
}
