package utxo

import (
	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/model"
)

func NewNotFoundError(u model.UTXO) error {
	return errors.NewUtxoNotFoundError("utxo %s not found", u.String())
}

func NewAlreadyExistsError(u model.UTXO) error {
	return errors.NewUtxoAlreadyExistsError("utxo %s already exists", u.String())
}

func IsNotFound(err error) bool {
	return errors.Is(err, errors.ErrUtxoNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, errors.ErrUtxoAlreadyExists)
}
