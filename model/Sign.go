package model

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/txhandler/errors"
)

// SignMessage returns the DER encoded signature of the double SHA256 of message.
func SignMessage(privateKey *bec.PrivateKey, message []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.NewInvalidArgumentError("private key is nil")
	}

	signature, err := privateKey.Sign(chainhash.DoubleHashB(message))
	if err != nil {
		return nil, errors.NewTxError("failed to sign message", err)
	}

	return signature.Serialize(), nil
}

// SignInput signs the signing message of input index with privateKey and stores the
// signature on the input. Inputs must be signed in index order, since the message of an
// input covers the signatures of the inputs before it.
func (tx *Transaction) SignInput(index int, privateKey *bec.PrivateKey) error {
	msg, err := tx.SigningMessage(index)
	if err != nil {
		return err
	}

	signature, err := SignMessage(privateKey, msg)
	if err != nil {
		return err
	}

	return tx.SetSignature(index, signature)
}
