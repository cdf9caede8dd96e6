// Package test holds deterministic keys, signed transaction builders and settings shared by
// the package tests.
package test

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/settings"
	"github.com/bsv-blockchain/txhandler/stores/utxo/memory"
	"github.com/bsv-blockchain/txhandler/ulogger"
	"github.com/stretchr/testify/require"
)

func CreateBaseTestSettings() *settings.Settings {
	tSettings := settings.NewSettings()
	tSettings.TracingEnabled = false
	tSettings.BlockAssembly.SelectorStrategy = "maxfee"
	tSettings.BlockAssembly.MaxSweeps = 0
	tSettings.Validator.SigCacheEnabled = false
	tSettings.Validator.CheckBatchConcurrency = 4

	return tSettings
}

// PrivateKey derives a key from seed, so the same seed always yields the same key.
func PrivateKey(seed string) *bec.PrivateKey {
	privateKey, _ := bec.PrivateKeyFromBytes(chainhash.HashB([]byte(seed)))

	return privateKey
}

func PublicKey(privateKey *bec.PrivateKey) []byte {
	return privateKey.PubKey().Compressed()
}

// Sign returns the DER signature of message as checked by the ECDSA verifier.
func Sign(privateKey *bec.PrivateKey, message []byte) ([]byte, error) {
	return model.SignMessage(privateKey, message)
}

// Genesis is a transaction without inputs whose outputs seed a test pool.
func Genesis(t *testing.T, outputs ...model.Output) *model.Transaction {
	tx := model.NewTransaction()

	for _, out := range outputs {
		require.NoError(t, tx.AddOutput(out.Value, out.PublicKey))
	}

	tx.Finalize()

	return tx
}

// PoolFromTx returns a pool holding every output of the given transactions.
func PoolFromTx(t *testing.T, txs ...*model.Transaction) *memory.Memory {
	pool := memory.New(ulogger.TestLogger{})

	for _, tx := range txs {
		for i, out := range tx.Outputs {
			u, err := tx.OutputUTXO(i)
			require.NoError(t, err)
			require.NoError(t, pool.Add(u, *out))
		}
	}

	return pool
}

type txInput struct {
	utxo       model.UTXO
	privateKey *bec.PrivateKey
	signature  []byte
}

// TxBuilder assembles a transaction and signs its inputs in order on Build.
type TxBuilder struct {
	inputs  []txInput
	outputs []model.Output
}

func NewTx() *TxBuilder {
	return &TxBuilder{}
}

// Spend adds an input for u signed by privateKey. A nil key leaves the input unsigned.
func (b *TxBuilder) Spend(u model.UTXO, privateKey *bec.PrivateKey) *TxBuilder {
	b.inputs = append(b.inputs, txInput{utxo: u, privateKey: privateKey})
	return b
}

// SpendWithSignature adds an input carrying a fixed signature.
func (b *TxBuilder) SpendWithSignature(u model.UTXO, signature []byte) *TxBuilder {
	b.inputs = append(b.inputs, txInput{utxo: u, signature: signature})
	return b
}

func (b *TxBuilder) Pay(value int64, privateKey *bec.PrivateKey) *TxBuilder {
	b.outputs = append(b.outputs, model.Output{PublicKey: PublicKey(privateKey), Value: value})
	return b
}

// Build returns the signed, finalized transaction.
func (b *TxBuilder) Build(t *testing.T) *model.Transaction {
	tx := b.Unsigned(t)

	for i, in := range b.inputs {
		if in.privateKey != nil {
			require.NoError(t, tx.SignInput(i, in.privateKey))
			continue
		}

		require.NoError(t, tx.SetSignature(i, in.signature))
	}

	tx.Finalize()

	return tx
}

// Unsigned returns the transaction without signatures and without finalizing it.
func (b *TxBuilder) Unsigned(t *testing.T) *model.Transaction {
	tx := model.NewTransaction()

	for _, in := range b.inputs {
		require.NoError(t, tx.AddInput(in.utxo.TxHash, in.utxo.Index))
	}

	for _, out := range b.outputs {
		require.NoError(t, tx.AddOutput(out.Value, out.PublicKey))
	}

	return tx
}
