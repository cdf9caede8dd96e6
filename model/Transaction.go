package model

import (
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/txhandler/errors"
)

// Transaction consumes Inputs and creates Outputs. Its hash is fixed by Finalize, after
// which the mutators fail with ERR_TX_FINALIZED.
//
// Inputs and Outputs are exported for reading and for decoding. They must be treated as
// frozen once the transaction is finalized: writing to them directly afterwards is not
// detected and leaves Hash, and so every UTXO keyed by it, describing the old content.
// Use AddInput, AddOutput and SetSignature to build a transaction.
type Transaction struct {
	Inputs  []*Input
	Outputs []*Output

	hash      chainhash.Hash
	finalized bool
}

func NewTransaction() *Transaction {
	return &Transaction{
		Inputs:  make([]*Input, 0),
		Outputs: make([]*Output, 0),
	}
}

func (tx *Transaction) AddInput(prevTxHash chainhash.Hash, outputIndex uint32) error {
	if tx.finalized {
		return errors.NewTxFinalizedError("[AddInput][%s] transaction is finalized", tx.hash.String())
	}

	tx.Inputs = append(tx.Inputs, &Input{PrevTxHash: prevTxHash, OutputIndex: outputIndex})

	return nil
}

func (tx *Transaction) AddOutput(value int64, publicKey []byte) error {
	if tx.finalized {
		return errors.NewTxFinalizedError("[AddOutput][%s] transaction is finalized", tx.hash.String())
	}

	tx.Outputs = append(tx.Outputs, &Output{PublicKey: publicKey, Value: value})

	return nil
}

func (tx *Transaction) SetSignature(index int, signature []byte) error {
	if tx.finalized {
		return errors.NewTxFinalizedError("[SetSignature][%s] transaction is finalized", tx.hash.String())
	}

	if index < 0 || index >= len(tx.Inputs) {
		return errors.NewInvalidArgumentError("[SetSignature] input index %d out of range [0,%d)", index, len(tx.Inputs))
	}

	tx.Inputs[index].Signature = signature

	return nil
}

// SigningMessage returns the bytes the owner of the output claimed by input index signs:
// all outputs, the index, every earlier input including its signature and input index
// itself without its signature. Later inputs are not covered.
func (tx *Transaction) SigningMessage(index int) ([]byte, error) {
	if index < 0 || index >= len(tx.Inputs) {
		return nil, errors.NewInvalidArgumentError("[SigningMessage] input index %d out of range [0,%d)", index, len(tx.Inputs))
	}

	msg := tx.appendOutputs(make([]byte, 0, 256))
	msg = append(msg, bt.VarInt(uint64(index)).Bytes()...)

	for i := 0; i < index; i++ {
		msg = appendInput(msg, tx.Inputs[i], true)
	}

	return appendInput(msg, tx.Inputs[index], false), nil
}

// Bytes serializes the complete transaction including every signature.
func (tx *Transaction) Bytes() []byte {
	b := make([]byte, 0, 256)
	b = append(b, bt.VarInt(uint64(len(tx.Inputs))).Bytes()...)

	for _, in := range tx.Inputs {
		b = appendInput(b, in, true)
	}

	return tx.appendOutputs(b)
}

// Finalize fixes the hash as the double SHA256 of Bytes. Calling it again is a no-op.
func (tx *Transaction) Finalize() {
	if tx.finalized {
		return
	}

	tx.hash = chainhash.DoubleHashH(tx.Bytes())
	tx.finalized = true
}

// CheckStructure reports a nil input or output. Such a transaction can still be hashed but
// can never be valid.
func (tx *Transaction) CheckStructure() error {
	for i, in := range tx.Inputs {
		if in == nil {
			return errors.NewTxInvalidError("[CheckStructure] input %d is nil", i)
		}
	}

	for i, out := range tx.Outputs {
		if out == nil {
			return errors.NewTxInvalidError("[CheckStructure] output %d is nil", i)
		}
	}

	return nil
}

func (tx *Transaction) IsFinalized() bool {
	return tx.finalized
}

// Hash returns the transaction hash, finalizing the transaction first if needed.
func (tx *Transaction) Hash() chainhash.Hash {
	tx.Finalize()

	return tx.hash
}

func (tx *Transaction) String() string {
	if !tx.finalized {
		return "<unfinalized>"
	}

	return tx.hash.String()
}

// OutputUTXO is the UTXO created by output index of this transaction.
func (tx *Transaction) OutputUTXO(index int) (UTXO, error) {
	if index < 0 || index >= len(tx.Outputs) {
		return UTXO{}, errors.NewInvalidArgumentError("[OutputUTXO] output index %d out of range [0,%d)", index, len(tx.Outputs))
	}

	idx, err := safeconversion.IntToUint32(index)
	if err != nil {
		return UTXO{}, errors.NewInvalidArgumentError("[OutputUTXO] output index %d", index, err)
	}

	return UTXO{TxHash: tx.Hash(), Index: idx}, nil
}

func (tx *Transaction) appendOutputs(b []byte) []byte {
	b = append(b, bt.VarInt(uint64(len(tx.Outputs))).Bytes()...)

	for _, out := range tx.Outputs {
		if out == nil {
			// encoded as a zero output, see CheckStructure
			out = &Output{}
		}

		b = binary.LittleEndian.AppendUint64(b, uint64(out.Value)) //nolint:gosec // two's complement encoding is intended
		b = append(b, bt.VarInt(uint64(len(out.PublicKey))).Bytes()...)
		b = append(b, out.PublicKey...)
	}

	return b
}

func appendInput(b []byte, in *Input, withSignature bool) []byte {
	if in == nil {
		in = &Input{}
	}

	b = append(b, in.PrevTxHash[:]...)
	b = binary.LittleEndian.AppendUint32(b, in.OutputIndex)

	if withSignature {
		b = append(b, bt.VarInt(uint64(len(in.Signature))).Bytes()...)
		b = append(b, in.Signature...)
	}

	return b
}
