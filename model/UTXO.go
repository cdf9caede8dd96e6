package model

import (
	"bytes"
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// UTXO identifies an unspent output by the hash of the transaction that created it and
// the position of the output in that transaction. It is comparable and used as a map key.
type UTXO struct {
	TxHash chainhash.Hash
	Index  uint32
}

func NewUTXO(txHash chainhash.Hash, index uint32) UTXO {
	return UTXO{TxHash: txHash, Index: index}
}

func (u UTXO) String() string {
	return fmt.Sprintf("%s:%d", u.TxHash.String(), u.Index)
}

// Compare orders UTXOs by raw hash bytes, then index.
func (u UTXO) Compare(other UTXO) int {
	if c := bytes.Compare(u.TxHash[:], other.TxHash[:]); c != 0 {
		return c
	}

	switch {
	case u.Index < other.Index:
		return -1
	case u.Index > other.Index:
		return 1
	default:
		return 0
	}
}

// Output is a value locked to a public key.
type Output struct {
	PublicKey []byte
	Value     int64
}

// Clone returns a copy that does not share the public key slice.
func (o Output) Clone() Output {
	return Output{
		PublicKey: bytes.Clone(o.PublicKey),
		Value:     o.Value,
	}
}

// Input claims a previously created output and carries the signature authorising it.
type Input struct {
	PrevTxHash  chainhash.Hash
	OutputIndex uint32
	Signature   []byte
}

func (in *Input) UTXO() UTXO {
	return UTXO{TxHash: in.PrevTxHash, Index: in.OutputIndex}
}
