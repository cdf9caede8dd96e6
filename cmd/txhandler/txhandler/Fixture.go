package txhandler

import (
	"encoding/hex"
	"io"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/stores/utxo/memory"
	"github.com/bsv-blockchain/txhandler/ulogger"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fixture is the JSON description of an epoch: the initial pool and the batch of
// candidate transactions.
type Fixture struct {
	Pool         []PoolEntry `json:"pool"`
	Transactions []TxEntry   `json:"transactions"`
}

type PoolEntry struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  int64  `json:"value"`
	PubKey string `json:"pubkey"`
}

type TxEntry struct {
	Inputs  []InputEntry  `json:"inputs"`
	Outputs []OutputEntry `json:"outputs"`
}

// InputEntry spends TxID:Vout. TxID is either a hex hash or "#<n>", the n-th transaction of
// the batch. Without a signature the input is signed with PrivKey when the fixture is built.
type InputEntry struct {
	TxID      string `json:"txid"`
	Vout      uint32 `json:"vout"`
	Signature string `json:"signature,omitempty"`
	PrivKey   string `json:"privkey,omitempty"`
}

// OutputEntry pays Value to PubKey, or to the public key of PrivKey when PubKey is empty.
type OutputEntry struct {
	Value   int64  `json:"value"`
	PubKey  string `json:"pubkey,omitempty"`
	PrivKey string `json:"privkey,omitempty"`
}

// Epoch is a built fixture.
type Epoch struct {
	Pool  *memory.Memory
	Batch []*model.Transaction
}

func DecodeFixture(r io.Reader) (*Fixture, error) {
	f := &Fixture{}

	if err := json.NewDecoder(r).Decode(f); err != nil {
		return nil, errors.NewProcessingError("[DecodeFixture] invalid fixture", err)
	}

	return f, nil
}

const (
	unvisited = iota
	visiting
	built
)

type fixtureBuilder struct {
	fixture *Fixture
	txs     []*model.Transaction
	state   []int
}

// Build creates the pool and the finalized, signed batch. Transactions referenced with
// "#<n>" are built first; circular references are rejected.
func (f *Fixture) Build(logger ulogger.Logger) (*Epoch, error) {
	entries := make(map[model.UTXO]model.Output, len(f.Pool))

	for i, entry := range f.Pool {
		hash, err := chainhash.NewHashFromStr(entry.TxID)
		if err != nil {
			return nil, errors.NewInvalidArgumentError("[Build] pool entry %d has invalid txid %q", i, entry.TxID, err)
		}

		publicKey, err := decodeHex(entry.PubKey)
		if err != nil {
			return nil, errors.NewInvalidArgumentError("[Build] pool entry %d has invalid pubkey", i, err)
		}

		u := model.NewUTXO(*hash, entry.Vout)
		if _, ok := entries[u]; ok {
			return nil, errors.NewUtxoAlreadyExistsError("[Build] pool entry %d repeats utxo %s", i, u.String())
		}

		entries[u] = model.Output{PublicKey: publicKey, Value: entry.Value}
	}

	b := &fixtureBuilder{
		fixture: f,
		txs:     make([]*model.Transaction, len(f.Transactions)),
		state:   make([]int, len(f.Transactions)),
	}

	for i := range f.Transactions {
		if err := b.build(i); err != nil {
			return nil, err
		}
	}

	return &Epoch{
		Pool:  memory.NewFromMap(logger, entries),
		Batch: b.txs,
	}, nil
}

func (b *fixtureBuilder) build(index int) error {
	switch b.state[index] {
	case built:
		return nil
	case visiting:
		return errors.NewInvalidArgumentError("[Build] transaction %d is part of a reference cycle", index)
	}

	b.state[index] = visiting

	entry := b.fixture.Transactions[index]
	tx := model.NewTransaction()

	for i, in := range entry.Inputs {
		prevHash, err := b.prevTxHash(index, in.TxID)
		if err != nil {
			return errors.NewInvalidArgumentError("[Build] transaction %d input %d", index, i, err)
		}

		if err = tx.AddInput(prevHash, in.Vout); err != nil {
			return err
		}
	}

	for i, out := range entry.Outputs {
		publicKey, err := outputPublicKey(out)
		if err != nil {
			return errors.NewInvalidArgumentError("[Build] transaction %d output %d", index, i, err)
		}

		if err = tx.AddOutput(out.Value, publicKey); err != nil {
			return err
		}
	}

	// in index order, each signing message covers the earlier signatures
	for i, in := range entry.Inputs {
		if err := signInput(tx, i, in); err != nil {
			return errors.NewInvalidArgumentError("[Build] transaction %d input %d", index, i, err)
		}
	}

	tx.Finalize()

	b.txs[index] = tx
	b.state[index] = built

	return nil
}

func (b *fixtureBuilder) prevTxHash(index int, txid string) (chainhash.Hash, error) {
	if !strings.HasPrefix(txid, "#") {
		hash, err := chainhash.NewHashFromStr(txid)
		if err != nil {
			return chainhash.Hash{}, errors.NewInvalidArgumentError("invalid txid %q", txid, err)
		}

		return *hash, nil
	}

	ref, err := strconv.Atoi(txid[1:])
	if err != nil || ref < 0 || ref >= len(b.txs) {
		return chainhash.Hash{}, errors.NewInvalidArgumentError("invalid batch reference %q", txid)
	}

	if ref == index {
		return chainhash.Hash{}, errors.NewInvalidArgumentError("transaction references itself")
	}

	if err = b.build(ref); err != nil {
		return chainhash.Hash{}, err
	}

	return b.txs[ref].Hash(), nil
}

func signInput(tx *model.Transaction, index int, in InputEntry) error {
	if in.Signature != "" {
		signature, err := decodeHex(in.Signature)
		if err != nil {
			return err
		}

		return tx.SetSignature(index, signature)
	}

	if in.PrivKey == "" {
		return nil
	}

	privateKey, err := decodePrivateKey(in.PrivKey)
	if err != nil {
		return err
	}

	return tx.SignInput(index, privateKey)
}

func outputPublicKey(out OutputEntry) ([]byte, error) {
	if out.PubKey != "" || out.PrivKey == "" {
		return decodeHex(out.PubKey)
	}

	privateKey, err := decodePrivateKey(out.PrivKey)
	if err != nil {
		return nil, err
	}

	return privateKey.PubKey().Compressed(), nil
}

func decodePrivateKey(s string) (*bec.PrivateKey, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}

	if len(b) != 32 {
		return nil, errors.NewInvalidArgumentError("private key must be 32 bytes, got %d", len(b))
	}

	privateKey, _ := bec.PrivateKeyFromBytes(b)

	return privateKey, nil
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid hex %q", s, err)
	}

	return b, nil
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}
