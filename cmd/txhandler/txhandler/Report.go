package txhandler

import (
	"io"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/services/blockassembly"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
)

// SelectReport is the outcome of one selection over a fixture.
type SelectReport struct {
	Strategy  string      `json:"strategy"`
	Accepted  []string    `json:"accepted"`
	Rejected  []string    `json:"rejected"`
	TotalFees int64       `json:"totalFees"`
	Sweeps    int         `json:"sweeps"`
	Error     string      `json:"error,omitempty"`
	Pool      []PoolEntry `json:"pool"`
}

// CheckReport lists the validity of every batch transaction against the initial pool.
type CheckReport struct {
	Valid        int          `json:"valid"`
	Invalid      int          `json:"invalid"`
	Transactions []CheckEntry `json:"transactions"`
}

type CheckEntry struct {
	Index int    `json:"index"`
	TxID  string `json:"txid"`
	Valid bool   `json:"valid"`
	Fee   *int64 `json:"fee,omitempty"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

func newSelectReport(strategy string, result *blockassembly.Result, pool utxo.Pool, selectErr error) *SelectReport {
	report := &SelectReport{
		Strategy:  strategy,
		Accepted:  hashStrings(result.AcceptedHashes()),
		Rejected:  hashStrings(result.RejectedHashes()),
		TotalFees: result.TotalFees,
		Sweeps:    result.Sweeps,
		Pool:      poolEntries(pool),
	}

	if selectErr != nil {
		report.Error = selectErr.Error()
	}

	return report
}

func newCheckEntry(index int, tx *model.Transaction, err error, fee int64, feeOK bool) CheckEntry {
	entry := CheckEntry{
		Index: index,
		TxID:  tx.Hash().String(),
		Valid: err == nil,
	}

	if feeOK {
		entry.Fee = &fee
	}

	if err != nil {
		entry.Code = errors.CodeOf(err).String()
		entry.Error = err.Error()
	}

	return entry
}

func hashStrings(hashes []chainhash.Hash) []string {
	s := make([]string, len(hashes))

	for i, hash := range hashes {
		s[i] = hash.String()
	}

	return s
}

func poolEntries(pool utxo.Pool) []PoolEntry {
	keys := pool.All()
	entries := make([]PoolEntry, 0, len(keys))

	for _, u := range keys {
		out, err := pool.Get(u)
		if err != nil {
			continue
		}

		entries = append(entries, PoolEntry{
			TxID:   u.TxHash.String(),
			Vout:   u.Index,
			Value:  out.Value,
			PubKey: hexString(out.PublicKey),
		})
	}

	return entries
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return errors.NewProcessingError("failed to write report", err)
	}

	return nil
}
