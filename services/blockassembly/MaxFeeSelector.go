package blockassembly

import (
	"bytes"
	"context"
	"slices"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/services/validator"
	"github.com/bsv-blockchain/txhandler/settings"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
	"github.com/bsv-blockchain/txhandler/ulogger"
)

// MaxFeeSelector greedily favours high fee transactions and resolves dependencies inside
// the batch.
//
// The first pass walks the batch ranked by fee against the initial pool, highest first.
// Transactions whose fee cannot be computed yet, because they spend outputs created in the
// same batch, rank last. Ties are broken by transaction hash so the ranking is total and
// equal fees never collapse into one entry. Every transaction still pending after the first
// pass is then retried in sweeps until a sweep accepts nothing.
type MaxFeeSelector struct {
	logger    ulogger.Logger
	settings  *settings.Settings
	validator validator.Interface
}

type rankedTx struct {
	tx    *model.Transaction
	hash  chainhash.Hash
	fee   int64
	feeOK bool
}

func NewMaxFeeSelector(logger ulogger.Logger, tSettings *settings.Settings, v validator.Interface) *MaxFeeSelector {
	initPrometheusMetrics()

	return &MaxFeeSelector{
		logger:    logger,
		settings:  tSettings,
		validator: v,
	}
}

func (m *MaxFeeSelector) Select(ctx context.Context, pool utxo.Pool, batch []*model.Transaction) (*Result, error) {
	s := newSelection(ctx, m.logger, m.validator, pool, strategyMaxFee, len(batch))

	ranked := m.rank(pool, s.candidates(batch))

	pending := make([]rankedTx, 0, len(ranked))

	for _, r := range ranked {
		switch s.try(r.tx) {
		case outcomeAccepted:
		case outcomeInvalid:
			pending = append(pending, r)
		case outcomeFailed:
			s.reject(r.tx)
		}
	}

	pending = m.sweep(s, pending)

	for _, r := range pending {
		s.reject(r.tx)
	}

	prometheusSelectorSweeps.Observe(float64(s.result.Sweeps))

	return s.finish()
}

// rank orders txs by: fee defined first, fee descending, hash bytes ascending.
func (m *MaxFeeSelector) rank(pool utxo.Pool, txs []*model.Transaction) []rankedTx {
	ranked := make([]rankedTx, len(txs))

	for i, tx := range txs {
		fee, ok := m.validator.Fee(pool, tx)
		ranked[i] = rankedTx{tx: tx, hash: tx.Hash(), fee: fee, feeOK: ok}
	}

	slices.SortStableFunc(ranked, compareRanked)

	return ranked
}

func compareRanked(a, b rankedTx) int {
	if a.feeOK != b.feeOK {
		if a.feeOK {
			return -1
		}

		return 1
	}

	if a.feeOK && a.fee != b.fee {
		if a.fee > b.fee {
			return -1
		}

		return 1
	}

	return bytes.Compare(a.hash[:], b.hash[:])
}

// sweep retries pending in rank order until a sweep accepts nothing, the worklist is empty
// or the sweep limit is hit. Each sweep builds a fresh worklist of what is still pending.
// It returns the transactions that were never accepted.
func (m *MaxFeeSelector) sweep(s *selection, pending []rankedTx) []rankedTx {
	// every productive sweep accepts at least one transaction
	maxSweeps := len(pending)
	if limit := m.settings.BlockAssembly.MaxSweeps; limit > 0 && limit < maxSweeps {
		maxSweeps = limit
	}

	for len(pending) > 0 && s.result.Sweeps < maxSweeps {
		s.result.Sweeps++

		next := make([]rankedTx, 0, len(pending))
		progress := false

		for _, r := range pending {
			switch s.try(r.tx) {
			case outcomeAccepted:
				progress = true
			case outcomeInvalid:
				next = append(next, r)
			case outcomeFailed:
				s.reject(r.tx)
			}
		}

		pending = next

		if !progress {
			break
		}
	}

	return pending
}
