package blockassembly

import (
	"context"

	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/services/validator"
	"github.com/bsv-blockchain/txhandler/settings"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
	"github.com/bsv-blockchain/txhandler/ulogger"
)

// BasicSelector makes a single pass over the batch in the order given and applies every
// transaction that is valid at the moment it is reached. A transaction whose parent comes
// later in the batch is rejected.
type BasicSelector struct {
	logger    ulogger.Logger
	settings  *settings.Settings
	validator validator.Interface
}

func NewBasicSelector(logger ulogger.Logger, tSettings *settings.Settings, v validator.Interface) *BasicSelector {
	initPrometheusMetrics()

	return &BasicSelector{
		logger:    logger,
		settings:  tSettings,
		validator: v,
	}
}

func (b *BasicSelector) Select(ctx context.Context, pool utxo.Pool, batch []*model.Transaction) (*Result, error) {
	s := newSelection(ctx, b.logger, b.validator, pool, strategyBasic, len(batch))

	for _, tx := range s.candidates(batch) {
		if s.try(tx) != outcomeAccepted {
			s.reject(tx)
		}
	}

	return s.finish()
}
