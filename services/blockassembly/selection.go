package blockassembly

import (
	"context"
	"time"

	txmap "github.com/bsv-blockchain/go-tx-map"
	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/services/validator"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
	"github.com/bsv-blockchain/txhandler/ulogger"
	"github.com/bsv-blockchain/txhandler/util/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	strategyBasic  = "basic"
	strategyMaxFee = "maxfee"
)

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeInvalid
	outcomeFailed
)

// selection is the state of one Select call.
type selection struct {
	logger    ulogger.Logger
	validator validator.Interface
	pool      utxo.Pool
	strategy  string
	runID     string
	start     time.Time
	span      trace.Span
	endSpan   func(error)
	result    *Result
	errs      []error
}

func newSelection(ctx context.Context, logger ulogger.Logger, v validator.Interface, pool utxo.Pool, strategy string, batchSize int) *selection {
	runID := uuid.New().String()

	_, span, endSpan := tracing.Start(ctx, strategy+"Selector:Select",
		attribute.String("run_id", runID),
		attribute.Int("batch_size", batchSize),
	)

	return &selection{
		logger:    logger,
		validator: v,
		pool:      pool,
		strategy:  strategy,
		runID:     runID,
		start:     time.Now(),
		span:      span,
		endSpan:   endSpan,
		result:    &Result{},
	}
}

// candidates drops nil entries and repeated transactions, keeping the first occurrence.
// Malformed transactions go straight to Rejected; they are never valid.
func (s *selection) candidates(batch []*model.Transaction) []*model.Transaction {
	seen := txmap.NewSplitSwissMap(len(batch))
	txs := make([]*model.Transaction, 0, len(batch))

	for i, tx := range batch {
		if tx == nil {
			s.logger.Warnf("[%s:Select][%s] batch entry %d is nil, skipped", s.strategy, s.runID, i)
			continue
		}

		if err := tx.CheckStructure(); err != nil {
			s.logger.Warnf("[%s:Select][%s] batch entry %d is malformed: %v", s.strategy, s.runID, i, err)
			s.reject(tx)

			continue
		}

		hash := tx.Hash()
		if seen.Exists(hash) {
			s.logger.Debugf("[%s:Select][%s] duplicate transaction %s at batch index %d, skipped", s.strategy, s.runID, hash, i)
			continue
		}

		_ = seen.Put(hash, 1)

		txs = append(txs, tx)
	}

	return txs
}

// try accepts tx when it is valid against the current pool and applies it.
func (s *selection) try(tx *model.Transaction) outcome {
	if !s.validator.IsValid(s.pool, tx) {
		return outcomeInvalid
	}

	// measured before apply, the inputs are gone afterwards
	fee, _ := s.validator.Fee(s.pool, tx)

	if err := apply(s.pool, tx); err != nil {
		s.logger.Errorf("[%s:Select][%s] failed to apply %s: %v", s.strategy, s.runID, tx, err)
		prometheusSelectorApplyFailures.WithLabelValues(s.strategy).Inc()

		s.errs = append(s.errs, err)

		return outcomeFailed
	}

	s.result.Accepted = append(s.result.Accepted, tx)
	s.result.TotalFees += fee

	return outcomeAccepted
}

func (s *selection) reject(tx *model.Transaction) {
	s.result.Rejected = append(s.result.Rejected, tx)
}

// finish records metrics, ends the span and returns the result with the joined apply errors.
func (s *selection) finish() (*Result, error) {
	var err error
	if len(s.errs) > 0 {
		err = errors.Join(s.errs...)
	}

	s.span.SetAttributes(
		attribute.Int("accepted", len(s.result.Accepted)),
		attribute.Int("rejected", len(s.result.Rejected)),
		attribute.Int64("total_fees", s.result.TotalFees),
		attribute.Int("sweeps", s.result.Sweeps),
	)
	s.endSpan(err)

	prometheusSelectorAccepted.WithLabelValues(s.strategy).Add(float64(len(s.result.Accepted)))
	prometheusSelectorRejected.WithLabelValues(s.strategy).Add(float64(len(s.result.Rejected)))
	prometheusSelectorDuration.WithLabelValues(s.strategy).Observe(time.Since(s.start).Seconds())

	s.logger.Infof("[%s:Select][%s] accepted %d, rejected %d, fees %d, sweeps %d in %s",
		s.strategy, s.runID, len(s.result.Accepted), len(s.result.Rejected), s.result.TotalFees, s.result.Sweeps, time.Since(s.start))

	return s.result, err
}
