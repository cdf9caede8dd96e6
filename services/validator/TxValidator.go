/*
Package validator decides whether a transaction is valid against a UTXO pool.

A transaction is valid when every input references an output present in the pool, every
input carries a signature the verifier accepts for the referenced output's public key,
no UTXO is claimed twice, no output value is negative and the inputs are worth at least
as much as the outputs. The difference is the fee.

Validation never changes the pool or the transaction, so a TxValidator can be shared
between goroutines as long as the pool is not written to at the same time.
*/
package validator

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/settings"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
	"github.com/bsv-blockchain/txhandler/stores/utxo/memory"
	"github.com/bsv-blockchain/txhandler/ulogger"
	"github.com/bsv-blockchain/txhandler/util/tracing"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// TxValidator implements transaction validation logic
type TxValidator struct {
	logger   ulogger.Logger
	settings *settings.Settings
	options  *TxValidatorOptions
}

// NewTxValidator creates a validator. Unless WithVerifier is given, signatures are checked
// with the ECDSA verifier, wrapped in the signature cache when the settings enable it.
func NewTxValidator(logger ulogger.Logger, tSettings *settings.Settings, opts ...TxValidatorOption) *TxValidator {
	initPrometheusMetrics()

	options := NewTxValidatorOptions(opts...)

	if options.verifier == nil {
		var verifier Verifier = NewECDSAVerifier()

		if tSettings.Validator.SigCacheEnabled {
			verifier = NewCachedVerifier(verifier, tSettings.Validator.SigCacheSize, tSettings.Validator.SigCacheTTL)
		}

		options.verifier = verifier
	}

	return &TxValidator{
		logger:   logger,
		settings: tSettings,
		options:  options,
	}
}

// Verifier returns the verifier in use.
func (tv *TxValidator) Verifier() Verifier {
	return tv.options.verifier
}

// ValidateTransaction checks tx against pool, input by input in order:
//  1. the referenced UTXO must be in the pool
//  2. the signature must verify against the public key of the referenced output
//  3. the UTXO must not have been claimed by an earlier input of the same transaction
//
// then every output value must be non-negative, and finally the input total must cover
// the output total.
func (tv *TxValidator) ValidateTransaction(pool utxo.Pool, tx *model.Transaction) error {
	start := time.Now()
	defer func() {
		prometheusTransactionValidate.Observe(time.Since(start).Seconds())
	}()

	if tx == nil {
		return errors.NewTxInvalidError("[ValidateTransaction] transaction is nil")
	}

	if err := checkStructure(tx); err != nil {
		return err
	}

	inputSum, err := tv.checkInputs(pool, tx)
	if err != nil {
		return err
	}

	outputSum, err := checkOutputs(tx)
	if err != nil {
		return err
	}

	if inputSum < outputSum {
		return errors.NewTxInvalidError("[ValidateTransaction][%s] insufficient input value: %d < %d", tx, inputSum, outputSum)
	}

	return nil
}

func (tv *TxValidator) IsValid(pool utxo.Pool, tx *model.Transaction) bool {
	err := tv.ValidateTransaction(pool, tx)
	if err != nil {
		prometheusInvalidTransactions.WithLabelValues(reason(err)).Inc()
		tv.logger.Debugf("[IsValid] %v", err)

		return false
	}

	return true
}

func (tv *TxValidator) Fee(pool utxo.Pool, tx *model.Transaction) (int64, bool) {
	if tx == nil || checkStructure(tx) != nil {
		return 0, false
	}

	var (
		inputSum, outputSum int64
		ok                  bool
	)

	for _, in := range tx.Inputs {
		out, err := pool.Get(in.UTXO())
		if err != nil {
			return 0, false
		}

		if inputSum, ok = addInt64(inputSum, out.Value); !ok {
			return 0, false
		}
	}

	for _, out := range tx.Outputs {
		if outputSum, ok = addInt64(outputSum, out.Value); !ok {
			return 0, false
		}
	}

	if outputSum == math.MinInt64 {
		return 0, false
	}

	return addInt64(inputSum, -outputSum)
}

// CheckBatch validates every transaction of txs against pool concurrently, without
// applying any of them. The result holds one entry per transaction in batch order, nil
// for a valid transaction. The returned error is only set when ctx is cancelled.
func (tv *TxValidator) CheckBatch(ctx context.Context, pool utxo.Pool, txs []*model.Transaction) (results []error, err error) {
	start := time.Now()

	ctx, _, endSpan := tracing.Start(ctx, "TxValidator:CheckBatch", attribute.Int("batch_size", len(txs)))
	defer func() {
		endSpan(err)
		prometheusCheckBatch.Observe(time.Since(start).Seconds())
	}()

	concurrency := tv.settings.Validator.CheckBatchConcurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results = make([]error, len(txs))

	for i, tx := range txs {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}

			results[i] = tv.ValidateTransaction(pool, tx)

			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return nil, errors.NewContextError("[CheckBatch] batch check cancelled", err)
	}

	return results, nil
}

func checkStructure(tx *model.Transaction) error {
	if err := tx.CheckStructure(); err != nil {
		return errors.NewTxInvalidError("[ValidateTransaction][%s] malformed transaction", tx, err)
	}

	return nil
}

// checkInputs returns the total value claimed by the inputs.
func (tv *TxValidator) checkInputs(pool utxo.Pool, tx *model.Transaction) (int64, error) {
	var (
		total int64
		ok    bool
	)

	// claims made by this transaction only, never the live pool
	claimed := memory.New(tv.logger)

	for index, input := range tx.Inputs {
		u := input.UTXO()

		out, err := pool.Get(u)
		if err != nil {
			return 0, errors.NewTxInvalidError("[ValidateTransaction][%s] input %d references unknown utxo", tx, index, err)
		}

		msg, err := tv.options.signingMessage(tx, index)
		if err != nil {
			return 0, errors.NewTxInvalidError("[ValidateTransaction][%s] could not build signing message for input %d", tx, index, err)
		}

		if !tv.options.verifier.Verify(out.PublicKey, msg, input.Signature) {
			return 0, errors.NewTxInvalidSignatureError("[ValidateTransaction][%s] signature of input %d does not verify for utxo %s", tx, index, u.String())
		}

		if err = claimed.Add(u, out); err != nil {
			return 0, errors.NewTxInvalidDoubleSpendError("[ValidateTransaction][%s] input %d claims utxo %s more than once", tx, index, u.String())
		}

		if total, ok = addInt64(total, out.Value); !ok {
			return 0, errors.NewTxInvalidError("[ValidateTransaction][%s] input total overflows at input %d", tx, index)
		}
	}

	return total, nil
}

// checkOutputs returns the total value of the outputs.
func checkOutputs(tx *model.Transaction) (int64, error) {
	var (
		total int64
		ok    bool
	)

	for index, output := range tx.Outputs {
		if output.Value < 0 {
			return 0, errors.NewTxInvalidError("[ValidateTransaction][%s] output %d has negative value %d", tx, index, output.Value)
		}

		if total, ok = addInt64(total, output.Value); !ok {
			return 0, errors.NewTxInvalidError("[ValidateTransaction][%s] output total overflows at output %d", tx, index)
		}
	}

	return total, nil
}

func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}

	return a + b, true
}

// reason is the code of the innermost coded error, used as metrics label.
func reason(err error) string {
	code := errors.ERR_UNKNOWN

	for err != nil {
		var tErr *errors.Error
		if !errors.As(err, &tErr) {
			break
		}

		code = tErr.Code()
		err = tErr.WrappedErr()
	}

	return code.String()
}
