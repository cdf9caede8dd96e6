// Package txhandler implements the txhandler command line: it loads an epoch fixture and
// runs transaction checks or block assembly selection over it, writing JSON reports.
package txhandler

import (
	"fmt"
	"io"
	"os"

	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/services/blockassembly"
	"github.com/bsv-blockchain/txhandler/services/validator"
	"github.com/bsv-blockchain/txhandler/settings"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
	poollogger "github.com/bsv-blockchain/txhandler/stores/utxo/logger"
	"github.com/bsv-blockchain/txhandler/ulogger"
	"github.com/ordishs/gocore"
	"github.com/urfave/cli/v2"
)

type app struct {
	logger   ulogger.Logger
	settings *settings.Settings
}

// NewApp returns the txhandler CLI. Reports are written to the app's Writer, stdout unless
// the caller replaces it.
func NewApp(logger ulogger.Logger, tSettings *settings.Settings) *cli.App {
	a := &app{logger: logger, settings: tSettings}

	inputFlag := &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "epoch fixture JSON file, - for stdin",
		Required: true,
	}

	return &cli.App{
		Name:    "txhandler",
		Usage:   "validate transactions and select them for a block",
		Version: fmt.Sprintf("%s (%s)", tSettings.Version, tSettings.Commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "DEBUG, INFO, WARN or ERROR",
				Value: tSettings.LogLevel,
			},
		},
		Before: func(c *cli.Context) error {
			a.logger.SetLogLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "select",
				Usage:  "Select a mutually valid set of transactions from the batch and report the resulting pool",
				Action: a.selectAction,
				Flags: []cli.Flag{
					inputFlag,
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "basic or maxfee",
						Value: tSettings.BlockAssembly.SelectorStrategy,
					},
					&cli.IntFlag{
						Name:  "max-sweeps",
						Usage: "upper bound on max-fee sweeps, 0 for no bound",
						Value: tSettings.BlockAssembly.MaxSweeps,
					},
				},
			},
			{
				Name:   "check",
				Usage:  "Check every batch transaction against the initial pool",
				Action: a.checkAction,
				Flags:  []cli.Flag{inputFlag},
			},
			{
				Name:   "settings",
				Usage:  "Print the effective configuration",
				Action: a.settingsAction,
			},
		},
	}
}

func (a *app) loadEpoch(c *cli.Context) (*Epoch, error) {
	input := c.String("input")

	var r io.Reader = c.App.Reader

	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, errors.NewProcessingError("[loadEpoch] could not open %s", input, err)
		}
		defer f.Close()

		r = f
	}

	fixture, err := DecodeFixture(r)
	if err != nil {
		return nil, err
	}

	epoch, err := fixture.Build(a.logger)
	if err != nil {
		return nil, err
	}

	a.logger.Infof("[loadEpoch] loaded %d utxos and %d transactions from %s", epoch.Pool.Len(), len(epoch.Batch), input)

	return epoch, nil
}

// pool wraps the epoch pool in the logging decorator when debug logging is on.
func (a *app) pool(epoch *Epoch) utxo.Pool {
	if a.logger.LogLevel() == int(gocore.DEBUG) {
		return poollogger.New(a.logger, epoch.Pool)
	}

	return epoch.Pool
}

func (a *app) selectAction(c *cli.Context) error {
	epoch, err := a.loadEpoch(c)
	if err != nil {
		return err
	}

	tSettings := *a.settings
	tSettings.BlockAssembly.SelectorStrategy = c.String("strategy")
	tSettings.BlockAssembly.MaxSweeps = c.Int("max-sweeps")

	selector, err := blockassembly.NewSelector(a.logger, &tSettings, validator.NewTxValidator(a.logger, &tSettings))
	if err != nil {
		return err
	}

	pool := a.pool(epoch)

	result, selectErr := selector.Select(c.Context, pool, epoch.Batch)
	if result == nil {
		return selectErr
	}

	if err = writeJSON(c.App.Writer, newSelectReport(tSettings.BlockAssembly.SelectorStrategy, result, pool, selectErr)); err != nil {
		return err
	}

	return selectErr
}

func (a *app) checkAction(c *cli.Context) error {
	epoch, err := a.loadEpoch(c)
	if err != nil {
		return err
	}

	tv := validator.NewTxValidator(a.logger, a.settings)
	pool := a.pool(epoch)

	results, err := tv.CheckBatch(c.Context, pool, epoch.Batch)
	if err != nil {
		return err
	}

	report := &CheckReport{Transactions: make([]CheckEntry, 0, len(results))}

	for i, tx := range epoch.Batch {
		fee, ok := tv.Fee(pool, tx)
		entry := newCheckEntry(i, tx, results[i], fee, ok)

		if entry.Valid {
			report.Valid++
		} else {
			report.Invalid++
		}

		report.Transactions = append(report.Transactions, entry)
	}

	return writeJSON(c.App.Writer, report)
}

func (a *app) settingsAction(c *cli.Context) error {
	stats := gocore.Config().Stats()

	_, err := fmt.Fprintf(c.App.Writer, "STATS\n%s\nVERSION\n-------\n%s (%s)\n\n", stats, a.settings.Version, a.settings.Commit)
	if err != nil {
		return err
	}

	return writeJSON(c.App.Writer, a.settings)
}
