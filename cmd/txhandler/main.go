package main

import (
	"context"
	"os"
	"time"

	"github.com/bsv-blockchain/txhandler/cmd/txhandler/txhandler"
	"github.com/bsv-blockchain/txhandler/settings"
	"github.com/bsv-blockchain/txhandler/ulogger"
	"github.com/bsv-blockchain/txhandler/util/tracing"
)

// Version & commit strings injected at build with -ldflags -X...
var (
	version string
	commit  string
)

func main() {
	tSettings := settings.NewSettings()

	if version != "" {
		tSettings.Version = version
		tSettings.Commit = commit
	}

	// stdout carries the reports
	logger := ulogger.New(tSettings.ServiceName,
		ulogger.WithLevel(tSettings.LogLevel),
		ulogger.WithLoggerType(tSettings.LoggerType),
		ulogger.WithPretty(tSettings.PrettyLogs),
		ulogger.WithWriter(os.Stderr),
	)

	if err := tracing.InitTracer(tSettings); err != nil {
		logger.Fatalf("failed to initialise tracing: %v", err)
	}

	err := txhandler.NewApp(logger, tSettings).Run(os.Args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if shutdownErr := tracing.ShutdownTracer(ctx); shutdownErr != nil {
		logger.Warnf("failed to shut down tracer: %v", shutdownErr)
	}

	cancel()

	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
