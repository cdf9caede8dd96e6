package ulogger

import (
	"github.com/ordishs/gocore"
)

type GoCoreLogger struct {
	*gocore.Logger
	service string
}

func NewGoCoreLogger(service string, options ...Option) *GoCoreLogger {
	if service == "" {
		service = "txhandler"
	}

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	return &GoCoreLogger{gocore.Log(service, gocore.NewLogLevelFromString(opts.logLevel)), service}
}

func (g *GoCoreLogger) New(service string, _ ...Option) Logger {
	return &GoCoreLogger{gocore.Log(service, g.Logger.GetLogLevel()), service}
}

func (g *GoCoreLogger) Duplicate(options ...Option) Logger {
	defaultOpts := DefaultOptions()
	opts := DefaultOptions()

	for _, o := range options {
		o(opts)
	}

	if opts.logLevel != defaultOpts.logLevel {
		return &GoCoreLogger{gocore.Log(g.service, gocore.NewLogLevelFromString(opts.logLevel)), g.service}
	}

	return &GoCoreLogger{g.Logger, g.service}
}

func (g *GoCoreLogger) SetLogLevel(_ string) {
	// gocore fixes the level when the logger is created
}
