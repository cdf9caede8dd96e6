package settings

import (
	"net/url"
	"time"
)

type BlockAssemblySettings struct {
	// SelectorStrategy names the selector used for an epoch: "basic" or "maxfee".
	SelectorStrategy string
	// MaxSweeps caps the retry sweeps of the max-fee selector, 0 leaves only the batch size bound.
	MaxSweeps int
}

type ValidatorSettings struct {
	SigCacheEnabled       bool
	SigCacheSize          int
	SigCacheTTL           time.Duration
	CheckBatchConcurrency int
}

type Settings struct {
	ServiceName         string
	Version             string
	Commit              string
	LogLevel            string
	LoggerType          string
	PrettyLogs          bool
	TracingEnabled      bool
	TracingCollectorURL *url.URL
	TracingSampleRate   float64
	BlockAssembly       BlockAssemblySettings
	Validator           ValidatorSettings
}
