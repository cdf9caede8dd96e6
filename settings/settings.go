package settings

import (
	"time"
)

func NewSettings() *Settings {
	return &Settings{
		ServiceName:         getString("SERVICE_NAME", "txhandler"),
		Version:             getString("VERSION", "dev"),
		Commit:              getString("COMMIT", ""),
		LogLevel:            getString("logLevel", "INFO"),
		LoggerType:          getString("logger_type", "zerolog"),
		PrettyLogs:          getBool("PRETTY_LOGS", true),
		TracingEnabled:      getBool("tracing_enabled", false),
		TracingCollectorURL: getURL("tracing_collector_url", "localhost:4318"),
		TracingSampleRate:   getFloat64("tracing_sample_rate", 0.01),
		BlockAssembly: BlockAssemblySettings{
			SelectorStrategy: getString("blockassembly_selectorStrategy", "maxfee"),
			MaxSweeps:        getInt("blockassembly_maxSweeps", 0),
		},
		Validator: ValidatorSettings{
			SigCacheEnabled:       getBool("validator_sigCacheEnabled", true),
			SigCacheSize:          getInt("validator_sigCacheSize", 100_000),
			SigCacheTTL:           getDuration("validator_sigCacheTTL", 10*time.Minute),
			CheckBatchConcurrency: getInt("validator_checkBatchConcurrency", 0), // 0 uses GOMAXPROCS
		},
	}
}
