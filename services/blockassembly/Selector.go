package blockassembly

import (
	"strings"

	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/services/validator"
	"github.com/bsv-blockchain/txhandler/settings"
	"github.com/bsv-blockchain/txhandler/ulogger"
)

// NewSelector returns the selector named by BlockAssembly.SelectorStrategy.
func NewSelector(logger ulogger.Logger, tSettings *settings.Settings, v validator.Interface) (Selector, error) {
	switch strings.ToLower(tSettings.BlockAssembly.SelectorStrategy) {
	case strategyBasic:
		return NewBasicSelector(logger, tSettings, v), nil
	case strategyMaxFee:
		return NewMaxFeeSelector(logger, tSettings, v), nil
	default:
		return nil, errors.NewConfigurationError("[NewSelector] unknown selector strategy %q, expected %q or %q",
			tSettings.BlockAssembly.SelectorStrategy, strategyBasic, strategyMaxFee)
	}
}
