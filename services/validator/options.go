package validator

type TxValidatorOptions struct {
	verifier       Verifier
	signingMessage SigningMessageFunc
}

// TxValidatorOption is a function that sets some option on the TxValidatorOptions struct
type TxValidatorOption func(*TxValidatorOptions)

func NewTxValidatorOptions(opts ...TxValidatorOption) *TxValidatorOptions {
	options := &TxValidatorOptions{
		signingMessage: DefaultSigningMessage,
	}

	for _, o := range opts {
		o(options)
	}

	return options
}

// WithVerifier replaces the signature verifier. The verifier is used as given, it is
// not wrapped in the signature cache.
func WithVerifier(verifier Verifier) TxValidatorOption {
	return func(o *TxValidatorOptions) {
		o.verifier = verifier
	}
}

// WithSigningMessage replaces the function producing the message signed by each input.
func WithSigningMessage(fn SigningMessageFunc) TxValidatorOption {
	return func(o *TxValidatorOptions) {
		if fn != nil {
			o.signingMessage = fn
		}
	}
}
