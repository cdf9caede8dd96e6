package errors

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// ErrDataI is an interface for error data that can be set, retrieved, and encoded.
type ErrDataI interface {
	EncodeErrorData() []byte
	Error() string
	GetData(key string) interface{}
	SetData(key string, value interface{})
}

// ErrData is a generic error data structure that implements the ErrDataI interface.
type ErrData map[string]interface{}

func (e *ErrData) Error() string {
	return fmt.Sprintf(" %v", *e)
}

func (e *ErrData) SetData(key string, value interface{}) {
	if e == nil {
		return
	}

	(*e)[key] = value
}

func (e *ErrData) GetData(key string) interface{} {
	if e == nil {
		return nil
	}

	return (*e)[key]
}

func (e *ErrData) EncodeErrorData() []byte {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// ApplyErrData describes a transaction whose effects could not be applied to a pool.
type ApplyErrData struct {
	TxHash string `json:"txHash"`
	UTXO   string `json:"utxo"`
	Stage  string `json:"stage"`
}

func (e *ApplyErrData) Error() string {
	return fmt.Sprintf("tx %s failed to apply at %s of utxo %s", e.TxHash, e.Stage, e.UTXO)
}

func (e *ApplyErrData) SetData(key string, value interface{}) {
	s, _ := value.(string)

	switch key {
	case "txHash":
		e.TxHash = s
	case "utxo":
		e.UTXO = s
	case "stage":
		e.Stage = s
	}
}

func (e *ApplyErrData) GetData(key string) interface{} {
	switch key {
	case "txHash":
		return e.TxHash
	case "utxo":
		return e.UTXO
	case "stage":
		return e.Stage
	}

	return nil
}

func (e *ApplyErrData) EncodeErrorData() []byte {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// NewApplyError returns a processing error carrying ApplyErrData for the failed step.
func NewApplyError(txHash, utxo, stage string, err error) error {
	data := &ApplyErrData{TxHash: txHash, UTXO: utxo, Stage: stage}

	e := New(ERR_PROCESSING, "failed to apply transaction", err)
	e.data = data

	return e
}
