package errors

import "strconv"

// ERR is the numeric code carried by every *Error.
type ERR int32

//nolint:revive,stylecheck // codes keep their upper-case wire names
const (
	ERR_UNKNOWN                 ERR = 0
	ERR_INVALID_ARGUMENT        ERR = 1
	ERR_THRESHOLD_EXCEEDED      ERR = 2
	ERR_NOT_FOUND               ERR = 3
	ERR_PROCESSING              ERR = 4
	ERR_CONFIGURATION           ERR = 5
	ERR_CONTEXT                 ERR = 6
	ERR_ERROR                   ERR = 9
	ERR_TX_NOT_FOUND            ERR = 30
	ERR_TX_INVALID              ERR = 31
	ERR_TX_INVALID_DOUBLE_SPEND ERR = 32
	ERR_TX_INVALID_SIGNATURE    ERR = 33
	ERR_TX_ALREADY_EXISTS       ERR = 34
	ERR_TX_FINALIZED            ERR = 35
	ERR_TX_ERROR                ERR = 39
	ERR_UTXO_NOT_FOUND          ERR = 50
	ERR_UTXO_ALREADY_EXISTS     ERR = 51
	ERR_UTXO_ERROR              ERR = 59
	ERR_STORAGE_ERROR           ERR = 69
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	2:  "THRESHOLD_EXCEEDED",
	3:  "NOT_FOUND",
	4:  "PROCESSING",
	5:  "CONFIGURATION",
	6:  "CONTEXT",
	9:  "ERROR",
	30: "TX_NOT_FOUND",
	31: "TX_INVALID",
	32: "TX_INVALID_DOUBLE_SPEND",
	33: "TX_INVALID_SIGNATURE",
	34: "TX_ALREADY_EXISTS",
	35: "TX_FINALIZED",
	39: "TX_ERROR",
	50: "UTXO_NOT_FOUND",
	51: "UTXO_ALREADY_EXISTS",
	59: "UTXO_ERROR",
	69: "STORAGE_ERROR",
}

// Enum returns the symbolic name of the code.
func (x ERR) Enum() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return strconv.Itoa(int(x))
}

func (x ERR) String() string {
	return x.Enum()
}
