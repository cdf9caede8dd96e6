package txhandler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bsv-blockchain/txhandler/errors"
	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/services/validator"
	"github.com/bsv-blockchain/txhandler/ulogger"
	"github.com/bsv-blockchain/txhandler/util/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFixture(t *testing.T, s string) (*Epoch, error) {
	fixture, err := DecodeFixture(strings.NewReader(s))
	require.NoError(t, err)

	return fixture.Build(ulogger.TestLogger{})
}

func TestFixtureBuild(t *testing.T) {
	epoch, err := buildFixture(t, chainFixture())
	require.NoError(t, err)

	require.Equal(t, 1, epoch.Pool.Len())
	require.Len(t, epoch.Batch, 2)

	child, parent := epoch.Batch[0], epoch.Batch[1]

	assert.True(t, child.IsFinalized())
	assert.True(t, parent.IsFinalized())
	assert.Equal(t, parent.Hash(), child.Inputs[0].PrevTxHash)
	assert.Equal(t, test.PublicKey(test.PrivateKey("k2")), parent.Outputs[0].PublicKey)

	tv := validator.NewTxValidator(ulogger.TestLogger{}, test.CreateBaseTestSettings())
	require.NoError(t, tv.ValidateTransaction(epoch.Pool, parent))

	// the child only becomes valid once the parent's output is in the pool
	assert.False(t, tv.IsValid(epoch.Pool, child))

	parentOut, err := parent.OutputUTXO(0)
	require.NoError(t, err)
	require.NoError(t, epoch.Pool.Add(parentOut, *parent.Outputs[0]))
	assert.NoError(t, tv.ValidateTransaction(epoch.Pool, child))
}

func TestFixtureSignsLikeBuilder(t *testing.T) {
	epoch, err := buildFixture(t, conflictFixture())
	require.NoError(t, err)

	a := model.NewUTXO(epoch.Batch[0].Inputs[0].PrevTxHash, 0)
	want := test.NewTx().Spend(a, test.PrivateKey("k1")).Pay(4, test.PrivateKey("k2")).Build(t)

	assert.Equal(t, want.Hash(), epoch.Batch[0].Hash())
}

func TestFixtureUnsignedInput(t *testing.T) {
	epoch, err := buildFixture(t, fmt.Sprintf(`{
		"pool": [],
		"transactions": [{"inputs": [{"txid": %q, "vout": 3}], "outputs": []}]
	}`, poolTxID))
	require.NoError(t, err)

	require.Len(t, epoch.Batch[0].Inputs, 1)
	assert.Empty(t, epoch.Batch[0].Inputs[0].Signature)
	assert.Equal(t, uint32(3), epoch.Batch[0].Inputs[0].OutputIndex)
}

func TestFixtureErrors(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		wantErr error
	}{
		{
			name: "reference cycle",
			fixture: `{"transactions": [
				{"inputs": [{"txid": "#1", "vout": 0}]},
				{"inputs": [{"txid": "#0", "vout": 0}]}
			]}`,
			wantErr: errors.ErrInvalidArgument,
		},
		{
			name:    "self reference",
			fixture: `{"transactions": [{"inputs": [{"txid": "#0", "vout": 0}]}]}`,
			wantErr: errors.ErrInvalidArgument,
		},
		{
			name:    "reference out of range",
			fixture: `{"transactions": [{"inputs": [{"txid": "#5", "vout": 0}]}]}`,
			wantErr: errors.ErrInvalidArgument,
		},
		{
			name:    "reference not a number",
			fixture: `{"transactions": [{"inputs": [{"txid": "#x", "vout": 0}]}]}`,
			wantErr: errors.ErrInvalidArgument,
		},
		{
			name:    "invalid txid",
			fixture: `{"transactions": [{"inputs": [{"txid": "zz", "vout": 0}]}]}`,
			wantErr: errors.ErrInvalidArgument,
		},
		{
			name:    "invalid pool pubkey",
			fixture: fmt.Sprintf(`{"pool": [{"txid": %q, "vout": 0, "value": 1, "pubkey": "xyz"}]}`, poolTxID),
			wantErr: errors.ErrInvalidArgument,
		},
		{
			name: "repeated pool entry",
			fixture: fmt.Sprintf(`{"pool": [
				{"txid": %q, "vout": 0, "value": 1, "pubkey": "00"},
				{"txid": %q, "vout": 0, "value": 2, "pubkey": "00"}
			]}`, poolTxID, poolTxID),
			wantErr: errors.ErrUtxoAlreadyExists,
		},
		{
			name:    "short private key",
			fixture: fmt.Sprintf(`{"transactions": [{"inputs": [{"txid": %q, "vout": 0, "privkey": "0102"}]}]}`, poolTxID),
			wantErr: errors.ErrInvalidArgument,
		},
		{
			name:    "invalid signature hex",
			fixture: fmt.Sprintf(`{"transactions": [{"inputs": [{"txid": %q, "vout": 0, "signature": "nothex"}]}]}`, poolTxID),
			wantErr: errors.ErrInvalidArgument,
		},
		{
			name:    "invalid output key",
			fixture: `{"transactions": [{"outputs": [{"value": 1, "privkey": "01"}]}]}`,
			wantErr: errors.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildFixture(t, tt.fixture)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), err.Error())
		})
	}
}

func TestDecodeFixtureInvalid(t *testing.T) {
	_, err := DecodeFixture(strings.NewReader(`{"pool": 1}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProcessing))
}
