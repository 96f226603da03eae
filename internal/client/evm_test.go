package client

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContractAddress = "0x00000000000000000000000000000000000000C0"

type evmSigner struct {
	key        *ecdsa.PrivateKey
	approveErr error
	approvals  []string
}

func (s *evmSigner) Address() string { return ethcrypto.PubkeyToAddress(s.key.PublicKey).Hex() }

func (s *evmSigner) EthereumKey() (*ecdsa.PrivateKey, error) { return s.key, nil }

func (s *evmSigner) Approve(ctx context.Context, action string) error {
	s.approvals = append(s.approvals, action)
	return s.approveErr
}

func newTestEVMRegistry(t *testing.T) *EVMRegistry {
	t.Helper()
	r, err := newEVMRegistry(nil, testContractAddress, big.NewInt(11155111), quietLogger())
	require.NoError(t, err)
	return r
}

func TestNewEVMRegistryValidatesAddress(t *testing.T) {
	_, err := newEVMRegistry(nil, "not-an-address", big.NewInt(1), quietLogger())
	assert.EqualError(t, err, `invalid contract address "not-an-address"`)

	r := newTestEVMRegistry(t)
	assert.Equal(t, common.HexToAddress(testContractAddress).Hex(), r.Address())
}

func TestDecodeEVMRecord(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	require.NoError(t, err)
	outputs := parsed.Methods["getBusinessData"].Outputs
	creator := common.HexToAddress("0x00000000000000000000000000000000000000a1")

	packed, err := outputs.Pack("Alice", uint32(0), uint32(0), "student", creator, big.NewInt(1730000000), true, uint32(42))
	require.NoError(t, err)
	out, err := outputs.Unpack(packed)
	require.NoError(t, err)

	record, err := decodeEVMRecord(outputs, "did-1", out)
	require.NoError(t, err)
	assert.Equal(t, "did-1", record.ID)
	assert.Equal(t, "Alice", record.Name)
	assert.Equal(t, "student", record.Description)
	assert.Equal(t, creator.Hex(), record.Creator)
	assert.Equal(t, int64(1730000000), record.Timestamp)
	assert.True(t, record.IsVerified)
	require.NotNil(t, record.DecryptedValue)
	assert.Equal(t, uint32(42), *record.DecryptedValue)
}

func TestDecodeEVMRecordUnverifiedHasNoValue(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	require.NoError(t, err)
	outputs := parsed.Methods["getBusinessData"].Outputs

	packed, err := outputs.Pack("Bob", uint32(0), uint32(0), "", common.Address{}, big.NewInt(1), false, uint32(0))
	require.NoError(t, err)
	out, err := outputs.Unpack(packed)
	require.NoError(t, err)

	record, err := decodeEVMRecord(outputs, "did-2", out)
	require.NoError(t, err)
	assert.False(t, record.IsVerified)
	assert.Nil(t, record.DecryptedValue)
}

func TestClassifyEVMError(t *testing.T) {
	tests := []struct {
		msg  string
		kind didcard.Kind
	}{
		{"execution reverted: Already verified", didcard.KindAlreadyVerified},
		{"execution reverted: already verified", didcard.KindAlreadyVerified},
		{"user rejected transaction", didcard.KindUserRejected},
		{"MetaMask Tx Signature: User denied transaction signature.", didcard.KindUserRejected},
		{"execution reverted: Business data does not exist", didcard.KindNotFound},
		{"insufficient funds for gas * price + value", didcard.KindChain},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := classifyEVMError(errors.New(tt.msg))
			assert.Equal(t, tt.kind, didcard.KindOf(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	assert.Nil(t, classifyEVMError(nil))
	assert.Equal(t, context.Canceled, classifyEVMError(context.Canceled))
}

func TestEVMCreateRecordRequiresApproval(t *testing.T) {
	r := newTestEVMRegistry(t)
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	signer := &evmSigner{key: key, approveErr: fmt.Errorf("%w: declined", didcard.ErrUserRejected)}

	_, err = r.CreateRecord(context.Background(), signer, model.CreateRecordTx{ID: "did-1", Ciphertext: make([]byte, 32)})
	assert.ErrorIs(t, err, didcard.ErrUserRejected)
	assert.Equal(t, []string{"create did-1"}, signer.approvals)
}

func TestEVMCreateRecordValidatesHandle(t *testing.T) {
	r := newTestEVMRegistry(t)
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	_, err = r.CreateRecord(context.Background(), &evmSigner{key: key}, model.CreateRecordTx{ID: "did-1", Ciphertext: []byte{1}})
	assert.ErrorIs(t, err, didcard.ErrInvalidInput)
}

func TestEVMTransactorRejectsForeignSigner(t *testing.T) {
	r := newTestEVMRegistry(t)

	_, err := r.SubmitVerification(context.Background(), plainSigner("abc"), "did-1", nil, nil)
	assert.ErrorIs(t, err, didcard.ErrNotConnected)
}

type plainSigner string

func (s plainSigner) Address() string { return string(s) }
