package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/AlexZinkM/did-card/didcard"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func encodeUint256s(t *testing.T, values ...int64) []byte {
	t.Helper()
	uint256, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)
	args := make(abi.Arguments, len(values))
	params := make([]any, len(values))
	for i, v := range values {
		args[i] = abi.Argument{Type: uint256}
		params[i] = big.NewInt(v)
	}
	out, err := args.Pack(params...)
	require.NoError(t, err)
	return out
}

type fakeRelayer struct {
	keyCalls     atomic.Int32
	lastDecrypt  publicDecryptRequest
	lastInput    inputProofRequest
	handle       []byte
	clearValues  []byte
	decryptFails bool
}

func (f *fakeRelayer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/keyurl", func(w http.ResponseWriter, r *http.Request) {
		f.keyCalls.Add(1)
		w.Write([]byte(`{"response":{"fheKeyInfo":[{"fhePublicKey":{"dataId":"pk-1","urls":["https://keys.example/pk-1"]}}]}}`))
	})
	mux.HandleFunc("POST /v1/input-proof", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastInput))
		json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{
			"handles":    []string{hexutil.Encode(f.handle)},
			"inputProof": "0x0102",
		}})
	})
	mux.HandleFunc("POST /v1/public-decrypt", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastDecrypt))
		if f.decryptFails {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"handle not allowed for public decryption"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{
			"abiEncodedClearValues": hexutil.Encode(f.clearValues),
			"decryptionProof":       "0xbeef",
		}})
	})
	return mux
}

func newRelayerFixture(t *testing.T) (*RelayerClient, *fakeRelayer) {
	t.Helper()
	handle := make([]byte, 32)
	handle[31] = 7
	fake := &fakeRelayer{handle: handle, clearValues: encodeUint256s(t, 42)}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return NewRelayerClient(srv.URL+"/", 11155111, quietLogger()), fake
}

func TestRelayerInitializeIdempotent(t *testing.T) {
	c, fake := newRelayerFixture(t)

	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, int32(1), fake.keyCalls.Load())
}

func TestRelayerRequiresInitialize(t *testing.T) {
	c, _ := newRelayerFixture(t)

	_, err := c.Encrypt(context.Background(), "0xc0", "0xa1", 17)
	assert.EqualError(t, err, "FHE client not initialized")
}

func TestRelayerEncrypt(t *testing.T) {
	c, fake := newRelayerFixture(t)
	require.NoError(t, c.Initialize(context.Background()))

	enc, err := c.Encrypt(context.Background(), "0xc0", "0xa1", 17)
	require.NoError(t, err)
	assert.Equal(t, fake.handle, enc.Handle)
	assert.Equal(t, []byte{1, 2}, enc.Proof)

	assert.Equal(t, "0xc0", fake.lastInput.ContractAddress)
	assert.Equal(t, "0xa1", fake.lastInput.UserAddress)
	assert.Equal(t, "0xaa36a7", fake.lastInput.ContractChainID)
	assert.Equal(t, []inputValue{{Type: "euint32", Value: "17"}}, fake.lastInput.Values)
}

func TestRelayerVerifyDecryption(t *testing.T) {
	c, fake := newRelayerFixture(t)
	require.NoError(t, c.Initialize(context.Background()))

	var gotClear, gotProof []byte
	values, err := c.VerifyDecryption(context.Background(), [][]byte{fake.handle}, "0xc0", func(ctx context.Context, clear, proof []byte) error {
		gotClear, gotProof = clear, proof
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{didcard.HandleKey(fake.handle): 42}, values)
	assert.Equal(t, fake.clearValues, gotClear)
	assert.Equal(t, []byte{0xbe, 0xef}, gotProof)
	assert.Equal(t, []string{hexutil.Encode(fake.handle)}, fake.lastDecrypt.CiphertextHandles)
}

func TestRelayerVerifyDecryptionSubmitError(t *testing.T) {
	c, fake := newRelayerFixture(t)
	require.NoError(t, c.Initialize(context.Background()))

	_, err := c.VerifyDecryption(context.Background(), [][]byte{fake.handle}, "0xc0", func(context.Context, []byte, []byte) error {
		return didcard.ErrAlreadyVerified
	})
	assert.ErrorIs(t, err, didcard.ErrAlreadyVerified)
}

func TestRelayerVerifyDecryptionRelayerError(t *testing.T) {
	c, fake := newRelayerFixture(t)
	require.NoError(t, c.Initialize(context.Background()))
	fake.decryptFails = true

	called := false
	_, err := c.VerifyDecryption(context.Background(), [][]byte{fake.handle}, "0xc0", func(context.Context, []byte, []byte) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "status 400: handle not allowed for public decryption")
	assert.False(t, called)
}

func TestDecodeClearValues(t *testing.T) {
	a, b := []byte{0x01}, []byte{0x02}

	values, err := decodeClearValues([][]byte{a, b}, encodeUint256s(t, 17, 65))
	require.NoError(t, err)
	assert.Equal(t, uint64(17), values[didcard.HandleKey(a)])
	assert.Equal(t, uint64(65), values[didcard.HandleKey(b)])

	_, err = decodeClearValues([][]byte{a, b}, encodeUint256s(t, 17))
	assert.True(t, errors.Is(err, didcard.ErrVerification))
}
