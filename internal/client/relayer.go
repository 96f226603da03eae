package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

const relayerValueType = "euint32"

// RelayerClient is the FHE SDK backed by an FHE relayer's HTTP API
type RelayerClient struct {
	baseURL string
	chainID int64
	client  *http.Client
	log     *logrus.Logger

	mu     sync.Mutex
	keyURL string // set once Initialize succeeded
}

// NewRelayerClient creates a new relayer client
func NewRelayerClient(baseURL string, chainID int64, log *logrus.Logger) *RelayerClient {
	return &RelayerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		chainID: chainID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// keyURLResponse response from GET /v1/keyurl
type keyURLResponse struct {
	Response struct {
		FHEKeyInfo []struct {
			FHEPublicKey struct {
				DataID string   `json:"dataId"`
				URLs   []string `json:"urls"`
			} `json:"fhePublicKey"`
		} `json:"fheKeyInfo"`
	} `json:"response"`
}

type inputValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// inputProofRequest request for POST /v1/input-proof
type inputProofRequest struct {
	ContractAddress string       `json:"contractAddress"`
	UserAddress     string       `json:"userAddress"`
	ContractChainID string       `json:"contractChainId"`
	Values          []inputValue `json:"values"`
}

// inputProofResponse response from POST /v1/input-proof
type inputProofResponse struct {
	Response struct {
		Handles    []string `json:"handles"`
		InputProof string   `json:"inputProof"`
	} `json:"response"`
}

// publicDecryptRequest request for POST /v1/public-decrypt
type publicDecryptRequest struct {
	CiphertextHandles []string `json:"ciphertextHandles"`
	ContractAddress   string   `json:"contractAddress"`
	ContractChainID   string   `json:"contractChainId"`
	ExtraData         string   `json:"extraData"`
}

// publicDecryptResponse response from POST /v1/public-decrypt
type publicDecryptResponse struct {
	Response struct {
		ABIEncodedClearValues string `json:"abiEncodedClearValues"`
		DecryptionProof       string `json:"decryptionProof"`
	} `json:"response"`
}

type relayerError struct {
	Message string `json:"message"`
}

// Initialize fetches the FHE public key location. Later calls return immediately.
func (c *RelayerClient) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keyURL != "" {
		return nil
	}

	var resp keyURLResponse
	if err := c.do(ctx, http.MethodGet, "/v1/keyurl", nil, &resp); err != nil {
		return fmt.Errorf("failed to get key url: %w", err)
	}
	for _, info := range resp.Response.FHEKeyInfo {
		if len(info.FHEPublicKey.URLs) > 0 {
			c.keyURL = info.FHEPublicKey.URLs[0]
			c.log.WithField("key", info.FHEPublicKey.DataID).Info("FHE public key located")
			return nil
		}
	}
	return errors.New("relayer returned no FHE public key")
}

// Encrypt produces a handle and input proof for value bound to contract and account
func (c *RelayerClient) Encrypt(ctx context.Context, contract, account string, value uint32) (*model.EncryptedInput, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}

	req := inputProofRequest{
		ContractAddress: contract,
		UserAddress:     account,
		ContractChainID: hexutil.EncodeBig(big.NewInt(c.chainID)),
		Values:          []inputValue{{Type: relayerValueType, Value: fmt.Sprint(value)}},
	}
	var resp inputProofResponse
	if err := c.do(ctx, http.MethodPost, "/v1/input-proof", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to get input proof: %w", err)
	}
	if len(resp.Response.Handles) != 1 {
		return nil, fmt.Errorf("expected 1 handle, got %d", len(resp.Response.Handles))
	}

	handle, err := hexutil.Decode(resp.Response.Handles[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode handle: %w", err)
	}
	if len(handle) != 32 {
		return nil, fmt.Errorf("invalid handle length %d", len(handle))
	}
	proof, err := hexutil.Decode(resp.Response.InputProof)
	if err != nil {
		return nil, fmt.Errorf("failed to decode input proof: %w", err)
	}

	return &model.EncryptedInput{Handle: handle, Proof: proof}, nil
}

// VerifyDecryption publicly decrypts handles, hands the clear values and proof
// to submit, and returns the values keyed by didcard.HandleKey
func (c *RelayerClient) VerifyDecryption(ctx context.Context, handles [][]byte, contract string, submit didcard.SubmitFunc) (map[string]uint64, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, errors.New("no handles to decrypt")
	}

	req := publicDecryptRequest{
		ContractAddress: contract,
		ContractChainID: hexutil.EncodeBig(big.NewInt(c.chainID)),
		ExtraData:       "0x00",
	}
	for _, h := range handles {
		req.CiphertextHandles = append(req.CiphertextHandles, hexutil.Encode(h))
	}

	var resp publicDecryptResponse
	if err := c.do(ctx, http.MethodPost, "/v1/public-decrypt", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	clearValues, err := hexutil.Decode(resp.Response.ABIEncodedClearValues)
	if err != nil {
		return nil, fmt.Errorf("failed to decode clear values: %w", err)
	}
	proof, err := hexutil.Decode(resp.Response.DecryptionProof)
	if err != nil {
		return nil, fmt.Errorf("failed to decode decryption proof: %w", err)
	}

	values, err := decodeClearValues(handles, clearValues)
	if err != nil {
		return nil, err
	}

	if err := submit(ctx, clearValues, proof); err != nil {
		return nil, err
	}
	return values, nil
}

// decodeClearValues unpacks one ABI uint256 per handle, in handle order
func decodeClearValues(handles [][]byte, encoded []byte) (map[string]uint64, error) {
	uint256, err := abi.NewType("uint256", "", nil)
	if err != nil {
		return nil, err
	}
	args := make(abi.Arguments, len(handles))
	for i := range args {
		args[i] = abi.Argument{Type: uint256}
	}

	unpacked, err := args.Unpack(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to unpack clear values: %v", didcard.ErrVerification, err)
	}

	values := make(map[string]uint64, len(handles))
	for i, h := range handles {
		v, ok := unpacked[i].(*big.Int)
		if !ok || !v.IsUint64() {
			return nil, fmt.Errorf("%w: clear value %d out of range", didcard.ErrVerification, i)
		}
		values[didcard.HandleKey(h)] = v.Uint64()
	}
	return values, nil
}

func (c *RelayerClient) requireInitialized() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keyURL == "" {
		return errors.New("FHE client not initialized")
	}
	return nil
}

// do sends an optional JSON body and decodes a JSON response into out
func (c *RelayerClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	c.log.WithFields(logrus.Fields{"path": path, "status": resp.StatusCode}).Debugf("relayer response: %s", raw)

	if resp.StatusCode != http.StatusOK {
		var relErr relayerError
		if json.Unmarshal(raw, &relErr) == nil && relErr.Message != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, relErr.Message)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
