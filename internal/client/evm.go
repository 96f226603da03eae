package client

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// EVMSigner is an account able to sign EVM transactions
type EVMSigner interface {
	didcard.Signer
	EthereumKey() (*ecdsa.PrivateKey, error)
	Approve(ctx context.Context, action string) error
}

// evmBackend is what the registry needs from an RPC connection
type evmBackend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EVMRegistry is the identity card contract on an fhEVM chain
type EVMRegistry struct {
	backend     evmBackend
	closer      func()
	contract    *bind.BoundContract
	contractABI abi.ABI
	address     common.Address
	chainID     *big.Int
	log         *logrus.Logger
}

// NewEVMRegistry dials rpcURL and binds the contract at contractAddress.
// The node must report chainID.
func NewEVMRegistry(ctx context.Context, rpcURL, contractAddress string, chainID int64, log *logrus.Logger) (*EVMRegistry, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}

	remoteChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if remoteChainID.Cmp(big.NewInt(chainID)) != 0 {
		client.Close()
		return nil, fmt.Errorf("node is on chain %s, expected %d", remoteChainID, chainID)
	}

	r, err := newEVMRegistry(client, contractAddress, big.NewInt(chainID), log)
	if err != nil {
		client.Close()
		return nil, err
	}
	r.closer = client.Close
	return r, nil
}

func newEVMRegistry(backend evmBackend, contractAddress string, chainID *big.Int, log *logrus.Logger) (*EVMRegistry, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	address := common.HexToAddress(contractAddress)
	return &EVMRegistry{
		backend:     backend,
		contract:    bind.NewBoundContract(address, parsed, backend, backend, backend),
		contractABI: parsed,
		address:     address,
		chainID:     chainID,
		log:         log,
	}, nil
}

// Close closes the RPC connection
func (r *EVMRegistry) Close() {
	if r.closer != nil {
		r.closer()
	}
}

// Address returns the checksummed contract address
func (r *EVMRegistry) Address() string {
	return r.address.Hex()
}

// ListIDs calls getAllBusinessIds
func (r *EVMRegistry) ListIDs(ctx context.Context) ([]string, error) {
	var out []any
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAllBusinessIds"); err != nil {
		return nil, classifyEVMError(err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: unexpected getAllBusinessIds output", didcard.ErrChain)
	}
	ids, ok := out[0].([]string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected getAllBusinessIds type %T", didcard.ErrChain, out[0])
	}
	return ids, nil
}

// GetRecord calls getBusinessData
func (r *EVMRegistry) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	var out []any
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getBusinessData", id); err != nil {
		return nil, classifyEVMError(err)
	}
	return decodeEVMRecord(r.contractABI.Methods["getBusinessData"].Outputs, id, out)
}

// businessData mirrors the getBusinessData outputs
type businessData struct {
	Name           string
	PublicValue1   uint32
	PublicValue2   uint32
	Description    string
	Creator        common.Address
	Timestamp      *big.Int
	IsVerified     bool
	DecryptedValue uint32
}

// decodeEVMRecord maps getBusinessData outputs onto a Record
func decodeEVMRecord(outputs abi.Arguments, id string, out []any) (*model.Record, error) {
	var data businessData
	if err := outputs.Copy(&data, out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode getBusinessData: %v", didcard.ErrChain, err)
	}

	record := &model.Record{
		ID:           id,
		Name:         data.Name,
		Description:  data.Description,
		Creator:      data.Creator.Hex(),
		Timestamp:    data.Timestamp.Int64(),
		PublicValue1: data.PublicValue1,
		PublicValue2: data.PublicValue2,
		IsVerified:   data.IsVerified,
	}
	if data.IsVerified {
		value := data.DecryptedValue
		record.DecryptedValue = &value
	}
	return record, nil
}

// EncryptedHandle calls getEncryptedValue
func (r *EVMRegistry) EncryptedHandle(ctx context.Context, id string) ([]byte, error) {
	var out []any
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getEncryptedValue", id); err != nil {
		return nil, classifyEVMError(err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: unexpected getEncryptedValue output", didcard.ErrChain)
	}
	handle, ok := out[0].([32]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected getEncryptedValue type %T", didcard.ErrChain, out[0])
	}
	return handle[:], nil
}

// IsAvailable calls isAvailable
func (r *EVMRegistry) IsAvailable(ctx context.Context) (bool, error) {
	var out []any
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isAvailable"); err != nil {
		return false, classifyEVMError(err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("%w: unexpected isAvailable output", didcard.ErrChain)
	}
	available, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%w: unexpected isAvailable type %T", didcard.ErrChain, out[0])
	}
	return available, nil
}

// CreateRecord sends createBusinessData
func (r *EVMRegistry) CreateRecord(ctx context.Context, signer didcard.Signer, tx model.CreateRecordTx) (didcard.PendingTx, error) {
	if len(tx.Ciphertext) != 32 {
		return nil, fmt.Errorf("%w: ciphertext handle must be 32 bytes", didcard.ErrInvalidInput)
	}
	opts, err := r.transactor(ctx, signer, "create "+tx.ID)
	if err != nil {
		return nil, err
	}

	sent, err := r.contract.Transact(opts, "createBusinessData",
		tx.ID, tx.Name, [32]byte(tx.Ciphertext), tx.Proof, tx.PublicValue1, tx.PublicValue2, tx.Description)
	if err != nil {
		return nil, classifyEVMError(err)
	}
	r.log.WithFields(logrus.Fields{"id": tx.ID, "tx": sent.Hash().Hex()}).Info("createBusinessData sent")
	return &evmTx{tx: sent, backend: r.backend}, nil
}

// SubmitVerification sends verifyDecryption
func (r *EVMRegistry) SubmitVerification(ctx context.Context, signer didcard.Signer, id string, clearValues, proof []byte) (didcard.PendingTx, error) {
	opts, err := r.transactor(ctx, signer, "verify "+id)
	if err != nil {
		return nil, err
	}

	sent, err := r.contract.Transact(opts, "verifyDecryption", id, clearValues, proof)
	if err != nil {
		return nil, classifyEVMError(err)
	}
	r.log.WithFields(logrus.Fields{"id": id, "tx": sent.Hash().Hex()}).Info("verifyDecryption sent")
	return &evmTx{tx: sent, backend: r.backend}, nil
}

// transactor asks for approval and builds signing options for signer
func (r *EVMRegistry) transactor(ctx context.Context, signer didcard.Signer, action string) (*bind.TransactOpts, error) {
	s, ok := signer.(EVMSigner)
	if !ok {
		return nil, fmt.Errorf("%w: account cannot sign EVM transactions", didcard.ErrNotConnected)
	}
	if err := s.Approve(ctx, action); err != nil {
		return nil, err
	}

	key, err := s.EthereumKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, r.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// evmTx waits for a receipt
type evmTx struct {
	tx      *types.Transaction
	backend bind.DeployBackend
}

func (t *evmTx) Hash() string {
	return t.tx.Hash().Hex()
}

func (t *evmTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, t.backend, t.tx)
	if err != nil {
		return fmt.Errorf("failed to wait for %s: %w", t.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction %s reverted", didcard.ErrChain, t.Hash())
	}
	return nil
}

// classifyEVMError turns revert reasons and wallet errors into didcard kinds
func classifyEVMError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already verified"):
		return fmt.Errorf("%w: %w", didcard.ErrAlreadyVerified, err)
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return fmt.Errorf("%w: %w", didcard.ErrUserRejected, err)
	case strings.Contains(msg, "does not exist"), strings.Contains(msg, "not found"):
		return fmt.Errorf("%w: %w", didcard.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", didcard.ErrChain, err)
	}
}
