package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/AlexZinkM/did-card/internal/attest"
	"github.com/AlexZinkM/did-card/internal/crypto"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

const (
	NetworkSolana   = "solana"
	NetworkEthereum = "ethereum"
)

// ErrWrongNetwork is returned when a key is requested for a network the wallet is not on
var ErrWrongNetwork = errors.New("wallet is for a different network")

// Account is an unlocked wallet. Every signature must pass Approve first.
type Account struct {
	mu       sync.Mutex
	network  string
	address  string
	solKey   solana.PrivateKey
	ethKey   *ecdsa.PrivateKey
	approver Approver
	closed   bool
}

// Open decrypts the .cwt file and checks the key matches the stored address.
// password must be []byte for security (caller should zero it after use)
func Open(filePath string, password []byte, approver Approver) (*Account, error) {
	header, walletData, err := crypto.DecryptWallet(filePath, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt wallet: %w", err)
	}
	// Always clear private key from memory
	defer clear(walletData.PrivateKey)

	account, err := newAccount(header.Network, walletData.PrivateKey, approver)
	if err != nil {
		return nil, err
	}
	if account.address != header.Address {
		account.Close()
		return nil, errors.New("private key does not match address")
	}
	return account, nil
}

// newAccount copies keyBytes, so the caller may zero them
func newAccount(network string, keyBytes []byte, approver Approver) (*Account, error) {
	if approver == nil {
		return nil, errors.New("approver is required")
	}
	account := &Account{network: network, approver: approver}

	switch network {
	case NetworkSolana:
		// We store the full 64-byte key
		if len(keyBytes) != 64 {
			return nil, errors.New("invalid private key length")
		}
		account.solKey = append(solana.PrivateKey{}, keyBytes...)
		account.address = account.solKey.PublicKey().String()
	case NetworkEthereum:
		key, err := ethcrypto.ToECDSA(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		account.ethKey = key
		account.address = ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
	return account, nil
}

// Address returns the account address in the network's native format
func (a *Account) Address() string {
	return a.address
}

// Network returns solana or ethereum
func (a *Account) Network() string {
	return a.network
}

// SolanaKey returns the signing key of a solana wallet
func (a *Account) SolanaKey() (solana.PrivateKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, errors.New("wallet is closed")
	}
	if a.network != NetworkSolana {
		return nil, ErrWrongNetwork
	}
	return a.solKey, nil
}

// EthereumKey returns the signing key of an ethereum wallet
func (a *Account) EthereumKey() (*ecdsa.PrivateKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, errors.New("wallet is closed")
	}
	if a.network != NetworkEthereum {
		return nil, ErrWrongNetwork
	}
	return a.ethKey, nil
}

// SignMessage signs an off-chain message: EIP-191 on ethereum, plain ed25519 on solana.
// Callers approve first.
func (a *Account) SignMessage(msg []byte) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, errors.New("wallet is closed")
	}
	if a.network == NetworkSolana {
		return attest.SignSolana(a.solKey, msg)
	}
	return attest.SignEthereum(a.ethKey, msg)
}

// Approve asks the approver to allow action. A refusal wraps didcard.ErrUserRejected.
func (a *Account) Approve(ctx context.Context, action string) error {
	return a.approver.Approve(ctx, a.address, action)
}

// Close wipes the private key from memory
func (a *Account) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	clear(a.solKey)
	if a.ethKey != nil {
		a.ethKey.D.SetInt64(0)
	}
}
