package didcard

import (
	"context"
	"encoding/hex"

	"github.com/AlexZinkM/did-card/internal/model"
)

// Signer is the connected wallet account.
// Chain adapters assert it to their own key-bearing interface.
type Signer interface {
	Address() string
}

// PendingTx is a submitted transaction whose confirmation can be awaited
type PendingTx interface {
	Hash() string
	// Wait blocks until the transaction is confirmed, fails, or ctx ends
	Wait(ctx context.Context) error
}

// Registry is the on-chain identity card contract
type Registry interface {
	// Address is the contract (or program) address the FHE inputs are bound to
	Address() string
	ListIDs(ctx context.Context) ([]string, error)
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	EncryptedHandle(ctx context.Context, id string) ([]byte, error)
	IsAvailable(ctx context.Context) (bool, error)
	CreateRecord(ctx context.Context, signer Signer, tx model.CreateRecordTx) (PendingTx, error)
	SubmitVerification(ctx context.Context, signer Signer, id string, clearValues, proof []byte) (PendingTx, error)
}

// SubmitFunc receives ABI-encoded clear values and the decryption proof
// and must put them on chain before returning
type SubmitFunc func(ctx context.Context, clearValues, proof []byte) error

// FHE is the homomorphic encryption SDK
type FHE interface {
	// Initialize is idempotent
	Initialize(ctx context.Context) error
	Encrypt(ctx context.Context, contract, account string, value uint32) (*model.EncryptedInput, error)
	// VerifyDecryption returns clear values keyed by HandleKey
	VerifyDecryption(ctx context.Context, handles [][]byte, contract string, submit SubmitFunc) (map[string]uint64, error)
}

// Publisher receives domain events after confirmation
type Publisher interface {
	Publish(ctx context.Context, event model.Event) error
}

// HandleKey is the map key for a handle in VerifyDecryption results
func HandleKey(handle []byte) string {
	return "0x" + hex.EncodeToString(handle)
}
