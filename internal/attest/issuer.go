package attest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrNotCreator   = errors.New("only the record creator can attest")
	ErrWrongIssuer  = errors.New("attestation issuer is not the record creator")
	ErrBadSignature = errors.New("invalid issuer signature")
)

// Signer is the wallet account that vouches for an attestation
type Signer interface {
	Address() string
	Approve(ctx context.Context, action string) error
	SignMessage(msg []byte) ([]byte, error)
}

// Statement is the message the issuer signs
func Statement(a model.Attestation) []byte {
	return fmt.Appendf(nil, "did-card attestation\nrecord: %s\nthreshold: %d\ncommitment: %s\nissuer: %s",
		a.RecordID, a.Threshold, a.Commitment, a.Issuer)
}

// SignEthereum signs msg as an EIP-191 personal message
func SignEthereum(key *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	sig, err := ethcrypto.Sign(accounts.TextHash(msg), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig, nil
}

// SignSolana signs msg with an ed25519 solana key
func SignSolana(key solana.PrivateKey, msg []byte) ([]byte, error) {
	sig, err := key.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig[:], nil
}

// checkSignature verifies sig over msg for an ethereum (0x...) or solana (base58) address
func checkSignature(address string, msg, sig []byte) error {
	if common.IsHexAddress(address) {
		if len(sig) != ethcrypto.SignatureLength {
			return fmt.Errorf("%w: bad length %d", ErrBadSignature, len(sig))
		}
		pub, err := ethcrypto.SigToPub(accounts.TextHash(msg), sig)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadSignature, err)
		}
		if ethcrypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
			return ErrBadSignature
		}
		return nil
	}

	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return fmt.Errorf("%w: unknown address format %q", ErrBadSignature, address)
	}
	if len(sig) != solana.SignatureLength {
		return fmt.Errorf("%w: bad length %d", ErrBadSignature, len(sig))
	}
	if !solana.SignatureFromBytes(sig).Verify(pub, msg) {
		return ErrBadSignature
	}
	return nil
}

// sameAddress compares hex addresses case-insensitively and base58 ones exactly
func sameAddress(a, b string) bool {
	if common.IsHexAddress(a) && common.IsHexAddress(b) {
		return strings.EqualFold(a, b)
	}
	return a != "" && a == b
}
