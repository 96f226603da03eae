package wallet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlexZinkM/did-card/didcard"

	"github.com/ethereum/go-ethereum/accounts"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountSolana(t *testing.T) {
	w := solana.NewWallet()
	key := append([]byte{}, w.PrivateKey...)

	account, err := newAccount(NetworkSolana, key, AutoApprover{})
	require.NoError(t, err)
	clear(key)

	assert.Equal(t, w.PublicKey().String(), account.Address())
	signing, err := account.SolanaKey()
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), signing.PublicKey(), "account keeps its own copy")

	_, err = account.EthereumKey()
	assert.ErrorIs(t, err, ErrWrongNetwork)

	account.Close()
	_, err = account.SolanaKey()
	assert.Error(t, err)
}

func TestNewAccountEthereum(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	account, err := newAccount(NetworkEthereum, ethcrypto.FromECDSA(key), AutoApprover{})
	require.NoError(t, err)
	assert.Equal(t, ethcrypto.PubkeyToAddress(key.PublicKey).Hex(), account.Address())

	_, err = account.SolanaKey()
	assert.ErrorIs(t, err, ErrWrongNetwork)
}

func TestNewAccountRejectsBadInput(t *testing.T) {
	_, err := newAccount(NetworkSolana, make([]byte, 32), AutoApprover{})
	assert.EqualError(t, err, "invalid private key length")

	_, err = newAccount("bitcoin", make([]byte, 32), AutoApprover{})
	assert.Error(t, err)

	_, err = newAccount(NetworkSolana, make([]byte, 64), nil)
	assert.EqualError(t, err, "approver is required")
}

func TestSignMessage(t *testing.T) {
	msg := []byte("did-card attestation")

	sol := solana.NewWallet()
	solAccount, err := newAccount(NetworkSolana, sol.PrivateKey, AutoApprover{})
	require.NoError(t, err)
	sig, err := solAccount.SignMessage(msg)
	require.NoError(t, err)
	assert.True(t, sol.PublicKey().Verify(msg, solana.SignatureFromBytes(sig)))

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	ethAccount, err := newAccount(NetworkEthereum, ethcrypto.FromECDSA(key), AutoApprover{})
	require.NoError(t, err)
	sig, err = ethAccount.SignMessage(msg)
	require.NoError(t, err)
	pub, err := ethcrypto.SigToPub(accounts.TextHash(msg), sig)
	require.NoError(t, err)
	assert.Equal(t, ethAccount.Address(), ethcrypto.PubkeyToAddress(*pub).Hex())

	ethAccount.Close()
	_, err = ethAccount.SignMessage(msg)
	assert.Error(t, err)
}

func TestTerminalApprover(t *testing.T) {
	var out bytes.Buffer
	approver := NewTerminalApprover(strings.NewReader("y\nno\n"), &out)

	require.NoError(t, approver.Approve(context.Background(), "addr", "create did-1"))
	assert.Contains(t, out.String(), `Sign "create did-1" with addr? [y/N]: `)

	err := approver.Approve(context.Background(), "addr", "verify did-1")
	assert.ErrorIs(t, err, didcard.ErrUserRejected)

	// input exhausted
	err = approver.Approve(context.Background(), "addr", "verify did-2")
	assert.ErrorIs(t, err, didcard.ErrUserRejected)
}

func TestTerminalApproverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	approver := NewTerminalApprover(strings.NewReader("y\n"), &bytes.Buffer{})
	assert.ErrorIs(t, approver.Approve(ctx, "addr", "create"), context.Canceled)
}

func TestAccountApproveDelegates(t *testing.T) {
	w := solana.NewWallet()
	account, err := newAccount(NetworkSolana, w.PrivateKey, NewTerminalApprover(strings.NewReader("n\n"), &bytes.Buffer{}))
	require.NoError(t, err)

	assert.Equal(t, didcard.KindUserRejected, didcard.KindOf(account.Approve(context.Background(), "create")))
}

// Runs the real scrypt cost once per network
func TestGenerateAndOpen(t *testing.T) {
	if testing.Short() {
		t.Skip("scrypt with production parameters")
	}
	for _, network := range []string{NetworkSolana, NetworkEthereum} {
		t.Run(network, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wallet.cwt")
			address, err := Generate(path, network, []byte("pw"))
			require.NoError(t, err)

			account, err := Open(path, []byte("pw"), AutoApprover{})
			require.NoError(t, err)
			defer account.Close()
			assert.Equal(t, address, account.Address())
			assert.Equal(t, network, account.Network())

			_, err = Generate(path, network, []byte("pw"))
			assert.ErrorIs(t, err, os.ErrExist)
		})
	}
}
