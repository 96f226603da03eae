package wallet

import (
	"fmt"
	"time"

	"github.com/AlexZinkM/did-card/internal/common"
	"github.com/AlexZinkM/did-card/internal/crypto"
	"github.com/AlexZinkM/did-card/internal/model"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// Generate creates a new key for network and saves it to an encrypted .cwt file.
// Returns the generated public address on success.
// password must be []byte for security (caller should zero it after use)
func Generate(filePath, network string, password []byte) (address string, err error) {
	var privateKey []byte

	switch network {
	case NetworkSolana:
		wallet := solana.NewWallet()
		privateKey = wallet.PrivateKey
		address = wallet.PublicKey().String()
	case NetworkEthereum:
		key, err := ethcrypto.GenerateKey()
		if err != nil {
			return "", fmt.Errorf("failed to generate key: %w", err)
		}
		privateKey = ethcrypto.FromECDSA(key)
		address = ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
		key.D.SetInt64(0)
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
	defer clear(privateKey)

	// QR of the address for funding the wallet
	qr, err := common.QRCodePNG(address, qrSize, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	walletData := &model.WalletData{
		PrivateKey: privateKey,
		CreatedAt:  time.Now().Format(time.RFC3339),
	}

	header := model.CWTFile{Network: network, Address: address, QR: qr}
	if err := crypto.EncryptWallet(filePath, header, walletData, password); err != nil {
		return "", fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	return address, nil
}
