package crypto

import "time"

// ReencryptWallet re-encrypts the key file under newPassword with a fresh salt and nonce.
// The private key and creation time are preserved; the file is replaced atomically.
func ReencryptWallet(filePath string, oldPassword, newPassword []byte) error {
	cwtFile, err := readCWTFile(filePath)
	if err != nil {
		return err
	}

	walletData, err := openWalletData(cwtFile, oldPassword)
	if err != nil {
		return err
	}
	defer clear(walletData.PrivateKey)

	if walletData.CreatedAt == "" {
		walletData.CreatedAt = time.Now().Format(time.RFC3339)
	}

	header := *cwtFile
	resealed, err := sealWalletData(header, walletData, newPassword)
	if err != nil {
		return err
	}
	return writeCWTFile(filePath, resealed)
}
