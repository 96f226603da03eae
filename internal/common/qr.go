package common

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRCodePNG renders content as a QR code PNG and returns it base64 encoded
func QRCodePNG(content string, size int, level qrcode.RecoveryLevel) (string, error) {
	qr, err := qrcode.New(content, level)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(size)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
