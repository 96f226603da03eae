package handler

import (
	"errors"
	"net/http"
	"os"

	"github.com/AlexZinkM/did-card/internal/config"
	"github.com/AlexZinkM/did-card/internal/model"
	"github.com/AlexZinkM/did-card/internal/wallet"
)

// WalletHandler holds configuration for wallet operations
type WalletHandler struct {
	filePath string
	network  string
}

// NewWalletHandler creates a new WalletHandler with config values
func NewWalletHandler(filePath, network string) (*WalletHandler, error) {
	if filePath == "" {
		return nil, errors.New("WALLET_FILE_PATH not set")
	}
	return &WalletHandler{filePath: filePath, network: network}, nil
}

// Generate handles POST /wallet/generate
// @Summary      Generate new wallet
// @Description  Generates a key for the configured chain backend and saves it to a .cwt file
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.GenerateResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/generate [post]
func (h *WalletHandler) Generate(w http.ResponseWriter, r *http.Request) {
	// Get password as []byte, use it, then zero it immediately
	passwordBytes, err := config.GetWalletPasswordBytes()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	defer clear(passwordBytes) // Always clear password from memory

	address, err := wallet.Generate(h.filePath, h.network, passwordBytes)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			writeJSON(w, http.StatusConflict, model.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Wallet generated successfully",
		Network: h.network,
		Address: address,
	})
}
