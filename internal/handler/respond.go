package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/attest"
	"github.com/AlexZinkM/did-card/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the error with a status and code derived from its kind
func writeError(w http.ResponseWriter, err error) {
	kind := didcard.KindOf(err)
	writeJSON(w, statusFor(err, kind), model.ErrorResponse{
		Error: err.Error(),
		Code:  kind.String(),
	})
}

func statusFor(err error, kind didcard.Kind) int {
	switch kind {
	case didcard.KindNotConnected:
		return http.StatusPreconditionFailed
	case didcard.KindBusy:
		return http.StatusConflict
	case didcard.KindInvalidInput:
		return http.StatusBadRequest
	case didcard.KindUserRejected:
		return http.StatusForbidden
	case didcard.KindNotFound:
		return http.StatusNotFound
	case didcard.KindEncryption, didcard.KindChain, didcard.KindVerification:
		return http.StatusBadGateway
	}

	switch {
	case errors.Is(err, attest.ErrNotVerified):
		return http.StatusConflict
	case errors.Is(err, attest.ErrBelowThreshold):
		return http.StatusUnprocessableEntity
	case errors.Is(err, attest.ErrNotCreator):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
		Error: err.Error(),
		Code:  didcard.KindInvalidInput.String(),
	})
}
