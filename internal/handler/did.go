package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/attest"
	"github.com/AlexZinkM/did-card/internal/common"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// AccountOpener unlocks the configured wallet
type AccountOpener func() (didcard.Signer, error)

// Attester issues and checks age attestations
type Attester interface {
	Attest(ctx context.Context, record model.Record, threshold uint32, issuer attest.Signer) (*model.Attestation, error)
	Verify(a model.Attestation, record model.Record) error
}

// DIDHandler exposes the identity card app over HTTP
type DIDHandler struct {
	app      *didcard.App
	open     AccountOpener
	attester Attester
	log      *logrus.Logger

	mu      sync.Mutex
	account didcard.Signer
}

// NewDIDHandler creates a new DIDHandler
func NewDIDHandler(app *didcard.App, open AccountOpener, attester Attester, log *logrus.Logger) *DIDHandler {
	return &DIDHandler{app: app, open: open, attester: attester, log: log}
}

// GetState handles GET /state
// @Summary      Get app state
// @Description  Returns session, records, stats, the current banner and in-flight flags
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.AppState
// @Router       /state [get]
func (h *DIDHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.State())
}

// Connect handles POST /session/connect
// @Summary      Connect wallet
// @Description  Unlocks the wallet, initializes FHE and loads records
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.AppState
// @Failure      412  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /session/connect [post]
func (h *DIDHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if err := h.Open(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.State())
}

// Reinitialize handles POST /session/reinitialize
// @Summary      Retry FHE initialization
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.AppState
// @Failure      412  {object}  model.ErrorResponse
// @Router       /session/reinitialize [post]
func (h *DIDHandler) Reinitialize(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Reinitialize(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.State())
}

// Disconnect handles POST /session/disconnect
// @Summary      Disconnect wallet
// @Description  Drops the account, wipes its key and clears loaded records
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.AppState
// @Router       /session/disconnect [post]
func (h *DIDHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.Close()
	writeJSON(w, http.StatusOK, h.app.State())
}

// ListRecords handles GET /records
// @Summary      List records
// @Description  Returns the last loaded snapshot with stats and age buckets
// @Tags         records
// @Produce      json
// @Success      200  {object}  model.Snapshot
// @Router       /records [get]
func (h *DIDHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Snapshot())
}

// RefreshRecords handles POST /records/refresh
// @Summary      Reload records
// @Tags         records
// @Produce      json
// @Success      200  {object}  model.Snapshot
// @Failure      412  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /records/refresh [post]
func (h *DIDHandler) RefreshRecords(w http.ResponseWriter, r *http.Request) {
	snap, err := h.app.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CreateRecord handles POST /records
// @Summary      Create identity card
// @Description  Encrypts the age, registers the card and waits for confirmation. Age is a whole number of years from 1 to 120.
// @Tags         records
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateRequest  true  "Card data"
// @Success      201      {object}  model.CreateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      412      {object}  model.ErrorResponse
// @Router       /records [post]
func (h *DIDHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, err)
		return
	}

	res, err := h.app.Create(r.Context(), didcard.CreateInput{
		Name:        req.Name,
		Age:         req.Age,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.CreateResponse{ID: res.ID, TxHash: res.TxHash})
}

// GetRecord handles GET /records/{id}
// @Summary      Get record
// @Tags         records
// @Produce      json
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  model.Record
// @Failure      404  {object}  model.ErrorResponse
// @Router       /records/{id} [get]
func (h *DIDHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.app.Record(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// VerifyRecord handles POST /records/{id}/verify
// @Summary      Verify age
// @Description  Publicly decrypts the age and records the decryption proof on chain
// @Tags         records
// @Produce      json
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  model.VerifyResponse
// @Failure      409  {object}  model.ErrorResponse
// @Failure      412  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /records/{id}/verify [post]
func (h *DIDHandler) VerifyRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, err := h.app.Verify(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.VerifyResponse{
		ID:              id,
		Value:           res.Value,
		AlreadyVerified: res.AlreadyVerified,
	})
}

// GetQR handles GET /records/{id}/qr
// @Summary      Record QR code
// @Description  Returns the did URI of the record and its QR code as base64 PNG
// @Tags         records
// @Produce      json
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  model.QRResponse
// @Router       /records/{id}/qr [get]
func (h *DIDHandler) GetQR(w http.ResponseWriter, r *http.Request) {
	payload, err := h.app.QRPayload(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	qr, err := common.QRCodePNG(payload, qrSize, qrcode.Medium)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.QRResponse{Payload: payload, QR: qr})
}

// AttestRecord handles POST /records/{id}/attest
// @Summary      Attest age threshold
// @Description  Proves a verified record's age is at least the threshold without revealing it. Signed by the connected wallet, which must be the record creator.
// @Tags         attestations
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Record id"
// @Param        request  body      model.AttestRequest  true  "Threshold"
// @Success      200      {object}  model.Attestation
// @Failure      403      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      412      {object}  model.ErrorResponse
// @Failure      422      {object}  model.ErrorResponse
// @Router       /records/{id}/attest [post]
func (h *DIDHandler) AttestRecord(w http.ResponseWriter, r *http.Request) {
	var req model.AttestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, err)
		return
	}

	issuer, ok := h.app.Account().(attest.Signer)
	if !ok {
		writeError(w, fmt.Errorf("%w: no wallet able to sign attestations", didcard.ErrNotConnected))
		return
	}

	rec, err := h.app.Record(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	attestation, err := h.attester.Attest(r.Context(), rec, req.Threshold, issuer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attestation)
}

// VerifyAttestation handles POST /attestations/verify
// @Summary      Check attestation
// @Description  Verifies an attestation against the record on chain: issuer, signature, verified age and proof
// @Tags         attestations
// @Accept       json
// @Produce      json
// @Param        request  body      model.Attestation  true  "Attestation"
// @Success      200      {object}  model.AttestationCheckResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /attestations/verify [post]
func (h *DIDHandler) VerifyAttestation(w http.ResponseWriter, r *http.Request) {
	var a model.Attestation
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		badRequest(w, err)
		return
	}

	rec, err := h.app.LookupRecord(r.Context(), a.RecordID)
	switch {
	case errors.Is(err, didcard.ErrNotFound), errors.Is(err, didcard.ErrInvalidInput):
		writeJSON(w, http.StatusOK, model.AttestationCheckResponse{Valid: false, Error: err.Error()})
		return
	case err != nil:
		writeError(w, fmt.Errorf("%w: %w", didcard.ErrChain, err))
		return
	}

	if err := h.attester.Verify(a, rec); err != nil {
		h.log.WithError(err).WithField("id", a.RecordID).Info("attestation rejected")
		writeJSON(w, http.StatusOK, model.AttestationCheckResponse{Valid: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, model.AttestationCheckResponse{Valid: true})
}

// Availability handles GET /availability
// @Summary      Check contract availability
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.AvailabilityResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /availability [get]
func (h *DIDHandler) Availability(w http.ResponseWriter, r *http.Request) {
	available, err := h.app.CheckAvailability(r.Context())
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", didcard.ErrChain, err))
		return
	}
	writeJSON(w, http.StatusOK, model.AvailabilityResponse{Available: available})
}

// Open unlocks the wallet if needed and connects the session
func (h *DIDHandler) Open(ctx context.Context) error {
	account, err := h.unlock()
	if err != nil {
		return err
	}
	return h.app.Connect(ctx, account)
}

// Close disconnects the session and wipes the unlocked key
func (h *DIDHandler) Close() {
	h.mu.Lock()
	account := h.account
	h.account = nil
	h.mu.Unlock()

	h.app.Disconnect()
	if c, ok := account.(interface{ Close() }); ok {
		c.Close()
	}
}

// unlock returns the open account, opening the wallet on first use
func (h *DIDHandler) unlock() (didcard.Signer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.account != nil {
		return h.account, nil
	}
	account, err := h.open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open wallet: %w", didcard.ErrNotConnected, err)
	}
	h.account = account
	return account, nil
}
