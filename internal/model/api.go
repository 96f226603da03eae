package model

// CreateRequest represents request for POST /records
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Age         string `json:"age" binding:"required" example:"30"` // whole years, 1 to 120
	Description string `json:"description"`
}

// CreateResponse represents response for POST /records
type CreateResponse struct {
	ID     string `json:"id"`
	TxHash string `json:"txHash"`
}

// VerifyResponse represents response for POST /records/{id}/verify.
// Value is null unless a clear value was obtained for the record's handle.
type VerifyResponse struct {
	ID              string  `json:"id"`
	Value           *uint32 `json:"value"`
	AlreadyVerified bool    `json:"alreadyVerified"`
}

// QRResponse represents response for GET /records/{id}/qr
type QRResponse struct {
	Payload string `json:"payload"`
	QR      string `json:"QR"` // base64 PNG
}

// AvailabilityResponse represents response for GET /availability
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// AttestRequest represents request for POST /records/{id}/attest
type AttestRequest struct {
	Threshold uint32 `json:"threshold"`
}

// Attestation proves age >= Threshold for a record without revealing the age.
// Issuer is the record creator, who signs the statement with their wallet.
type Attestation struct {
	RecordID   string `json:"recordId"`
	Threshold  uint32 `json:"threshold"`
	Commitment string `json:"commitment"` // decimal field element
	Proof      string `json:"proof"`      // base64 groth16 proof
	Issuer     string `json:"issuer"`
	Signature  string `json:"signature"` // base64 issuer signature over the statement
}

// AttestationCheckResponse represents response for POST /attestations/verify
type AttestationCheckResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// GenerateResponse represents response for POST /wallet/generate
type GenerateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Network string `json:"network,omitempty"`
	Address string `json:"address,omitempty"`
}

// ErrorResponse is the body of every API error. Code is the error kind.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
