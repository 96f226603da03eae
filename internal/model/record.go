package model

import "time"

// Record is one identity card as stored by the registry contract
type Record struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Creator        string  `json:"creator"`
	Timestamp      int64   `json:"timestamp"` // seconds since epoch
	PublicValue1   uint32  `json:"publicValue1"`
	PublicValue2   uint32  `json:"publicValue2"`
	IsVerified     bool    `json:"isVerified"`
	DecryptedValue *uint32 `json:"decryptedValue,omitempty"` // set only once verified
}

// CreateRecordTx is the payload of the create-record transaction
type CreateRecordTx struct {
	ID           string
	Name         string
	Ciphertext   []byte // encrypted value handle (32 bytes)
	Proof        []byte // input validity proof
	PublicValue1 uint32
	PublicValue2 uint32
	Description  string
}

// EncryptedInput is what the FHE relayer returns for one plaintext value
type EncryptedInput struct {
	Handle []byte
	Proof  []byte
}

// Stats are derived from the full record set on every refresh
type Stats struct {
	Total      int `json:"total"`
	Verified   int `json:"verified"`
	AverageAge int `json:"avgAge"`
}

// AgeBuckets counts verified records per age group
type AgeBuckets struct {
	Under18 int `json:"under18"`
	From18  int `json:"from18To29"`
	From30  int `json:"from30To49"`
	Over50  int `json:"over50"`
}

// Snapshot is the in-memory view held by the record store
type Snapshot struct {
	Records     []Record   `json:"records"`
	Stats       Stats      `json:"stats"`
	AgeBuckets  AgeBuckets `json:"ageBuckets"`
	RefreshedAt time.Time  `json:"refreshedAt"`
}
