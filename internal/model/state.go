package model

import "time"

// BannerLevel is the severity of a status banner
type BannerLevel string

const (
	BannerPending BannerLevel = "pending"
	BannerSuccess BannerLevel = "success"
	BannerError   BannerLevel = "error"
)

// Banner is a transient user-visible status message
type Banner struct {
	ID      uint64      `json:"id"`
	Visible bool        `json:"visible"`
	Level   BannerLevel `json:"status"`
	Message string      `json:"message"`
}

// AppState is a read-only snapshot of everything the presentation layer renders
type AppState struct {
	Session     string     `json:"session"`
	Account     string     `json:"account,omitempty"`
	Contract    string     `json:"contractAddress"`
	Records     []Record   `json:"records"`
	Stats       Stats      `json:"stats"`
	AgeBuckets  AgeBuckets `json:"ageBuckets"`
	RefreshedAt time.Time  `json:"refreshedAt"`
	Banner      Banner     `json:"banner"`
	Creating    bool       `json:"creating"`
	Verifying   bool       `json:"verifying"`
	Refreshing  bool       `json:"refreshing"`
}

// Event is published after a state-changing operation is confirmed
type Event struct {
	Type       string    `json:"type"`
	RecordID   string    `json:"recordId"`
	Account    string    `json:"account"`
	TxHash     string    `json:"txHash,omitempty"`
	Value      *uint32   `json:"value,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

const (
	EventRecordCreated  = "record.created"
	EventRecordVerified = "record.verified"
)
