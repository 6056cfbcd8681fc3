package models

import "time"

type AccountStatus string

const (
	AccountUnknown       AccountStatus = "unknown"
	AccountUninitialized AccountStatus = "uninitialized"
	AccountReady         AccountStatus = "ready"
)

type GifEntry struct {
	Link        string `json:"link"`
	SubmittedBy string `json:"submitted_by"`
}

type AccountView struct {
	Status    AccountStatus `json:"status"`
	TotalGifs uint64        `json:"total_gifs"`
	Gifs      []GifEntry    `json:"gifs"`
	SyncedAt  time.Time     `json:"synced_at"`
}

type WalletStatus struct {
	Provider  string `json:"provider"`
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
}

type SubmitReceipt struct {
	Signature   string    `json:"signature"`
	Link        string    `json:"link"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ChainInfo struct {
	Endpoint    string `json:"endpoint"`
	Commitment  string `json:"commitment"`
	ProgramID   string `json:"program_id"`
	BaseAccount string `json:"base_account"`
}

type WalletKeys struct {
	Address  string `json:"address"`
	Mnemonic string `json:"mnemonic,omitempty"`
}
