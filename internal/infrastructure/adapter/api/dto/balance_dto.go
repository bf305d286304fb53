package dto

import "time"

// BalanceResponse represents the API response for a user's wallet balance
type BalanceResponse struct {
	UserID    uint64    `json:"userId"`
	WalletID  uint64    `json:"walletId"`
	Balance   string    `json:"balance"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReconciliationResponse reports whether a wallet's balance matches its ledger
type ReconciliationResponse struct {
	UserID     uint64 `json:"userId"`
	WalletID   uint64 `json:"walletId"`
	Balance    string `json:"balance"`
	Credits    string `json:"credits"`
	Debits     string `json:"debits"`
	Drift      string `json:"drift"`
	EntryCount int64  `json:"entryCount"`
	Consistent bool   `json:"consistent"`
}
