package dto

import (
	"bytes"
	"encoding/json"
	"time"
)

// Amount is the text of a money amount as the client sent it. JSON strings and
// JSON numbers are both accepted; any other JSON value is kept verbatim so that
// amount parsing rejects it.
type Amount string

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		*a = Amount(data)
	}
	return nil
}

// RechargeRequest represents a wallet top-up by the signed-in user
type RechargeRequest struct {
	Amount    Amount `json:"amount" form:"amount" binding:"required"`
	Reference string `json:"reference" form:"reference" binding:"omitempty,max=128"`
}

// WalletPostingRequest represents a payment or refund posted by another service
type WalletPostingRequest struct {
	Amount    Amount `json:"amount" binding:"required"`
	Reference string `json:"reference" binding:"omitempty,max=128"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// TransactionResponse represents one ledger entry
type TransactionResponse struct {
	ID           uint64    `json:"id"`
	PaymentType  string    `json:"paymentType"`
	Direction    string    `json:"direction"`
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balanceAfter"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PostingResponse represents the outcome of a recharge, payment or refund
type PostingResponse struct {
	Transaction       TransactionResponse `json:"transaction"`
	Balance           string              `json:"balance"`
	Replayed          bool                `json:"replayed"`
	Notified          bool                `json:"notified"`
	NotificationError string              `json:"notification_error,omitempty"`
}

// TransactionPageResponse represents a page of ledger entries, newest first
type TransactionPageResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// ListTransactionsQuery holds the paging parameters of a transaction listing
type ListTransactionsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=0"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}
