package usecase

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PostTransactionRequest describes one ledger entry to post
type PostTransactionRequest struct {
	UserID      uint64
	Email       string // Notification address, optional
	Amount      decimal.Decimal
	PaymentType entity.PaymentType
	Reference   string // Optional idempotency key, unique per wallet
}

// TransactionResult is returned by the recharge, refund and payment flows
type TransactionResult struct {
	Transaction       *entity.WalletTransaction
	Replayed          bool   // The reference matched an earlier entry; nothing new was posted
	Notified          bool   // A notification was queued
	NotificationError string // Set when the notifier failed; the entry stays committed
}

// BalanceResponse represents the standardized balance response
type BalanceResponse struct {
	UserID    uint64
	WalletID  uint64
	Balance   string // Formatted with 2 decimal places
	UpdatedAt time.Time
}

// TransactionPage is one page of a wallet's ledger, newest first
type TransactionPage struct {
	Transactions []*entity.WalletTransaction
	Total        int64
	Limit        int
	Offset       int
}

// ReconciliationReport compares a stored balance against its ledger
type ReconciliationReport struct {
	UserID     uint64
	WalletID   uint64
	Balance    decimal.Decimal
	Credits    decimal.Decimal
	Debits     decimal.Decimal
	EntryCount int64
	Consistent bool
}

// Drift returns the stored balance minus the ledger total
func (r ReconciliationReport) Drift() decimal.Decimal {
	return r.Balance.Sub(r.Credits.Sub(r.Debits))
}

// WalletUseCase defines methods for wallet-related business operations
type WalletUseCase interface {
	// PostTransaction applies one credit or debit under the wallet's row lock.
	// The returned entry's ID is the user-visible receipt number.
	PostTransaction(ctx context.Context, req PostTransactionRequest) (*entity.WalletTransaction, error)

	// Recharge credits a top-up and notifies the user
	Recharge(ctx context.Context, userID uint64, email string, amount decimal.Decimal, reference string) (*TransactionResult, error)

	// Refund credits a refunded purchase and notifies the user
	Refund(ctx context.Context, userID uint64, email string, amount decimal.Decimal, reference string) (*TransactionResult, error)

	// Pay debits a purchase; rejected with InsufficientFunds when the balance is too low
	Pay(ctx context.Context, userID uint64, amount decimal.Decimal, reference string) (*TransactionResult, error)

	// GetBalance returns the user's balance, creating an empty wallet when absent
	GetBalance(ctx context.Context, userID uint64) (*BalanceResponse, error)

	// ListTransactions returns a page of the user's ledger
	ListTransactions(ctx context.Context, userID uint64, limit, offset int) (*TransactionPage, error)

	// Reconcile checks that the stored balance equals credits minus debits
	Reconcile(ctx context.Context, userID uint64) (*ReconciliationReport, error)
}
