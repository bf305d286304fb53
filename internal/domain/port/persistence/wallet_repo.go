package persistence

import (
	"context"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
)

// WalletRepository defines methods to interact with wallets and their ledger entries
type WalletRepository interface {
	// GetOrCreateForUpdate returns the user's wallet, creating it when absent,
	// and holds a row lock on it until the surrounding transaction ends.
	// Must be called inside a unit of work.
	//
	// Possible errors:
	// - ErrTransientStorage: If the lock could not be acquired or the connection failed
	GetOrCreateForUpdate(ctx context.Context, userID uint64) (*entity.WalletAccount, error)

	// GetOrCreate returns the user's wallet without locking it, creating it when absent
	//
	// Possible errors:
	// - ErrTransientStorage: If the connection failed
	GetOrCreate(ctx context.Context, userID uint64) (*entity.WalletAccount, error)

	// UpdateBalance writes the wallet's balance
	//
	// Possible errors:
	// - ErrWalletNotFound: If the wallet doesn't exist
	// - ErrConstraintViolation: If the balance violates a check constraint
	// - ErrTransientStorage: If the connection failed
	UpdateBalance(ctx context.Context, wallet *entity.WalletAccount) error

	// CreateTransaction appends a ledger entry and sets its allocated ID
	//
	// Possible errors:
	// - ErrDuplicateReference: If the wallet already has an entry with the same reference
	// - ErrTransientStorage: If the connection failed
	CreateTransaction(ctx context.Context, transaction *entity.WalletTransaction) error

	// FindTransactionByReference looks up an entry by its idempotency reference
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no entry carries the reference
	// - ErrTransientStorage: If the connection failed
	FindTransactionByReference(ctx context.Context, walletID uint64, reference string) (*entity.WalletTransaction, error)

	// ListTransactions returns a page of entries, newest first, and the total count
	//
	// Possible errors:
	// - ErrTransientStorage: If the connection failed
	ListTransactions(ctx context.Context, walletID uint64, limit, offset int) ([]*entity.WalletTransaction, int64, error)

	// SumByDirection totals the wallet's credits and debits
	//
	// Possible errors:
	// - ErrTransientStorage: If the connection failed
	SumByDirection(ctx context.Context, walletID uint64) (entity.LedgerTotals, error)
}
