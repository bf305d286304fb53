package memory

import (
	"context"
	"sort"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	"github.com/shopspring/decimal"
)

// WalletRepository implements persistence.WalletRepository in memory
type WalletRepository struct {
	store *Store
	tx    *tx
}

// GetOrCreateForUpdate locks the user's wallet row, creating it when absent
func (r *WalletRepository) GetOrCreateForUpdate(ctx context.Context, userID uint64) (*entity.WalletAccount, error) {
	if err := r.tx.lock(ctx, walletLockKey(userID)); err != nil {
		return nil, errs.NewStorageError("lock wallet", err)
	}
	return r.GetOrCreate(ctx, userID)
}

// GetOrCreate returns the user's wallet, creating it when absent
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID uint64) (*entity.WalletAccount, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.NewStorageError("get wallet", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.wallets[userID]; ok {
		seen, _ := visible(s, r.tx, walletRowKey(userID), *row, true)
		return seen.toEntity(), nil
	}

	// Creation is not undone on rollback; an empty wallet is equivalent to a missing one
	s.nextWalletID++
	now := s.timeProvider.Now()
	row := &walletRow{
		id:        s.nextWalletID,
		userID:    userID,
		balance:   decimal.Zero,
		createdAt: now,
		updatedAt: now,
	}
	s.wallets[userID] = row
	return row.toEntity(), nil
}

// UpdateBalance writes the wallet's balance
func (r *WalletRepository) UpdateBalance(ctx context.Context, wallet *entity.WalletAccount) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageError("update balance", err)
	}
	if wallet.Balance().IsNegative() {
		return errs.ErrConstraintViolation
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.wallets[wallet.UserID]
	if !ok || row.id != wallet.ID {
		return errs.ErrWalletNotFound
	}

	s.rememberLocked(r.tx, walletRowKey(wallet.UserID), *row, true)
	prevBalance, prevUpdated := row.balance, row.updatedAt
	r.tx.onRollback(func() {
		row.balance = prevBalance
		row.updatedAt = prevUpdated
	})
	row.balance = wallet.Balance()
	row.updatedAt = wallet.UpdatedAt
	return nil
}

// CreateTransaction appends a ledger entry and allocates its ID
func (r *WalletRepository) CreateTransaction(ctx context.Context, transaction *entity.WalletTransaction) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageError("insert transaction", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if transaction.Reference != "" {
		for _, existing := range s.transactions {
			if existing.WalletID == transaction.WalletID && existing.Reference == transaction.Reference {
				return errs.ErrDuplicateReference
			}
		}
	}

	// IDs are never reused, even when the insert is rolled back
	s.nextTxID++
	transaction.ID = s.nextTxID
	s.transactions = append(s.transactions, *transaction)

	id := transaction.ID
	s.markPendingLocked(r.tx, id)
	r.tx.onRollback(func() {
		for i := range s.transactions {
			if s.transactions[i].ID == id {
				s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
				return
			}
		}
	})
	return nil
}

// FindTransactionByReference looks up an entry by its idempotency reference
func (r *WalletRepository) FindTransactionByReference(ctx context.Context, walletID uint64, reference string) (*entity.WalletTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewStorageError("find transaction", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if existing.WalletID == walletID && existing.Reference == reference && !s.hiddenLocked(r.tx, existing.ID) {
			found := existing
			return &found, nil
		}
	}
	return nil, errs.ErrTransactionNotFound
}

// ListTransactions returns a page of entries, newest first
func (r *WalletRepository) ListTransactions(ctx context.Context, walletID uint64, limit, offset int) ([]*entity.WalletTransaction, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, errs.NewStorageError("list transactions", err)
	}

	s := r.store
	s.mu.Lock()
	var owned []entity.WalletTransaction
	for _, t := range s.transactions {
		if t.WalletID == walletID && !s.hiddenLocked(r.tx, t.ID) {
			owned = append(owned, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(owned, func(i, j int) bool { return owned[i].ID > owned[j].ID })

	total := int64(len(owned))
	if offset >= len(owned) {
		return []*entity.WalletTransaction{}, total, nil
	}
	end := len(owned)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	page := make([]*entity.WalletTransaction, 0, end-offset)
	for i := offset; i < end; i++ {
		t := owned[i]
		page = append(page, &t)
	}
	return page, total, nil
}

// SumByDirection totals the wallet's credits and debits
func (r *WalletRepository) SumByDirection(ctx context.Context, walletID uint64) (entity.LedgerTotals, error) {
	if err := ctx.Err(); err != nil {
		return entity.LedgerTotals{}, errs.NewStorageError("sum transactions", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := entity.LedgerTotals{Credits: decimal.Zero, Debits: decimal.Zero}
	for _, t := range s.transactions {
		if t.WalletID != walletID || s.hiddenLocked(r.tx, t.ID) {
			continue
		}
		totals.Count++
		if t.Direction == entity.DirectionCredit {
			totals.Credits = totals.Credits.Add(t.Amount)
		} else {
			totals.Debits = totals.Debits.Add(t.Amount)
		}
	}
	return totals, nil
}
