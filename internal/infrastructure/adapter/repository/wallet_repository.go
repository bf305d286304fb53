package repository

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const walletColumns = "id, user_id, balance, created_at, updated_at"

const walletTransactionColumns = "id, wallet_id, user_id, amount, payment_type, direction, balance_after, reference, created_at"

// WalletRepository implements WalletRepository interface using GORM
type WalletRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewWalletRepository creates a new WalletRepository instance
func NewWalletRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *WalletRepository {
	return &WalletRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func walletToEntity(m *model.WalletAccount) *entity.WalletAccount {
	return entity.RestoreWalletAccount(m.ID, m.UserID, m.Balance, m.CreatedAt, m.UpdatedAt)
}

func transactionToEntity(m *model.WalletTransaction) *entity.WalletTransaction {
	t := &entity.WalletTransaction{
		ID:           m.ID,
		WalletID:     m.WalletID,
		UserID:       m.UserID,
		Amount:       m.Amount,
		PaymentType:  entity.PaymentType(m.PaymentType),
		Direction:    entity.LedgerDirection(m.Direction),
		BalanceAfter: m.BalanceAfter,
		CreatedAt:    m.CreatedAt,
	}
	if m.Reference != nil {
		t.Reference = *m.Reference
	}
	return t
}

// handleDatabaseError logs and translates a failed statement
func (r *WalletRepository) handleDatabaseError(operation string, err error, fields map[string]any) error {
	fields["error"] = err.Error()
	r.logger.Error("Database error when "+operation, fields)
	return r.errorClassifier.Translate(operation, err)
}

// selectWallet reads the user's wallet row, optionally locking it
func (r *WalletRepository) selectWallet(ctx context.Context, userID uint64, forUpdate bool) (*model.WalletAccount, bool, error) {
	query := "SELECT " + walletColumns + " FROM wallet_accounts WHERE user_id = ?"
	if forUpdate {
		query += " FOR UPDATE"
	}

	var m model.WalletAccount
	result := r.db.WithContext(ctx).Raw(query, userID).Scan(&m)
	if result.Error != nil {
		return nil, false, result.Error
	}
	return &m, result.RowsAffected > 0, nil
}

// insertWallet creates an empty wallet unless a concurrent caller already did
func (r *WalletRepository) insertWallet(ctx context.Context, userID uint64) error {
	now := r.timeProvider.Now()
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO wallet_accounts (user_id, balance, created_at, updated_at)
		 VALUES (?, 0, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, now, now,
	).Error
}

func (r *WalletRepository) getOrCreate(ctx context.Context, userID uint64, forUpdate bool) (*entity.WalletAccount, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	fields := map[string]any{"user_id": userID, "for_update": forUpdate}

	m, found, err := r.selectWallet(ctx, userID, forUpdate)
	if err != nil {
		return nil, r.handleDatabaseError("reading wallet", err, fields)
	}
	if found {
		return walletToEntity(m), nil
	}

	if err := r.insertWallet(ctx, userID); err != nil {
		return nil, r.handleDatabaseError("creating wallet", err, fields)
	}

	m, found, err = r.selectWallet(ctx, userID, forUpdate)
	if err != nil {
		return nil, r.handleDatabaseError("reading wallet", err, fields)
	}
	if !found {
		return nil, errs.ErrWalletNotFound
	}

	r.logger.Info("Wallet created", map[string]any{"user_id": userID, "wallet_id": m.ID})
	return walletToEntity(m), nil
}

// GetOrCreateForUpdate locks the user's wallet row, creating it when absent
func (r *WalletRepository) GetOrCreateForUpdate(ctx context.Context, userID uint64) (*entity.WalletAccount, error) {
	return r.getOrCreate(ctx, userID, true)
}

// GetOrCreate returns the user's wallet, creating it when absent
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID uint64) (*entity.WalletAccount, error) {
	return r.getOrCreate(ctx, userID, false)
}

// UpdateBalance writes the wallet's balance
func (r *WalletRepository) UpdateBalance(ctx context.Context, wallet *entity.WalletAccount) error {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE wallet_accounts SET balance = ?, updated_at = ? WHERE id = ?",
		wallet.Balance(), wallet.UpdatedAt, wallet.ID,
	)
	if result.Error != nil {
		return r.handleDatabaseError("updating balance", result.Error, map[string]any{
			"wallet_id": wallet.ID,
			"balance":   wallet.GetBalance(),
		})
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("Wallet not found during update", map[string]any{"wallet_id": wallet.ID})
		return errs.ErrWalletNotFound
	}
	return nil
}

// CreateTransaction appends a ledger entry and allocates its ID
func (r *WalletRepository) CreateTransaction(ctx context.Context, transaction *entity.WalletTransaction) error {
	var reference *string
	if transaction.Reference != "" {
		ref := transaction.Reference
		reference = &ref
	}

	var id uint64
	result := r.db.WithContext(ctx).Raw(
		`INSERT INTO wallet_transactions
		 (wallet_id, user_id, amount, payment_type, direction, balance_after, reference, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		transaction.WalletID,
		transaction.UserID,
		transaction.Amount,
		string(transaction.PaymentType),
		string(transaction.Direction),
		transaction.BalanceAfter,
		reference,
		transaction.CreatedAt,
	).Scan(&id)

	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Duplicate transaction reference", map[string]any{
				"wallet_id": transaction.WalletID,
				"reference": transaction.Reference,
			})
			return errs.ErrDuplicateReference
		}
		return r.handleDatabaseError("creating transaction", result.Error, map[string]any{
			"wallet_id":    transaction.WalletID,
			"payment_type": transaction.PaymentType,
		})
	}

	transaction.ID = id
	r.logger.Debug("Transaction created", map[string]any{
		"transaction_id": id,
		"wallet_id":      transaction.WalletID,
		"payment_type":   transaction.PaymentType,
		"amount":         entity.FormatAmount(transaction.Amount),
	})
	return nil
}

// FindTransactionByReference looks up an entry by its idempotency reference
func (r *WalletRepository) FindTransactionByReference(ctx context.Context, walletID uint64, reference string) (*entity.WalletTransaction, error) {
	var m model.WalletTransaction
	result := r.db.WithContext(ctx).Raw(
		"SELECT "+walletTransactionColumns+" FROM wallet_transactions WHERE wallet_id = ? AND reference = ? LIMIT 1",
		walletID, reference,
	).Scan(&m)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		return nil, r.handleDatabaseError("finding transaction", result.Error, map[string]any{
			"wallet_id": walletID,
			"reference": reference,
		})
	}
	if result.RowsAffected == 0 {
		return nil, errs.ErrTransactionNotFound
	}
	return transactionToEntity(&m), nil
}

// ListTransactions returns a page of entries, newest first
func (r *WalletRepository) ListTransactions(ctx context.Context, walletID uint64, limit, offset int) ([]*entity.WalletTransaction, int64, error) {
	fields := map[string]any{"wallet_id": walletID, "limit": limit, "offset": offset}

	var total int64
	if err := r.db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = ?", walletID,
	).Scan(&total).Error; err != nil {
		return nil, 0, r.handleDatabaseError("counting transactions", err, fields)
	}

	var rows []model.WalletTransaction
	if err := r.db.WithContext(ctx).Raw(
		"SELECT "+walletTransactionColumns+" FROM wallet_transactions WHERE wallet_id = ? ORDER BY id DESC LIMIT ? OFFSET ?",
		walletID, limit, offset,
	).Scan(&rows).Error; err != nil {
		return nil, 0, r.handleDatabaseError("listing transactions", err, fields)
	}

	page := make([]*entity.WalletTransaction, 0, len(rows))
	for i := range rows {
		page = append(page, transactionToEntity(&rows[i]))
	}
	return page, total, nil
}

type directionTotal struct {
	Direction string
	Total     decimal.Decimal
	Entries   int64
}

// SumByDirection totals the wallet's credits and debits
func (r *WalletRepository) SumByDirection(ctx context.Context, walletID uint64) (entity.LedgerTotals, error) {
	var rows []directionTotal
	if err := r.db.WithContext(ctx).Raw(
		`SELECT direction, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS entries
		 FROM wallet_transactions
		 WHERE wallet_id = ?
		 GROUP BY direction`,
		walletID,
	).Scan(&rows).Error; err != nil {
		return entity.LedgerTotals{}, r.handleDatabaseError("summing transactions", err, map[string]any{
			"wallet_id": walletID,
		})
	}

	totals := entity.LedgerTotals{Credits: decimal.Zero, Debits: decimal.Zero}
	for _, row := range rows {
		totals.Count += row.Entries
		switch entity.LedgerDirection(row.Direction) {
		case entity.DirectionCredit:
			totals.Credits = totals.Credits.Add(row.Total)
		case entity.DirectionDebit:
			totals.Debits = totals.Debits.Add(row.Total)
		}
	}
	return totals, nil
}
