package wallet

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
)

// GetBalance returns the user's balance through the read-through cache,
// creating an empty wallet on first access
func (u *WalletUseCase) GetBalance(ctx context.Context, userID uint64) (*usecase.BalanceResponse, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}

	key := balanceCacheKey(userID)
	var cached usecase.BalanceResponse
	err := u.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, errs.ErrCacheMiss) {
		u.logger.Warn("Wallet cache read failed", map[string]any{"key": key, "error": err.Error()})
	}

	fence, fenceErr := u.cache.Fence(ctx, WalletTag(userID))
	if fenceErr != nil {
		u.logger.Warn("Wallet cache fence failed", map[string]any{"key": key, "error": fenceErr.Error()})
	}

	wallet, err := u.uow.GetWalletRepository(ctx).GetOrCreate(ctx, userID)
	if err != nil {
		u.logger.Error("Failed to load wallet", map[string]any{"user_id": userID, "error": err.Error()})
		return nil, err
	}

	response := &usecase.BalanceResponse{
		UserID:    wallet.UserID,
		WalletID:  wallet.ID,
		Balance:   wallet.GetBalance(),
		UpdatedAt: wallet.UpdatedAt,
	}
	if fenceErr == nil {
		if err := u.cache.Set(ctx, key, response, u.cacheTTL, fence); err != nil {
			u.logger.Warn("Wallet cache write failed", map[string]any{"key": key, "error": err.Error()})
		}
	}
	return response, nil
}

// ListTransactions returns a page of the user's ledger, newest first
func (u *WalletUseCase) ListTransactions(ctx context.Context, userID uint64, limit, offset int) (*usecase.TransactionPage, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	if limit <= 0 {
		limit = u.defaultPageSize
	}
	if limit > u.maxPageSize {
		limit = u.maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	wallets := u.uow.GetWalletRepository(ctx)
	wallet, err := wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	transactions, total, err := wallets.ListTransactions(ctx, wallet.ID, limit, offset)
	if err != nil {
		u.logger.Error("Failed to list wallet transactions", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	return &usecase.TransactionPage{
		Transactions: transactions,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}

// Reconcile compares the stored balance with credits minus debits while the
// wallet row is locked, so no posting can interleave
func (u *WalletUseCase) Reconcile(ctx context.Context, userID uint64) (*usecase.ReconciliationReport, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}

	var report *usecase.ReconciliationReport
	err := persistence.WithinTransaction(ctx, u.uow, func(txCtx context.Context) error {
		wallets := u.uow.GetWalletRepository(txCtx)
		wallet, err := wallets.GetOrCreateForUpdate(txCtx, userID)
		if err != nil {
			return err
		}

		totals, err := wallets.SumByDirection(txCtx, wallet.ID)
		if err != nil {
			return err
		}

		report = &usecase.ReconciliationReport{
			UserID:     userID,
			WalletID:   wallet.ID,
			Balance:    wallet.Balance(),
			Credits:    totals.Credits,
			Debits:     totals.Debits,
			EntryCount: totals.Count,
			Consistent: wallet.Balance().Equal(totals.Net()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.Consistent {
		u.logger.Error("Wallet balance does not match its ledger", map[string]any{
			"user_id": userID,
			"balance": entity.FormatAmount(report.Balance),
			"ledger":  entity.FormatAmount(report.Credits.Sub(report.Debits)),
			"drift":   entity.FormatAmount(report.Drift()),
		})
	}
	return report, nil
}
