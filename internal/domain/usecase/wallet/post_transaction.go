package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
)

// PostTransaction applies one credit or debit to the user's wallet. The wallet
// row stays locked from the read of its balance until the balance update and
// the ledger insert commit together.
func (u *WalletUseCase) PostTransaction(ctx context.Context, req usecase.PostTransactionRequest) (*entity.WalletTransaction, error) {
	posted, _, err := u.post(ctx, req)
	return posted, err
}

func (u *WalletUseCase) post(ctx context.Context, req usecase.PostTransactionRequest) (*entity.WalletTransaction, bool, error) {
	if err := u.validate(req); err != nil {
		u.metrics.RecordWalletRejection(string(req.PaymentType), rejectionReason(err))
		return nil, false, err
	}

	var (
		posted   *entity.WalletTransaction
		replayed bool
	)

	err := persistence.WithinTransaction(ctx, u.uow, func(txCtx context.Context) error {
		wallets := u.uow.GetWalletRepository(txCtx)

		wallet, err := wallets.GetOrCreateForUpdate(txCtx, req.UserID)
		if err != nil {
			return err
		}

		if req.Reference != "" {
			existing, err := u.findByReference(txCtx, wallets, wallet.ID, req)
			if err != nil {
				return err
			}
			if existing != nil {
				posted, replayed = existing, true
				return nil
			}
		}

		if err := wallet.Apply(req.PaymentType, req.Amount, u.timeProvider); err != nil {
			var insufficient *errs.InsufficientFundsError
			if errors.As(err, &insufficient) {
				insufficient.Currency = u.currency
			}
			return err
		}

		if err := wallets.UpdateBalance(txCtx, wallet); err != nil {
			return err
		}

		entry := entity.NewWalletTransaction(wallet, req.Amount, req.PaymentType, req.Reference, u.timeProvider)
		if err := wallets.CreateTransaction(txCtx, entry); err != nil {
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		u.metrics.RecordWalletRejection(string(req.PaymentType), rejectionReason(err))
		fields := map[string]any{
			"user_id":      req.UserID,
			"amount":       entity.FormatAmount(req.Amount),
			"payment_type": string(req.PaymentType),
			"reference":    req.Reference,
			"error":        err.Error(),
			"error_code":   errs.ErrorCode(err),
		}
		if errs.IsInsufficientFundsError(err) {
			u.logger.Warn("Wallet debit rejected", fields)
		} else {
			u.logger.Error("Failed to post wallet transaction", fields)
		}
		return nil, false, err
	}

	if replayed {
		u.logger.Info("Wallet transaction replayed by reference", map[string]any{
			"user_id":        req.UserID,
			"transaction_id": posted.ID,
			"reference":      req.Reference,
		})
		return posted, true, nil
	}

	u.invalidate(ctx, req.UserID)
	u.metrics.RecordWalletTransaction(string(req.PaymentType), req.Amount.InexactFloat64())
	u.logger.Info("Wallet transaction posted", map[string]any{
		"user_id":        req.UserID,
		"wallet_id":      posted.WalletID,
		"transaction_id": posted.ID,
		"payment_type":   string(posted.PaymentType),
		"direction":      string(posted.Direction),
		"amount":         entity.FormatAmount(posted.Amount),
		"balance_after":  entity.FormatAmount(posted.BalanceAfter),
	})
	return posted, false, nil
}

func (u *WalletUseCase) validate(req usecase.PostTransactionRequest) error {
	if req.UserID == 0 {
		return errs.ErrInvalidUserID
	}
	if !req.PaymentType.IsValid() {
		return fmt.Errorf("%w: %s", errs.ErrInvalidPaymentType, req.PaymentType)
	}
	return entity.ValidateAmount(req.Amount)
}

// findByReference returns the earlier entry posted with req.Reference, or nil.
// A reference reused for a different amount or payment type is rejected.
func (u *WalletUseCase) findByReference(
	ctx context.Context,
	wallets persistence.WalletRepository,
	walletID uint64,
	req usecase.PostTransactionRequest,
) (*entity.WalletTransaction, error) {
	existing, err := wallets.FindTransactionByReference(ctx, walletID, req.Reference)
	if err != nil {
		if errors.Is(err, errs.ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if existing.PaymentType != req.PaymentType || !existing.Amount.Equal(req.Amount) {
		return nil, fmt.Errorf("%w: %s", errs.ErrDuplicateReference, req.Reference)
	}
	return existing, nil
}
