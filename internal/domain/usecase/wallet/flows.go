package wallet

import (
	"context"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
	"github.com/shopspring/decimal"
)

// Recharge credits a wallet top-up and notifies the user by email
func (u *WalletUseCase) Recharge(ctx context.Context, userID uint64, email string, amount decimal.Decimal, reference string) (*usecase.TransactionResult, error) {
	return u.postAndNotify(ctx, usecase.PostTransactionRequest{
		UserID:      userID,
		Email:       email,
		Amount:      amount,
		PaymentType: entity.PaymentRecharge,
		Reference:   reference,
	}, coreport.NotificationWalletRecharge)
}

// Refund credits the price of a refunded purchase. Marking the item as no
// longer owned is the caller's job.
func (u *WalletUseCase) Refund(ctx context.Context, userID uint64, email string, amount decimal.Decimal, reference string) (*usecase.TransactionResult, error) {
	return u.postAndNotify(ctx, usecase.PostTransactionRequest{
		UserID:      userID,
		Email:       email,
		Amount:      amount,
		PaymentType: entity.PaymentRefund,
		Reference:   reference,
	}, coreport.NotificationWalletRefund)
}

// Pay debits a purchase from the wallet
func (u *WalletUseCase) Pay(ctx context.Context, userID uint64, amount decimal.Decimal, reference string) (*usecase.TransactionResult, error) {
	posted, replayed, err := u.post(ctx, usecase.PostTransactionRequest{
		UserID:      userID,
		Amount:      amount,
		PaymentType: entity.PaymentPayment,
		Reference:   reference,
	})
	if err != nil {
		return nil, err
	}
	return &usecase.TransactionResult{Transaction: posted, Replayed: replayed}, nil
}

// postAndNotify posts a credit, then queues the email. A notifier failure is
// reported in the result and never undoes the committed entry.
func (u *WalletUseCase) postAndNotify(ctx context.Context, req usecase.PostTransactionRequest, kind coreport.NotificationKind) (*usecase.TransactionResult, error) {
	posted, replayed, err := u.post(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &usecase.TransactionResult{Transaction: posted, Replayed: replayed}
	if replayed || req.Email == "" {
		return result, nil
	}

	err = u.notifier.Notify(ctx, coreport.Notification{
		Kind:          kind,
		UserID:        req.UserID,
		Email:         req.Email,
		TransactionID: posted.ID,
		Amount:        entity.FormatAmount(posted.Amount),
		Balance:       entity.FormatAmount(posted.BalanceAfter),
		Reference:     posted.Reference,
		OccurredAt:    posted.CreatedAt,
	})
	if err != nil {
		u.metrics.RecordNotification(string(kind), "error")
		u.logger.Warn("Wallet notification failed", map[string]any{
			"user_id":        req.UserID,
			"transaction_id": posted.ID,
			"kind":           string(kind),
			"error":          err.Error(),
		})
		result.NotificationError = err.Error()
		return result, nil
	}

	u.metrics.RecordNotification(string(kind), "queued")
	result.Notified = true
	return result, nil
}
