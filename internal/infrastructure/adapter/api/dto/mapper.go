package dto

import (
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
)

// NewTransactionResponse converts a ledger entry
func NewTransactionResponse(t *entity.WalletTransaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		PaymentType:  string(t.PaymentType),
		Direction:    string(t.Direction),
		Amount:       entity.FormatAmount(t.Amount),
		BalanceAfter: entity.FormatAmount(t.BalanceAfter),
		Reference:    t.Reference,
		CreatedAt:    t.CreatedAt,
	}
}

// NewPostingResponse converts a posting result
func NewPostingResponse(r *usecase.TransactionResult) PostingResponse {
	return PostingResponse{
		Transaction:       NewTransactionResponse(r.Transaction),
		Balance:           entity.FormatAmount(r.Transaction.BalanceAfter),
		Replayed:          r.Replayed,
		Notified:          r.Notified,
		NotificationError: r.NotificationError,
	}
}

// NewTransactionPageResponse converts a page of ledger entries
func NewTransactionPageResponse(p *usecase.TransactionPage) TransactionPageResponse {
	items := make([]TransactionResponse, 0, len(p.Transactions))
	for _, t := range p.Transactions {
		items = append(items, NewTransactionResponse(t))
	}
	return TransactionPageResponse{
		Transactions: items,
		Total:        p.Total,
		Limit:        p.Limit,
		Offset:       p.Offset,
	}
}

// NewReconciliationResponse converts a reconciliation report
func NewReconciliationResponse(r *usecase.ReconciliationReport) ReconciliationResponse {
	return ReconciliationResponse{
		UserID:     r.UserID,
		WalletID:   r.WalletID,
		Balance:    entity.FormatAmount(r.Balance),
		Credits:    entity.FormatAmount(r.Credits),
		Debits:     entity.FormatAmount(r.Debits),
		Drift:      entity.FormatAmount(r.Drift()),
		EntryCount: r.EntryCount,
		Consistent: r.Consistent,
	}
}

// NewVoteResponse converts vote counters and the caller's vote
func NewVoteResponse(target entity.VoteTarget, counters entity.VoteCounters, userVote *entity.VoteDirection, action string) VoteResponse {
	resp := VoteResponse{
		TargetType:    string(target.Type),
		TargetID:      target.ID,
		UpvoteCount:   counters.Up,
		DownvoteCount: counters.Down,
		Action:        action,
	}
	if userVote != nil {
		v := string(*userVote)
		resp.UserVote = &v
	}
	return resp
}

// NewRecountResponse converts a recount result
func NewRecountResponse(r *usecase.RecountResult) RecountResponse {
	return RecountResponse{
		TargetType: string(r.Target.Type),
		TargetID:   r.Target.ID,
		Before:     VoteCountersBody{Up: r.Before.Up, Down: r.Before.Down},
		After:      VoteCountersBody{Up: r.After.Up, Down: r.After.Down},
		Changed:    r.Changed(),
	}
}
