package entity

import (
	"fmt"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/shopspring/decimal"
)

// PaymentType identifies why money moved in or out of a wallet
type PaymentType string

// Payment types
const (
	PaymentRecharge PaymentType = "recharge"
	PaymentRefund   PaymentType = "refund"
	PaymentPayment  PaymentType = "payment"
)

// LedgerDirection is derived from the payment type
type LedgerDirection string

// Ledger directions
const (
	DirectionCredit LedgerDirection = "credit"
	DirectionDebit  LedgerDirection = "debit"
)

// ParsePaymentType converts a raw payment type, case-insensitively
func ParsePaymentType(raw string) (PaymentType, error) {
	pt := PaymentType(strings.ToLower(strings.TrimSpace(raw)))
	if !pt.IsValid() {
		return "", fmt.Errorf("%w: %s", errs.ErrInvalidPaymentType, raw)
	}
	return pt, nil
}

// IsValid reports whether the payment type is one of the known values
func (p PaymentType) IsValid() bool {
	return p == PaymentRecharge || p == PaymentRefund || p == PaymentPayment
}

// Direction returns credit for recharges and refunds, debit for payments
func (p PaymentType) Direction() LedgerDirection {
	if p == PaymentPayment {
		return DirectionDebit
	}
	return DirectionCredit
}

// WalletAccount holds a user's monetary balance
type WalletAccount struct {
	ID        uint64          // Unique identifier for the wallet
	UserID    uint64          // Owning user, one wallet per user
	balance   decimal.Decimal // Never negative; changed only through Apply
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWalletAccount creates an empty wallet for the user
func NewWalletAccount(userID uint64, timeProvider coreport.TimeProvider) (*WalletAccount, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}

	now := timeProvider.Now()
	return &WalletAccount{
		UserID:    userID,
		balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RestoreWalletAccount rebuilds a wallet loaded from storage
func RestoreWalletAccount(id, userID uint64, balance decimal.Decimal, createdAt, updatedAt time.Time) *WalletAccount {
	return &WalletAccount{
		ID:        id,
		UserID:    userID,
		balance:   balance,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// Balance returns the current balance
func (w *WalletAccount) Balance() decimal.Decimal {
	return w.balance
}

// GetBalance returns the balance as a string with 2 decimal places
func (w *WalletAccount) GetBalance() string {
	return FormatAmount(w.balance)
}

// Apply moves the balance for one ledger entry. A debit that would drive the
// balance negative is rejected and leaves the wallet untouched.
func (w *WalletAccount) Apply(paymentType PaymentType, amount decimal.Decimal, timeProvider coreport.TimeProvider) error {
	if !paymentType.IsValid() {
		return fmt.Errorf("%w: %s", errs.ErrInvalidPaymentType, paymentType)
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	var next decimal.Decimal
	switch paymentType.Direction() {
	case DirectionCredit:
		next = w.balance.Add(amount)
		if next.GreaterThan(MaxAmount) {
			return errs.ErrAmountOverflow
		}
	case DirectionDebit:
		next = w.balance.Sub(amount)
		if next.IsNegative() {
			return errs.NewInsufficientFundsError(w.UserID, FormatAmount(amount), FormatAmount(w.balance), FormatAmount(next.Neg()))
		}
	}

	w.balance = next
	w.UpdatedAt = timeProvider.Now()
	return nil
}

// WalletTransaction is one immutable ledger entry against a wallet
type WalletTransaction struct {
	ID           uint64          // Receipt number, allocated by storage
	WalletID     uint64          // Owning wallet
	UserID       uint64          // Owning user, denormalized for responses
	Amount       decimal.Decimal // Always positive
	PaymentType  PaymentType
	Direction    LedgerDirection
	BalanceAfter decimal.Decimal // Wallet balance right after this entry
	Reference    string          // Optional caller idempotency key
	CreatedAt    time.Time
}

// NewWalletTransaction records an entry already applied to the wallet
func NewWalletTransaction(
	wallet *WalletAccount,
	amount decimal.Decimal,
	paymentType PaymentType,
	reference string,
	timeProvider coreport.TimeProvider,
) *WalletTransaction {
	return &WalletTransaction{
		WalletID:     wallet.ID,
		UserID:       wallet.UserID,
		Amount:       amount,
		PaymentType:  paymentType,
		Direction:    paymentType.Direction(),
		BalanceAfter: wallet.Balance(),
		Reference:    strings.TrimSpace(reference),
		CreatedAt:    timeProvider.Now(),
	}
}

// IsCredit returns true if this entry increased the balance
func (t *WalletTransaction) IsCredit() bool {
	return t.Direction == DirectionCredit
}

// LedgerTotals sums a wallet's entries by direction
type LedgerTotals struct {
	Credits decimal.Decimal
	Debits  decimal.Decimal
	Count   int64
}

// Net returns credits minus debits
func (t LedgerTotals) Net() decimal.Decimal {
	return t.Credits.Sub(t.Debits)
}
