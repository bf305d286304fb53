package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletAccount is the database model for a user's wallet
type WalletAccount struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	UserID    uint64          `gorm:"not null;uniqueIndex:idx_wallet_accounts_user_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName specifies the table name for WalletAccount
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction is one append-only ledger entry
type WalletTransaction struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	WalletID     uint64          `gorm:"not null;index:idx_wallet_transactions_wallet_created,priority:1"`
	UserID       uint64          `gorm:"not null;index"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentType  string          `gorm:"type:varchar(20);not null"`
	Direction    string          `gorm:"type:varchar(10);not null"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Reference    *string         `gorm:"type:varchar(128)"`
	CreatedAt    time.Time       `gorm:"not null;index:idx_wallet_transactions_wallet_created,priority:2"`

	Wallet WalletAccount `gorm:"foreignKey:WalletID;references:ID"`
}

// TableName specifies the table name for WalletTransaction
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
