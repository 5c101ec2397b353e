package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EntryTypeCredit = "credit"
	EntryTypeDebit  = "debit"
)

// Wallet is the per-user running balance. Balance is kept in minor currency
// units (paise) and never goes negative: the debit query enforces the check
// at update time and the table carries a guard constraint.
type Wallet struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WalletEntry is one append-only history record. BalanceAfter snapshots the
// wallet balance right after the entry was applied. OrderID is set on
// settlement credits only and is unique, so a credit for an order can be
// applied at most once.
type WalletEntry struct {
	ID           uuid.UUID
	WalletID     uuid.UUID
	Type         string
	Amount       int64
	BalanceAfter int64
	Description  string
	OrderID      *string
	CreatedAt    time.Time
}
