package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Status the payment processor reports for a finalized charge
	AuthorizationStatusCaptured = "captured"
)

// PaymentAuthorization is the processor's view of an order. It is the input
// to settlement and is never built from client-submitted values: amount and
// event come from the processor's capture record. OrderID doubles as the
// idempotency key.
type PaymentAuthorization struct {
	OrderID  string
	BuyerID  uuid.UUID
	SellerID uuid.UUID
	EventID  uuid.UUID
	Amount   int64
	Currency string
	Status   string
}

// PaymentEntry mirrors the credit recorded in the seller's wallet on the
// buyer's side, for the buyer's own records.
type PaymentEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ToUserID  uuid.UUID
	EventID   uuid.UUID
	EventName string
	Amount    int64
	CreatedAt time.Time
}

type SettlementResult struct {
	ReceiptID uuid.UUID
	OrderID   string
	SellerID  uuid.UUID

	// Seller wallet balance after the credit was applied
	NewBalance int64

	// True when the order was settled by an earlier call and this call
	// returned the recorded receipt without mutating anything
	AlreadySettled bool
}

type WithdrawalResult struct {
	EntryID     uuid.UUID
	UserID      uuid.UUID
	Amount      int64
	NewBalance  int64
	ProcessedAt time.Time
}
