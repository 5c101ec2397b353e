package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReceiptStatusCaptured = "captured"
	ReceiptStatusPending  = "pending"
	ReceiptStatusFailed   = "failed"
)

// Receipt is the durable proof that a buyer paid for an event. One receipt
// per captured order; repeat purchases produce separate receipts and the
// ticket quantity is derived by counting them.
type Receipt struct {
	ID       uuid.UUID
	OrderID  string
	BuyerID  uuid.UUID
	SellerID uuid.UUID
	EventID  uuid.UUID
	Amount   int64
	Status   string
	IssuedAt time.Time
}

// TicketGroup is a read-side view: receipts for one event collapsed into a
// quantity.
type TicketGroup struct {
	EventID    uuid.UUID
	EventTitle string
	Quantity   int64
	AmountPaid int64
	LastIssued time.Time
}
