package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evenza/settlement/internal/apperrors"
	"github.com/evenza/settlement/internal/models"
)

type ReceiptRepo struct {
	DB DBTX
}

// Insert receipt for the order
// If a receipt with the order id already exists return it as is
const createReceipt = `-- name: CreateReceipt
WITH insert_receipt AS (
	INSERT INTO receipts (id, order_id, buyer_id, seller_id, event_id, amount, status, issued_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (order_id) DO NOTHING
	RETURNING *
)
SELECT * FROM insert_receipt
UNION
SELECT * FROM receipts WHERE order_id = $2
`

func (r *ReceiptRepo) CreateReceipt(ctx context.Context, receipt models.Receipt) (models.Receipt, error) {
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	if receipt.IssuedAt.IsZero() {
		receipt.IssuedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createReceipt,
		receipt.ID, receipt.OrderID, receipt.BuyerID, receipt.SellerID,
		receipt.EventID, receipt.Amount, receipt.Status, receipt.IssuedAt,
	)
	stored, err := pgx.CollectOneRow(rows, rowToReceipt)

	switch {
	case err != nil:
		return stored, fmt.Errorf("db error: %w", err)
	case stored.ID == receipt.ID:
		return stored, nil
	default:
		return stored, apperrors.ErrReceiptAlreadyExists
	}
}

const getReceiptByOrderID = `-- name: GetReceiptByOrderID
SELECT id, order_id, buyer_id, seller_id, event_id, amount, status, issued_at FROM receipts
WHERE order_id = $1
`

func (r *ReceiptRepo) GetReceiptByOrderID(ctx context.Context, orderID string) (models.Receipt, error) {
	rows, _ := r.DB.Query(ctx, getReceiptByOrderID, orderID)
	receipt, err := pgx.CollectOneRow(rows, rowToReceipt)

	switch {
	case err == nil:
		return receipt, nil
	case errors.Is(err, pgx.ErrNoRows):
		return receipt, apperrors.ErrReceiptNotFound
	default:
		return receipt, fmt.Errorf("db error: %w", err)
	}
}

const listReceiptsByBuyer = `-- name: ListReceiptsByBuyer
SELECT id, order_id, buyer_id, seller_id, event_id, amount, status, issued_at FROM receipts
WHERE buyer_id = $1 AND status = 'captured'
ORDER BY issued_at DESC, id
`

func (r *ReceiptRepo) ListReceiptsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Receipt, error) {
	rows, _ := r.DB.Query(ctx, listReceiptsByBuyer, buyerID)
	receipts, err := pgx.CollectRows(rows, rowToReceipt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return receipts, nil
}

// Repeat purchases are separate receipts; quantity per event is derived by
// counting them
const listTicketGroupsByBuyer = `-- name: ListTicketGroupsByBuyer
SELECT r.event_id, ev.title, COUNT(*), SUM(r.amount), MAX(r.issued_at)
FROM receipts r
JOIN events ev ON ev.id = r.event_id
WHERE r.buyer_id = $1 AND r.status = 'captured'
GROUP BY r.event_id, ev.title
ORDER BY MAX(r.issued_at) DESC
`

func (r *ReceiptRepo) ListTicketGroupsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.TicketGroup, error) {
	rows, _ := r.DB.Query(ctx, listTicketGroupsByBuyer, buyerID)
	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TicketGroup, error) {
		var g models.TicketGroup
		err := row.Scan(&g.EventID, &g.EventTitle, &g.Quantity, &g.AmountPaid, &g.LastIssued)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return groups, nil
}

// A captured receipt without a wallet credit entry means a settlement was
// interrupted between writes
const listUncreditedReceipts = `-- name: ListUncreditedReceipts
SELECT r.id, r.order_id, r.buyer_id, r.seller_id, r.event_id, r.amount, r.status, r.issued_at
FROM receipts r
LEFT JOIN wallet_entries e ON e.order_id = r.order_id
WHERE r.status = 'captured' AND e.id IS NULL
ORDER BY r.issued_at
LIMIT $1
`

func (r *ReceiptRepo) ListUncreditedReceipts(ctx context.Context, limit int) ([]models.Receipt, error) {
	rows, _ := r.DB.Query(ctx, listUncreditedReceipts, limit)
	receipts, err := pgx.CollectRows(rows, rowToReceipt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return receipts, nil
}

func rowToReceipt(row pgx.CollectableRow) (models.Receipt, error) {
	var r models.Receipt
	err := row.Scan(&r.ID, &r.OrderID, &r.BuyerID, &r.SellerID, &r.EventID, &r.Amount, &r.Status, &r.IssuedAt)
	return r, err
}
