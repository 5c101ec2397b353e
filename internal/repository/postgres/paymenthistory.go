package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evenza/settlement/internal/models"
)

type PaymentHistoryRepo struct {
	DB DBTX
}

const appendPayment = `-- name: AppendPayment
INSERT INTO payments (id, user_id, to_user_id, event_id, event_name, amount)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, to_user_id, event_id, event_name, amount, created_at
`

func (r *PaymentHistoryRepo) AppendPayment(ctx context.Context, entry models.PaymentEntry) (models.PaymentEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, appendPayment,
		entry.ID, entry.UserID, entry.ToUserID, entry.EventID, entry.EventName, entry.Amount,
	)
	stored, err := pgx.CollectOneRow(rows, rowToPaymentEntry)
	if err != nil {
		return stored, fmt.Errorf("db error: %w", err)
	}

	return stored, nil
}

const listPaymentsByUser = `-- name: ListPaymentsByUser
SELECT id, user_id, to_user_id, event_id, event_name, amount, created_at FROM payments
WHERE user_id = $1
ORDER BY created_at DESC, id
`

func (r *PaymentHistoryRepo) ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentEntry, error) {
	rows, _ := r.DB.Query(ctx, listPaymentsByUser, userID)
	entries, err := pgx.CollectRows(rows, rowToPaymentEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

func rowToPaymentEntry(row pgx.CollectableRow) (models.PaymentEntry, error) {
	var p models.PaymentEntry
	err := row.Scan(&p.ID, &p.UserID, &p.ToUserID, &p.EventID, &p.EventName, &p.Amount, &p.CreatedAt)
	return p, err
}
