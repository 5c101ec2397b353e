package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/evenza/settlement/internal/apperrors"
	"github.com/evenza/settlement/internal/models"
)

type WalletRepo struct {
	DB DBTX
}

// Create wallet lazily: insert an empty one, return the existing row if the
// user already has a wallet
const getOrCreateWallet = `-- name: GetOrCreateWallet
WITH new_wallet AS (
	INSERT INTO wallets (user_id)
	VALUES ($1)
	ON CONFLICT (user_id) DO NOTHING
	RETURNING id, user_id, balance, created_at, updated_at
)
SELECT * FROM new_wallet
UNION
SELECT id, user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1
`

func (r *WalletRepo) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getOrCreateWallet, userID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return wallet, apperrors.ErrUserNotFound
		}
		return wallet, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

const getWallet = `-- name: GetWallet
SELECT id, user_id, balance, created_at, updated_at FROM wallets
WHERE user_id = $1
`

func (r *WalletRepo) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getWallet, userID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

// Balance update and history append happen in one statement, so a credit is
// atomic even outside an explicit transaction
const creditWallet = `-- name: CreditWallet
WITH updated AS (
	UPDATE wallets
	SET balance = balance + $2, updated_at = now()
	WHERE user_id = $1
	RETURNING id, balance
)
INSERT INTO wallet_entries (id, wallet_id, type, amount, balance_after, description, order_id)
SELECT $3, id, 'credit', $2, balance, $4, $5 FROM updated
RETURNING id, wallet_id, type, amount, balance_after, description, order_id, created_at
`

func (r *WalletRepo) Credit(ctx context.Context, userID uuid.UUID, amount int64, description string, orderID *string) (models.WalletEntry, error) {
	var entry models.WalletEntry
	if amount <= 0 {
		return entry, apperrors.ErrInvalidAmount
	}

	rows, _ := r.DB.Query(ctx, creditWallet, userID, amount, uuid.New(), description, orderID)
	entry, err := pgx.CollectOneRow(rows, rowToWalletEntry)

	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, pgx.ErrNoRows):
		return entry, apperrors.ErrWalletNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		// Entry for this order already applied, balance left as is
		return entry, apperrors.ErrReceiptAlreadyExists
	}

	return entry, fmt.Errorf("db error: %w", err)
}

// The balance check is part of the update predicate: two racing debits can
// not both pass it, the second one simply matches no row
const debitWallet = `-- name: DebitWallet
WITH updated AS (
	UPDATE wallets
	SET balance = balance - $2, updated_at = now()
	WHERE user_id = $1 AND balance >= $2
	RETURNING id, balance
)
INSERT INTO wallet_entries (id, wallet_id, type, amount, balance_after, description)
SELECT $3, id, 'debit', $2, balance, $4 FROM updated
RETURNING id, wallet_id, type, amount, balance_after, description, order_id, created_at
`

func (r *WalletRepo) Debit(ctx context.Context, userID uuid.UUID, amount int64, description string) (models.WalletEntry, error) {
	var entry models.WalletEntry
	if amount <= 0 {
		return entry, apperrors.ErrInvalidAmount
	}

	rows, _ := r.DB.Query(ctx, debitWallet, userID, amount, uuid.New(), description)
	entry, err := pgx.CollectOneRow(rows, rowToWalletEntry)

	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either the wallet is missing or the balance is too low
		if _, walletErr := r.GetWallet(ctx, userID); walletErr != nil {
			return entry, walletErr
		}
		return entry, apperrors.ErrBalanceInsufficient
	default:
		return entry, fmt.Errorf("db error: %w", err)
	}
}

const listEntries = `-- name: ListEntries
SELECT e.id, e.wallet_id, e.type, e.amount, e.balance_after, e.description, e.order_id, e.created_at
FROM wallet_entries e
JOIN wallets w ON w.id = e.wallet_id
WHERE w.user_id = $1
ORDER BY e.created_at DESC, e.id
`

func (r *WalletRepo) ListEntries(ctx context.Context, userID uuid.UUID) ([]models.WalletEntry, error) {
	rows, _ := r.DB.Query(ctx, listEntries, userID)
	entries, err := pgx.CollectRows(rows, rowToWalletEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func rowToWalletEntry(row pgx.CollectableRow) (models.WalletEntry, error) {
	var e models.WalletEntry
	err := row.Scan(&e.ID, &e.WalletID, &e.Type, &e.Amount, &e.BalanceAfter, &e.Description, &e.OrderID, &e.CreatedAt)
	return e, err
}
