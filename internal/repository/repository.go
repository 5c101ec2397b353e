package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evenza/settlement/internal/models"
)

type CreateUserParams struct {
	Name  string
	Email string
}

// User repository interface
type UserRepo interface {
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type CreateEventParams struct {
	Title     string
	StartsAt  time.Time
	Location  string
	Fee       int64
	CreatedBy uuid.UUID
}

// Event repository interface
// The catalog CRUD itself lives outside the settlement core; this interface
// is just wide enough to validate references and read the authoritative fee.
type EventRepo interface {
	CreateEvent(ctx context.Context, arg CreateEventParams) (models.Event, error)

	// If event not found must return apperrors.ErrEventNotFound
	GetEventByID(ctx context.Context, eventID uuid.UUID) (models.Event, error)
}

// Wallet repository interface
// All balance mutations are single atomic statements keyed by user id, so
// concurrent credits and debits on the same wallet never lose updates.
type WalletRepo interface {
	// Get wallet for user, creating an empty one if absent
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)

	// Get wallet for user
	// If wallet not found must return apperrors.ErrWalletNotFound
	GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)

	// Credit increases the wallet balance and appends a credit entry in one
	// go. orderID (when not nil) is stored on the entry under a unique
	// constraint: a second credit for the same order must return
	// apperrors.ErrReceiptAlreadyExists without changing the balance.
	Credit(ctx context.Context, userID uuid.UUID, amount int64, description string, orderID *string) (models.WalletEntry, error)

	// Debit decreases the wallet balance and appends a debit entry.
	// If the wallet is missing must return apperrors.ErrWalletNotFound.
	// If balance < amount must return apperrors.ErrBalanceInsufficient and
	// leave balance and history unchanged.
	Debit(ctx context.Context, userID uuid.UUID, amount int64, description string) (models.WalletEntry, error)

	// List history entries for the user wallet, newest first
	ListEntries(ctx context.Context, userID uuid.UUID) ([]models.WalletEntry, error)
}

// Receipt repository interface
type ReceiptRepo interface {
	// Create receipt for the order
	// If a receipt for receipt.OrderID already exists must return the stored
	// one together with apperrors.ErrReceiptAlreadyExists
	CreateReceipt(ctx context.Context, receipt models.Receipt) (models.Receipt, error)

	// If receipt not found must return apperrors.ErrReceiptNotFound
	GetReceiptByOrderID(ctx context.Context, orderID string) (models.Receipt, error)

	// List captured receipts for the buyer, newest first
	ListReceiptsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Receipt, error)

	// Captured receipts for the buyer grouped per event with quantity
	ListTicketGroupsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.TicketGroup, error)

	// Captured receipts that have no matching wallet credit entry. This is
	// the partial-settlement defect the reconciler repairs.
	ListUncreditedReceipts(ctx context.Context, limit int) ([]models.Receipt, error)
}

// Buyer-side payment history interface
type PaymentHistoryRepo interface {
	AppendPayment(ctx context.Context, entry models.PaymentEntry) (models.PaymentEntry, error)
	ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentEntry, error)
}

// Storage combines every repository over one database handle.
// InTx runs fn against a storage bound to a single transaction: every
// repository call inside fn commits or rolls back together.
type Storage interface {
	User() UserRepo
	Event() EventRepo
	Wallet() WalletRepo
	Receipt() ReceiptRepo
	PaymentHistory() PaymentHistoryRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
