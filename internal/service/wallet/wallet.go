package wallet

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/evenza/settlement/internal/apperrors"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/metrics"
	"github.com/evenza/settlement/internal/models"
	"github.com/evenza/settlement/internal/notification"
	"github.com/evenza/settlement/internal/repository"
)

type notificationSink interface {
	Enqueue(n notification.Notification)
}

// Destination describes the bank account a withdrawal should be paid to.
// Actual transfer execution is a manual fulfilment step outside this core;
// the details travel in the review notification only.
type Destination struct {
	AccountNumber string
	IFSC          string
	HolderName    string
}

type WalletService struct {
	storage       repository.Storage
	notifications notificationSink
	logger        logger.Logger
}

func NewService(storage repository.Storage, notifications notificationSink, l logger.Logger) *WalletService {
	return &WalletService{
		storage:       storage,
		notifications: notifications,
		logger:        l,
	}
}

// Withdraw debits the user wallet. The balance check and the debit are one
// atomic statement, so racing withdrawals or credits never overdraw.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, amount int64, dest Destination) (models.WithdrawalResult, error) {
	var result models.WithdrawalResult

	if amount <= 0 {
		metrics.WithdrawalsTotal.WithLabelValues("rejected").Inc()
		return result, apperrors.ErrInvalidAmount
	}

	description := fmt.Sprintf("Withdrawal to bank account ending in %s", maskAccount(dest.AccountNumber))

	entry, err := s.storage.Wallet().Debit(ctx, userID, amount, description)
	if err != nil {
		metrics.WithdrawalsTotal.WithLabelValues("rejected").Inc()
		return result, err
	}

	metrics.WithdrawalsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Withdrawal requested", "user_id", userID, "amount", amount, "new_balance", entry.BalanceAfter)

	s.notify(userID, amount, dest)

	return models.WithdrawalResult{
		EntryID:     entry.ID,
		UserID:      userID,
		Amount:      amount,
		NewBalance:  entry.BalanceAfter,
		ProcessedAt: entry.CreatedAt,
	}, nil
}

// GetWallet returns the wallet with its full history, newest entries first
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, []models.WalletEntry, error) {
	wallet, err := s.storage.Wallet().GetWallet(ctx, userID)
	if err != nil {
		return wallet, nil, err
	}

	entries, err := s.storage.Wallet().ListEntries(ctx, userID)
	if err != nil {
		return wallet, nil, fmt.Errorf("can't list wallet history: %w", err)
	}

	return wallet, entries, nil
}

// GetPayments returns the user's buyer-side payment history
func (s *WalletService) GetPayments(ctx context.Context, userID uuid.UUID) ([]models.PaymentEntry, error) {
	return s.storage.PaymentHistory().ListPaymentsByUser(ctx, userID)
}

func (s *WalletService) notify(userID uuid.UUID, amount int64, dest Destination) {
	if s.notifications == nil {
		return
	}

	payload := map[string]string{
		"amount":  strconv.FormatInt(amount, 10),
		"account": maskAccount(dest.AccountNumber),
	}

	s.notifications.Enqueue(notification.Notification{
		Kind:      notification.KindWithdrawalRequested,
		Recipient: userID,
		Payload:   payload,
	})

	// Operations reviews and executes the transfer manually, so they get
	// the full destination
	s.notifications.Enqueue(notification.Notification{
		Kind:      notification.KindWithdrawalReview,
		Recipient: userID,
		Payload: map[string]string{
			"amount":         strconv.FormatInt(amount, 10),
			"account_number": dest.AccountNumber,
			"ifsc":           dest.IFSC,
			"holder_name":    dest.HolderName,
		},
	})
}

func maskAccount(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}
