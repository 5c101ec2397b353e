package settlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/evenza/settlement/internal/apperrors"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/metrics"
	"github.com/evenza/settlement/internal/models"
	"github.com/evenza/settlement/internal/notification"
	"github.com/evenza/settlement/internal/repository"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 100 * time.Millisecond
)

type notificationSink interface {
	Enqueue(n notification.Notification)
}

// SettlementService turns one captured payment into a receipt, a buyer-side
// payment entry and a seller wallet credit, with at-most-once effect per
// order id.
//
// Failure strategy: the three writes run in one database transaction, so a
// settlement is all-or-nothing. A crash between commit and response is
// covered by the idempotent replay path; a crash that somehow leaves a
// receipt without a credit is repaired by the Reconciler.
type SettlementService struct {
	storage       repository.Storage
	notifications notificationSink
	logger        logger.Logger

	maxAttempts  int
	retryBackoff time.Duration
}

func NewService(storage repository.Storage, notifications notificationSink, l logger.Logger) *SettlementService {
	return &SettlementService{
		storage:       storage,
		notifications: notifications,
		logger:        l,
		maxAttempts:   defaultMaxAttempts,
		retryBackoff:  defaultRetryBackoff,
	}
}

// Settle processes one payment authorization.
// Calling it again with the same order id returns the recorded receipt and
// performs no writes, so callers may retry freely on timeouts.
func (s *SettlementService) Settle(ctx context.Context, auth models.PaymentAuthorization) (models.SettlementResult, error) {
	var result models.SettlementResult

	event, err := s.validate(ctx, auth)
	if err != nil {
		metrics.SettlementsTotal.WithLabelValues("rejected").Inc()
		return result, err
	}

	// Fast replay path: order already settled
	receipt, err := s.storage.Receipt().GetReceiptByOrderID(ctx, auth.OrderID)
	switch {
	case err == nil:
		return s.replay(ctx, receipt)
	case !errors.Is(err, apperrors.ErrReceiptNotFound):
		return result, fmt.Errorf("can't check order %s: %w", auth.OrderID, err)
	}

	err = s.withRetry(ctx, func() error {
		return s.storage.InTx(ctx, func(st repository.Storage) error {
			receipt, err := st.Receipt().CreateReceipt(ctx, models.Receipt{
				OrderID:  auth.OrderID,
				BuyerID:  auth.BuyerID,
				SellerID: auth.SellerID,
				EventID:  auth.EventID,
				Amount:   auth.Amount,
				Status:   models.ReceiptStatusCaptured,
			})
			if err != nil {
				return err
			}

			_, err = st.PaymentHistory().AppendPayment(ctx, models.PaymentEntry{
				UserID:    auth.BuyerID,
				ToUserID:  auth.SellerID,
				EventID:   auth.EventID,
				EventName: event.Title,
				Amount:    auth.Amount,
			})
			if err != nil {
				return err
			}

			if _, err := st.Wallet().GetOrCreateWallet(ctx, auth.SellerID); err != nil {
				return err
			}

			entry, err := st.Wallet().Credit(
				ctx,
				auth.SellerID,
				auth.Amount,
				fmt.Sprintf("Received payment for event %s", auth.EventID),
				&auth.OrderID,
			)
			if err != nil {
				return err
			}

			result = models.SettlementResult{
				ReceiptID:  receipt.ID,
				OrderID:    auth.OrderID,
				SellerID:   auth.SellerID,
				NewBalance: entry.BalanceAfter,
			}
			return nil
		})
	})

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrReceiptAlreadyExists):
		// Lost the race against a concurrent delivery of the same order
		receipt, err := s.storage.Receipt().GetReceiptByOrderID(ctx, auth.OrderID)
		if err != nil {
			return result, fmt.Errorf("order %s settled concurrently but receipt not readable: %w", auth.OrderID, err)
		}
		return s.replay(ctx, receipt)
	default:
		metrics.SettlementsTotal.WithLabelValues("failed").Inc()
		return result, fmt.Errorf("settle order %s: %w", auth.OrderID, err)
	}

	metrics.SettlementsTotal.WithLabelValues("ok").Inc()
	metrics.SettledAmountTotal.Add(float64(auth.Amount))
	s.logger.Info("Order settled",
		"order_id", auth.OrderID,
		"buyer_id", auth.BuyerID,
		"seller_id", auth.SellerID,
		"amount", auth.Amount,
	)

	s.notify(auth, event)

	return result, nil
}

// validate runs every precondition that must hold before any mutation.
// Returns the event so the caller can reuse its title and fee.
func (s *SettlementService) validate(ctx context.Context, auth models.PaymentAuthorization) (models.Event, error) {
	var event models.Event

	if auth.Status != models.AuthorizationStatusCaptured {
		return event, apperrors.ErrPaymentNotCaptured
	}
	if auth.Amount <= 0 {
		return event, apperrors.ErrInvalidAmount
	}
	if auth.BuyerID == auth.SellerID {
		return event, apperrors.ErrSelfPayment
	}

	if _, err := s.storage.User().GetUserByID(ctx, auth.BuyerID); err != nil {
		return event, fmt.Errorf("buyer %s: %w", auth.BuyerID, err)
	}
	if _, err := s.storage.User().GetUserByID(ctx, auth.SellerID); err != nil {
		return event, fmt.Errorf("seller %s: %w", auth.SellerID, err)
	}

	event, err := s.storage.Event().GetEventByID(ctx, auth.EventID)
	if err != nil {
		return event, fmt.Errorf("event %s: %w", auth.EventID, err)
	}

	// The captured amount is authoritative but must match what the
	// organizer asked for the ticket
	if event.Fee != auth.Amount {
		return event, apperrors.ErrAmountMismatch
	}

	return event, nil
}

// replay returns the previously recorded settlement without mutating
func (s *SettlementService) replay(ctx context.Context, receipt models.Receipt) (models.SettlementResult, error) {
	var result models.SettlementResult

	wallet, err := s.storage.Wallet().GetOrCreateWallet(ctx, receipt.SellerID)
	if err != nil {
		return result, fmt.Errorf("can't read seller wallet for replay: %w", err)
	}

	metrics.SettlementReplaysTotal.Inc()
	s.logger.Info("Order already settled, replaying result", "order_id", receipt.OrderID)

	return models.SettlementResult{
		ReceiptID:      receipt.ID,
		OrderID:        receipt.OrderID,
		SellerID:       receipt.SellerID,
		NewBalance:     wallet.Balance,
		AlreadySettled: true,
	}, nil
}

// withRetry re-runs fn on transient store errors with doubling backoff.
// Domain errors abort immediately: retrying them can't change the answer.
func (s *SettlementService) withRetry(ctx context.Context, fn func() error) error {
	backoff := s.retryBackoff

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if err == nil || isDomainError(err) {
			return err
		}

		if attempt == s.maxAttempts {
			break
		}

		s.logger.Warn("Settlement attempt failed, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return err
}

func isDomainError(err error) bool {
	for _, domainErr := range []error{
		apperrors.ErrReceiptAlreadyExists,
		apperrors.ErrUserNotFound,
		apperrors.ErrEventNotFound,
		apperrors.ErrWalletNotFound,
		apperrors.ErrInvalidAmount,
		apperrors.ErrAmountMismatch,
	} {
		if errors.Is(err, domainErr) {
			return true
		}
	}
	return false
}

func (s *SettlementService) notify(auth models.PaymentAuthorization, event models.Event) {
	if s.notifications == nil {
		return
	}

	amount := strconv.FormatInt(auth.Amount, 10)

	s.notifications.Enqueue(notification.Notification{
		Kind:      notification.KindTicketPurchased,
		Recipient: auth.BuyerID,
		Payload: map[string]string{
			"order_id": auth.OrderID,
			"event":    event.Title,
			"amount":   amount,
		},
	})
	s.notifications.Enqueue(notification.Notification{
		Kind:      notification.KindPaymentReceived,
		Recipient: auth.SellerID,
		Payload: map[string]string{
			"order_id": auth.OrderID,
			"event":    event.Title,
			"amount":   amount,
		},
	})
}
