package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/evenza/settlement/internal/apperrors"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/metrics"
	"github.com/evenza/settlement/internal/models"
	"github.com/evenza/settlement/internal/repository"
)

const defaultScanLimit = 1000

// Reconciler repairs partial settlements: captured receipts that have no
// matching wallet credit. Such rows can only appear after a crash inside the
// settlement transaction boundary on storage engines without transactions;
// with postgres they should never exist, so every repair is reported loudly.
type Reconciler struct {
	storage repository.Storage
	logger  logger.Logger

	scanLimit int
}

type ReconcileReport struct {
	Scanned  int
	Repaired int
	Failed   int
}

func NewReconciler(storage repository.Storage, l logger.Logger) *Reconciler {
	return &Reconciler{
		storage:   storage,
		logger:    l,
		scanLimit: defaultScanLimit,
	}
}

// Reconcile scans for uncredited receipts and applies the missing credits.
// The per-order unique constraint on credit entries makes a repair race-free
// against a concurrent settlement retry of the same order.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	receipts, err := r.storage.Receipt().ListUncreditedReceipts(ctx, r.scanLimit)
	if err != nil {
		return report, fmt.Errorf("can't scan for uncredited receipts: %w", err)
	}

	report.Scanned = len(receipts)

	for _, receipt := range receipts {
		r.logger.Error("Partial settlement detected",
			"order_id", receipt.OrderID,
			"seller_id", receipt.SellerID,
			"amount", receipt.Amount,
		)

		err := r.repair(ctx, receipt)
		switch {
		case err == nil:
			report.Repaired++
			metrics.ReconcileRepairsTotal.Inc()
			r.logger.Info("Partial settlement repaired", "order_id", receipt.OrderID)
		case errors.Is(err, apperrors.ErrReceiptAlreadyExists):
			// Credited between scan and repair, nothing left to do
		default:
			report.Failed++
			r.logger.Error("Failed to repair settlement", "order_id", receipt.OrderID, "error", err)
		}
	}

	return report, nil
}

func (r *Reconciler) repair(ctx context.Context, receipt models.Receipt) error {
	return r.storage.InTx(ctx, func(st repository.Storage) error {
		if _, err := st.Wallet().GetOrCreateWallet(ctx, receipt.SellerID); err != nil {
			return err
		}

		_, err := st.Wallet().Credit(
			ctx,
			receipt.SellerID,
			receipt.Amount,
			fmt.Sprintf("Received payment for event %s", receipt.EventID),
			&receipt.OrderID,
		)
		return err
	})
}
