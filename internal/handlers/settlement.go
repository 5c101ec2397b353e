package handlers

import (
	"errors"
	"net/http"

	"github.com/evenza/settlement/internal/apperrors"
	"github.com/evenza/settlement/internal/handlers/render"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/processor"
)

// handleCapture is the capture callback: the processor (or a retrying
// webhook relay) posts an order id, the authoritative capture record is
// fetched back from the processor and settled. Client-submitted amounts
// never enter settlement math.
func handleCapture(settlementService settlementService, captures captureSource, l logger.Logger) http.Handler {
	type request struct {
		OrderID string `json:"order_id" validate:"required"`
	}

	type response struct {
		ReceiptID     string `json:"receipt_id"`
		OrderID       string `json:"order_id"`
		SellerBalance string `json:"seller_balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		auth, err := captures.GetAuthorization(r.Context(), req.OrderID)
		if err != nil {
			var procErr *processor.ProcessorError
			if errors.As(err, &procErr) && procErr.Code == processor.CodeNotFound {
				render.ServiceError(w, "Unknown order", http.StatusNotFound)
				return
			}
			l.Error("Failed to fetch capture record", "order_id", req.OrderID, "error", err)
			render.ServiceError(w, "Payment processor unavailable", http.StatusBadGateway)
			return
		}

		result, err := settlementService.Settle(r.Context(), auth)

		switch {
		case err == nil:
			res := response{
				ReceiptID:     result.ReceiptID.String(),
				OrderID:       result.OrderID,
				SellerBalance: displayAmount(result.NewBalance),
			}
			if result.AlreadySettled {
				render.JSON(w, res)
				return
			}
			render.JSONWithStatus(w, res, http.StatusCreated)
		case errors.Is(err, apperrors.ErrPaymentNotCaptured):
			render.ServiceError(w, "Payment is not captured", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrInvalidAmount):
			render.ServiceError(w, "Invalid payment amount", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrAmountMismatch):
			render.ServiceError(w, "Captured amount does not match event fee", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrSelfPayment):
			render.ServiceError(w, "Organizer can't buy a ticket to own event", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrEventNotFound):
			render.ServiceError(w, "Referenced user or event not found", http.StatusNotFound)
		default:
			l.Error("Failed to settle order", "order_id", req.OrderID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
