package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/evenza/settlement/internal/apperrors"
	"github.com/evenza/settlement/internal/handlers/render"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/service/wallet"
)

func handleGetWallet(walletService walletService, l logger.Logger) http.Handler {
	type entry struct {
		Type        string    `json:"type"`
		Amount      int64     `json:"amount"`
		Display     string    `json:"display"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}

	type response struct {
		Balance        int64   `json:"balance"`
		BalanceDisplay string  `json:"balance_display"`
		History        []entry `json:"history"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		w2, entries, err := walletService.GetWallet(r.Context(), userID)

		switch {
		case err == nil:
			history := make([]entry, 0, len(entries))
			for _, e := range entries {
				history = append(history, entry{
					Type:        e.Type,
					Amount:      e.Amount,
					Display:     displayAmount(e.Amount),
					Description: e.Description,
					CreatedAt:   e.CreatedAt,
				})
			}
			render.JSON(w, response{
				Balance:        w2.Balance,
				BalanceDisplay: displayAmount(w2.Balance),
				History:        history,
			})
		case errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "Wallet not found", http.StatusNotFound)
		default:
			l.Error("Failed to get wallet", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleWithdraw(walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		Amount        int64  `json:"amount" validate:"required,gt=0"`
		AccountNumber string `json:"account_number" validate:"required,min=6"`
		IFSC          string `json:"ifsc" validate:"required"`
		HolderName    string `json:"holder_name" validate:"required"`
	}

	type response struct {
		Amount     int64  `json:"amount"`
		NewBalance int64  `json:"new_balance"`
		Display    string `json:"new_balance_display"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := walletService.Withdraw(r.Context(), userID, req.Amount, wallet.Destination{
			AccountNumber: req.AccountNumber,
			IFSC:          req.IFSC,
			HolderName:    req.HolderName,
		})

		switch {
		case err == nil:
			render.JSON(w, response{
				Amount:     result.Amount,
				NewBalance: result.NewBalance,
				Display:    displayAmount(result.NewBalance),
			})
		case errors.Is(err, apperrors.ErrBalanceInsufficient):
			render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "Wallet not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrInvalidAmount):
			render.ServiceError(w, "Invalid amount", http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to withdraw", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListPayments(walletService walletService, l logger.Logger) http.Handler {
	type payment struct {
		ToUser    string    `json:"to_user"`
		EventName string    `json:"event_name"`
		Amount    int64     `json:"amount"`
		Display   string    `json:"display"`
		CreatedAt time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		entries, err := walletService.GetPayments(r.Context(), userID)

		switch err {
		case nil:
			payments := make([]payment, 0, len(entries))
			for _, p := range entries {
				payments = append(payments, payment{
					ToUser:    p.ToUserID.String(),
					EventName: p.EventName,
					Amount:    p.Amount,
					Display:   displayAmount(p.Amount),
					CreatedAt: p.CreatedAt,
				})
			}
			render.JSON(w, payments)
		default:
			l.Error("Failed to list payments", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
