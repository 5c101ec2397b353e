package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/evenza/settlement/internal/handlers/middleware"
	"github.com/evenza/settlement/internal/handlers/render"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/models"
	"github.com/evenza/settlement/internal/service/wallet"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	settlementService settlementService,
	walletService walletService,
	ticketService ticketService,
	captures captureSource,
	l logger.Logger,
) http.Handler {
	api := http.NewServeMux()

	api.Handle("POST /payments/capture", handleCapture(settlementService, captures, l))

	api.Handle("GET /users/{userID}/wallet", handleGetWallet(walletService, l))
	api.Handle("POST /users/{userID}/wallet/withdraw", handleWithdraw(walletService, l))
	api.Handle("GET /users/{userID}/payments", handleListPayments(walletService, l))
	api.Handle("GET /users/{userID}/tickets", handleListTickets(ticketService, l))
	api.Handle("GET /users/{userID}/receipts", handleListReceipts(ticketService, l))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("GET /metrics", promhttp.Handler())
	root.Handle("GET /healthz", handleHealth())

	handler := chain(root,
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(l),
		middleware.MetricsMiddleware(),
	)

	return handler
}

type settlementService interface {
	// Settle one captured payment: receipt, buyer history, seller credit.
	// Must be idempotent on auth.OrderID.
	Settle(ctx context.Context, auth models.PaymentAuthorization) (models.SettlementResult, error)
}

type walletService interface {
	Withdraw(ctx context.Context, userID uuid.UUID, amount int64, dest wallet.Destination) (models.WithdrawalResult, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, []models.WalletEntry, error)
	GetPayments(ctx context.Context, userID uuid.UUID) ([]models.PaymentEntry, error)
}

type ticketService interface {
	ListTickets(ctx context.Context, userID uuid.UUID) ([]models.TicketGroup, error)
	ListReceipts(ctx context.Context, userID uuid.UUID) ([]models.Receipt, error)
}

type captureSource interface {
	GetAuthorization(ctx context.Context, orderID string) (models.PaymentAuthorization, error)
}

func handleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, map[string]string{"status": "ok"})
	})
}

// userIDFromPath parses the {userID} path segment; renders the error itself
func userIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return userID, true
}

// displayAmount converts minor units to the display currency string.
// All arithmetic stays integer; this is presentation only.
func displayAmount(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}
