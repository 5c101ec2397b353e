package handlers

import (
	"net/http"
	"time"

	"github.com/evenza/settlement/internal/handlers/render"
	"github.com/evenza/settlement/internal/logger"
)

func handleListTickets(ticketService ticketService, l logger.Logger) http.Handler {
	type ticket struct {
		EventID    string    `json:"event_id"`
		EventTitle string    `json:"event_title"`
		Quantity   int64     `json:"quantity"`
		AmountPaid int64     `json:"amount_paid"`
		Display    string    `json:"display"`
		LastIssued time.Time `json:"last_issued"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		groups, err := ticketService.ListTickets(r.Context(), userID)

		switch err {
		case nil:
			tickets := make([]ticket, 0, len(groups))
			for _, g := range groups {
				tickets = append(tickets, ticket{
					EventID:    g.EventID.String(),
					EventTitle: g.EventTitle,
					Quantity:   g.Quantity,
					AmountPaid: g.AmountPaid,
					Display:    displayAmount(g.AmountPaid),
					LastIssued: g.LastIssued,
				})
			}
			render.JSON(w, tickets)
		default:
			l.Error("Failed to list tickets", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListReceipts(ticketService ticketService, l logger.Logger) http.Handler {
	type receipt struct {
		ID       string    `json:"id"`
		OrderID  string    `json:"order_id"`
		EventID  string    `json:"event_id"`
		Amount   int64     `json:"amount"`
		Display  string    `json:"display"`
		Status   string    `json:"status"`
		IssuedAt time.Time `json:"issued_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		rs, err := ticketService.ListReceipts(r.Context(), userID)

		switch err {
		case nil:
			receipts := make([]receipt, 0, len(rs))
			for _, rec := range rs {
				receipts = append(receipts, receipt{
					ID:       rec.ID.String(),
					OrderID:  rec.OrderID,
					EventID:  rec.EventID.String(),
					Amount:   rec.Amount,
					Display:  displayAmount(rec.Amount),
					Status:   rec.Status,
					IssuedAt: rec.IssuedAt,
				})
			}
			render.JSON(w, receipts)
		default:
			l.Error("Failed to list receipts", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
