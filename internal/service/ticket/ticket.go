package ticket

import (
	"context"

	"github.com/google/uuid"

	"github.com/evenza/settlement/internal/models"
	"github.com/evenza/settlement/internal/repository"
)

// TicketService is the read side of settlements: receipts presented as
// tickets, with repeat purchases of the same event collapsed into a count.
type TicketService struct {
	receiptRepo repository.ReceiptRepo
}

func NewService(receiptRepo repository.ReceiptRepo) *TicketService {
	return &TicketService{receiptRepo: receiptRepo}
}

// ListReceipts returns every captured receipt for the buyer, newest first
func (s *TicketService) ListReceipts(ctx context.Context, userID uuid.UUID) ([]models.Receipt, error) {
	return s.receiptRepo.ListReceiptsByBuyer(ctx, userID)
}

// ListTickets returns the buyer's tickets grouped per event with quantity
func (s *TicketService) ListTickets(ctx context.Context, userID uuid.UUID) ([]models.TicketGroup, error) {
	return s.receiptRepo.ListTicketGroupsByBuyer(ctx, userID)
}
