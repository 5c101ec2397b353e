// Package notification delivers best-effort messages around settlements and
// withdrawals. Delivery is a side channel: a failed notification is logged
// and counted, never surfaced as a settlement failure.
package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/evenza/settlement/internal/logger"
)

const (
	KindTicketPurchased     = "ticket_purchased"
	KindPaymentReceived     = "payment_received"
	KindWithdrawalRequested = "withdrawal_requested"
	KindWithdrawalReview    = "withdrawal_review"
)

type Notification struct {
	Kind      string
	Recipient uuid.UUID
	Payload   map[string]string
}

// Notifier delivers one notification. Implementations talk to the external
// delivery collaborator (mail gateway, push service).
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. It stands in for the real
// delivery collaborator, which lives outside the settlement core.
type LogNotifier struct {
	Logger logger.Logger
}

func (ln *LogNotifier) Notify(_ context.Context, n Notification) error {
	args := []any{"kind", n.Kind, "recipient", n.Recipient}
	for k, v := range n.Payload {
		args = append(args, k, v)
	}

	ln.Logger.Info("Notification", args...)
	return nil
}
