package e2e

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evenza/settlement/internal/handlers"
	"github.com/evenza/settlement/internal/handlers/render"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/models"
	"github.com/evenza/settlement/internal/processor"
	"github.com/evenza/settlement/internal/repository"
	"github.com/evenza/settlement/internal/repository/postgres"
	"github.com/evenza/settlement/internal/service/settlement"
	"github.com/evenza/settlement/internal/service/ticket"
	"github.com/evenza/settlement/internal/service/wallet"
	"github.com/evenza/settlement/internal/testutil"
)

type Services struct {
	Storage           repository.Storage
	SettlementService *settlement.SettlementService
	WalletService     *wallet.WalletService
	TicketService     *ticket.TicketService
	Processor         *FakeProcessor
}

// FakeProcessor serves capture records the way the payment processor does.
// Register orders with SetOrder; everything else is a 404.
type FakeProcessor struct {
	mu     sync.Mutex
	orders map[string]models.PaymentAuthorization
}

func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{orders: make(map[string]models.PaymentAuthorization)}
}

func (f *FakeProcessor) SetOrder(auth models.PaymentAuthorization) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[auth.OrderID] = auth
}

func (f *FakeProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Path[len("/api/orders/"):]

	f.mu.Lock()
	auth, ok := f.orders[orderID]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	render.JSON(w, struct {
		OrderID  string    `json:"order_id"`
		BuyerID  uuid.UUID `json:"buyer_id"`
		SellerID uuid.UUID `json:"seller_id"`
		EventID  uuid.UUID `json:"event_id"`
		Amount   int64     `json:"amount"`
		Currency string    `json:"currency"`
		Status   string    `json:"status"`
	}{
		OrderID:  auth.OrderID,
		BuyerID:  auth.BuyerID,
		SellerID: auth.SellerID,
		EventID:  auth.EventID,
		Amount:   auth.Amount,
		Currency: auth.Currency,
		Status:   auth.Status,
	})
}

// Create db transaction and run the server with that connection (one
// connection cause one transaction)
// The created transaction is passed to the inner function: so, you can
// safely use testutil.InTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		noop := logger.NewNoOp()

		// Initialize repositories over the transaction
		storage := postgres.NewStorage(tx)

		// Capture records come from a fake processor over real HTTP
		fakeProcessor := NewFakeProcessor()
		processorSrv := httptest.NewServer(fakeProcessor)
		defer processorSrv.Close()

		captures := processor.NewClient(processorSrv.URL, noop)

		// Initialize services
		settlementService := settlement.NewService(storage, nil, noop)
		walletService := wallet.NewService(storage, nil, noop)
		ticketService := ticket.NewService(storage.Receipt())

		// Complete all together as router
		router := handlers.NewRouter(
			settlementService,
			walletService,
			ticketService,
			captures,
			noop,
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:           storage,
			SettlementService: settlementService,
			WalletService:     walletService,
			TicketService:     ticketService,
			Processor:         fakeProcessor,
		})
	})
}
