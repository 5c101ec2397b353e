package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evenza/settlement/internal/db"
	"github.com/evenza/settlement/internal/handlers"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/notification"
	"github.com/evenza/settlement/internal/processor"
	"github.com/evenza/settlement/internal/repository/postgres"
	"github.com/evenza/settlement/internal/service/settlement"
	"github.com/evenza/settlement/internal/service/ticket"
	"github.com/evenza/settlement/internal/service/wallet"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	dispatcher *notification.Dispatcher
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Notifications are best effort, delivered by background workers
	notifier := &notification.LogNotifier{Logger: log}
	dispatcher := notification.NewDispatcher(notifier, log)

	// Initialize services
	captures := processor.NewClient(c.ProcessorAddr, log)
	settlementService := settlement.NewService(storage, dispatcher, log)
	walletService := wallet.NewService(storage, dispatcher, log)
	ticketService := ticket.NewService(storage.Receipt())

	mux := handlers.NewRouter(
		settlementService,
		walletService,
		ticketService,
		captures,
		log,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		dispatcher: dispatcher,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	dispatcherStopped := s.dispatcher.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-dispatcherStopped

	return err
}
