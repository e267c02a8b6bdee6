package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/g-but/fitfoot/internal/db"
	"github.com/g-but/fitfoot/internal/handlers"
	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/repository"
	"github.com/g-but/fitfoot/internal/repository/memory"
	"github.com/g-but/fitfoot/internal/repository/postgres"
	"github.com/g-but/fitfoot/internal/service/account"
	"github.com/g-but/fitfoot/internal/service/auth"
	"github.com/g-but/fitfoot/internal/service/bulk"
	"github.com/g-but/fitfoot/internal/service/catalog"
	"github.com/g-but/fitfoot/internal/service/commerce"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Release resources (db pool) once server is stopped
	close func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Initialize products storage
	var storage repository.Storage
	closeFn := func() {}

	switch c.DatabaseDSN {
	case "":
		logger.Warn("No database configured, products are kept in memory")
		storage = memory.NewStorage()
	default:
		// Connect to the database and run migrations
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		storage = postgres.NewStorage(pool)
		closeFn = pool.Close
	}

	// Initialize services
	verifier, err := auth.NewVerifier(auth.Config{SecretKey: c.AdminTokenSecret})
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("error while creating admin token verifier. Err: %w", err)
	}
	if !verifier.Enforcing() {
		logger.Warn("Admin token secret not set, admin tokens are not verified")
	}

	commerceClient := commerce.NewClient(c.CommerceAPI, logger)
	accountService := account.NewService(account.Config{
		AppURL:       c.AppURL,
		ExposeTokens: c.Development(),
	}, commerceClient, logger)
	bulkService := bulk.NewService(storage, logger)
	catalogService := catalog.NewService(storage.Product())

	mux := handlers.NewRouter(
		accountService,
		bulkService,
		catalogService,
		verifier,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     logger,
		close:      closeFn,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
