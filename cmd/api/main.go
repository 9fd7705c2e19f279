package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mobile-money-ledger/config"
	httpHandler "mobile-money-ledger/internal/adapter/http/handler"
	pgStorage "mobile-money-ledger/internal/adapter/storage/postgres"
	redisStorage "mobile-money-ledger/internal/adapter/storage/redis"
	"mobile-money-ledger/internal/core/ports"
	"mobile-money-ledger/internal/service"
	"mobile-money-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Mobile Money Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	internalRepo := pgStorage.NewInternalAccountRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	agentRepo := pgStorage.NewAgentRepo(pool)
	settleRepo := pgStorage.NewSettlementRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	// Initialize business services
	schedule := cfg.Ledger.Schedule()
	auditSvc := service.NewAuditService(auditRepo, log)
	notifier := service.NewLogNotificationDispatcher(log)
	ledgerSvc := service.NewLedgerService(
		walletRepo,
		internalRepo,
		txRepo,
		agentRepo,
		idempotencyRepo,
		idempotencyCache,
		transactor,
		auditSvc,
		notifier,
		schedule,
		log,
	)
	settlementSvc := service.NewSettlementService(
		settleRepo,
		agentRepo,
		ledgerSvc,
		transactor,
		auditSvc,
		notifier,
		schedule,
		log,
	)
	reconcileSvc := service.NewReconciliationService(walletRepo, internalRepo, auditSvc, log)

	// Periodic zero-sum check
	scheduler := service.NewReconciliationScheduler(reconcileSvc, cfg.Reconciliation.Interval, log)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		SettlementSvc:  settlementSvc,
		ReconcileSvc:   reconcileSvc,
		TxRepo:         txRepo,
		WalletRepo:     walletRepo,
		SettleRepo:     settleRepo,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
