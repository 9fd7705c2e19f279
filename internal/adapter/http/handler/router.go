package handler

import (
	"mobile-money-ledger/internal/adapter/http/middleware"
	"mobile-money-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	SettlementSvc  ports.SettlementService
	ReconcileSvc   ports.ReconciliationService
	TxRepo         ports.TransactionRepository
	WalletRepo     ports.WalletRepository
	SettleRepo     ports.SettlementRepository
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = http audit trail disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	ledgerHandler := NewLedgerHandler(deps.LedgerSvc, deps.TxRepo, deps.WalletRepo)
	ledger := v1.Group("/ledger")
	{
		ledger.POST("/deposits", ledgerHandler.Deposit)
		ledger.POST("/withdrawals", ledgerHandler.Withdraw)
		ledger.POST("/transfers", ledgerHandler.Transfer)
		ledger.POST("/qr-payments", ledgerHandler.QRPayment)
		ledger.POST("/internal-transfers", ledgerHandler.InternalTransfer)
		ledger.POST("/credit-grants", ledgerHandler.CreditGrant)
	}

	transactions := v1.Group("/transactions")
	{
		transactions.GET("/:id", ledgerHandler.GetTransaction)
		transactions.POST("/:id/reverse", ledgerHandler.Reverse)
	}

	wallets := v1.Group("/wallets")
	{
		wallets.GET("/:user_id", ledgerHandler.GetWallet)
	}

	settlementHandler := NewSettlementHandler(deps.SettlementSvc, deps.SettleRepo)
	settlements := v1.Group("/settlements")
	{
		settlements.POST("", settlementHandler.Create)
		settlements.GET("/:id", settlementHandler.Get)
		settlements.POST("/:id/approve", settlementHandler.Approve)
		settlements.POST("/:id/reject", settlementHandler.Reject)
	}

	systemHandler := NewSystemHandler(deps.ReconcileSvc)
	v1.GET("/reconciliation", systemHandler.Reconcile)

	return r
}
