package handler

import (
	"net/http"

	"mobile-money-ledger/internal/adapter/http/dto"
	"mobile-money-ledger/internal/core/domain"
	"mobile-money-ledger/internal/core/ports"
	"mobile-money-ledger/pkg/apperror"
	"mobile-money-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles the operational endpoints: health and the on-demand
// reconciliation check.
type SystemHandler struct {
	reconcileSvc ports.ReconciliationService
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(reconcileSvc ports.ReconciliationService) *SystemHandler {
	return &SystemHandler{reconcileSvc: reconcileSvc}
}

// Reconcile handles GET /api/v1/reconciliation. With a ?currency= query it
// checks one currency, otherwise all of them.
func (h *SystemHandler) Reconcile(c *gin.Context) {
	if raw := c.Query("currency"); raw != "" {
		currency := domain.Currency(raw)
		if !currency.Valid() {
			response.Error(c, apperror.ErrUnsupportedCurrency(raw))
			return
		}
		report, err := h.reconcileSvc.Reconcile(c.Request.Context(), currency)
		if err != nil {
			response.Error(c, apperror.InternalError(err))
			return
		}
		response.OK(c, toReconciliationResponse(*report))
		return
	}

	reports, err := h.reconcileSvc.ReconcileAll(c.Request.Context())
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	out := make([]dto.ReconciliationReportResponse, 0, len(reports))
	for _, report := range reports {
		out = append(out, toReconciliationResponse(report))
	}
	response.OK(c, out)
}

func toReconciliationResponse(r domain.ReconciliationReport) dto.ReconciliationReportResponse {
	return dto.ReconciliationReportResponse{
		Currency:      string(r.Currency),
		WalletTotal:   r.WalletTotal,
		InternalTotal: r.InternalTotal,
		Expected:      r.Expected,
		Actual:        r.Actual,
		Delta:         r.Delta,
		Balanced:      r.Balanced,
		CheckedAt:     r.CheckedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
