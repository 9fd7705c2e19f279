package middleware

import (
	"encoding/json"
	"strings"

	"mobile-money-ledger/internal/core/domain"
	"mobile-money-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// AuditLog creates an audit middleware recording successful write requests.
// Services audit the domain-level outcome; this layer captures the HTTP
// surface (method, path, status) for the same trail.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		action, entity := mapPathToAction(c.Request.URL.Path)
		if action == "" {
			return
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})
		detailStr := string(details)

		auditSvc.Log(c.Request.Context(), domain.NewAuditEntry(nil, action, entity,
			c.Request.URL.Path, nil, &detailStr))
	}
}

func mapPathToAction(path string) (string, string) {
	switch {
	case path == "/api/v1/ledger/deposits":
		return "http.deposit", "transaction"
	case path == "/api/v1/ledger/withdrawals":
		return "http.withdraw", "transaction"
	case path == "/api/v1/ledger/transfers":
		return "http.transfer", "transaction"
	case path == "/api/v1/ledger/qr-payments":
		return "http.qr_payment", "transaction"
	case path == "/api/v1/ledger/internal-transfers":
		return "http.internal_transfer", "transaction"
	case path == "/api/v1/ledger/credit-grants":
		return "http.credit_grant", "transaction"
	case strings.HasPrefix(path, "/api/v1/transactions/") && strings.HasSuffix(path, "/reverse"):
		return "http.reverse", "transaction"
	case path == "/api/v1/settlements":
		return "http.settlement_create", "settlement"
	case strings.HasPrefix(path, "/api/v1/settlements/") && strings.HasSuffix(path, "/approve"):
		return "http.settlement_approve", "settlement"
	case strings.HasPrefix(path, "/api/v1/settlements/") && strings.HasSuffix(path, "/reject"):
		return "http.settlement_reject", "settlement"
	}
	return "", ""
}
