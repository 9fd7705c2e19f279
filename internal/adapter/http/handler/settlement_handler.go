package handler

import (
	"mobile-money-ledger/internal/adapter/http/dto"
	"mobile-money-ledger/internal/core/domain"
	"mobile-money-ledger/internal/core/ports"
	"mobile-money-ledger/pkg/apperror"
	"mobile-money-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlementHandler handles the agent settlement endpoints.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
	settleRepo    ports.SettlementRepository
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService, settleRepo ports.SettlementRepository) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc, settleRepo: settleRepo}
}

// Create handles POST /api/v1/settlements.
func (h *SettlementHandler) Create(c *gin.Context) {
	var req dto.SettlementCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.Create(c.Request.Context(),
		uuid.MustParse(req.AgentID), domain.Currency(req.Currency), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toSettlementResponse(result))
}

// Get handles GET /api/v1/settlements/:id.
func (h *SettlementHandler) Get(c *gin.Context) {
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid settlement id"))
		return
	}

	settlement, err := h.settleRepo.GetByID(c.Request.Context(), settlementID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if settlement == nil {
		response.Error(c, apperror.ErrNotFound("settlement"))
		return
	}
	response.OK(c, toSettlementResponse(settlement))
}

// Approve handles POST /api/v1/settlements/:id/approve.
func (h *SettlementHandler) Approve(c *gin.Context) {
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid settlement id"))
		return
	}
	var req dto.SettlementDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.Approve(c.Request.Context(), settlementID, uuid.MustParse(req.OperatorID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toSettlementResponse(result))
}

// Reject handles POST /api/v1/settlements/:id/reject.
func (h *SettlementHandler) Reject(c *gin.Context) {
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid settlement id"))
		return
	}
	var req dto.SettlementRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.Reject(c.Request.Context(), settlementID,
		uuid.MustParse(req.OperatorID), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toSettlementResponse(result))
}

// toSettlementResponse converts domain.Settlement to DTO.
func toSettlementResponse(s *domain.Settlement) dto.SettlementResponse {
	resp := dto.SettlementResponse{
		ID:              s.ID.String(),
		Number:          s.Number,
		AgentID:         s.AgentID.String(),
		Currency:        string(s.Currency),
		CreditUsed:      s.CreditUsed,
		CashCollected:   s.CashCollected,
		PlatformShare:   s.PlatformShare,
		AgentShare:      s.AgentShare,
		AmountDue:       s.AmountDue,
		Status:          string(s.Status),
		Notes:           s.Notes,
		RejectionReason: s.RejectionReason,
		CreatedAt:       s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if s.OperatorID != nil {
		v := s.OperatorID.String()
		resp.OperatorID = &v
	}
	if s.TransactionID != nil {
		v := s.TransactionID.String()
		resp.TransactionID = &v
	}
	if s.DecidedAt != nil {
		v := s.DecidedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.DecidedAt = &v
	}
	return resp
}
