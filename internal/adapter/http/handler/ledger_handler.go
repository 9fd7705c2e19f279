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

// LedgerHandler handles the money-movement endpoints.
type LedgerHandler struct {
	ledgerSvc  ports.LedgerService
	txRepo     ports.TransactionRepository
	walletRepo ports.WalletRepository
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService, txRepo ports.TransactionRepository, walletRepo ports.WalletRepository) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc, txRepo: txRepo, walletRepo: walletRepo}
}

// Deposit handles POST /api/v1/ledger/deposits.
func (h *LedgerHandler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.Deposit(c.Request.Context(), ports.DepositRequest{
		CustomerID:      uuid.MustParse(req.CustomerID),
		AgentID:         uuid.MustParse(req.AgentID),
		Amount:          req.Amount,
		Currency:        domain.Currency(req.Currency),
		ClientReference: req.ClientReference,
		Metadata:        req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(result))
}

// Withdraw handles POST /api/v1/ledger/withdrawals.
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		CustomerID:      uuid.MustParse(req.CustomerID),
		AgentID:         uuid.MustParse(req.AgentID),
		Amount:          req.Amount,
		Currency:        domain.Currency(req.Currency),
		ClientReference: req.ClientReference,
		Metadata:        req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(result))
}

// Transfer handles POST /api/v1/ledger/transfers.
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderID:        uuid.MustParse(req.SenderID),
		ReceiverID:      uuid.MustParse(req.ReceiverID),
		Amount:          req.Amount,
		Currency:        domain.Currency(req.Currency),
		ClientReference: req.ClientReference,
		Metadata:        req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(result))
}

// QRPayment handles POST /api/v1/ledger/qr-payments.
func (h *LedgerHandler) QRPayment(c *gin.Context) {
	var req dto.QRPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.QRPayment(c.Request.Context(), ports.QRPaymentRequest{
		PayerID:         uuid.MustParse(req.PayerID),
		MerchantID:      uuid.MustParse(req.MerchantID),
		Amount:          req.Amount,
		Currency:        domain.Currency(req.Currency),
		ClientReference: req.ClientReference,
		Metadata:        req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(result))
}

// InternalTransfer handles POST /api/v1/ledger/internal-transfers.
func (h *LedgerHandler) InternalTransfer(c *gin.Context) {
	var req dto.InternalTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.InternalTransfer(c.Request.Context(), ports.InternalTransferRequest{
		UserID:   uuid.MustParse(req.UserID),
		From:     domain.WalletType(req.From),
		To:       domain.WalletType(req.To),
		Amount:   req.Amount,
		Currency: domain.Currency(req.Currency),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(result))
}

// CreditGrant handles POST /api/v1/ledger/credit-grants.
func (h *LedgerHandler) CreditGrant(c *gin.Context) {
	var req dto.CreditGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.CreditGrant(c.Request.Context(), ports.CreditGrantRequest{
		ReceiverID: uuid.MustParse(req.ReceiverID),
		WalletType: domain.WalletType(req.WalletType),
		Amount:     req.Amount,
		Currency:   domain.Currency(req.Currency),
		Metadata:   req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(result))
}

// Reverse handles POST /api/v1/transactions/:id/reverse.
func (h *LedgerHandler) Reverse(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	result, err := h.ledgerSvc.Reverse(c.Request.Context(), transactionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(result))
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.txRepo.GetByID(c.Request.Context(), transactionID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if txn == nil {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}
	postings, err := h.txRepo.GetPostings(c.Request.Context(), transactionID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	response.OK(c, dto.TransactionDetailResponse{
		Transaction: toTransactionResponse(txn),
		Postings:    toPostingResponses(postings),
	})
}

// GetWallet handles GET /api/v1/wallets/:user_id.
func (h *LedgerHandler) GetWallet(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}
	currency := domain.Currency(c.DefaultQuery("currency", string(domain.CurrencyUSD)))
	if !currency.Valid() {
		response.Error(c, apperror.ErrUnsupportedCurrency(string(currency)))
		return
	}
	walletType := domain.WalletType(c.DefaultQuery("type", string(domain.WalletTypePersonal)))
	if !walletType.Valid() {
		response.Error(c, apperror.Validation("unknown wallet type"))
		return
	}

	wallet, err := h.walletRepo.GetByUser(c.Request.Context(), userID, currency, walletType)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if wallet == nil {
		response.Error(c, apperror.ErrNotFound("wallet"))
		return
	}

	response.OK(c, dto.WalletResponse{
		ID:        wallet.ID.String(),
		UserID:    wallet.UserID.String(),
		Currency:  string(wallet.Currency),
		Type:      string(wallet.Type),
		Balance:   wallet.Balance,
		Frozen:    wallet.Frozen,
		Spendable: wallet.Spendable(),
	})
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(txn *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:              txn.ID.String(),
		ReferenceNumber: txn.ReferenceNumber,
		Kind:            string(txn.Kind),
		Currency:        string(txn.Currency),
		Gross:           txn.Gross,
		Fee:             txn.Fee,
		Net:             txn.Net,
		PlatformShare:   txn.PlatformShare,
		AgentShare:      txn.AgentShare,
		Status:          string(txn.Status),
		Metadata:        txn.Metadata,
		CreatedAt:       txn.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if txn.SenderWalletID != nil {
		s := txn.SenderWalletID.String()
		resp.SenderWalletID = &s
	}
	if txn.ReceiverWalletID != nil {
		s := txn.ReceiverWalletID.String()
		resp.ReceiverWalletID = &s
	}
	if txn.AgentID != nil {
		s := txn.AgentID.String()
		resp.AgentID = &s
	}
	if txn.OriginalID != nil {
		s := txn.OriginalID.String()
		resp.OriginalID = &s
	}
	if txn.CompletedAt != nil {
		s := txn.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.CompletedAt = &s
	}
	return resp
}

func toPostingResponses(postings []domain.Posting) []dto.PostingResponse {
	out := make([]dto.PostingResponse, 0, len(postings))
	for _, p := range postings {
		resp := dto.PostingResponse{
			ID:       p.ID.String(),
			Currency: string(p.Currency),
			Amount:   p.Amount,
		}
		if p.WalletID != nil {
			s := p.WalletID.String()
			resp.WalletID = &s
		}
		if p.InternalKind != nil {
			s := string(*p.InternalKind)
			resp.InternalKind = &s
		}
		out = append(out, resp)
	}
	return out
}
