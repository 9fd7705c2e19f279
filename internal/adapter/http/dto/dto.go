package dto

// DepositRequest is the request body for a cash-in through an agent.
type DepositRequest struct {
	CustomerID      string            `json:"customer_id" binding:"required,uuid"`
	AgentID         string            `json:"agent_id" binding:"required,uuid"`
	Amount          int64             `json:"amount" binding:"required,gt=0"`
	Currency        string            `json:"currency" binding:"required,currency"`
	ClientReference string            `json:"client_reference,omitempty" binding:"max=100"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// WithdrawRequest is the request body for a cash-out through an agent.
type WithdrawRequest struct {
	CustomerID      string            `json:"customer_id" binding:"required,uuid"`
	AgentID         string            `json:"agent_id" binding:"required,uuid"`
	Amount          int64             `json:"amount" binding:"required,gt=0"`
	Currency        string            `json:"currency" binding:"required,currency"`
	ClientReference string            `json:"client_reference,omitempty" binding:"max=100"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// TransferRequest is the request body for a peer-to-peer transfer.
type TransferRequest struct {
	SenderID        string            `json:"sender_id" binding:"required,uuid"`
	ReceiverID      string            `json:"receiver_id" binding:"required,uuid"`
	Amount          int64             `json:"amount" binding:"required,gt=0"`
	Currency        string            `json:"currency" binding:"required,currency"`
	ClientReference string            `json:"client_reference,omitempty" binding:"max=100"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// QRPaymentRequest is the request body for a merchant QR payment.
type QRPaymentRequest struct {
	PayerID         string            `json:"payer_id" binding:"required,uuid"`
	MerchantID      string            `json:"merchant_id" binding:"required,uuid"`
	Amount          int64             `json:"amount" binding:"required,gt=0"`
	Currency        string            `json:"currency" binding:"required,currency"`
	ClientReference string            `json:"client_reference,omitempty" binding:"max=100"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// InternalTransferRequest moves money between a user's own wallet types.
type InternalTransferRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	From     string `json:"from" binding:"required,oneof=PERSONAL BUSINESS"`
	To       string `json:"to" binding:"required,oneof=PERSONAL BUSINESS"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required,currency"`
}

// CreditGrantRequest seeds liquidity from the reserve into a wallet.
type CreditGrantRequest struct {
	ReceiverID string            `json:"receiver_id" binding:"required,uuid"`
	WalletType string            `json:"wallet_type,omitempty" binding:"omitempty,oneof=PERSONAL BUSINESS"`
	Amount     int64             `json:"amount" binding:"required,gt=0"`
	Currency   string            `json:"currency" binding:"required,currency"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SettlementCreateRequest opens a settlement for an agent.
type SettlementCreateRequest struct {
	AgentID  string `json:"agent_id" binding:"required,uuid"`
	Currency string `json:"currency" binding:"required,currency"`
	Notes    string `json:"notes,omitempty" binding:"max=500"`
}

// SettlementDecisionRequest carries the operator approving a settlement.
type SettlementDecisionRequest struct {
	OperatorID string `json:"operator_id" binding:"required,uuid"`
}

// SettlementRejectRequest carries the operator rejecting a settlement.
type SettlementRejectRequest struct {
	OperatorID string `json:"operator_id" binding:"required,uuid"`
	Reason     string `json:"reason" binding:"required,max=500"`
}

// TransactionResponse is the response body for ledger operations.
type TransactionResponse struct {
	ID               string            `json:"id"`
	ReferenceNumber  string            `json:"reference_number"`
	Kind             string            `json:"kind"`
	Currency         string            `json:"currency"`
	Gross            int64             `json:"gross"`
	Fee              int64             `json:"fee"`
	Net              int64             `json:"net"`
	PlatformShare    int64             `json:"platform_share"`
	AgentShare       int64             `json:"agent_share"`
	SenderWalletID   *string           `json:"sender_wallet_id,omitempty"`
	ReceiverWalletID *string           `json:"receiver_wallet_id,omitempty"`
	AgentID          *string           `json:"agent_id,omitempty"`
	Status           string            `json:"status"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	OriginalID       *string           `json:"original_transaction_id,omitempty"`
	CreatedAt        string            `json:"created_at"`
	CompletedAt      *string           `json:"completed_at,omitempty"`
}

// PostingResponse is one balanced leg of a transaction.
type PostingResponse struct {
	ID           string  `json:"id"`
	WalletID     *string `json:"wallet_id,omitempty"`
	InternalKind *string `json:"internal_kind,omitempty"`
	Currency     string  `json:"currency"`
	Amount       int64   `json:"amount"`
}

// TransactionDetailResponse is a transaction with its postings.
type TransactionDetailResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Postings    []PostingResponse   `json:"postings"`
}

// SettlementResponse is the response body for settlement operations.
type SettlementResponse struct {
	ID              string  `json:"id"`
	Number          string  `json:"number"`
	AgentID         string  `json:"agent_id"`
	Currency        string  `json:"currency"`
	CreditUsed      int64   `json:"credit_used"`
	CashCollected   int64   `json:"cash_collected"`
	PlatformShare   int64   `json:"platform_share"`
	AgentShare      int64   `json:"agent_share"`
	AmountDue       int64   `json:"amount_due"`
	Status          string  `json:"status"`
	Notes           string  `json:"notes,omitempty"`
	OperatorID      *string `json:"operator_id,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	TransactionID   *string `json:"transaction_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
	DecidedAt       *string `json:"decided_at,omitempty"`
}

// WalletResponse is the response for a wallet balance query.
type WalletResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Currency  string `json:"currency"`
	Type      string `json:"wallet_type"`
	Balance   int64  `json:"balance"`
	Frozen    int64  `json:"frozen"`
	Spendable int64  `json:"spendable"`
}

// ReconciliationReportResponse is the zero-sum check result for a currency.
type ReconciliationReportResponse struct {
	Currency      string `json:"currency"`
	WalletTotal   int64  `json:"wallet_total"`
	InternalTotal int64  `json:"internal_total"`
	Expected      int64  `json:"expected"`
	Actual        int64  `json:"actual"`
	Delta         int64  `json:"delta"`
	Balanced      bool   `json:"balanced"`
	CheckedAt     string `json:"checked_at"`
}
