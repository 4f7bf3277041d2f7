package api

import "time"

// transactionDTO is the wire shape of one input row, validated with
// go-playground/validator tags before conversion to models.Transaction.
type transactionDTO struct {
	TransactionID string    `json:"transaction_id" binding:"required"`
	SenderID      string    `json:"sender_id" binding:"required"`
	ReceiverID    string    `json:"receiver_id" binding:"required"`
	Amount        string    `json:"amount" binding:"required"`
	Timestamp     time.Time `json:"timestamp"`
}

// analyzeRequest is the POST /api/v1/analyze body.
type analyzeRequest struct {
	RunID        string           `json:"run_id"`
	Transactions []transactionDTO `json:"transactions" binding:"required,min=1,dive"`
}

// createInvestigationRequest is the POST /api/v1/investigation body.
type createInvestigationRequest struct {
	RunID        string   `json:"run_id" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	SeedAccounts []string `json:"seed_accounts" binding:"required,min=1"`
}

// traceRequest optionally overrides trace bounds for POST .../trace.
type traceRequest struct {
	MaxHops int `json:"max_hops"`
}

// tagAccountRequest is the POST .../tag body.
type tagAccountRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Label     string `json:"label" binding:"required"`
	Role      string `json:"role" binding:"required"`
	Notes     string `json:"notes"`
	TaggedBy  string `json:"tagged_by"`
}
