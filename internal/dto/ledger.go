package dto

import (
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// PostLedgerEventRequest records a money movement that has no Payment
// wrapper: a security deposit, an expense, or other revenue.
type PostLedgerEventRequest struct {
	Kind        domain.ReferenceKind `json:"kind" binding:"required,oneof=SECURITY_DEPOSIT EXPENSE REVENUE"`
	ReferenceID string               `json:"referenceId" binding:"required"`
	AmountPaisa domain.Paisa         `json:"amountPaisa" binding:"required,gt=0"`
	Date        time.Time            `json:"date" binding:"required"`
	Description string               `json:"description" binding:"max=500"`
}

// ToEvent converts the request into a domain event.
func (r PostLedgerEventRequest) ToEvent() domain.ExternalMoneyEvent {
	return domain.ExternalMoneyEvent{
		Kind:        r.Kind,
		ReferenceID: r.ReferenceID,
		AmountPaisa: r.AmountPaisa,
		Date:        r.Date,
		Description: r.Description,
	}
}

// VoidTransactionRequest carries the reason for a reversal.
type VoidTransactionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// LedgerEntryResponse defines the data returned for a ledger entry.
type LedgerEntryResponse struct {
	EntryID         string    `json:"entryID"`
	TransactionID   string    `json:"transactionID"`
	AccountID       string    `json:"accountID"`
	AccountCode     string    `json:"accountCode"`
	Side            string    `json:"side"`
	Debit           Amount    `json:"debit"`
	Credit          Amount    `json:"credit"`
	Balance         Amount    `json:"balance"`
	TransactionDate time.Time `json:"transactionDate"`
	FiscalPeriod    string    `json:"fiscalPeriod"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TransactionResponse defines the data returned for a journal transaction.
type TransactionResponse struct {
	TransactionID   string                `json:"transactionID"`
	TransactionDate time.Time             `json:"transactionDate"`
	Type            string                `json:"type"`
	Status          string                `json:"status"`
	ReferenceKind   string                `json:"referenceKind"`
	ReferenceID     string                `json:"referenceID"`
	Total           Amount                `json:"total"`
	Description     string                `json:"description"`
	ReversedByID    *string               `json:"reversedByID,omitempty"`
	Entries         []LedgerEntryResponse `json:"entries,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	CreatedBy       string                `json:"createdBy"`
}

// ListEntriesResponse is a page of an account's ledger.
type ListEntriesResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// ListEntriesParams are the query parameters for paging account entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListByReferenceParams selects transactions by the business object they reference.
type ListByReferenceParams struct {
	ReferenceType string `form:"referenceType" binding:"required"`
	ReferenceID   string `form:"referenceId" binding:"required"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to LedgerEntryResponse DTO.
func ToLedgerEntryResponse(e domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:         e.EntryID,
		TransactionID:   e.TransactionID,
		AccountID:       e.AccountID,
		AccountCode:     string(e.AccountCode),
		Side:            string(e.Side()),
		Debit:           NewAmount(e.DebitPaisa),
		Credit:          NewAmount(e.CreditPaisa),
		Balance:         NewAmount(e.BalancePaisa),
		TransactionDate: e.TransactionDate,
		FiscalPeriod:    e.FiscalPeriod,
		Description:     e.Description,
		CreatedAt:       e.CreatedAt,
	}
}

// ToLedgerEntryResponses converts a slice of domain.LedgerEntry.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToLedgerEntryResponse(e)
	}
	return responses
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.TransactionID,
		TransactionDate: t.TransactionDate,
		Type:            string(t.Type),
		Status:          string(t.Status),
		ReferenceKind:   string(t.Reference.Kind),
		ReferenceID:     t.Reference.ID,
		Total:           NewAmount(t.TotalAmountPaisa),
		Description:     t.Description,
		ReversedByID:    t.ReversedByID,
		Entries:         ToLedgerEntryResponses(t.Entries),
		CreatedAt:       t.CreatedAt,
		CreatedBy:       t.CreatedBy,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}

// ListTransactionsResponse wraps the transactions recorded for one reference.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}
