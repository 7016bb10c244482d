package dto

import (
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID     string             `json:"accountID"`
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	AccountType   domain.AccountType `json:"accountType"`
	Description   string             `json:"description"`
	Balance       Amount             `json:"balance"`
	IsActive      bool               `json:"isActive"`
	CreatedAt     time.Time          `json:"createdAt"`
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy string             `json:"lastUpdatedBy"`
}

// ListAccountsResponse wraps the chart of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     a.AccountID,
		Code:          string(a.Code),
		Name:          a.Name,
		AccountType:   a.AccountType,
		Description:   a.Description,
		Balance:       NewAmount(a.CurrentBalancePaisa),
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt,
		LastUpdatedAt: a.LastUpdatedAt,
		LastUpdatedBy: a.LastUpdatedBy,
	}
}

// ToListAccountsResponse converts a slice of domain.Account.
func ToListAccountsResponse(accounts []domain.Account) ListAccountsResponse {
	resp := ListAccountsResponse{Accounts: make([]AccountResponse, len(accounts))}
	for i := range accounts {
		resp.Accounts[i] = ToAccountResponse(&accounts[i])
	}
	return resp
}
