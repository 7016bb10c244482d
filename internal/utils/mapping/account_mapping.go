package mapping

import (
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:           d.AccountID,
		Code:                string(d.Code),
		Name:                d.Name,
		AccountType:         string(d.AccountType),
		Description:         d.Description,
		CurrentBalancePaisa: int64(d.CurrentBalancePaisa),
		IsActive:            d.IsActive,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:           m.AccountID,
		Code:                domain.AccountCode(m.Code),
		Name:                m.Name,
		AccountType:         domain.AccountType(m.AccountType),
		Description:         m.Description,
		CurrentBalancePaisa: domain.Paisa(m.CurrentBalancePaisa),
		IsActive:            m.IsActive,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}
