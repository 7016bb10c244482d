package mapping

import (
	"database/sql"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/models"
)

// ToModelTransaction converts a domain Transaction header to its row.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	m := models.Transaction{
		TransactionID:    d.TransactionID,
		TransactionDate:  d.TransactionDate,
		TransactionType:  string(d.Type),
		Status:           string(d.Status),
		ReferenceType:    string(d.Reference.Kind),
		ReferenceID:      d.Reference.ID,
		TotalAmountPaisa: int64(d.TotalAmountPaisa),
		Description:      d.Description,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
	if d.ReversedByID != nil {
		m.ReversedByID = sql.NullString{String: *d.ReversedByID, Valid: true}
	}
	return m
}

// ToDomainTransaction converts a ledger_transactions row to a domain Transaction.
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	d := domain.Transaction{
		TransactionID:    m.TransactionID,
		TransactionDate:  m.TransactionDate,
		Type:             domain.TransactionType(m.TransactionType),
		Status:           domain.TransactionStatus(m.Status),
		Reference:        domain.Reference{Kind: domain.ReferenceKind(m.ReferenceType), ID: m.ReferenceID},
		TotalAmountPaisa: domain.Paisa(m.TotalAmountPaisa),
		Description:      m.Description,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
	if m.ReversedByID.Valid {
		id := m.ReversedByID.String
		d.ReversedByID = &id
	}
	return d
}

// ToModelLedgerEntry converts a domain LedgerEntry to its row.
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:         d.EntryID,
		TransactionID:   d.TransactionID,
		AccountID:       d.AccountID,
		AccountCode:     string(d.AccountCode),
		LineNo:          d.LineNo,
		DebitPaisa:      int64(d.DebitPaisa),
		CreditPaisa:     int64(d.CreditPaisa),
		BalancePaisa:    int64(d.BalancePaisa),
		TransactionDate: d.TransactionDate,
		PeriodYear:      d.PeriodYear,
		PeriodMonth:     d.PeriodMonth,
		FiscalPeriod:    d.FiscalPeriod,
		Description:     d.Description,
		CreatedAt:       d.CreatedAt,
		CreatedBy:       d.CreatedBy,
	}
}

// ToDomainLedgerEntry converts a ledger_entries row to a domain LedgerEntry.
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:         m.EntryID,
		TransactionID:   m.TransactionID,
		AccountID:       m.AccountID,
		AccountCode:     domain.AccountCode(m.AccountCode),
		LineNo:          m.LineNo,
		DebitPaisa:      domain.Paisa(m.DebitPaisa),
		CreditPaisa:     domain.Paisa(m.CreditPaisa),
		BalancePaisa:    domain.Paisa(m.BalancePaisa),
		TransactionDate: m.TransactionDate,
		PeriodYear:      m.PeriodYear,
		PeriodMonth:     m.PeriodMonth,
		FiscalPeriod:    m.FiscalPeriod,
		Description:     m.Description,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
	}
}

// ToDomainLedgerEntrySlice converts entry rows in order.
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
