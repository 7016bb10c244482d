package domain

import "time"

// LedgerEntry is one immutable line of a posted transaction. Exactly one of
// DebitPaisa and CreditPaisa is positive. BalancePaisa is the account's
// balance right after this entry was applied.
type LedgerEntry struct {
	EntryID         string      `json:"entryID"`
	TransactionID   string      `json:"transactionID"`
	AccountID       string      `json:"accountID"`
	AccountCode     AccountCode `json:"accountCode"`
	LineNo          int         `json:"lineNo"`
	DebitPaisa      Paisa       `json:"debitPaisa"`
	CreditPaisa     Paisa       `json:"creditPaisa"`
	BalancePaisa    Paisa       `json:"balancePaisa"`
	TransactionDate time.Time   `json:"transactionDate"`
	PeriodYear      int         `json:"periodYear"`
	PeriodMonth     int         `json:"periodMonth"`
	FiscalPeriod    string      `json:"fiscalPeriod"`
	Description     string      `json:"description"`
	CreatedAt       time.Time   `json:"createdAt"`
	CreatedBy       string      `json:"createdBy"`
}

// Side returns which side of the ledger the entry sits on.
func (e LedgerEntry) Side() EntrySide {
	if e.DebitPaisa > 0 {
		return Debit
	}
	return Credit
}

// Amount returns the positive amount of the entry regardless of side.
func (e LedgerEntry) Amount() Paisa {
	if e.DebitPaisa > 0 {
		return e.DebitPaisa
	}
	return e.CreditPaisa
}
