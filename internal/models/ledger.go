package models

import (
	"database/sql"
	"time"
)

// Transaction is a row of ledger_transactions.
type Transaction struct {
	TransactionID    string         `db:"transaction_id"`
	TransactionDate  time.Time      `db:"transaction_date"`
	TransactionType  string         `db:"transaction_type"`
	Status           string         `db:"status"`
	ReferenceType    string         `db:"reference_type"`
	ReferenceID      string         `db:"reference_id"`
	TotalAmountPaisa int64          `db:"total_amount_paisa"`
	Description      string         `db:"description"`
	ReversedByID     sql.NullString `db:"reversed_by_id"`
	AuditFields
}

// LedgerEntry is a row of ledger_entries.
type LedgerEntry struct {
	EntryID         string    `db:"entry_id"`
	TransactionID   string    `db:"transaction_id"`
	AccountID       string    `db:"account_id"`
	AccountCode     string    `db:"account_code"`
	LineNo          int       `db:"line_no"`
	DebitPaisa      int64     `db:"debit_paisa"`
	CreditPaisa     int64     `db:"credit_paisa"`
	BalancePaisa    int64     `db:"balance_paisa"`
	TransactionDate time.Time `db:"transaction_date"`
	PeriodYear      int       `db:"period_year"`
	PeriodMonth     int       `db:"period_month"`
	FiscalPeriod    string    `db:"fiscal_period"`
	Description     string    `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
	CreatedBy       string    `db:"created_by"`
}
