package services

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// LedgerPosterSvc is the only writer of transactions, entries and account balances.
type LedgerPosterSvc interface {
	// PostJournalEntry posts payload inside the caller's unit of work. Any
	// error means the caller must roll back.
	PostJournalEntry(ctx context.Context, tx pgx.Tx, payload domain.JournalPayload, createdBy string) (*domain.Transaction, error)

	// PostStandalone posts payload in its own unit of work.
	PostStandalone(ctx context.Context, payload domain.JournalPayload, createdBy string) (*domain.Transaction, error)

	// PostExternalEvent builds and posts a deposit, expense or revenue journal.
	PostExternalEvent(ctx context.Context, event domain.ExternalMoneyEvent, createdBy string) (*domain.Transaction, error)

	// VoidTransaction reverses a posted transaction and returns the original, now VOIDED.
	VoidTransaction(ctx context.Context, transactionID, userID, reason string) (*domain.Transaction, error)
}

// LedgerReaderSvc defines read-only ledger queries
type LedgerReaderSvc interface {
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)

	ListTransactionsByReference(ctx context.Context, ref domain.Reference) ([]domain.Transaction, error)

	ListAccounts(ctx context.Context) ([]domain.Account, error)

	GetAccount(ctx context.Context, code domain.AccountCode) (*domain.Account, error)

	ListEntriesByAccount(ctx context.Context, code domain.AccountCode, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)
}

// LedgerAdminSvc covers chart maintenance.
type LedgerAdminSvc interface {
	// DeactivateAccount retires an account that no role uses and that carries
	// no balance.
	DeactivateAccount(ctx context.Context, code domain.AccountCode, userID string) (*domain.Account, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerPosterSvc
	LedgerReaderSvc
	LedgerAdminSvc
}
