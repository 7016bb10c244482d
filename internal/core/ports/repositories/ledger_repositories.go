package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// LedgerReader defines read operations for posted transactions and entries
type LedgerReader interface {
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)

	// ListTransactionsByReference returns every transaction pointing at ref, oldest first.
	ListTransactionsByReference(ctx context.Context, ref domain.Reference) ([]domain.Transaction, error)

	// ListEntriesByAccount pages an account's entries newest first.
	ListEntriesByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)
}

// LedgerWriter defines writes, all of which run inside the caller's transaction
type LedgerWriter interface {
	// SaveTransactionInTx inserts the header and all of its entries.
	SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction, entries []domain.LedgerEntry) error

	FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.Transaction, error)

	FindEntriesByTransactionIDInTx(ctx context.Context, tx pgx.Tx, transactionID string) ([]domain.LedgerEntry, error)

	ListTransactionsByReferenceInTx(ctx context.Context, tx pgx.Tx, ref domain.Reference) ([]domain.Transaction, error)

	// MarkTransactionVoidedInTx flips a POSTED header to VOIDED and links its reversal.
	MarkTransactionVoidedInTx(ctx context.Context, tx pgx.Tx, transactionID, reversedByID, userID string, now time.Time) error
}

// LedgerRepositoryFacade combines all ledger repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
