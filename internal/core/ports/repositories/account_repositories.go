package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByCode retrieves an account by its chart code.
	FindAccountByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error)

	// FindAccountsByCodes retrieves accounts keyed by code. Missing codes are absent from the map.
	FindAccountsByCodes(ctx context.Context, codes []domain.AccountCode) (map[domain.AccountCode]domain.Account, error)

	// ListAccounts retrieves the whole chart ordered by code.
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// EnsureAccount inserts the account if its code is not present yet and
	// reports whether a row was created.
	EnsureAccount(ctx context.Context, account domain.Account) (bool, error)

	// DeactivateAccount marks an account as inactive within a transaction.
	DeactivateAccount(ctx context.Context, tx pgx.Tx, code domain.AccountCode, userID string, now time.Time) error
}

// AccountTransactionSupport defines operations that support account transactions
type AccountTransactionSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks them for update within a transaction.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalancesInTx sets the new balance of each account within a given transaction.
	UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balances map[string]domain.Paisa, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}
