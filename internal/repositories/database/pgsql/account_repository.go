package pgsql

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/property_ledger/internal/models"
	"github.com/SscSPs/property_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, code, name, account_type, description, current_balance_paisa, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxAccountRepository implements portsrepo.AccountRepositoryFacade using pgx.
type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.Description,
		&m.CurrentBalancePaisa,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	defer rows.Close()
	var out []domain.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		out = append(out, mapping.ToDomainAccount(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return out, nil
}

// FindAccountByCode retrieves an account by its chart code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1;`
	m, err := scanAccount(r.Pool.QueryRow(ctx, query, string(code)))
	if err != nil {
		return nil, mapFindError(err, "account "+string(code))
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindAccountsByCodes retrieves accounts keyed by code.
func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, codes []domain.AccountCode) (map[domain.AccountCode]domain.Account, error) {
	result := make(map[domain.AccountCode]domain.Account, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	raw := make([]string, len(codes))
	for i, c := range codes {
		raw[i] = string(c)
	}

	rows, err := r.Pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code = ANY($1);`, raw)
	if err != nil {
		return nil, mapPgError(err, "failed to query accounts by code")
	}
	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		result[a.Code] = a
	}
	return result, nil
}

// ListAccounts retrieves the whole chart ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code;`)
	if err != nil {
		return nil, mapPgError(err, "failed to list accounts")
	}
	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

// EnsureAccount inserts the account unless its code already exists.
func (r *PgxAccountRepository) EnsureAccount(ctx context.Context, account domain.Account) (bool, error) {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO NOTHING;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.AccountID,
		m.Code,
		m.Name,
		m.AccountType,
		m.Description,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return false, mapPgError(err, "failed to ensure account "+m.Code)
	}
	return tag.RowsAffected() == 1, nil
}

// DeactivateAccount marks an account as inactive within tx. Posting to it
// fails afterwards.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, tx pgx.Tx, code domain.AccountCode, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE code = $1;
	`
	tag, err := tx.Exec(ctx, query, string(code), now, userID)
	if err != nil {
		return mapPgError(err, "failed to deactivate account "+string(code))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + string(code))
	}
	return nil
}

// FindAccountsByIDsForUpdate locks the requested accounts in account_id order
// so that concurrent posters acquire row locks in the same sequence. Missing
// ids are simply absent from the result.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, mapPgError(err, "failed to lock accounts")
	}
	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, mapPgError(err, "failed to lock accounts")
	}

	result := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		result[a.AccountID] = a
	}
	return result, nil
}

// UpdateAccountBalancesInTx writes the absolute new balance of each account.
func (r *PgxAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balances map[string]domain.Paisa, userID string, now time.Time) error {
	if len(balances) == 0 {
		return nil
	}
	query := `
		UPDATE accounts
		SET current_balance_paisa = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`

	accountIDs := make([]string, 0, len(balances))
	for id := range balances {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	batch := &pgx.Batch{}
	for _, id := range accountIDs {
		batch.Queue(query, id, int64(balances[id]), now, userID)
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for _, id := range accountIDs {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = mapPgError(err, "failed to update balance for account "+id)
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrUnknownAccount, id)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = mapPgError(err, "failed to close balance update batch")
	}
	return batchErr
}
