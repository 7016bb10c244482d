package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/property_ledger/internal/models"
	"github.com/SscSPs/property_ledger/internal/utils/mapping"
	"github.com/SscSPs/property_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	transactionColumns = `transaction_id, transaction_date, transaction_type, status, reference_type, reference_id,
		total_amount_paisa, description, reversed_by_id, created_at, created_by, last_updated_at, last_updated_by`
	entryColumns = `entry_id, transaction_id, account_id, account_code, line_no, debit_paisa, credit_paisa,
		balance_paisa, transaction_date, period_year, period_month, fiscal_period, description, created_at, created_by`
)

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxLedgerRepository stores transaction headers and their ledger entries.
type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger data.
func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.TransactionDate,
		&m.TransactionType,
		&m.Status,
		&m.ReferenceType,
		&m.ReferenceID,
		&m.TotalAmountPaisa,
		&m.Description,
		&m.ReversedByID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanEntry(row pgx.Row) (models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID,
		&m.TransactionID,
		&m.AccountID,
		&m.AccountCode,
		&m.LineNo,
		&m.DebitPaisa,
		&m.CreditPaisa,
		&m.BalancePaisa,
		&m.TransactionDate,
		&m.PeriodYear,
		&m.PeriodMonth,
		&m.FiscalPeriod,
		&m.Description,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	return m, err
}

func collectEntries(rows pgx.Rows) ([]models.LedgerEntry, error) {
	defer rows.Close()
	var out []models.LedgerEntry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, mapPgError(err, "failed to scan ledger entry row")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "error iterating ledger entry rows")
	}
	return out, nil
}

// SaveTransactionInTx inserts the header and all of its entries in one batch.
func (r *PgxLedgerRepository) SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction, entries []domain.LedgerEntry) error {
	m := mapping.ToModelTransaction(txn)
	headerQuery := `
		INSERT INTO ledger_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	entryQuery := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`

	batch := &pgx.Batch{}
	batch.Queue(headerQuery,
		m.TransactionID,
		m.TransactionDate,
		m.TransactionType,
		m.Status,
		m.ReferenceType,
		m.ReferenceID,
		m.TotalAmountPaisa,
		m.Description,
		m.ReversedByID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	for _, e := range entries {
		me := mapping.ToModelLedgerEntry(e)
		batch.Queue(entryQuery,
			me.EntryID,
			me.TransactionID,
			me.AccountID,
			me.AccountCode,
			me.LineNo,
			me.DebitPaisa,
			me.CreditPaisa,
			me.BalancePaisa,
			me.TransactionDate,
			me.PeriodYear,
			me.PeriodMonth,
			me.FiscalPeriod,
			me.Description,
			me.CreatedAt,
			me.CreatedBy,
		)
	}

	// Close reports the first failed statement of the batch.
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapPgError(err, "failed to insert transaction "+m.TransactionID)
	}
	return nil
}

func (r *PgxLedgerRepository) findTransaction(ctx context.Context, q querier, transactionID string, forUpdate bool) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE transaction_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	m, err := scanTransaction(q.QueryRow(ctx, query, transactionID))
	if err != nil {
		return nil, mapFindError(err, "transaction "+transactionID)
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

func (r *PgxLedgerRepository) findEntries(ctx context.Context, q querier, transactionID string) ([]domain.LedgerEntry, error) {
	rows, err := q.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE transaction_id = $1 ORDER BY line_no;`, transactionID)
	if err != nil {
		return nil, mapPgError(err, "failed to query entries of transaction "+transactionID)
	}
	ms, err := collectEntries(rows)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainLedgerEntrySlice(ms), nil
}

// FindTransactionByID retrieves a transaction header.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return r.findTransaction(ctx, r.Pool, transactionID, false)
}

// FindEntriesByTransactionID retrieves the entries of a transaction in line order.
func (r *PgxLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	return r.findEntries(ctx, r.Pool, transactionID)
}

// FindTransactionByIDForUpdate locks the header until tx ends.
func (r *PgxLedgerRepository) FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.Transaction, error) {
	return r.findTransaction(ctx, tx, transactionID, true)
}

func (r *PgxLedgerRepository) FindEntriesByTransactionIDInTx(ctx context.Context, tx pgx.Tx, transactionID string) ([]domain.LedgerEntry, error) {
	return r.findEntries(ctx, tx, transactionID)
}

// ListTransactionsByReference returns every transaction pointing at ref, oldest first.
func (r *PgxLedgerRepository) ListTransactionsByReference(ctx context.Context, ref domain.Reference) ([]domain.Transaction, error) {
	return r.listByReference(ctx, r.Pool, ref)
}

// ListTransactionsByReferenceInTx reads through tx, so journals posted
// earlier in the same unit of work are visible.
func (r *PgxLedgerRepository) ListTransactionsByReferenceInTx(ctx context.Context, tx pgx.Tx, ref domain.Reference) ([]domain.Transaction, error) {
	return r.listByReference(ctx, tx, ref)
}

func (r *PgxLedgerRepository) listByReference(ctx context.Context, q querier, ref domain.Reference) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM ledger_transactions
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at, transaction_id;
	`
	rows, err := q.Query(ctx, query, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, mapPgError(err, "failed to query transactions by reference")
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, mapPgError(err, "failed to scan transaction row")
		}
		txns = append(txns, mapping.ToDomainTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "error iterating transaction rows")
	}
	return txns, nil
}

// ListEntriesByAccount pages an account's entries, newest first, using a
// keyset cursor on (transaction_date, created_at, entry_id).
func (r *PgxLedgerRepository) ListEntriesByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether another page exists.
	fetchLimit := limit + 1

	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1`
	args := []any{accountID}

	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeEntryCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (transaction_date, created_at, entry_id) < ($2, $3, $4)`
		args = append(args, cursor.TransactionDate, cursor.CreatedAt, cursor.EntryID)
	}
	query += ` ORDER BY transaction_date DESC, created_at DESC, entry_id DESC LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, mapPgError(err, "failed to query entries for account "+accountID)
	}
	ms, err := collectEntries(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(ms) > limit {
		ms = ms[:limit]
		last := ms[len(ms)-1]
		token := pagination.EncodeEntryCursor(pagination.EntryCursor{
			TransactionDate: last.TransactionDate,
			CreatedAt:       last.CreatedAt,
			EntryID:         last.EntryID,
		})
		next = &token
	}
	entries := mapping.ToDomainLedgerEntrySlice(ms)
	return entries, next, nil
}

// MarkTransactionVoidedInTx flips a POSTED header to VOIDED. A header that is
// no longer POSTED was voided concurrently and is reported as a conflict.
func (r *PgxLedgerRepository) MarkTransactionVoidedInTx(ctx context.Context, tx pgx.Tx, transactionID, reversedByID, userID string, now time.Time) error {
	query := `
		UPDATE ledger_transactions
		SET status = $2, reversed_by_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1 AND status = $6;
	`
	tag, err := tx.Exec(ctx, query, transactionID, string(domain.TxnVoided), reversedByID, now, userID, string(domain.TxnPosted))
	if err != nil {
		return mapPgError(err, "failed to void transaction "+transactionID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s is no longer POSTED", apperrors.ErrConflict, transactionID)
	}
	return nil
}
