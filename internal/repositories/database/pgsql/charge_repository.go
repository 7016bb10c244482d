package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/property_ledger/internal/models"
	"github.com/SscSPs/property_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const chargeColumns = `charge_id, tenant_id, property_id, period_year, period_month, period_label, amount_paisa,
	paid_amount_paisa, adjustments_paisa, status, due_date, paid_date, last_paid_by, units, version,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxChargeRepository reads and updates rent and CAM charges. Charges are
// created by the tenant-management side; this repository never inserts them.
type PgxChargeRepository struct {
	BaseRepository
}

func newPgxChargeRepository(pool *pgxpool.Pool) *PgxChargeRepository {
	return &PgxChargeRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ChargeRepositoryFacade = (*PgxChargeRepository)(nil)

// chargeTable maps a kind to its table; the name never comes from user input.
func chargeTable(kind domain.ChargeKind) (string, error) {
	switch kind {
	case domain.ChargeKindRent:
		return "rents", nil
	case domain.ChargeKindCAM:
		return "cams", nil
	}
	return "", apperrors.NewValidationError("unknown charge kind %q", kind)
}

func scanCharge(row pgx.Row) (models.Charge, error) {
	var m models.Charge
	err := row.Scan(
		&m.ChargeID,
		&m.TenantID,
		&m.PropertyID,
		&m.PeriodYear,
		&m.PeriodMonth,
		&m.PeriodLabel,
		&m.AmountPaisa,
		&m.PaidAmountPaisa,
		&m.AdjustmentsPaisa,
		&m.Status,
		&m.DueDate,
		&m.PaidDate,
		&m.LastPaidBy,
		&m.Units,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxChargeRepository) findCharge(ctx context.Context, q querier, kind domain.ChargeKind, chargeID string, forUpdate bool) (*domain.Charge, error) {
	table, err := chargeTable(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + chargeColumns + ` FROM ` + table + ` WHERE charge_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	m, err := scanCharge(q.QueryRow(ctx, query, chargeID))
	if err != nil {
		return nil, mapFindError(err, fmt.Sprintf("%s %s", kind, chargeID))
	}
	charge, err := mapping.ToDomainCharge(kind, m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode charge", err)
	}
	return &charge, nil
}

// FindChargeByID retrieves a rent or CAM charge.
func (r *PgxChargeRepository) FindChargeByID(ctx context.Context, kind domain.ChargeKind, chargeID string) (*domain.Charge, error) {
	return r.findCharge(ctx, r.Pool, kind, chargeID, false)
}

// FindChargeByIDForUpdate loads the charge and holds its row lock until tx ends.
func (r *PgxChargeRepository) FindChargeByIDForUpdate(ctx context.Context, tx pgx.Tx, kind domain.ChargeKind, chargeID string) (*domain.Charge, error) {
	return r.findCharge(ctx, tx, kind, chargeID, true)
}

// UpdateChargeInTx persists the mutable fields and bumps the version. The
// version guard catches writers that skipped the row lock.
func (r *PgxChargeRepository) UpdateChargeInTx(ctx context.Context, tx pgx.Tx, charge domain.Charge) error {
	table, err := chargeTable(charge.Kind)
	if err != nil {
		return err
	}
	m, err := mapping.ToModelCharge(charge)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode charge", err)
	}
	query := `
		UPDATE ` + table + `
		SET amount_paisa = $2, paid_amount_paisa = $3, adjustments_paisa = $4, status = $5,
		    paid_date = $6, last_paid_by = $7, units = $8, version = version + 1,
		    last_updated_at = $9, last_updated_by = $10
		WHERE charge_id = $1 AND version = $11;
	`
	tag, err := tx.Exec(ctx, query,
		m.ChargeID,
		m.AmountPaisa,
		m.PaidAmountPaisa,
		m.AdjustmentsPaisa,
		m.Status,
		m.PaidDate,
		m.LastPaidBy,
		m.Units,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	if err != nil {
		return mapPgError(err, "failed to update "+table+" "+m.ChargeID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s changed underneath this update", apperrors.ErrConcurrencyConflict, charge.Kind, charge.ChargeID)
	}
	return nil
}
