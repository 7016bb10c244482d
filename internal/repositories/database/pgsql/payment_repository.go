package pgsql

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/property_ledger/internal/models"
	"github.com/SscSPs/property_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPaymentRepository stores received payments.
type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) *PgxPaymentRepository {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

// FindPaymentByID returns the payment with its receipt and the ids of the
// transactions posted for it.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `
		SELECT p.payment_id, p.tenant_id, p.property_id, p.amount_paisa, p.payment_date, p.payment_method,
		       p.allocations, p.received_by, p.notes, p.receipt_number, p.receipt_generated_at, p.receipt_url,
		       p.created_at, p.created_by, p.last_updated_at, p.last_updated_by,
		       COALESCE(ARRAY(
		           SELECT t.transaction_id FROM ledger_transactions t
		           WHERE t.reference_type = $2 AND t.reference_id = p.payment_id
		           ORDER BY t.created_at, t.transaction_id
		       ), '{}')
		FROM payments p
		WHERE p.payment_id = $1;
	`
	var m models.Payment
	var txnIDs []string
	err := r.Pool.QueryRow(ctx, query, paymentID, string(domain.RefPayment)).Scan(
		&m.PaymentID,
		&m.TenantID,
		&m.PropertyID,
		&m.AmountPaisa,
		&m.PaymentDate,
		&m.PaymentMethod,
		&m.Allocations,
		&m.ReceivedBy,
		&m.Notes,
		&m.ReceiptNumber,
		&m.ReceiptGeneratedAt,
		&m.ReceiptURL,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&txnIDs,
	)
	if err != nil {
		return nil, mapFindError(err, "payment "+paymentID)
	}
	payment, err := mapping.ToDomainPayment(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode payment", err)
	}
	payment.TransactionIDs = txnIDs
	return &payment, nil
}

// SavePaymentInTx inserts a payment inside the allocating transaction.
func (r *PgxPaymentRepository) SavePaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	m, err := mapping.ToModelPayment(payment)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode payment", err)
	}
	query := `
		INSERT INTO payments (
			payment_id, tenant_id, property_id, amount_paisa, payment_date, payment_method,
			allocations, received_by, notes, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, query,
		m.PaymentID,
		m.TenantID,
		m.PropertyID,
		m.AmountPaisa,
		m.PaymentDate,
		m.PaymentMethod,
		m.Allocations,
		m.ReceivedBy,
		m.Notes,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "failed to insert payment "+m.PaymentID)
	}
	return nil
}

// AttachReceipt stores receipt metadata once; a second receipt for the same
// payment is a duplicate.
func (r *PgxPaymentRepository) AttachReceipt(ctx context.Context, paymentID string, receipt domain.Receipt) error {
	query := `
		UPDATE payments
		SET receipt_number = $2, receipt_generated_at = $3, receipt_url = NULLIF($4, '')
		WHERE payment_id = $1 AND receipt_number IS NULL;
	`
	tag, err := r.Pool.Exec(ctx, query, paymentID, receipt.ReceiptNumber, receipt.GeneratedAt, receipt.DocumentURL)
	if err != nil {
		return mapPgError(err, "failed to attach receipt to payment "+paymentID)
	}
	if tag.RowsAffected() == 0 {
		if _, findErr := r.FindPaymentByID(ctx, paymentID); findErr != nil {
			return findErr
		}
		return apperrors.ErrDuplicate
	}
	return nil
}
