package repositories

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

type PaymentReader interface {
	// FindPaymentByID returns the payment with its receipt and transaction ids.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)
}

type PaymentWriter interface {
	SavePaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.Payment) error

	// AttachReceipt stores receipt metadata. It runs outside any payment transaction.
	AttachReceipt(ctx context.Context, paymentID string, receipt domain.Receipt) error
}

// PaymentRepositoryFacade combines all payment repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
