package repositories

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ChargeReader defines read operations for rent and CAM charges
type ChargeReader interface {
	FindChargeByID(ctx context.Context, kind domain.ChargeKind, chargeID string) (*domain.Charge, error)
}

// ChargeTransactionSupport defines the locked read-modify-write cycle used by payments
type ChargeTransactionSupport interface {
	// FindChargeByIDForUpdate loads the charge and holds a row lock until tx ends.
	FindChargeByIDForUpdate(ctx context.Context, tx pgx.Tx, kind domain.ChargeKind, chargeID string) (*domain.Charge, error)

	// UpdateChargeInTx persists amounts, status and payment stamps, bumping Version.
	UpdateChargeInTx(ctx context.Context, tx pgx.Tx, charge domain.Charge) error
}

// ChargeRepositoryFacade combines all charge repository interfaces
type ChargeRepositoryFacade interface {
	ChargeReader
	ChargeTransactionSupport
}
