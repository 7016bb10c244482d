package services

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/dto"
)

// ChargeSvcFacade exposes charges and the policy entry points that change them
type ChargeSvcFacade interface {
	GetCharge(ctx context.Context, kind domain.ChargeKind, chargeID string) (*domain.Charge, error)

	// AccrueCharge posts the RENT_CHARGE or CAM_CHARGE journal for an onboarded charge.
	AccrueCharge(ctx context.Context, kind domain.ChargeKind, chargeID string, userID string) (*domain.Transaction, error)

	// ApplyAdjustment applies a precomputed policy delta. The transaction is
	// nil when the charge is not accrued and nothing was posted.
	ApplyAdjustment(ctx context.Context, kind domain.ChargeKind, chargeID string, req dto.ChargeAdjustmentRequest, userID string) (*domain.Charge, *domain.Transaction, error)

	// CancelCharge cancels an unpaid charge and takes its receivable, if any, off the books.
	CancelCharge(ctx context.Context, kind domain.ChargeKind, chargeID string, reason string, userID string) (*domain.Charge, *domain.Transaction, error)
}
