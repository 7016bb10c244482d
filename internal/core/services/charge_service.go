package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/core/journal"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/jackc/pgx/v5"
)

type chargeService struct {
	BaseService
	txManager  portsrepo.TransactionManager
	chargeRepo portsrepo.ChargeRepositoryFacade
	ledgerRepo portsrepo.LedgerRepositoryFacade
	poster     portssvc.LedgerPosterSvc
	chart      domain.ChartOfAccounts
}

// NewChargeService creates a new ChargeService.
func NewChargeService(
	txManager portsrepo.TransactionManager,
	chargeRepo portsrepo.ChargeRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	poster portssvc.LedgerPosterSvc,
	chart domain.ChartOfAccounts,
) portssvc.ChargeSvcFacade {
	return &chargeService{
		txManager:  txManager,
		chargeRepo: chargeRepo,
		ledgerRepo: ledgerRepo,
		poster:     poster,
		chart:      chart,
	}
}

var _ portssvc.ChargeSvcFacade = (*chargeService)(nil)

func (s *chargeService) GetCharge(ctx context.Context, kind domain.ChargeKind, chargeID string) (*domain.Charge, error) {
	return s.chargeRepo.FindChargeByID(ctx, kind, chargeID)
}

// AccrueCharge books the receivable for an onboarded charge. A charge is
// accrued at most once while its accrual stays posted. A CAM charge that has
// already collected money stays cash basis: those collections were booked
// straight to CAM Income.
func (s *chargeService) AccrueCharge(ctx context.Context, kind domain.ChargeKind, chargeID string, userID string) (*domain.Transaction, error) {
	logger := s.GetLogger(ctx)

	var posted *domain.Transaction
	err := portsrepo.WithinTx(ctx, s.txManager, func(tx pgx.Tx) error {
		charge, err := s.chargeRepo.FindChargeByIDForUpdate(ctx, tx, kind, chargeID)
		if err != nil {
			return err
		}
		if charge.IsCancelled() {
			return apperrors.NewValidationError("%s %s is cancelled", kind, chargeID)
		}

		state, err := loadChargeLedger(ctx, tx, s.ledgerRepo, s.chart, kind, chargeID)
		if err != nil {
			return err
		}
		if state.accrued() {
			return fmt.Errorf("%w: %s %s already accrued by transaction %s", apperrors.ErrDuplicate, kind, chargeID, state.accrual.TransactionID)
		}
		if kind == domain.ChargeKindCAM && charge.PaidAmountPaisa > 0 {
			return apperrors.NewValidationError("%s %s already has %d paisa collected as CAM income and cannot be accrued",
				kind, chargeID, charge.PaidAmountPaisa)
		}

		posted, err = postAccrual(ctx, tx, s.poster, s.chart, *charge, state, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to accrue charge", slog.String("kind", string(kind)), slog.String("charge_id", chargeID))
		return nil, err
	}

	logger.Info("Charge accrued", slog.String("kind", string(kind)), slog.String("charge_id", chargeID),
		slog.String("transaction_id", posted.TransactionID),
		slog.Int64("amount_paisa", int64(posted.TotalAmountPaisa)))
	return posted, nil
}

// ApplyAdjustment applies a signed delta computed by an escalation, late fee
// or waiver policy. An accrued charge books the matching ADJUSTMENT journal
// in the same unit of work. An unaccrued one only changes its amount; the
// delta reaches the ledger with the accrual or, for CAM, with the payment.
// The returned transaction is nil when nothing was posted.
func (s *chargeService) ApplyAdjustment(ctx context.Context, kind domain.ChargeKind, chargeID string, req dto.ChargeAdjustmentRequest, userID string) (*domain.Charge, *domain.Transaction, error) {
	logger := s.GetLogger(ctx)
	if req.DeltaPaisa == 0 {
		return nil, nil, apperrors.NewValidationError("adjustment delta must be non-zero")
	}

	now := s.now()
	date := now
	if req.Date != nil {
		date = *req.Date
	}

	var (
		updated *domain.Charge
		posted  *domain.Transaction
	)
	err := portsrepo.WithinTx(ctx, s.txManager, func(tx pgx.Tx) error {
		charge, err := s.chargeRepo.FindChargeByIDForUpdate(ctx, tx, kind, chargeID)
		if err != nil {
			return err
		}
		if err := charge.ApplyAdjustment(req.DeltaPaisa); err != nil {
			return err
		}
		charge.LastUpdatedAt = now
		charge.LastUpdatedBy = userID
		if err := s.chargeRepo.UpdateChargeInTx(ctx, tx, *charge); err != nil {
			return fmt.Errorf("failed to update %s %s: %w", kind, chargeID, err)
		}
		charge.Version++
		updated = charge

		state, err := loadChargeLedger(ctx, tx, s.ledgerRepo, s.chart, kind, chargeID)
		if err != nil {
			return err
		}
		if !state.accrued() {
			return nil
		}
		payload, err := journal.BuildAdjustment(s.chart, *charge, req.DeltaPaisa, date, req.Reason)
		if err != nil {
			return err
		}
		posted, err = s.poster.PostJournalEntry(ctx, tx, payload, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to adjust charge", slog.String("kind", string(kind)), slog.String("charge_id", chargeID))
		return nil, nil, err
	}

	attrs := []any{
		slog.String("kind", string(kind)),
		slog.String("charge_id", chargeID),
		slog.Int64("delta_paisa", int64(req.DeltaPaisa)),
	}
	if posted != nil {
		attrs = append(attrs, slog.String("transaction_id", posted.TransactionID))
	}
	logger.Info("Charge adjusted", attrs...)
	return updated, posted, nil
}

// CancelCharge cancels an unpaid charge. If the charge's journals left
// anything on Accounts Receivable, an ADJUSTMENT takes it back off.
func (s *chargeService) CancelCharge(ctx context.Context, kind domain.ChargeKind, chargeID string, reason string, userID string) (*domain.Charge, *domain.Transaction, error) {
	logger := s.GetLogger(ctx)
	now := s.now()

	var (
		cancelled *domain.Charge
		posted    *domain.Transaction
	)
	err := portsrepo.WithinTx(ctx, s.txManager, func(tx pgx.Tx) error {
		charge, err := s.chargeRepo.FindChargeByIDForUpdate(ctx, tx, kind, chargeID)
		if err != nil {
			return err
		}
		if err := charge.Cancel(); err != nil {
			return err
		}
		charge.LastUpdatedAt = now
		charge.LastUpdatedBy = userID
		if err := s.chargeRepo.UpdateChargeInTx(ctx, tx, *charge); err != nil {
			return fmt.Errorf("failed to update %s %s: %w", kind, chargeID, err)
		}
		charge.Version++
		cancelled = charge

		state, err := loadChargeLedger(ctx, tx, s.ledgerRepo, s.chart, kind, chargeID)
		if err != nil {
			return err
		}
		receivable := state.receivable()
		if receivable == 0 {
			return nil
		}
		payload, err := journal.BuildAdjustment(s.chart, *charge, -receivable, now, "cancelled: "+reason)
		if err != nil {
			return err
		}
		posted, err = s.poster.PostJournalEntry(ctx, tx, payload, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel charge", slog.String("kind", string(kind)), slog.String("charge_id", chargeID))
		return nil, nil, err
	}

	logger.Info("Charge cancelled", slog.String("kind", string(kind)), slog.String("charge_id", chargeID),
		slog.Bool("reversed_receivable", posted != nil))
	return cancelled, posted, nil
}
