package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/core/journal"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"
)

// notifier wakes the outbox dispatcher after a commit.
type notifier interface {
	Notify()
}

type paymentService struct {
	BaseService
	txManager      portsrepo.TransactionManager
	chargeRepo     portsrepo.ChargeRepositoryFacade
	paymentRepo    portsrepo.PaymentRepositoryFacade
	ledgerRepo     portsrepo.LedgerRepositoryFacade
	outboxRepo     portsrepo.OutboxRepository
	idempotency    portsrepo.IdempotencyStore
	idempotencyTTL time.Duration
	poster         portssvc.LedgerPosterSvc
	chart          domain.ChartOfAccounts
	outbox         notifier
}

// PaymentServiceOption configures optional payment service dependencies.
type PaymentServiceOption func(*paymentService)

// WithIdempotency enables Idempotency-Key handling backed by store.
func WithIdempotency(store portsrepo.IdempotencyStore, ttl time.Duration) PaymentServiceOption {
	return func(s *paymentService) {
		s.idempotency = store
		s.idempotencyTTL = ttl
	}
}

// WithOutboxNotifier wakes the dispatcher after every committed payment.
func WithOutboxNotifier(n notifier) PaymentServiceOption {
	return func(s *paymentService) { s.outbox = n }
}

// WithPaymentClock pins the payment service clock.
func WithPaymentClock(clock func() time.Time) PaymentServiceOption {
	return func(s *paymentService) { s.Clock = clock }
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	txManager portsrepo.TransactionManager,
	chargeRepo portsrepo.ChargeRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	outboxRepo portsrepo.OutboxRepository,
	poster portssvc.LedgerPosterSvc,
	chart domain.ChartOfAccounts,
	opts ...PaymentServiceOption,
) portssvc.PaymentSvcFacade {
	s := &paymentService{
		txManager:      txManager,
		chargeRepo:     chargeRepo,
		paymentRepo:    paymentRepo,
		ledgerRepo:     ledgerRepo,
		outboxRepo:     outboxRepo,
		poster:         poster,
		chart:          chart,
		idempotencyTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// CreatePayment applies the request's allocations to their charges, saves the
// payment, posts one journal per allocation and enqueues the receipt event.
// Everything happens in one unit of work; any failure leaves no trace.
//
// Rent is accrual basis: a rent charge with no posted accrual is accrued in
// the same unit of work before its payment credits Accounts Receivable. CAM
// is cash basis unless the charge was accrued explicitly.
func (s *paymentService) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, receivedBy string, idempotencyKey string) (result *domain.AllocationResult, err error) {
	logger := s.GetLogger(ctx)

	allocations := req.ToAllocations()
	if err := allocations.Validate(); err != nil {
		return nil, err
	}
	if !req.PaymentMethod.IsValid() {
		return nil, apperrors.NewValidationError("unknown payment method %q", req.PaymentMethod)
	}
	if req.PaymentDate.IsZero() {
		return nil, apperrors.NewValidationError("paymentDate is required")
	}
	total, err := allocations.Total()
	if err != nil {
		return nil, err
	}
	if req.TotalPaisa != nil && *req.TotalPaisa != total {
		return nil, fmt.Errorf("%w: supplied total %d does not match allocations total %d",
			apperrors.ErrAllocationMismatch, *req.TotalPaisa, total)
	}

	if idempotencyKey != "" && s.idempotency != nil {
		scopedKey := receivedBy + ":" + idempotencyKey
		fingerprint, fpErr := requestFingerprint(req)
		if fpErr != nil {
			return nil, fpErr
		}
		replayed, resErr := s.reserve(ctx, scopedKey, fingerprint)
		if resErr != nil || replayed != nil {
			return replayed, resErr
		}
		defer func() {
			s.settle(ctx, scopedKey, fingerprint, result, err)
		}()
	}

	now := s.now()
	payment := domain.Payment{
		PaymentID:     uuid.NewString(),
		AmountPaisa:   total,
		PaymentDate:   req.PaymentDate,
		PaymentMethod: req.PaymentMethod,
		Allocations:   allocations,
		ReceivedBy:    receivedBy,
		Notes:         req.Notes,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     receivedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: receivedBy,
		},
	}

	var (
		charges      []domain.Charge
		transactions []domain.Transaction
	)
	err = portsrepo.WithinTx(ctx, s.txManager, func(tx pgx.Tx) error {
		var (
			rent, cam             *domain.Charge
			rentLedger, camLedger chargeLedger
			err                   error
		)
		if allocations.Rent != nil {
			rent, rentLedger, err = s.applyToCharge(ctx, tx, domain.ChargeKindRent, allocations.Rent.RentID,
				allocations.Rent.AmountPaisa, allocations.Rent.UnitAllocations, payment, now)
			if err != nil {
				return err
			}
		}
		if allocations.CAM != nil {
			cam, camLedger, err = s.applyToCharge(ctx, tx, domain.ChargeKindCAM, allocations.CAM.CAMID,
				allocations.CAM.PaidAmountPaisa, nil, payment, now)
			if err != nil {
				return err
			}
		}
		if rent != nil && cam != nil && rent.TenantID != cam.TenantID {
			return apperrors.NewValidationError("rent %s belongs to tenant %s but CAM %s belongs to tenant %s",
				rent.ChargeID, rent.TenantID, cam.ChargeID, cam.TenantID)
		}

		owner := rent
		if owner == nil {
			owner = cam
		}
		payment.TenantID = owner.TenantID
		payment.PropertyID = owner.PropertyID

		if err := s.paymentRepo.SavePaymentInTx(ctx, tx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		if rent != nil {
			if !rentLedger.accrued() {
				accrual, err := postAccrual(ctx, tx, s.poster, s.chart, *rent, rentLedger, receivedBy)
				if err != nil {
					return err
				}
				logger.Info("Rent accrued ahead of its first payment",
					slog.String("rent_id", rent.ChargeID),
					slog.String("transaction_id", accrual.TransactionID))
			}
			payload, err := journal.BuildRentPayment(s.chart, *rent, payment)
			if err != nil {
				return err
			}
			posted, err := s.poster.PostJournalEntry(ctx, tx, payload, receivedBy)
			if err != nil {
				return err
			}
			charges = append(charges, *rent)
			transactions = append(transactions, *posted)
		}
		if cam != nil {
			payload, err := journal.BuildCAMPayment(s.chart, *cam, payment, camLedger.accrued())
			if err != nil {
				return err
			}
			posted, err := s.poster.PostJournalEntry(ctx, tx, payload, receivedBy)
			if err != nil {
				return err
			}
			charges = append(charges, *cam)
			transactions = append(transactions, *posted)
		}

		payment.TransactionIDs = make([]string, 0, len(transactions))
		for _, t := range transactions {
			payment.TransactionIDs = append(payment.TransactionIDs, t.TransactionID)
		}

		event, err := newOutboxEvent(domain.EventPaymentReceived, "payment", payment.PaymentID, domain.PaymentReceivedEvent{
			PaymentID:      payment.PaymentID,
			TenantID:       payment.TenantID,
			PropertyID:     payment.PropertyID,
			AmountPaisa:    payment.AmountPaisa,
			PaymentMethod:  string(payment.PaymentMethod),
			PaymentDate:    payment.PaymentDate,
			ReceivedBy:     receivedBy,
			TransactionIDs: payment.TransactionIDs,
		}, now)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.EnqueueInTx(ctx, tx, event); err != nil {
			return fmt.Errorf("failed to enqueue payment event: %w", err)
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create payment", slog.String("payment_id", payment.PaymentID))
		return nil, err
	}

	if s.outbox != nil {
		s.outbox.Notify()
	}

	logger.Info("Payment created",
		slog.String("payment_id", payment.PaymentID),
		slog.String("tenant_id", payment.TenantID),
		slog.Int64("amount_paisa", int64(payment.AmountPaisa)),
		slog.Int("transactions", len(transactions)))

	return &domain.AllocationResult{
		Payment:      payment,
		Charges:      charges,
		Transactions: transactions,
	}, nil
}

// applyToCharge locks one charge, applies amount and persists it. It also
// returns what the ledger holds for the charge, read under that lock.
func (s *paymentService) applyToCharge(ctx context.Context, tx pgx.Tx, kind domain.ChargeKind, chargeID string,
	amount domain.Paisa, units []domain.UnitAllocation, payment domain.Payment, now time.Time) (*domain.Charge, chargeLedger, error) {

	charge, err := s.chargeRepo.FindChargeByIDForUpdate(ctx, tx, kind, chargeID)
	if err != nil {
		return nil, chargeLedger{}, err
	}
	if err := charge.ApplyPayment(amount, payment.PaymentDate, payment.ReceivedBy, units); err != nil {
		return nil, chargeLedger{}, err
	}
	charge.LastUpdatedAt = now
	charge.LastUpdatedBy = payment.ReceivedBy
	if err := s.chargeRepo.UpdateChargeInTx(ctx, tx, *charge); err != nil {
		return nil, chargeLedger{}, fmt.Errorf("failed to update %s %s: %w", kind, chargeID, err)
	}
	charge.Version++

	state, err := loadChargeLedger(ctx, tx, s.ledgerRepo, s.chart, kind, chargeID)
	if err != nil {
		return nil, chargeLedger{}, err
	}
	return charge, state, nil
}

// requestFingerprint digests the request body so a reused key can be told
// apart from a genuine retry.
func requestFingerprint(req dto.CreatePaymentRequest) (string, error) {
	req.PaymentDate = req.PaymentDate.UTC()
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: encode request fingerprint: %v", apperrors.ErrInternal, err)
	}
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// reserve claims key, or returns the earlier result when key already
// completed for the same request body.
func (s *paymentService) reserve(ctx context.Context, key, fingerprint string) (*domain.AllocationResult, error) {
	rec, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: idempotency lookup: %v", apperrors.ErrInternal, err)
	}
	if rec == nil {
		ok, err := s.idempotency.Reserve(ctx, key, fingerprint, s.idempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: idempotency reserve: %v", apperrors.ErrInternal, err)
		}
		if ok {
			return nil, nil
		}
		// Lost the race: the other request either finished or is still running.
		if rec, err = s.idempotency.Lookup(ctx, key); err != nil {
			return nil, fmt.Errorf("%w: idempotency lookup: %v", apperrors.ErrInternal, err)
		}
		if rec == nil {
			return nil, fmt.Errorf("%w: the idempotency key was released while reserving it", apperrors.ErrConcurrencyConflict)
		}
	}

	if rec.Fingerprint != fingerprint {
		return nil, apperrors.ErrIdempotencyMismatch
	}
	if rec.Done() {
		return s.replay(ctx, rec.ResourceID)
	}
	return nil, fmt.Errorf("%w: a payment with this idempotency key is still in progress", apperrors.ErrConcurrencyConflict)
}

// settle completes the reservation on success and drops it on failure, so a
// failed request can be retried with the same key.
func (s *paymentService) settle(ctx context.Context, key, fingerprint string, result *domain.AllocationResult, err error) {
	logger := s.GetLogger(ctx)
	if err != nil || result == nil {
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			logger.Warn("Failed to release idempotency key", slog.String("error", relErr.Error()))
		}
		return
	}
	if result.Replayed {
		return
	}
	if cErr := s.idempotency.Complete(ctx, key, fingerprint, result.Payment.PaymentID, s.idempotencyTTL); cErr != nil {
		logger.Warn("Failed to record idempotency key", slog.String("payment_id", result.Payment.PaymentID), slog.String("error", cErr.Error()))
	}
}

// replay rebuilds the result of an earlier createPayment from storage.
func (s *paymentService) replay(ctx context.Context, paymentID string) (*domain.AllocationResult, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	result := &domain.AllocationResult{Payment: *payment, Replayed: true}

	if a := payment.Allocations.Rent; a != nil {
		c, err := s.chargeRepo.FindChargeByID(ctx, domain.ChargeKindRent, a.RentID)
		if err != nil {
			return nil, err
		}
		result.Charges = append(result.Charges, *c)
	}
	if a := payment.Allocations.CAM; a != nil {
		c, err := s.chargeRepo.FindChargeByID(ctx, domain.ChargeKindCAM, a.CAMID)
		if err != nil {
			return nil, err
		}
		result.Charges = append(result.Charges, *c)
	}

	txns, err := s.ledgerRepo.ListTransactionsByReference(ctx, domain.PaymentRef(paymentID))
	if err != nil {
		return nil, err
	}
	for _, t := range txns {
		if t.Type == domain.TxnRentPaymentReceived || t.Type == domain.TxnCAMPaymentReceived {
			result.Transactions = append(result.Transactions, t)
		}
	}

	s.GetLogger(ctx).Info("Replayed payment for idempotency key", slog.String("payment_id", paymentID))
	return result, nil
}

// GetPayment returns a payment with its receipt and transaction ids.
func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("payment")
		}
		return nil, err
	}
	return payment, nil
}
