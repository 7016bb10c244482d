package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/core/services"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ChargeServiceTestSuite struct {
	suite.Suite
	store   *memStore
	ledger  portssvc.LedgerSvcFacade
	service portssvc.ChargeSvcFacade
	ctx     context.Context
}

func (s *ChargeServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newMemStore()
	chart := s.store.seedChart()
	s.ledger = services.NewLedgerService(s.store, s.store, s.store, s.store, chart,
		services.WithLedgerClock(func() time.Time { return fixedNow }))
	s.service = services.NewChargeService(s.store, s.store, s.store, s.ledger, chart)

	s.store.putCharge(domain.Charge{
		ChargeID: "rent-1", Kind: domain.ChargeKindRent, TenantID: "tenant-1",
		PeriodLabel: "2081-Chaitra", AmountPaisa: 4_500_000, PaidAmountPaisa: 1_000_000,
		Status: domain.ChargePartiallyPaid, DueDate: fixedNow,
	})
	s.store.putCharge(domain.Charge{
		ChargeID: "cam-1", Kind: domain.ChargeKindCAM, TenantID: "tenant-1",
		AmountPaisa: 500_000, Status: domain.ChargePending, DueDate: fixedNow,
	})
}

func TestChargeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ChargeServiceTestSuite))
}

func (s *ChargeServiceTestSuite) TestGetCharge() {
	c, err := s.service.GetCharge(s.ctx, domain.ChargeKindRent, "rent-1")
	s.Require().NoError(err)
	s.Equal(domain.Paisa(3_500_000), c.Outstanding())

	_, err = s.service.GetCharge(s.ctx, domain.ChargeKindCAM, "rent-1")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ChargeServiceTestSuite) TestAccrueCharge_PostsReceivableOnce() {
	txn, err := s.service.AccrueCharge(s.ctx, domain.ChargeKindRent, "rent-1", "manager-1")
	s.Require().NoError(err)
	s.Equal(domain.TxnRentCharge, txn.Type)
	s.Equal(domain.RentRef("rent-1"), txn.Reference)
	s.Equal(domain.Paisa(4_500_000), s.store.balance("1200"))
	s.Equal(domain.Paisa(4_500_000), s.store.balance("4000"))

	_, err = s.service.AccrueCharge(s.ctx, domain.ChargeKindRent, "rent-1", "manager-1")
	s.ErrorIs(err, apperrors.ErrDuplicate)
	s.Equal(domain.Paisa(4_500_000), s.store.balance("1200"))

	// A voided accrual may be booked again.
	_, err = s.ledger.VoidTransaction(s.ctx, txn.TransactionID, "manager-1", "wrong period")
	s.Require().NoError(err)
	_, err = s.service.AccrueCharge(s.ctx, domain.ChargeKindRent, "rent-1", "manager-1")
	s.Require().NoError(err)
	s.Equal(domain.Paisa(4_500_000), s.store.balance("1200"))
}

func (s *ChargeServiceTestSuite) TestAccrueCharge_CAM() {
	txn, err := s.service.AccrueCharge(s.ctx, domain.ChargeKindCAM, "cam-1", "manager-1")
	s.Require().NoError(err)
	s.Equal(domain.TxnCAMCharge, txn.Type)
	s.Equal(domain.Paisa(500_000), s.store.balance("4100"))
}

func (s *ChargeServiceTestSuite) TestAccrueCharge_CAMWithCollectionsStaysCashBasis() {
	cam := s.store.charge(domain.ChargeKindCAM, "cam-1")
	cam.PaidAmountPaisa = 200_000
	cam.Status = domain.ChargePartiallyPaid
	s.store.putCharge(cam)

	_, err := s.service.AccrueCharge(s.ctx, domain.ChargeKindCAM, "cam-1", "manager-1")
	s.ErrorIs(err, apperrors.ErrValidation)
	txns, _, _ := s.store.counts()
	s.Zero(txns)
}

func (s *ChargeServiceTestSuite) TestAccrueCharge_NoAccrualDate() {
	s.store.putCharge(domain.Charge{
		ChargeID: "rent-undated", Kind: domain.ChargeKindRent, TenantID: "tenant-1",
		AmountPaisa: 4_500_000, Status: domain.ChargePending,
	})

	_, err := s.service.AccrueCharge(s.ctx, domain.ChargeKindRent, "rent-undated", "manager-1")
	s.Require().ErrorIs(err, apperrors.ErrValidation)
	s.Contains(err.Error(), "RENT rent-undated has neither a due date nor a creation date")
}

func (s *ChargeServiceTestSuite) TestApplyAdjustment_LateFeeOnAccruedCharge() {
	_, err := s.service.AccrueCharge(s.ctx, domain.ChargeKindRent, "rent-1", "manager-1")
	s.Require().NoError(err)

	charge, txn, err := s.service.ApplyAdjustment(s.ctx, domain.ChargeKindRent, "rent-1", dto.ChargeAdjustmentRequest{
		DeltaPaisa: 45_000,
		Reason:     "late fee",
	}, "manager-1")
	s.Require().NoError(err)

	s.Equal(domain.Paisa(4_545_000), charge.AmountPaisa)
	s.Equal(domain.Paisa(45_000), charge.AdjustmentsPaisa)
	s.Require().NotNil(txn)
	s.Equal(domain.TxnAdjustment, txn.Type)
	s.Equal(fixedNow, txn.TransactionDate)
	s.Equal(domain.Paisa(4_545_000), s.store.balance("1200"))
	s.Equal(domain.Paisa(4_545_000), s.store.balance("4000"))
	s.Equal(domain.Paisa(4_545_000), s.store.charge(domain.ChargeKindRent, "rent-1").AmountPaisa)
}

func (s *ChargeServiceTestSuite) TestApplyAdjustment_UnaccruedChargePostsNothing() {
	date := fixedNow.AddDate(0, 0, -3)
	charge, txn, err := s.service.ApplyAdjustment(s.ctx, domain.ChargeKindCAM, "cam-1", dto.ChargeAdjustmentRequest{
		DeltaPaisa: -100_000,
		Reason:     "waiver",
		Date:       &date,
	}, "manager-1")
	s.Require().NoError(err)

	s.Equal(domain.Paisa(400_000), charge.AmountPaisa)
	s.Nil(txn)
	txns, _, _ := s.store.counts()
	s.Zero(txns)
	s.Equal(domain.Paisa(0), s.store.balance("4100"))
	s.Equal(domain.Paisa(0), s.store.balance("1200"))
}

func (s *ChargeServiceTestSuite) TestApplyAdjustment_BelowPaidRejected() {
	_, _, err := s.service.ApplyAdjustment(s.ctx, domain.ChargeKindRent, "rent-1", dto.ChargeAdjustmentRequest{
		DeltaPaisa: -4_000_000,
		Reason:     "waiver",
	}, "manager-1")
	s.ErrorIs(err, apperrors.ErrOverpayment)
	s.Equal(domain.Paisa(4_500_000), s.store.charge(domain.ChargeKindRent, "rent-1").AmountPaisa)
	txns, _, _ := s.store.counts()
	s.Zero(txns)
}

func (s *ChargeServiceTestSuite) TestApplyAdjustment_ZeroDelta() {
	_, _, err := s.service.ApplyAdjustment(s.ctx, domain.ChargeKindRent, "rent-1", dto.ChargeAdjustmentRequest{}, "manager-1")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *ChargeServiceTestSuite) TestCancelCharge_ReversesReceivable() {
	_, err := s.service.AccrueCharge(s.ctx, domain.ChargeKindCAM, "cam-1", "manager-1")
	s.Require().NoError(err)
	_, _, err = s.service.ApplyAdjustment(s.ctx, domain.ChargeKindCAM, "cam-1", dto.ChargeAdjustmentRequest{
		DeltaPaisa: 50_000,
		Reason:     "late fee",
	}, "manager-1")
	s.Require().NoError(err)

	charge, txn, err := s.service.CancelCharge(s.ctx, domain.ChargeKindCAM, "cam-1", "tenant left", "manager-1")
	s.Require().NoError(err)
	s.Equal(domain.ChargeCancelled, charge.Status)
	s.Require().NotNil(txn)
	s.Equal(domain.TxnAdjustment, txn.Type)
	s.Equal(domain.Paisa(550_000), txn.TotalAmountPaisa)
	s.Contains(txn.Description, "tenant left")
	s.Equal(domain.Paisa(0), s.store.balance("1200"))
	s.Equal(domain.Paisa(0), s.store.balance("4100"))
	s.Equal(domain.ChargeCancelled, s.store.charge(domain.ChargeKindCAM, "cam-1").Status)

	_, _, err = s.service.CancelCharge(s.ctx, domain.ChargeKindCAM, "cam-1", "again", "manager-1")
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.service.AccrueCharge(s.ctx, domain.ChargeKindCAM, "cam-1", "manager-1")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *ChargeServiceTestSuite) TestCancelCharge_UnaccruedPostsNothing() {
	charge, txn, err := s.service.CancelCharge(s.ctx, domain.ChargeKindCAM, "cam-1", "billed in error", "manager-1")
	s.Require().NoError(err)
	s.Equal(domain.ChargeCancelled, charge.Status)
	s.Nil(txn)
	txns, _, _ := s.store.counts()
	s.Zero(txns)
}

func (s *ChargeServiceTestSuite) TestCancelCharge_WithPaymentsRejected() {
	_, _, err := s.service.CancelCharge(s.ctx, domain.ChargeKindRent, "rent-1", "tenant left", "manager-1")
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Equal(domain.ChargePartiallyPaid, s.store.charge(domain.ChargeKindRent, "rent-1").Status)
}

// flowEnv wires every service over one fresh store holding an unpaid rent
// and an unpaid CAM charge.
type flowEnv struct {
	store    *memStore
	ledger   portssvc.LedgerSvcFacade
	charges  portssvc.ChargeSvcFacade
	payments portssvc.PaymentSvcFacade
}

func newFlowEnv() *flowEnv {
	store := newMemStore()
	chart := store.seedChart()
	clock := func() time.Time { return fixedNow }
	ledger := services.NewLedgerService(store, store, store, store, chart, services.WithLedgerClock(clock))
	store.putCharge(domain.Charge{
		ChargeID: "rent-f", Kind: domain.ChargeKindRent, TenantID: "tenant-1",
		AmountPaisa: 4_500_000, Status: domain.ChargePending, DueDate: fixedNow,
	})
	store.putCharge(domain.Charge{
		ChargeID: "cam-f", Kind: domain.ChargeKindCAM, TenantID: "tenant-1",
		AmountPaisa: 500_000, Status: domain.ChargePending, DueDate: fixedNow,
	})
	return &flowEnv{
		store:    store,
		ledger:   ledger,
		charges:  services.NewChargeService(store, store, store, ledger, chart),
		payments: services.NewPaymentService(store, store, store, store, store, ledger, chart, services.WithPaymentClock(clock)),
	}
}

func (e *flowEnv) accrue(t *testing.T, kind domain.ChargeKind, id string) *domain.Transaction {
	t.Helper()
	txn, err := e.charges.AccrueCharge(context.Background(), kind, id, "manager-1")
	require.NoError(t, err)
	return txn
}

func (e *flowEnv) adjust(t *testing.T, kind domain.ChargeKind, id string, delta domain.Paisa) {
	t.Helper()
	_, _, err := e.charges.ApplyAdjustment(context.Background(), kind, id,
		dto.ChargeAdjustmentRequest{DeltaPaisa: delta, Reason: "policy"}, "manager-1")
	require.NoError(t, err)
}

func (e *flowEnv) pay(t *testing.T, kind domain.ChargeKind, id string, amount domain.Paisa) {
	t.Helper()
	req := dto.CreatePaymentRequest{PaymentDate: fixedNow, PaymentMethod: domain.PaymentCash}
	if kind == domain.ChargeKindRent {
		req.Rent = &dto.RentAllocationRequest{RentID: id, AmountPaisa: amount}
	} else {
		req.CAM = &dto.CAMAllocationRequest{CAMID: id, PaidAmountPaisa: amount}
	}
	_, err := e.payments.CreatePayment(context.Background(), req, "clerk-1", "")
	require.NoError(t, err)
}

func (e *flowEnv) accrued(t *testing.T, kind domain.ChargeKind, id string) bool {
	t.Helper()
	want := domain.TxnRentCharge
	if kind == domain.ChargeKindCAM {
		want = domain.TxnCAMCharge
	}
	txns, err := e.ledger.ListTransactionsByReference(context.Background(), domain.ChargeRef(kind, id))
	require.NoError(t, err)
	for _, txn := range txns {
		if txn.Type == want && txn.Status == domain.TxnPosted {
			return true
		}
	}
	return false
}

// Whatever order charges are accrued, adjusted, voided and paid in, an
// accrued charge carries its outstanding amount on Accounts Receivable and its
// billed amount in income. An unaccrued CAM charge carries only what was collected.
func TestChargeLedgerStaysInStepWithCharges(t *testing.T) {
	const rent, cam = domain.ChargeKindRent, domain.ChargeKindCAM

	tests := []struct {
		name        string
		kind        domain.ChargeKind
		id          string
		flow        func(t *testing.T, e *flowEnv)
		wantAccrued bool
	}{
		{"rent adjusted then accrued", rent, "rent-f", func(t *testing.T, e *flowEnv) {
			e.adjust(t, rent, "rent-f", 45_000)
			e.accrue(t, rent, "rent-f")
		}, true},
		{"rent accrued then adjusted", rent, "rent-f", func(t *testing.T, e *flowEnv) {
			e.accrue(t, rent, "rent-f")
			e.adjust(t, rent, "rent-f", 45_000)
		}, true},
		{"rent re-accrued after a voided accrual and an adjustment", rent, "rent-f", func(t *testing.T, e *flowEnv) {
			accrual := e.accrue(t, rent, "rent-f")
			e.adjust(t, rent, "rent-f", 45_000)
			_, err := e.ledger.VoidTransaction(context.Background(), accrual.TransactionID, "manager-1", "wrong period")
			require.NoError(t, err)
			e.accrue(t, rent, "rent-f")
		}, true},
		{"rent waived, accrued, part paid", rent, "rent-f", func(t *testing.T, e *flowEnv) {
			e.adjust(t, rent, "rent-f", -100_000)
			e.accrue(t, rent, "rent-f")
			e.pay(t, rent, "rent-f", 1_000_000)
		}, true},
		{"rent paid without accrual, fined, settled", rent, "rent-f", func(t *testing.T, e *flowEnv) {
			e.pay(t, rent, "rent-f", 2_000_000)
			e.adjust(t, rent, "rent-f", 45_000)
			e.pay(t, rent, "rent-f", 2_545_000)
		}, true},
		{"rent adjusted only", rent, "rent-f", func(t *testing.T, e *flowEnv) {
			e.adjust(t, rent, "rent-f", 45_000)
		}, false},
		{"cam accrued then paid in full", cam, "cam-f", func(t *testing.T, e *flowEnv) {
			e.accrue(t, cam, "cam-f")
			e.pay(t, cam, "cam-f", 500_000)
		}, true},
		{"cam accrued, fined, part paid", cam, "cam-f", func(t *testing.T, e *flowEnv) {
			e.accrue(t, cam, "cam-f")
			e.adjust(t, cam, "cam-f", 50_000)
			e.pay(t, cam, "cam-f", 300_000)
		}, true},
		{"cam part paid without accrual", cam, "cam-f", func(t *testing.T, e *flowEnv) {
			e.pay(t, cam, "cam-f", 200_000)
		}, false},
		{"cam waived then paid without accrual", cam, "cam-f", func(t *testing.T, e *flowEnv) {
			e.adjust(t, cam, "cam-f", -100_000)
			e.pay(t, cam, "cam-f", 400_000)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFlowEnv()
			tt.flow(t, e)

			charge := e.store.charge(tt.kind, tt.id)
			incomeCode := domain.AccountCode("4000")
			if tt.kind == cam {
				incomeCode = "4100"
			}
			require.Equal(t, tt.wantAccrued, e.accrued(t, tt.kind, tt.id))

			assert.Equal(t, charge.PaidAmountPaisa, e.store.balance("1000"), "cash equals collections")
			if tt.wantAccrued {
				assert.Equal(t, charge.Outstanding(), e.store.balance("1200"), "receivable equals outstanding")
				assert.Equal(t, charge.AmountPaisa, e.store.balance(incomeCode), "income equals billed")
			} else {
				assert.Equal(t, domain.Paisa(0), e.store.balance("1200"), "nothing receivable before accrual")
				assert.Equal(t, charge.PaidAmountPaisa, e.store.balance(incomeCode), "income equals collections")
			}
		})
	}
}
