package journal_test

import (
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/core/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChart(t *testing.T) domain.ChartOfAccounts {
	t.Helper()
	accounts := make(map[domain.AccountCode]domain.Account)
	for _, e := range domain.DefaultChart() {
		accounts[e.Code] = domain.Account{AccountID: "acc-" + string(e.Code), Code: e.Code, AccountType: e.AccountType, IsActive: true}
	}
	chart, err := domain.NewChartOfAccounts(domain.DefaultChart(), accounts)
	require.NoError(t, err)
	return chart
}

var paidOn = time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

func rentCharge() domain.Charge {
	return domain.Charge{ChargeID: "rent-1", Kind: domain.ChargeKindRent, TenantID: "t1", AmountPaisa: 5_000_000,
		PeriodLabel: "2081-12", DueDate: paidOn}
}

func camCharge() domain.Charge {
	return domain.Charge{ChargeID: "cam-1", Kind: domain.ChargeKindCAM, TenantID: "t1", AmountPaisa: 500_000,
		PeriodLabel: "2081-12", DueDate: paidOn}
}

func payment() domain.Payment {
	return domain.Payment{
		PaymentID:     "pay-1",
		PaymentDate:   paidOn,
		PaymentMethod: domain.PaymentBankTransfer,
		Allocations: domain.Allocations{
			Rent: &domain.RentAllocation{RentID: "rent-1", AmountPaisa: 5_000_000},
			CAM:  &domain.CAMAllocation{CAMID: "cam-1", PaidAmountPaisa: 500_000},
		},
	}
}

func assertLines(t *testing.T, p domain.JournalPayload, debitCode, creditCode domain.AccountCode, amount domain.Paisa) {
	t.Helper()
	require.Len(t, p.Lines, 2)
	assert.Equal(t, domain.Debit, p.Lines[0].Side)
	assert.Equal(t, debitCode, p.Lines[0].AccountCode)
	assert.Equal(t, "acc-"+string(debitCode), p.Lines[0].AccountID)
	assert.Equal(t, domain.Credit, p.Lines[1].Side)
	assert.Equal(t, creditCode, p.Lines[1].AccountCode)
	assert.Equal(t, amount, p.Lines[0].AmountPaisa)
	assert.Equal(t, amount, p.Lines[1].AmountPaisa)
	assert.Equal(t, amount, p.TotalAmountPaisa)
	assert.NoError(t, p.Validate())
}

func TestBuilders_MappingRules(t *testing.T) {
	chart := testChart(t)
	ev := func(kind domain.ReferenceKind) domain.ExternalMoneyEvent {
		return domain.ExternalMoneyEvent{Kind: kind, ReferenceID: "x-1", AmountPaisa: 7_500, Date: paidOn, Description: "d"}
	}

	t.Run("rent charge", func(t *testing.T) {
		p, err := journal.BuildRentCharge(chart, rentCharge(), 5_000_000)
		require.NoError(t, err)
		assert.Equal(t, domain.TxnRentCharge, p.Type)
		assert.Equal(t, paidOn, p.TransactionDate)
		assert.Equal(t, domain.RentRef("rent-1"), p.Reference)
		assertLines(t, p, "1200", "4000", 5_000_000)
	})

	t.Run("cam charge", func(t *testing.T) {
		p, err := journal.BuildCAMCharge(chart, camCharge(), 500_000)
		require.NoError(t, err)
		assert.Equal(t, domain.CAMRef("cam-1"), p.Reference)
		assertLines(t, p, "1200", "4100", 500_000)
	})

	t.Run("rent payment", func(t *testing.T) {
		p, err := journal.BuildRentPayment(chart, rentCharge(), payment())
		require.NoError(t, err)
		assert.Equal(t, domain.TxnRentPaymentReceived, p.Type)
		assert.Equal(t, domain.PaymentRef("pay-1"), p.Reference)
		assert.Equal(t, paidOn, p.TransactionDate)
		assertLines(t, p, "1000", "1200", 5_000_000)
	})

	t.Run("cam payment", func(t *testing.T) {
		p, err := journal.BuildCAMPayment(chart, camCharge(), payment(), false)
		require.NoError(t, err)
		assert.Equal(t, domain.TxnCAMPaymentReceived, p.Type)
		assertLines(t, p, "1000", "4100", 500_000)
	})

	t.Run("cam payment on an accrued charge", func(t *testing.T) {
		p, err := journal.BuildCAMPayment(chart, camCharge(), payment(), true)
		require.NoError(t, err)
		assertLines(t, p, "1000", "1200", 500_000)
	})

	t.Run("security deposit", func(t *testing.T) {
		p, err := journal.BuildExternal(chart, ev(domain.RefSecurityDeposit))
		require.NoError(t, err)
		assert.Equal(t, domain.TxnSecurityDeposit, p.Type)
		assertLines(t, p, "1000", "2100", 7_500)
	})

	t.Run("expense", func(t *testing.T) {
		p, err := journal.BuildExternal(chart, ev(domain.RefExpense))
		require.NoError(t, err)
		assertLines(t, p, "5000", "1000", 7_500)
	})

	t.Run("revenue", func(t *testing.T) {
		p, err := journal.BuildExternal(chart, ev(domain.RefRevenue))
		require.NoError(t, err)
		assertLines(t, p, "1000", "4200", 7_500)
	})
}

func TestBuilders_UnknownAccount(t *testing.T) {
	_, err := journal.BuildRentPayment(domain.ChartOfAccounts{}, rentCharge(), payment())
	assert.ErrorIs(t, err, apperrors.ErrUnknownAccount)
}

func TestBuilders_RejectMismatchedInputs(t *testing.T) {
	chart := testChart(t)

	_, err := journal.BuildRentCharge(chart, camCharge(), 500_000)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = journal.BuildRentCharge(chart, rentCharge(), 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	p := payment()
	p.Allocations.Rent = nil
	_, err = journal.BuildRentPayment(chart, rentCharge(), p)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = journal.BuildExternal(chart, domain.ExternalMoneyEvent{Kind: domain.RefPayment, ReferenceID: "p", AmountPaisa: 1, Date: paidOn})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = journal.BuildExpense(chart, domain.ExternalMoneyEvent{Kind: domain.RefExpense, ReferenceID: "e", AmountPaisa: 0, Date: paidOn})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBuildCharge_AccrualDate(t *testing.T) {
	chart := testChart(t)

	created := paidOn.AddDate(0, -1, 0)
	rent := rentCharge()
	rent.DueDate = time.Time{}
	rent.CreatedAt = created
	p, err := journal.BuildRentCharge(chart, rent, rent.AmountPaisa)
	require.NoError(t, err)
	assert.Equal(t, created, p.TransactionDate)

	cam := camCharge()
	cam.DueDate = time.Time{}
	_, err = journal.BuildCAMCharge(chart, cam, cam.AmountPaisa)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "CAM cam-1 has neither a due date nor a creation date")
}

func TestBuildAdjustment(t *testing.T) {
	chart := testChart(t)

	lateFee, err := journal.BuildAdjustment(chart, rentCharge(), 250_000, paidOn, "late fee")
	require.NoError(t, err)
	assert.Equal(t, domain.TxnAdjustment, lateFee.Type)
	assert.Equal(t, domain.RentRef("rent-1"), lateFee.Reference)
	assertLines(t, lateFee, "1200", "4000", 250_000)

	waiver, err := journal.BuildAdjustment(chart, camCharge(), -10_000, paidOn, "waiver")
	require.NoError(t, err)
	assertLines(t, waiver, "4100", "1200", 10_000)

	_, err = journal.BuildAdjustment(chart, rentCharge(), 0, paidOn, "noop")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBuildReversal(t *testing.T) {
	original := domain.Transaction{TransactionID: "txn-1", TotalAmountPaisa: 1000}
	entries := []domain.LedgerEntry{
		{AccountID: "acc-1000", AccountCode: "1000", DebitPaisa: 1000},
		{AccountID: "acc-1200", AccountCode: "1200", CreditPaisa: 1000},
	}

	p, err := journal.BuildReversal(original, entries, paidOn, "entered twice")
	require.NoError(t, err)
	assert.Equal(t, domain.TxnReversal, p.Type)
	assert.Equal(t, domain.TransactionRef("txn-1"), p.Reference)
	assert.Contains(t, p.Description, "entered twice")
	assertLines(t, domain.JournalPayload{
		Type: p.Type, Reference: p.Reference, TransactionDate: p.TransactionDate, TotalAmountPaisa: p.TotalAmountPaisa,
		Lines: []domain.JournalLine{p.Lines[1], p.Lines[0]},
	}, "1200", "1000", 1000)

	_, err = journal.BuildReversal(original, nil, paidOn, "")
	assert.ErrorIs(t, err, apperrors.ErrJournalUnbalanced)
}
