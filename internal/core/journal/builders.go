// Package journal turns business events into balanced journal payloads.
// Builders are pure: they read the chart and the already-loaded business
// object and never touch storage.
package journal

import (
	"fmt"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// twoLine builds the common debit-one/credit-one journal.
func twoLine(chart domain.ChartOfAccounts, txnType domain.TransactionType, ref domain.Reference, date time.Time,
	amount domain.Paisa, debit, credit domain.AccountRole, description string) (domain.JournalPayload, error) {

	debitAcc, err := chart.Lookup(debit)
	if err != nil {
		return domain.JournalPayload{}, err
	}
	creditAcc, err := chart.Lookup(credit)
	if err != nil {
		return domain.JournalPayload{}, err
	}

	payload := domain.JournalPayload{
		Type:             txnType,
		Reference:        ref,
		TransactionDate:  date,
		TotalAmountPaisa: amount,
		Description:      description,
		Lines: []domain.JournalLine{
			{AccountID: debitAcc.AccountID, AccountCode: debitAcc.Code, Side: domain.Debit, AmountPaisa: amount},
			{AccountID: creditAcc.AccountID, AccountCode: creditAcc.Code, Side: domain.Credit, AmountPaisa: amount},
		},
	}
	if err := payload.Validate(); err != nil {
		return domain.JournalPayload{}, err
	}
	return payload, nil
}

// chargeDate is the accrual date: the due date, else the day the charge was created.
func chargeDate(c domain.Charge) (time.Time, error) {
	if !c.DueDate.IsZero() {
		return c.DueDate, nil
	}
	if !c.CreatedAt.IsZero() {
		return c.CreatedAt, nil
	}
	return time.Time{}, apperrors.NewValidationError("%s %s has neither a due date nor a creation date to accrue on", c.Kind, c.ChargeID)
}

// BuildRentCharge accrues amount of a rent charge: DR Accounts Receivable / CR
// Rental Income. amount is the part of the bill that no adjustment journal
// has booked yet.
func BuildRentCharge(chart domain.ChartOfAccounts, rent domain.Charge, amount domain.Paisa) (domain.JournalPayload, error) {
	if rent.Kind != domain.ChargeKindRent {
		return domain.JournalPayload{}, apperrors.NewValidationError("charge %s is %s, not rent", rent.ChargeID, rent.Kind)
	}
	date, err := chargeDate(rent)
	if err != nil {
		return domain.JournalPayload{}, err
	}
	return twoLine(chart, domain.TxnRentCharge, domain.RentRef(rent.ChargeID), date, amount,
		domain.RoleAccountsReceivable, domain.RoleRentalIncome,
		fmt.Sprintf("Rent charge %s for tenant %s", rent.PeriodLabel, rent.TenantID))
}

// BuildCAMCharge accrues amount of a CAM charge: DR Accounts Receivable / CR CAM Income.
func BuildCAMCharge(chart domain.ChartOfAccounts, cam domain.Charge, amount domain.Paisa) (domain.JournalPayload, error) {
	if cam.Kind != domain.ChargeKindCAM {
		return domain.JournalPayload{}, apperrors.NewValidationError("charge %s is %s, not CAM", cam.ChargeID, cam.Kind)
	}
	date, err := chargeDate(cam)
	if err != nil {
		return domain.JournalPayload{}, err
	}
	return twoLine(chart, domain.TxnCAMCharge, domain.CAMRef(cam.ChargeID), date, amount,
		domain.RoleAccountsReceivable, domain.RoleCAMIncome,
		fmt.Sprintf("CAM charge %s for tenant %s", cam.PeriodLabel, cam.TenantID))
}

// BuildRentPayment records rent collected: DR Cash/Bank / CR Accounts Receivable.
func BuildRentPayment(chart domain.ChartOfAccounts, rent domain.Charge, payment domain.Payment) (domain.JournalPayload, error) {
	if payment.Allocations.Rent == nil || payment.Allocations.Rent.RentID != rent.ChargeID {
		return domain.JournalPayload{}, apperrors.NewValidationError("payment %s has no allocation for rent %s", payment.PaymentID, rent.ChargeID)
	}
	return twoLine(chart, domain.TxnRentPaymentReceived, domain.PaymentRef(payment.PaymentID), payment.PaymentDate,
		payment.Allocations.Rent.AmountPaisa, domain.RoleCashBank, domain.RoleAccountsReceivable,
		fmt.Sprintf("Rent payment for %s (%s) via %s", rent.PeriodLabel, rent.ChargeID, payment.PaymentMethod))
}

// BuildCAMPayment records CAM collected: DR Cash/Bank / CR CAM Income. CAM is
// cash basis unless the charge was accrued; then the receivable is credited.
func BuildCAMPayment(chart domain.ChartOfAccounts, cam domain.Charge, payment domain.Payment, accrued bool) (domain.JournalPayload, error) {
	if payment.Allocations.CAM == nil || payment.Allocations.CAM.CAMID != cam.ChargeID {
		return domain.JournalPayload{}, apperrors.NewValidationError("payment %s has no allocation for CAM %s", payment.PaymentID, cam.ChargeID)
	}
	credit := domain.RoleCAMIncome
	if accrued {
		credit = domain.RoleAccountsReceivable
	}
	return twoLine(chart, domain.TxnCAMPaymentReceived, domain.PaymentRef(payment.PaymentID), payment.PaymentDate,
		payment.Allocations.CAM.PaidAmountPaisa, domain.RoleCashBank, credit,
		fmt.Sprintf("CAM payment for %s (%s) via %s", cam.PeriodLabel, cam.ChargeID, payment.PaymentMethod))
}

// BuildSecurityDeposit records a deposit held: DR Cash/Bank / CR Security Deposits Payable.
func BuildSecurityDeposit(chart domain.ChartOfAccounts, ev domain.ExternalMoneyEvent) (domain.JournalPayload, error) {
	return buildExternal(chart, ev, domain.RefSecurityDeposit, domain.TxnSecurityDeposit,
		domain.RoleCashBank, domain.RoleSecurityDepositsPayable)
}

// BuildExpense records money spent: DR Operating Expenses / CR Cash/Bank.
func BuildExpense(chart domain.ChartOfAccounts, ev domain.ExternalMoneyEvent) (domain.JournalPayload, error) {
	return buildExternal(chart, ev, domain.RefExpense, domain.TxnExpense,
		domain.RoleOperatingExpense, domain.RoleCashBank)
}

// BuildRevenue records other income received: DR Cash/Bank / CR Other Revenue.
func BuildRevenue(chart domain.ChartOfAccounts, ev domain.ExternalMoneyEvent) (domain.JournalPayload, error) {
	return buildExternal(chart, ev, domain.RefRevenue, domain.TxnRevenue,
		domain.RoleCashBank, domain.RoleOtherRevenue)
}

func buildExternal(chart domain.ChartOfAccounts, ev domain.ExternalMoneyEvent, kind domain.ReferenceKind,
	txnType domain.TransactionType, debit, credit domain.AccountRole) (domain.JournalPayload, error) {
	if ev.Kind != kind {
		return domain.JournalPayload{}, apperrors.NewValidationError("event kind %s cannot be posted as %s", ev.Kind, txnType)
	}
	ref := domain.Reference{Kind: kind, ID: ev.ReferenceID}
	return twoLine(chart, txnType, ref, ev.Date, ev.AmountPaisa, debit, credit, ev.Description)
}

// BuildExternal dispatches an external money event to its builder.
func BuildExternal(chart domain.ChartOfAccounts, ev domain.ExternalMoneyEvent) (domain.JournalPayload, error) {
	switch ev.Kind {
	case domain.RefSecurityDeposit:
		return BuildSecurityDeposit(chart, ev)
	case domain.RefExpense:
		return BuildExpense(chart, ev)
	case domain.RefRevenue:
		return BuildRevenue(chart, ev)
	}
	return domain.JournalPayload{}, apperrors.NewValidationError("no journal mapping for event kind %q", ev.Kind)
}

// BuildAdjustment books a policy delta on a charge. A positive delta raises
// the receivable against the charge's income account; a negative one
// reverses that direction.
func BuildAdjustment(chart domain.ChartOfAccounts, charge domain.Charge, delta domain.Paisa, date time.Time, reason string) (domain.JournalPayload, error) {
	if delta == 0 {
		return domain.JournalPayload{}, apperrors.NewValidationError("adjustment delta must be non-zero")
	}
	income, err := domain.IncomeRoleFor(charge.Kind)
	if err != nil {
		return domain.JournalPayload{}, err
	}
	debit, credit, amount := domain.RoleAccountsReceivable, income, delta
	if delta < 0 {
		debit, credit, amount = income, domain.RoleAccountsReceivable, -delta
	}
	description := fmt.Sprintf("Adjustment on %s %s: %s", charge.Kind, charge.ChargeID, reason)
	return twoLine(chart, domain.TxnAdjustment, domain.ChargeRef(charge.Kind, charge.ChargeID), date, amount, debit, credit, description)
}

// BuildReversal mirrors every entry of original with its side flipped.
func BuildReversal(original domain.Transaction, entries []domain.LedgerEntry, date time.Time, reason string) (domain.JournalPayload, error) {
	if len(entries) == 0 {
		return domain.JournalPayload{}, fmt.Errorf("%w: transaction %s has no entries to reverse", apperrors.ErrJournalUnbalanced, original.TransactionID)
	}
	lines := make([]domain.JournalLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, domain.JournalLine{
			AccountID:   e.AccountID,
			AccountCode: e.AccountCode,
			Side:        e.Side().Opposite(),
			AmountPaisa: e.Amount(),
		})
	}
	description := fmt.Sprintf("Reversal of %s", original.TransactionID)
	if reason != "" {
		description += ": " + reason
	}
	payload := domain.JournalPayload{
		Type:             domain.TxnReversal,
		Reference:        domain.TransactionRef(original.TransactionID),
		TransactionDate:  date,
		TotalAmountPaisa: original.TotalAmountPaisa,
		Description:      description,
		Lines:            lines,
	}
	if err := payload.Validate(); err != nil {
		return domain.JournalPayload{}, err
	}
	return payload, nil
}
