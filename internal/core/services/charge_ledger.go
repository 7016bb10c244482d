package services

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/core/journal"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/jackc/pgx/v5"
)

// chargeLedger is what the ledger already carries for one charge.
type chargeLedger struct {
	// accrual is the posted RENT_CHARGE or CAM_CHARGE journal, nil while the
	// charge is unaccrued.
	accrual *domain.Transaction
	// adjusted is the net receivable moved by posted ADJUSTMENT journals.
	adjusted domain.Paisa
}

func (l chargeLedger) accrued() bool { return l.accrual != nil }

// receivable is what the charge's own journals put on Accounts Receivable.
func (l chargeLedger) receivable() domain.Paisa {
	if l.accrual == nil {
		return l.adjusted
	}
	return l.accrual.TotalAmountPaisa + l.adjusted
}

func accrualTypeFor(kind domain.ChargeKind) domain.TransactionType {
	if kind == domain.ChargeKindCAM {
		return domain.TxnCAMCharge
	}
	return domain.TxnRentCharge
}

// loadChargeLedger reads the posted journals referencing a charge through tx.
// The caller holds the charge row lock, so nothing else can change them
// before tx ends.
func loadChargeLedger(ctx context.Context, tx pgx.Tx, repo portsrepo.LedgerRepositoryFacade,
	chart domain.ChartOfAccounts, kind domain.ChargeKind, chargeID string) (chargeLedger, error) {

	ar, err := chart.Lookup(domain.RoleAccountsReceivable)
	if err != nil {
		return chargeLedger{}, err
	}
	txns, err := repo.ListTransactionsByReferenceInTx(ctx, tx, domain.ChargeRef(kind, chargeID))
	if err != nil {
		return chargeLedger{}, err
	}

	var out chargeLedger
	accrualType := accrualTypeFor(kind)
	for i := range txns {
		t := txns[i]
		if t.Status != domain.TxnPosted {
			continue
		}
		switch t.Type {
		case accrualType:
			out.accrual = &t
		case domain.TxnAdjustment:
			entries, err := repo.FindEntriesByTransactionIDInTx(ctx, tx, t.TransactionID)
			if err != nil {
				return chargeLedger{}, err
			}
			for _, e := range entries {
				if e.AccountID == ar.AccountID {
					out.adjusted += e.DebitPaisa - e.CreditPaisa
				}
			}
		}
	}
	return out, nil
}

// postAccrual books the part of charge that its adjustment journals have not
// booked already, so the receivable ends up equal to the billed amount.
func postAccrual(ctx context.Context, tx pgx.Tx, poster portssvc.LedgerPosterSvc, chart domain.ChartOfAccounts,
	charge domain.Charge, state chargeLedger, userID string) (*domain.Transaction, error) {

	amount := charge.AmountPaisa - state.adjusted
	if amount <= 0 {
		return nil, apperrors.NewValidationError("%s %s has nothing left to accrue: billed %d, adjustments booked %d",
			charge.Kind, charge.ChargeID, charge.AmountPaisa, state.adjusted)
	}

	var (
		payload domain.JournalPayload
		err     error
	)
	if charge.Kind == domain.ChargeKindCAM {
		payload, err = journal.BuildCAMCharge(chart, charge, amount)
	} else {
		payload, err = journal.BuildRentCharge(chart, charge, amount)
	}
	if err != nil {
		return nil, err
	}
	return poster.PostJournalEntry(ctx, tx, payload, userID)
}
