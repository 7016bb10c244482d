package accounting

import (
	"fmt"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// SignedAmount applies the sign a journal line has on the balance of an
// account of the given type.
func SignedAmount(amount domain.Paisa, side domain.EntrySide, accountType domain.AccountType) (domain.Paisa, error) {
	isDebit := side == domain.Debit

	// DEBIT to ASSET/EXPENSE -> Positive (+)
	// CREDIT to ASSET/EXPENSE -> Negative (-)
	// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
	// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			return -amount, nil
		}
	case domain.Liability, domain.Equity, domain.Revenue:
		if isDebit {
			return -amount, nil
		}
	default:
		return 0, fmt.Errorf("unknown account type '%s'", accountType)
	}
	return amount, nil
}

// ApplyLine returns the account balance after posting one line to it.
func ApplyLine(balance domain.Paisa, line domain.JournalLine, accountType domain.AccountType) (domain.Paisa, error) {
	signed, err := SignedAmount(line.AmountPaisa, line.Side, accountType)
	if err != nil {
		return 0, fmt.Errorf("account %s: %w", line.AccountCode, err)
	}
	return balance.Add(signed)
}
