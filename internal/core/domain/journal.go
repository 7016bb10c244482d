package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
)

// EntrySide indicates whether a journal line is a Debit or a Credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// Opposite flips the side, used when reversing.
func (s EntrySide) Opposite() EntrySide {
	if s == Debit {
		return Credit
	}
	return Debit
}

// JournalLine is one line of a journal before it is posted.
type JournalLine struct {
	AccountID   string
	AccountCode AccountCode
	Side        EntrySide
	AmountPaisa Paisa
}

// JournalPayload is what a journal builder produces and the ledger poster consumes.
type JournalPayload struct {
	Type             TransactionType
	Reference        Reference
	TransactionDate  time.Time
	TotalAmountPaisa Paisa
	Description      string
	Lines            []JournalLine
}

// Totals returns the debit and credit sums of the payload lines.
func (p JournalPayload) Totals() (debits, credits Paisa, err error) {
	for _, l := range p.Lines {
		switch l.Side {
		case Debit:
			debits, err = debits.Add(l.AmountPaisa)
		case Credit:
			credits, err = credits.Add(l.AmountPaisa)
		}
		if err != nil {
			return 0, 0, err
		}
	}
	return debits, credits, nil
}

// Validate enforces the balance law and basic line shape.
func (p JournalPayload) Validate() error {
	if !p.Type.IsValid() {
		return apperrors.NewValidationError("unknown transaction type %q", p.Type)
	}
	if err := p.Reference.Validate(); err != nil {
		return err
	}
	if p.TransactionDate.IsZero() {
		return apperrors.NewValidationError("transaction date is required")
	}
	if len(p.Lines) < 2 {
		return fmt.Errorf("%w: journal needs at least two lines, got %d", apperrors.ErrJournalUnbalanced, len(p.Lines))
	}
	for i, l := range p.Lines {
		if l.AccountID == "" {
			return fmt.Errorf("%w: line %d has no account", apperrors.ErrUnknownAccount, i)
		}
		if l.Side != Debit && l.Side != Credit {
			return apperrors.NewValidationError("line %d has invalid side %q", i, l.Side)
		}
		if l.AmountPaisa <= 0 {
			return apperrors.NewValidationError("line %d amount must be positive", i)
		}
	}
	debits, credits, err := p.Totals()
	if err != nil {
		return err
	}
	if debits != credits {
		return fmt.Errorf("%w: debits %d, credits %d", apperrors.ErrJournalUnbalanced, debits, credits)
	}
	if p.TotalAmountPaisa != debits {
		return fmt.Errorf("%w: header total %d, lines %d", apperrors.ErrJournalUnbalanced, p.TotalAmountPaisa, debits)
	}
	return nil
}
