package domain

import "time"

// ExternalMoneyEvent is a money movement from a flow outside payments:
// security deposits, expenses, other revenue.
type ExternalMoneyEvent struct {
	Kind        ReferenceKind
	ReferenceID string
	AmountPaisa Paisa
	Date        time.Time
	Description string
}
