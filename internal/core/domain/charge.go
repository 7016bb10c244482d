package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
)

// ChargeKind distinguishes rent charges from CAM (common area maintenance) charges.
type ChargeKind string

const (
	ChargeKindRent ChargeKind = "RENT"
	ChargeKindCAM  ChargeKind = "CAM"
)

// ParseChargeKind accepts "rent"/"RENT"/"cam"/"CAM".
func ParseChargeKind(s string) (ChargeKind, error) {
	switch s {
	case "rent", "RENT", "rents":
		return ChargeKindRent, nil
	case "cam", "CAM", "cams":
		return ChargeKindCAM, nil
	}
	return "", apperrors.NewValidationError("unknown charge kind %q", s)
}

// ChargeStatus is the payment state of a charge.
type ChargeStatus string

const (
	ChargePending       ChargeStatus = "pending"
	ChargePartiallyPaid ChargeStatus = "partially_paid"
	ChargePaid          ChargeStatus = "paid"
	ChargeOverdue       ChargeStatus = "overdue"
	ChargeCancelled     ChargeStatus = "cancelled"
)

// DeriveChargeStatus is the only rule that decides a live charge's status.
func DeriveChargeStatus(paid, amount Paisa) ChargeStatus {
	switch {
	case paid <= 0:
		return ChargePending
	case paid < amount:
		return ChargePartiallyPaid
	default:
		return ChargePaid
	}
}

// ChargeUnit is the share of a charge billed against one leased unit.
type ChargeUnit struct {
	UnitID          string `json:"unitId"`
	AmountPaisa     Paisa  `json:"amountPaisa"`
	PaidAmountPaisa Paisa  `json:"paidAmountPaisa"`
}

// Charge is a rent or CAM bill owed by a tenant for one period.
type Charge struct {
	ChargeID         string       `json:"chargeID"`
	Kind             ChargeKind   `json:"kind"`
	TenantID         string       `json:"tenantID"`
	PropertyID       string       `json:"propertyID"`
	PeriodYear       int          `json:"periodYear"`
	PeriodMonth      int          `json:"periodMonth"`
	PeriodLabel      string       `json:"periodLabel"`
	AmountPaisa      Paisa        `json:"amountPaisa"`
	PaidAmountPaisa  Paisa        `json:"paidAmountPaisa"`
	AdjustmentsPaisa Paisa        `json:"adjustmentsPaisa"`
	Status           ChargeStatus `json:"status"`
	DueDate          time.Time    `json:"dueDate"`
	PaidDate         *time.Time   `json:"paidDate,omitempty"`
	LastPaidBy       string       `json:"lastPaidBy,omitempty"`
	Units            []ChargeUnit `json:"units,omitempty"`
	Version          int64        `json:"version"`
	AuditFields
}

// Outstanding is the amount still owed.
func (c Charge) Outstanding() Paisa {
	if c.PaidAmountPaisa >= c.AmountPaisa {
		return 0
	}
	return c.AmountPaisa - c.PaidAmountPaisa
}

func (c Charge) IsCancelled() bool { return c.Status == ChargeCancelled }

// EffectiveStatus reports overdue for unpaid charges past their due date.
// Overdue is a read-side view and is never stored.
func (c Charge) EffectiveStatus(now time.Time) ChargeStatus {
	if c.Status == ChargeCancelled || c.Status == ChargePaid {
		return c.Status
	}
	if !c.DueDate.IsZero() && now.After(c.DueDate) {
		return ChargeOverdue
	}
	return c.Status
}

// ApplyPayment records amount against the charge. On any error the charge is
// left untouched. Unit splits, when given, must add up to amount exactly.
func (c *Charge) ApplyPayment(amount Paisa, paymentDate time.Time, receivedBy string, units []UnitAllocation) error {
	if amount <= 0 {
		return apperrors.NewValidationError("payment amount for %s %s must be positive", c.Kind, c.ChargeID)
	}
	if c.IsCancelled() {
		return apperrors.NewValidationError("%s %s is cancelled", c.Kind, c.ChargeID)
	}
	newPaid, err := c.PaidAmountPaisa.Add(amount)
	if err != nil {
		return err
	}
	if newPaid > c.AmountPaisa {
		return fmt.Errorf("%w: %s %s owes %d paisa, payment is %d",
			apperrors.ErrOverpayment, c.Kind, c.ChargeID, c.Outstanding(), amount)
	}

	unitPaid, err := c.planUnitPayments(amount, units)
	if err != nil {
		return err
	}

	c.PaidAmountPaisa = newPaid
	for i, paid := range unitPaid {
		c.Units[i].PaidAmountPaisa = paid
	}
	d := paymentDate
	c.PaidDate = &d
	c.LastPaidBy = receivedBy
	c.recomputeStatus()
	return nil
}

// planUnitPayments checks unit splits and returns the new per-unit paid
// amounts keyed by index into c.Units, without mutating the charge.
func (c *Charge) planUnitPayments(amount Paisa, units []UnitAllocation) (map[int]Paisa, error) {
	if len(units) == 0 {
		return nil, nil
	}
	var sum Paisa
	for _, u := range units {
		if u.AmountPaisa <= 0 {
			return nil, apperrors.NewValidationError("unit %s allocation must be positive", u.UnitID)
		}
		var err error
		if sum, err = sum.Add(u.AmountPaisa); err != nil {
			return nil, err
		}
	}
	if sum != amount {
		return nil, fmt.Errorf("%w: unit allocations total %d, payment is %d", apperrors.ErrAllocationMismatch, sum, amount)
	}
	if len(c.Units) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(c.Units))
	for i, u := range c.Units {
		index[u.UnitID] = i
	}
	planned := make(map[int]Paisa, len(units))
	for _, u := range units {
		i, ok := index[u.UnitID]
		if !ok {
			return nil, apperrors.NewValidationError("unit %s is not billed on %s %s", u.UnitID, c.Kind, c.ChargeID)
		}
		current, seen := planned[i]
		if !seen {
			current = c.Units[i].PaidAmountPaisa
		}
		next, err := current.Add(u.AmountPaisa)
		if err != nil {
			return nil, err
		}
		if next > c.Units[i].AmountPaisa {
			return nil, fmt.Errorf("%w: unit %s owes %d paisa", apperrors.ErrOverpayment, u.UnitID, c.Units[i].AmountPaisa-current)
		}
		planned[i] = next
	}
	return planned, nil
}

// ApplyAdjustment changes the billed amount by a signed delta computed by a
// policy (escalation, late fee, waiver). The new amount must stay positive
// and must not drop below what has already been paid.
func (c *Charge) ApplyAdjustment(delta Paisa) error {
	if delta == 0 {
		return apperrors.NewValidationError("adjustment delta must be non-zero")
	}
	if c.IsCancelled() {
		return apperrors.NewValidationError("%s %s is cancelled", c.Kind, c.ChargeID)
	}
	newAmount, err := c.AmountPaisa.Add(delta)
	if err != nil {
		return err
	}
	if newAmount <= 0 {
		return apperrors.NewValidationError("adjustment would leave %s %s with a non-positive amount", c.Kind, c.ChargeID)
	}
	if newAmount < c.PaidAmountPaisa {
		return fmt.Errorf("%w: %s %s already has %d paisa paid", apperrors.ErrOverpayment, c.Kind, c.ChargeID, c.PaidAmountPaisa)
	}
	adjustments, err := c.AdjustmentsPaisa.Add(delta)
	if err != nil {
		return err
	}
	c.AmountPaisa = newAmount
	c.AdjustmentsPaisa = adjustments
	c.recomputeStatus()
	return nil
}

// Cancel voids an unpaid charge.
func (c *Charge) Cancel() error {
	if c.IsCancelled() {
		return apperrors.NewValidationError("%s %s is already cancelled", c.Kind, c.ChargeID)
	}
	if c.PaidAmountPaisa > 0 {
		return apperrors.NewValidationError("%s %s has payments and cannot be cancelled", c.Kind, c.ChargeID)
	}
	c.Status = ChargeCancelled
	return nil
}

func (c *Charge) recomputeStatus() {
	c.Status = DeriveChargeStatus(c.PaidAmountPaisa, c.AmountPaisa)
}
