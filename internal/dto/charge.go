package dto

import (
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// ChargeAdjustmentRequest carries a delta computed by an escalation, late-fee
// or waiver policy. The ledger only applies it.
type ChargeAdjustmentRequest struct {
	DeltaPaisa domain.Paisa `json:"deltaPaisa" binding:"required,ne=0"`
	Reason     string       `json:"reason" binding:"required,max=200"`
	Date       *time.Time   `json:"date"`
}

// ChargeCancelRequest records why a charge is withdrawn.
type ChargeCancelRequest struct {
	Reason string `json:"reason" binding:"required,max=200"`
}

// ChargeUnitResponse is the per-unit view of a charge.
type ChargeUnitResponse struct {
	UnitID string `json:"unitId"`
	Amount Amount `json:"amount"`
	Paid   Amount `json:"paid"`
}

// ChargeResponse defines the data returned for a rent or CAM charge.
type ChargeResponse struct {
	ChargeID        string               `json:"chargeID"`
	Kind            string               `json:"kind"`
	TenantID        string               `json:"tenantID"`
	PropertyID      string               `json:"propertyID"`
	PeriodLabel     string               `json:"periodLabel"`
	Amount          Amount               `json:"amount"`
	Paid            Amount               `json:"paid"`
	Outstanding     Amount               `json:"outstanding"`
	Adjustments     Amount               `json:"adjustments"`
	Status          string               `json:"status"`
	EffectiveStatus string               `json:"effectiveStatus"`
	DueDate         time.Time            `json:"dueDate"`
	PaidDate        *time.Time           `json:"paidDate,omitempty"`
	LastPaidBy      string               `json:"lastPaidBy,omitempty"`
	Units           []ChargeUnitResponse `json:"units,omitempty"`
}

// ChargeAdjustmentResponse is returned after a policy delta is applied or a
// charge is cancelled. Transaction is absent when nothing was posted.
type ChargeAdjustmentResponse struct {
	Charge      ChargeResponse       `json:"charge"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

// ToChargeAdjustmentResponse builds the response; txn may be nil.
func ToChargeAdjustmentResponse(c *domain.Charge, txn *domain.Transaction, now time.Time) ChargeAdjustmentResponse {
	resp := ChargeAdjustmentResponse{Charge: ToChargeResponse(c, now)}
	if txn != nil {
		t := ToTransactionResponse(txn)
		resp.Transaction = &t
	}
	return resp
}

// ToChargeResponse converts a domain.Charge to ChargeResponse DTO.
func ToChargeResponse(c *domain.Charge, now time.Time) ChargeResponse {
	resp := ChargeResponse{
		ChargeID:        c.ChargeID,
		Kind:            string(c.Kind),
		TenantID:        c.TenantID,
		PropertyID:      c.PropertyID,
		PeriodLabel:     c.PeriodLabel,
		Amount:          NewAmount(c.AmountPaisa),
		Paid:            NewAmount(c.PaidAmountPaisa),
		Outstanding:     NewAmount(c.Outstanding()),
		Adjustments:     NewAmount(c.AdjustmentsPaisa),
		Status:          string(c.Status),
		EffectiveStatus: string(c.EffectiveStatus(now)),
		DueDate:         c.DueDate,
		PaidDate:        c.PaidDate,
		LastPaidBy:      c.LastPaidBy,
	}
	for _, u := range c.Units {
		resp.Units = append(resp.Units, ChargeUnitResponse{
			UnitID: u.UnitID,
			Amount: NewAmount(u.AmountPaisa),
			Paid:   NewAmount(u.PaidAmountPaisa),
		})
	}
	return resp
}
