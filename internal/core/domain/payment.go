package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
)

// PaymentMethod is how the tenant paid.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCheque       PaymentMethod = "CHEQUE"
	PaymentMobileWallet PaymentMethod = "MOBILE_WALLET"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentCheque, PaymentMobileWallet:
		return true
	}
	return false
}

// UnitAllocation is the part of a rent allocation paid against one leased unit.
type UnitAllocation struct {
	UnitID      string `json:"unitId"`
	AmountPaisa Paisa  `json:"amountPaisa"`
}

// RentAllocation applies part of a payment to one rent charge.
type RentAllocation struct {
	RentID          string           `json:"rentId"`
	AmountPaisa     Paisa            `json:"amountPaisa"`
	UnitAllocations []UnitAllocation `json:"unitAllocations,omitempty"`
}

// CAMAllocation applies part of a payment to one CAM charge.
type CAMAllocation struct {
	CAMID           string `json:"camId"`
	PaidAmountPaisa Paisa  `json:"paidAmountPaisa"`
}

// Allocations splits one payment across charges. At least one is set.
type Allocations struct {
	Rent *RentAllocation `json:"rent,omitempty"`
	CAM  *CAMAllocation  `json:"cam,omitempty"`
}

// Validate checks ids, positive amounts and the unit sum law.
func (a Allocations) Validate() error {
	if a.Rent == nil && a.CAM == nil {
		return apperrors.NewValidationError("payment must allocate to rent, CAM, or both")
	}
	if a.Rent != nil {
		if a.Rent.RentID == "" {
			return apperrors.NewValidationError("rent allocation needs a rentId")
		}
		if a.Rent.AmountPaisa <= 0 {
			return apperrors.NewValidationError("rent allocation amount must be positive")
		}
		if len(a.Rent.UnitAllocations) > 0 {
			var sum Paisa
			seen := make(map[string]bool, len(a.Rent.UnitAllocations))
			for _, u := range a.Rent.UnitAllocations {
				if u.UnitID == "" {
					return apperrors.NewValidationError("unit allocation needs a unitId")
				}
				if seen[u.UnitID] {
					return apperrors.NewValidationError("unit %s allocated twice", u.UnitID)
				}
				seen[u.UnitID] = true
				if u.AmountPaisa <= 0 {
					return apperrors.NewValidationError("unit %s allocation must be positive", u.UnitID)
				}
				var err error
				if sum, err = sum.Add(u.AmountPaisa); err != nil {
					return err
				}
			}
			if sum != a.Rent.AmountPaisa {
				return fmt.Errorf("%w: unit allocations total %d, rent allocation is %d",
					apperrors.ErrAllocationMismatch, sum, a.Rent.AmountPaisa)
			}
		}
	}
	if a.CAM != nil {
		if a.CAM.CAMID == "" {
			return apperrors.NewValidationError("CAM allocation needs a camId")
		}
		if a.CAM.PaidAmountPaisa <= 0 {
			return apperrors.NewValidationError("CAM allocation amount must be positive")
		}
	}
	return nil
}

// Total is the payment amount implied by the allocations.
func (a Allocations) Total() (Paisa, error) {
	var parts []Paisa
	if a.Rent != nil {
		parts = append(parts, a.Rent.AmountPaisa)
	}
	if a.CAM != nil {
		parts = append(parts, a.CAM.PaidAmountPaisa)
	}
	return SumPaisa(parts...)
}

// Receipt is attached to a payment after commit by the receipt side effect.
type Receipt struct {
	ReceiptNumber string    `json:"receiptNumber"`
	GeneratedAt   time.Time `json:"generatedAt"`
	DocumentURL   string    `json:"documentURL,omitempty"`
}

// Payment is money received from a tenant.
type Payment struct {
	PaymentID      string        `json:"paymentID"`
	TenantID       string        `json:"tenantID"`
	PropertyID     string        `json:"propertyID"`
	AmountPaisa    Paisa         `json:"amountPaisa"`
	PaymentDate    time.Time     `json:"paymentDate"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	Allocations    Allocations   `json:"allocations"`
	ReceivedBy     string        `json:"receivedBy"`
	Notes          string        `json:"notes,omitempty"`
	Receipt        *Receipt      `json:"receipt,omitempty"`
	TransactionIDs []string      `json:"transactionIDs,omitempty"`
	AuditFields
}

// PaymentReceivedEvent is the outbox payload written when a payment commits.
type PaymentReceivedEvent struct {
	PaymentID      string    `json:"paymentID"`
	TenantID       string    `json:"tenantID"`
	PropertyID     string    `json:"propertyID"`
	AmountPaisa    Paisa     `json:"amountPaisa"`
	PaymentMethod  string    `json:"paymentMethod"`
	PaymentDate    time.Time `json:"paymentDate"`
	ReceivedBy     string    `json:"receivedBy"`
	TransactionIDs []string  `json:"transactionIDs"`
}

// AllocationResult is the outcome of one createPayment unit of work.
type AllocationResult struct {
	Payment      Payment
	Charges      []Charge
	Transactions []Transaction
	// Replayed is set when an idempotency key matched an earlier payment.
	Replayed bool
}
