package domain

import (
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
)

// TransactionType classifies the money-moving event a transaction records.
type TransactionType string

const (
	TxnRentCharge          TransactionType = "RENT_CHARGE"
	TxnRentPaymentReceived TransactionType = "RENT_PAYMENT_RECEIVED"
	TxnCAMCharge           TransactionType = "CAM_CHARGE"
	TxnCAMPaymentReceived  TransactionType = "CAM_PAYMENT_RECEIVED"
	TxnSecurityDeposit     TransactionType = "SECURITY_DEPOSIT"
	TxnExpense             TransactionType = "EXPENSE"
	TxnRevenue             TransactionType = "REVENUE"
	TxnAdjustment          TransactionType = "ADJUSTMENT"
	TxnReversal            TransactionType = "REVERSAL"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TxnRentCharge, TxnRentPaymentReceived, TxnCAMCharge, TxnCAMPaymentReceived,
		TxnSecurityDeposit, TxnExpense, TxnRevenue, TxnAdjustment, TxnReversal:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a transaction header.
type TransactionStatus string

const (
	TxnPending TransactionStatus = "PENDING"
	TxnPosted  TransactionStatus = "POSTED"
	TxnVoided  TransactionStatus = "VOIDED"
)

// ReferenceKind tags which business object a transaction points at.
type ReferenceKind string

const (
	RefRent            ReferenceKind = "RENT"
	RefCAM             ReferenceKind = "CAM"
	RefPayment         ReferenceKind = "PAYMENT"
	RefSecurityDeposit ReferenceKind = "SECURITY_DEPOSIT"
	RefExpense         ReferenceKind = "EXPENSE"
	RefRevenue         ReferenceKind = "REVENUE"
	RefTransaction     ReferenceKind = "TRANSACTION"
)

// Reference is the single business object a transaction records. Build it
// with the constructors below; the zero value is invalid.
type Reference struct {
	Kind ReferenceKind `json:"kind"`
	ID   string        `json:"id"`
}

func RentRef(rentID string) Reference       { return Reference{Kind: RefRent, ID: rentID} }
func CAMRef(camID string) Reference         { return Reference{Kind: RefCAM, ID: camID} }
func PaymentRef(paymentID string) Reference { return Reference{Kind: RefPayment, ID: paymentID} }
func TransactionRef(txnID string) Reference { return Reference{Kind: RefTransaction, ID: txnID} }

// ChargeRef references a rent or CAM charge depending on kind.
func ChargeRef(kind ChargeKind, chargeID string) Reference {
	if kind == ChargeKindCAM {
		return CAMRef(chargeID)
	}
	return RentRef(chargeID)
}

// ParseReference validates an externally supplied kind/id pair.
func ParseReference(kind, id string) (Reference, error) {
	ref := Reference{Kind: ReferenceKind(kind), ID: id}
	return ref, ref.Validate()
}

func (r Reference) Validate() error {
	switch r.Kind {
	case RefRent, RefCAM, RefPayment, RefSecurityDeposit, RefExpense, RefRevenue, RefTransaction:
	default:
		return apperrors.NewValidationError("unknown reference kind %q", r.Kind)
	}
	if r.ID == "" {
		return apperrors.NewValidationError("reference %s needs an id", r.Kind)
	}
	return nil
}

// Transaction is a journal header grouping balanced ledger entries.
type Transaction struct {
	TransactionID    string            `json:"transactionID"`
	TransactionDate  time.Time         `json:"transactionDate"`
	Type             TransactionType   `json:"type"`
	Status           TransactionStatus `json:"status"`
	Reference        Reference         `json:"reference"`
	TotalAmountPaisa Paisa             `json:"totalAmountPaisa"`
	Description      string            `json:"description"`
	ReversedByID     *string           `json:"reversedByID,omitempty"`
	Entries          []LedgerEntry     `json:"entries,omitempty"`
	AuditFields
}

// CanVoid reports whether the transaction may be reversed.
func (t Transaction) CanVoid() error {
	if t.Type == TxnReversal {
		return apperrors.NewValidationError("reversal transaction %s cannot be voided", t.TransactionID)
	}
	if t.Status != TxnPosted {
		return apperrors.NewValidationError("transaction %s is %s, only POSTED transactions can be voided", t.TransactionID, t.Status)
	}
	return nil
}
