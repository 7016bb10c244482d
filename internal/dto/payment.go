package dto

import (
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// UnitAllocationRequest splits a rent allocation across leased units.
type UnitAllocationRequest struct {
	UnitID      string       `json:"unitId" binding:"required"`
	AmountPaisa domain.Paisa `json:"amountPaisa" binding:"required,gt=0"`
}

// RentAllocationRequest applies part of the payment to a rent charge.
type RentAllocationRequest struct {
	RentID          string                  `json:"rentId" binding:"required"`
	AmountPaisa     domain.Paisa            `json:"amountPaisa" binding:"required,gt=0"`
	UnitAllocations []UnitAllocationRequest `json:"unitAllocations" binding:"omitempty,dive"`
}

// CAMAllocationRequest applies part of the payment to a CAM charge.
type CAMAllocationRequest struct {
	CAMID           string       `json:"camId" binding:"required"`
	PaidAmountPaisa domain.Paisa `json:"paidAmountPaisa" binding:"required,gt=0"`
}

// CreatePaymentRequest defines the data needed to record a tenant payment.
// The payment total is computed from the allocations; TotalPaisa, when sent,
// is only checked against it.
type CreatePaymentRequest struct {
	PaymentDate   time.Time              `json:"paymentDate" binding:"required"`
	PaymentMethod domain.PaymentMethod   `json:"paymentMethod" binding:"required,oneof=CASH BANK_TRANSFER CHEQUE MOBILE_WALLET"`
	Rent          *RentAllocationRequest `json:"rent"`
	CAM           *CAMAllocationRequest  `json:"cam"`
	TotalPaisa    *domain.Paisa          `json:"totalPaisa"`
	Notes         string                 `json:"notes" binding:"max=500"`
}

// ToAllocations converts the request into domain allocations.
func (r CreatePaymentRequest) ToAllocations() domain.Allocations {
	var a domain.Allocations
	if r.Rent != nil {
		rent := &domain.RentAllocation{RentID: r.Rent.RentID, AmountPaisa: r.Rent.AmountPaisa}
		for _, u := range r.Rent.UnitAllocations {
			rent.UnitAllocations = append(rent.UnitAllocations, domain.UnitAllocation{UnitID: u.UnitID, AmountPaisa: u.AmountPaisa})
		}
		a.Rent = rent
	}
	if r.CAM != nil {
		a.CAM = &domain.CAMAllocation{CAMID: r.CAM.CAMID, PaidAmountPaisa: r.CAM.PaidAmountPaisa}
	}
	return a
}

// ReceiptResponse is receipt metadata attached after the payment commits.
type ReceiptResponse struct {
	ReceiptNumber string    `json:"receiptNumber"`
	GeneratedAt   time.Time `json:"generatedAt"`
	DocumentURL   string    `json:"documentURL,omitempty"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID      string             `json:"paymentID"`
	TenantID       string             `json:"tenantID"`
	PropertyID     string             `json:"propertyID"`
	Amount         Amount             `json:"amount"`
	PaymentDate    time.Time          `json:"paymentDate"`
	PaymentMethod  string             `json:"paymentMethod"`
	Allocations    domain.Allocations `json:"allocations"`
	ReceivedBy     string             `json:"receivedBy"`
	Notes          string             `json:"notes,omitempty"`
	Receipt        *ReceiptResponse   `json:"receipt,omitempty"`
	TransactionIDs []string           `json:"transactionIDs"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// CreatePaymentResponse is returned by createPayment.
type CreatePaymentResponse struct {
	Payment      PaymentResponse       `json:"payment"`
	Charges      []ChargeResponse      `json:"charges"`
	Transactions []TransactionResponse `json:"transactions"`
	Replayed     bool                  `json:"replayed,omitempty"`
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:      p.PaymentID,
		TenantID:       p.TenantID,
		PropertyID:     p.PropertyID,
		Amount:         NewAmount(p.AmountPaisa),
		PaymentDate:    p.PaymentDate,
		PaymentMethod:  string(p.PaymentMethod),
		Allocations:    p.Allocations,
		ReceivedBy:     p.ReceivedBy,
		Notes:          p.Notes,
		TransactionIDs: p.TransactionIDs,
		CreatedAt:      p.CreatedAt,
	}
	if resp.TransactionIDs == nil {
		resp.TransactionIDs = []string{}
	}
	if p.Receipt != nil {
		resp.Receipt = &ReceiptResponse{
			ReceiptNumber: p.Receipt.ReceiptNumber,
			GeneratedAt:   p.Receipt.GeneratedAt,
			DocumentURL:   p.Receipt.DocumentURL,
		}
	}
	return resp
}

// ToCreatePaymentResponse converts an allocation result to its response DTO.
func ToCreatePaymentResponse(r *domain.AllocationResult) CreatePaymentResponse {
	resp := CreatePaymentResponse{
		Payment:      ToPaymentResponse(&r.Payment),
		Charges:      make([]ChargeResponse, 0, len(r.Charges)),
		Transactions: ToTransactionResponses(r.Transactions),
		Replayed:     r.Replayed,
	}
	for i := range r.Charges {
		resp.Charges = append(resp.Charges, ToChargeResponse(&r.Charges[i], time.Now()))
	}
	return resp
}
