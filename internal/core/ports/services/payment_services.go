package services

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/dto"
)

// PaymentSvcFacade allocates incoming payments to charges
type PaymentSvcFacade interface {
	// CreatePayment applies req to its charges, saves the payment and posts
	// one journal per allocation, all in one unit of work. idempotencyKey may be empty.
	CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, receivedBy string, idempotencyKey string) (*domain.AllocationResult, error)

	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
}
