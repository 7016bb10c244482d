package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
)

// ReceiptRenderer produces a receipt document and returns where it lives.
// Rendering (PDF, print templates) happens outside this service.
type ReceiptRenderer interface {
	Render(ctx context.Context, receiptNumber string, event domain.PaymentReceivedEvent) (documentURL string, err error)
}

// receiptStore is the slice of the payment repository the issuer needs.
type receiptStore interface {
	AttachReceipt(ctx context.Context, paymentID string, receipt domain.Receipt) error
}

// ReceiptIssuer numbers a committed payment and attaches receipt metadata.
// Numbers derive from the payment, so a redelivered event issues the same one.
type ReceiptIssuer struct {
	store    receiptStore
	renderer ReceiptRenderer
	prefix   string
	logger   *slog.Logger
	now      func() time.Time
}

var _ portssvc.SideEffectHandler = (*ReceiptIssuer)(nil)

// NewReceiptIssuer builds the handler. renderer may be nil.
func NewReceiptIssuer(store receiptStore, renderer ReceiptRenderer, prefix string, logger *slog.Logger) *ReceiptIssuer {
	if prefix == "" {
		prefix = "RCPT"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptIssuer{
		store:    store,
		renderer: renderer,
		prefix:   prefix,
		logger:   logger.With(slog.String("component", "receipt_issuer")),
		now:      time.Now,
	}
}

func (r *ReceiptIssuer) Name() string { return "receipt" }

func (r *ReceiptIssuer) Handles(eventType string) bool {
	return eventType == domain.EventPaymentReceived
}

func (r *ReceiptIssuer) Handle(ctx context.Context, event domain.OutboxEvent) error {
	var payload domain.PaymentReceivedEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode payment.received payload: %w", err)
	}

	number := ReceiptNumber(r.prefix, payload.PaymentDate, payload.PaymentID)
	receipt := domain.Receipt{ReceiptNumber: number, GeneratedAt: r.now().UTC()}

	if r.renderer != nil {
		url, err := r.renderer.Render(ctx, number, payload)
		if err != nil {
			return fmt.Errorf("render receipt %s: %w", number, err)
		}
		receipt.DocumentURL = url
	}

	err := r.store.AttachReceipt(ctx, payload.PaymentID, receipt)
	if errors.Is(err, apperrors.ErrDuplicate) {
		r.logger.Info("Receipt already attached", slog.String("payment_id", payload.PaymentID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("attach receipt %s: %w", number, err)
	}

	r.logger.Info("Receipt issued", slog.String("payment_id", payload.PaymentID), slog.String("receipt_number", number))
	return nil
}

// ReceiptNumber formats PREFIX-YYYYMMDD-XXXXXXXX from the payment date and id.
func ReceiptNumber(prefix string, paymentDate time.Time, paymentID string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(paymentID, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, paymentDate.UTC().Format("20060102"), suffix)
}
