package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
)

// EmailMessage is a payment confirmation addressed to a tenant. The sender
// resolves the tenant's address.
type EmailMessage struct {
	TenantID string
	Subject  string
	Body     string
}

// EmailSender delivers messages. Implementations live outside the ledger.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// LogEmailSender writes messages to the log instead of sending them.
type LogEmailSender struct {
	Logger *slog.Logger
}

func (s LogEmailSender) Send(_ context.Context, msg EmailMessage) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Email (log sender)",
		slog.String("tenant_id", msg.TenantID),
		slog.String("subject", msg.Subject))
	return nil
}

// EmailNotifier sends the payment confirmation.
type EmailNotifier struct {
	sender EmailSender
}

var _ portssvc.SideEffectHandler = (*EmailNotifier)(nil)

func NewEmailNotifier(sender EmailSender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Handles(eventType string) bool {
	return eventType == domain.EventPaymentReceived
}

func (n *EmailNotifier) Handle(ctx context.Context, event domain.OutboxEvent) error {
	var payload domain.PaymentReceivedEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode payment.received payload: %w", err)
	}

	msg := EmailMessage{
		TenantID: payload.TenantID,
		Subject:  "Payment received: " + payload.AmountPaisa.FormatRupees(),
		Body: fmt.Sprintf("We received %s by %s on %s. Reference: %s.",
			payload.AmountPaisa.FormatRupees(),
			payload.PaymentMethod,
			payload.PaymentDate.Format("02 Jan 2006"),
			payload.PaymentID),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send payment email: %w", err)
	}
	return nil
}
