package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
)

// eventCapturer is satisfied by utils.PosthogClientWrapper.
type eventCapturer interface {
	IsInitialized() bool
	Enqueue(distinctID string, event string, properties map[string]any) error
}

// AnalyticsTracker captures committed ledger events in product analytics.
type AnalyticsTracker struct {
	client eventCapturer
}

var _ portssvc.SideEffectHandler = (*AnalyticsTracker)(nil)

func NewAnalyticsTracker(client eventCapturer) *AnalyticsTracker {
	return &AnalyticsTracker{client: client}
}

func (a *AnalyticsTracker) Name() string { return "analytics" }

func (a *AnalyticsTracker) Handles(eventType string) bool {
	if a.client == nil || !a.client.IsInitialized() {
		return false
	}
	return eventType == domain.EventPaymentReceived || eventType == domain.EventTransactionVoided
}

func (a *AnalyticsTracker) Handle(_ context.Context, event domain.OutboxEvent) error {
	switch event.EventType {
	case domain.EventPaymentReceived:
		var p domain.PaymentReceivedEvent
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return fmt.Errorf("decode payment.received payload: %w", err)
		}
		return a.client.Enqueue(p.ReceivedBy, "payment_received", map[string]any{
			"payment_id":     p.PaymentID,
			"property_id":    p.PropertyID,
			"payment_method": p.PaymentMethod,
			"amount_paisa":   int64(p.AmountPaisa),
			"journal_count":  len(p.TransactionIDs),
		})
	case domain.EventTransactionVoided:
		var v domain.TransactionVoidedEvent
		if err := json.Unmarshal(event.Payload, &v); err != nil {
			return fmt.Errorf("decode transaction.voided payload: %w", err)
		}
		return a.client.Enqueue(v.VoidedBy, "transaction_voided", map[string]any{
			"transaction_id": v.TransactionID,
			"reversal_id":    v.ReversalID,
		})
	}
	return nil
}
