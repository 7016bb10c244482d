package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/models"
)

// ToModelPayment converts a domain Payment to its row. Receipt and
// transaction ids are not stored on the row.
func ToModelPayment(d domain.Payment) (models.Payment, error) {
	raw, err := json.Marshal(d.Allocations)
	if err != nil {
		return models.Payment{}, fmt.Errorf("encode allocations of payment %s: %w", d.PaymentID, err)
	}
	return models.Payment{
		PaymentID:     d.PaymentID,
		TenantID:      d.TenantID,
		PropertyID:    d.PropertyID,
		AmountPaisa:   int64(d.AmountPaisa),
		PaymentDate:   d.PaymentDate,
		PaymentMethod: string(d.PaymentMethod),
		Allocations:   raw,
		ReceivedBy:    d.ReceivedBy,
		Notes:         d.Notes,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainPayment converts a payments row to a domain Payment.
func ToDomainPayment(m models.Payment) (domain.Payment, error) {
	d := domain.Payment{
		PaymentID:     m.PaymentID,
		TenantID:      m.TenantID,
		PropertyID:    m.PropertyID,
		AmountPaisa:   domain.Paisa(m.AmountPaisa),
		PaymentDate:   m.PaymentDate,
		PaymentMethod: domain.PaymentMethod(m.PaymentMethod),
		ReceivedBy:    m.ReceivedBy,
		Notes:         m.Notes,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
	if err := json.Unmarshal(m.Allocations, &d.Allocations); err != nil {
		return domain.Payment{}, fmt.Errorf("decode allocations of payment %s: %w", m.PaymentID, err)
	}
	if m.ReceiptNumber.Valid {
		d.Receipt = &domain.Receipt{
			ReceiptNumber: m.ReceiptNumber.String,
			GeneratedAt:   m.ReceiptGeneratedAt.Time,
			DocumentURL:   m.ReceiptURL.String,
		}
	}
	return d, nil
}

// ToDomainOutboxEvent converts an outbox_events row.
func ToDomainOutboxEvent(m models.OutboxEvent) domain.OutboxEvent {
	d := domain.OutboxEvent{
		EventID:       m.EventID,
		EventType:     m.EventType,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		Payload:       m.Payload,
		Status:        domain.OutboxStatus(m.Status),
		Attempts:      m.Attempts,
		LastError:     m.LastError,
		CreatedAt:     m.CreatedAt,
	}
	if m.ClaimedAt.Valid {
		t := m.ClaimedAt.Time
		d.ClaimedAt = &t
	}
	if m.ProcessedAt.Valid {
		t := m.ProcessedAt.Time
		d.ProcessedAt = &t
	}
	return d
}
