package models

import (
	"database/sql"
	"time"
)

// Payment is a row of the payments table. Allocations are stored as JSONB.
type Payment struct {
	PaymentID          string         `db:"payment_id"`
	TenantID           string         `db:"tenant_id"`
	PropertyID         string         `db:"property_id"`
	AmountPaisa        int64          `db:"amount_paisa"`
	PaymentDate        time.Time      `db:"payment_date"`
	PaymentMethod      string         `db:"payment_method"`
	Allocations        []byte         `db:"allocations"`
	ReceivedBy         string         `db:"received_by"`
	Notes              string         `db:"notes"`
	ReceiptNumber      sql.NullString `db:"receipt_number"`
	ReceiptGeneratedAt sql.NullTime   `db:"receipt_generated_at"`
	ReceiptURL         sql.NullString `db:"receipt_url"`
	AuditFields
}

// OutboxEvent is a row of outbox_events.
type OutboxEvent struct {
	EventID       string       `db:"event_id"`
	EventType     string       `db:"event_type"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   string       `db:"aggregate_id"`
	Payload       []byte       `db:"payload"`
	Status        string       `db:"status"`
	Attempts      int          `db:"attempts"`
	LastError     string       `db:"last_error"`
	ClaimedAt     sql.NullTime `db:"claimed_at"`
	ProcessedAt   sql.NullTime `db:"processed_at"`
	CreatedAt     time.Time    `db:"created_at"`
}
