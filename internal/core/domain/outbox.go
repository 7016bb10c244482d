package domain

import "time"

// OutboxStatus tracks delivery of a post-commit side effect.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "PENDING"
	OutboxProcessing OutboxStatus = "PROCESSING"
	OutboxSent       OutboxStatus = "SENT"
	OutboxFailed     OutboxStatus = "FAILED"
)

// Outbox event types.
const (
	EventPaymentReceived   = "payment.received"
	EventTransactionVoided = "transaction.voided"
)

// OutboxEvent is written in the same unit of work as the change it announces
// and dispatched only after that unit of work commits.
type OutboxEvent struct {
	EventID       string       `json:"eventID"`
	EventType     string       `json:"eventType"`
	AggregateType string       `json:"aggregateType"`
	AggregateID   string       `json:"aggregateID"`
	Payload       []byte       `json:"payload"`
	Status        OutboxStatus `json:"status"`
	Attempts      int          `json:"attempts"`
	LastError     string       `json:"lastError,omitempty"`
	ClaimedAt     *time.Time   `json:"claimedAt,omitempty"`
	ProcessedAt   *time.Time   `json:"processedAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// TransactionVoidedEvent is the outbox payload written when a transaction is reversed.
type TransactionVoidedEvent struct {
	TransactionID string `json:"transactionID"`
	ReversalID    string `json:"reversalID"`
	VoidedBy      string `json:"voidedBy"`
	Reason        string `json:"reason"`
}
