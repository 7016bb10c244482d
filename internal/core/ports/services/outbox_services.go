package services

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// SideEffectHandler reacts to a committed outbox event. Handlers must never
// write to the ledger.
type SideEffectHandler interface {
	Name() string
	Handles(eventType string) bool
	Handle(ctx context.Context, event domain.OutboxEvent) error
}

// OutboxDispatcher delivers committed outbox events to side-effect handlers
type OutboxDispatcher interface {
	Start(ctx context.Context)
	Stop()
	// Notify asks for a prompt poll. It never blocks.
	Notify()
}
