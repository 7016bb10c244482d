package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// OutboxRepository stores post-commit side effects
type OutboxRepository interface {
	// EnqueueInTx writes the event in the same transaction as the change it announces.
	EnqueueInTx(ctx context.Context, tx pgx.Tx, event domain.OutboxEvent) error

	// ClaimBatch moves up to limit PENDING events (and PROCESSING events
	// claimed before staleBefore) to PROCESSING and returns them.
	ClaimBatch(ctx context.Context, limit int, now, staleBefore time.Time) ([]domain.OutboxEvent, error)

	MarkSent(ctx context.Context, eventID string, now time.Time) error

	MarkFailed(ctx context.Context, eventID string, reason string, now time.Time) error
}

// IdempotencyRecord is what the store remembers about one key.
type IdempotencyRecord struct {
	// Fingerprint identifies the request body that first used the key.
	Fingerprint string
	// ResourceID is empty while that request is still in flight.
	ResourceID string
}

// Done reports whether the first request has completed.
func (r IdempotencyRecord) Done() bool { return r.ResourceID != "" }

// IdempotencyStore remembers request keys so a retried createPayment
// returns the first result instead of charging twice.
type IdempotencyStore interface {
	// Reserve claims key for an in-flight request with the given body
	// fingerprint. false means it was already taken.
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, error)

	// Complete records the resource created under key.
	Complete(ctx context.Context, key, fingerprint, resourceID string, ttl time.Duration) error

	// Lookup returns nil for a key that is not held.
	Lookup(ctx context.Context, key string) (*IdempotencyRecord, error)

	// Release drops a reservation whose request failed.
	Release(ctx context.Context, key string) error
}
