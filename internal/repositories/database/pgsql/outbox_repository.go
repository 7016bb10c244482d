package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/property_ledger/internal/models"
	"github.com/SscSPs/property_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxOutboxRepository stores side effects written alongside ledger changes.
type PgxOutboxRepository struct {
	BaseRepository
}

func newPgxOutboxRepository(pool *pgxpool.Pool) *PgxOutboxRepository {
	return &PgxOutboxRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.OutboxRepository = (*PgxOutboxRepository)(nil)

// EnqueueInTx writes a PENDING event in the caller's transaction.
func (r *PgxOutboxRepository) EnqueueInTx(ctx context.Context, tx pgx.Tx, event domain.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (event_id, event_type, aggregate_type, aggregate_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := tx.Exec(ctx, query,
		event.EventID,
		event.EventType,
		event.AggregateType,
		event.AggregateID,
		event.Payload,
		string(domain.OutboxPending),
		event.CreatedAt,
	)
	if err != nil {
		return mapPgError(err, "failed to enqueue outbox event "+event.EventID)
	}
	return nil
}

// ClaimBatch moves up to limit events to PROCESSING. SKIP LOCKED lets several
// dispatchers poll the same table without handing out an event twice.
func (r *PgxOutboxRepository) ClaimBatch(ctx context.Context, limit int, now, staleBefore time.Time) ([]domain.OutboxEvent, error) {
	query := `
		UPDATE outbox_events o
		SET status = $1, claimed_at = $2, attempts = o.attempts + 1
		WHERE o.event_id IN (
			SELECT event_id FROM outbox_events
			WHERE status = $3 OR (status = $1 AND claimed_at < $4)
			ORDER BY created_at
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING o.event_id, o.event_type, o.aggregate_type, o.aggregate_id, o.payload, o.status,
		          o.attempts, o.last_error, o.claimed_at, o.processed_at, o.created_at;
	`
	rows, err := r.Pool.Query(ctx, query,
		string(domain.OutboxProcessing), now, string(domain.OutboxPending), staleBefore, limit)
	if err != nil {
		return nil, mapPgError(err, "failed to claim outbox events")
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var m models.OutboxEvent
		if err := rows.Scan(
			&m.EventID,
			&m.EventType,
			&m.AggregateType,
			&m.AggregateID,
			&m.Payload,
			&m.Status,
			&m.Attempts,
			&m.LastError,
			&m.ClaimedAt,
			&m.ProcessedAt,
			&m.CreatedAt,
		); err != nil {
			return nil, mapPgError(err, "failed to scan outbox event")
		}
		events = append(events, mapping.ToDomainOutboxEvent(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "error iterating outbox events")
	}
	return events, nil
}

func (r *PgxOutboxRepository) MarkSent(ctx context.Context, eventID string, now time.Time) error {
	return r.finish(ctx, eventID, domain.OutboxSent, "", now)
}

func (r *PgxOutboxRepository) MarkFailed(ctx context.Context, eventID string, reason string, now time.Time) error {
	return r.finish(ctx, eventID, domain.OutboxFailed, reason, now)
}

func (r *PgxOutboxRepository) finish(ctx context.Context, eventID string, status domain.OutboxStatus, reason string, now time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = $2, last_error = $3, processed_at = $4
		WHERE event_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, eventID, string(status), reason, now)
	if err != nil {
		return mapPgError(err, "failed to update outbox event "+eventID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("outbox event " + eventID)
	}
	return nil
}
