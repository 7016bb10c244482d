package pgsql

import (
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every pgx repository onto one pool. The
// idempotency store lives outside Postgres and is attached by the caller.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:   &BaseRepository{Pool: dbPool},
		AccountRepo: newPgxAccountRepository(dbPool),
		LedgerRepo:  newPgxLedgerRepository(dbPool),
		ChargeRepo:  newPgxChargeRepository(dbPool),
		PaymentRepo: newPgxPaymentRepository(dbPool),
		OutboxRepo:  newPgxOutboxRepository(dbPool),
	}
}
