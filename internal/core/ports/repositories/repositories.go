package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TxManager   TransactionManager
	AccountRepo AccountRepositoryFacade
	LedgerRepo  LedgerRepositoryFacade
	ChargeRepo  ChargeRepositoryFacade
	PaymentRepo PaymentRepositoryFacade
	OutboxRepo  OutboxRepository
	// Idempotency is optional; nil disables Idempotency-Key handling.
	Idempotency IdempotencyStore
}
