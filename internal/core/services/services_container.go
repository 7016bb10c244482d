package services

import (
	"log/slog"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// chart must already be resolved by BootstrapChart.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, chart domain.ChartOfAccounts,
	logger *slog.Logger, handlers ...portssvc.SideEffectHandler) *portssvc.ServiceContainer {

	container := &portssvc.ServiceContainer{}

	dispatcher := NewOutboxDispatcher(repos.OutboxRepo, OutboxDispatcherConfig{
		BatchSize:     cfg.OutboxBatchSize,
		PollInterval:  cfg.OutboxPollInterval,
		LeaseTimeout:  cfg.OutboxLeaseTimeout,
		FinishTimeout: cfg.OutboxFinishTimeout,
	}, logger, handlers...)
	container.Outbox = dispatcher

	// The ledger is the only writer of balances; the other services post through it.
	container.Ledger = NewLedgerService(repos.TxManager, repos.AccountRepo, repos.LedgerRepo, repos.OutboxRepo, chart)

	paymentOpts := []PaymentServiceOption{WithOutboxNotifier(dispatcher)}
	if repos.Idempotency != nil {
		paymentOpts = append(paymentOpts, WithIdempotency(repos.Idempotency, cfg.IdempotencyTTL))
	}
	container.Payment = NewPaymentService(repos.TxManager, repos.ChargeRepo, repos.PaymentRepo, repos.LedgerRepo,
		repos.OutboxRepo, container.Ledger, chart, paymentOpts...)

	container.Charge = NewChargeService(repos.TxManager, repos.ChargeRepo, repos.LedgerRepo, container.Ledger, chart)

	return container
}
