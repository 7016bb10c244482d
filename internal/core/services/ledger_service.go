package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/core/journal"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	defaultEntriesPageSize = 20
	maxEntriesPageSize     = 100
)

// ledgerService posts balanced journals and serves ledger reads.
type ledgerService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	outboxRepo  portsrepo.OutboxRepository
	chart       domain.ChartOfAccounts
	periods     domain.PeriodResolver
}

// LedgerServiceOption configures optional ledger service dependencies.
type LedgerServiceOption func(*ledgerService)

// WithPeriodResolver replaces the Gregorian period resolver.
func WithPeriodResolver(r domain.PeriodResolver) LedgerServiceOption {
	return func(s *ledgerService) { s.periods = r }
}

// WithLedgerClock pins the ledger service clock.
func WithLedgerClock(clock func() time.Time) LedgerServiceOption {
	return func(s *ledgerService) { s.Clock = clock }
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	txManager portsrepo.TransactionManager,
	accountRepo portsrepo.AccountRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	outboxRepo portsrepo.OutboxRepository,
	chart domain.ChartOfAccounts,
	opts ...LedgerServiceOption,
) portssvc.LedgerSvcFacade {
	s := &ledgerService{
		txManager:   txManager,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		outboxRepo:  outboxRepo,
		chart:       chart,
		periods:     domain.GregorianPeriods{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// PostJournalEntry writes one POSTED transaction, its entries and the new
// account balances inside tx. Accounts are locked in id order so concurrent
// posters touching the same accounts cannot deadlock.
func (s *ledgerService) PostJournalEntry(ctx context.Context, tx pgx.Tx, payload domain.JournalPayload, createdBy string) (*domain.Transaction, error) {
	logger := s.GetLogger(ctx)

	if err := payload.Validate(); err != nil {
		logger.Error("Rejected journal payload", slog.String("type", string(payload.Type)), slog.String("error", err.Error()))
		return nil, err
	}

	accountIDs := uniqueAccountIDs(payload.Lines)
	accounts, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}

	balances := make(map[string]domain.Paisa, len(accountIDs))
	for _, id := range accountIDs {
		acc, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("%w: account %s does not exist", apperrors.ErrUnknownAccount, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrUnknownAccount, acc.Code)
		}
		balances[id] = acc.CurrentBalancePaisa
	}

	now := s.now()
	period := s.periods.Resolve(payload.TransactionDate)
	txn := domain.Transaction{
		TransactionID:    uuid.NewString(),
		TransactionDate:  payload.TransactionDate,
		Type:             payload.Type,
		Status:           domain.TxnPosted,
		Reference:        payload.Reference,
		TotalAmountPaisa: payload.TotalAmountPaisa,
		Description:      payload.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     createdBy,
			LastUpdatedAt: now,
			LastUpdatedBy: createdBy,
		},
	}

	entries := make([]domain.LedgerEntry, 0, len(payload.Lines))
	for i, line := range payload.Lines {
		acc := accounts[line.AccountID]
		if line.AccountCode != "" && line.AccountCode != acc.Code {
			return nil, fmt.Errorf("%w: line %d names code %s but account %s has code %s",
				apperrors.ErrUnknownAccount, i, line.AccountCode, acc.AccountID, acc.Code)
		}
		balance, err := accounting.ApplyLine(balances[line.AccountID], line, acc.AccountType)
		if err != nil {
			return nil, err
		}
		balances[line.AccountID] = balance

		entry := domain.LedgerEntry{
			EntryID:         uuid.NewString(),
			TransactionID:   txn.TransactionID,
			AccountID:       acc.AccountID,
			AccountCode:     acc.Code,
			LineNo:          i + 1,
			BalancePaisa:    balance,
			TransactionDate: payload.TransactionDate,
			PeriodYear:      period.Year,
			PeriodMonth:     period.Month,
			FiscalPeriod:    period.Label,
			Description:     payload.Description,
			CreatedAt:       now,
			CreatedBy:       createdBy,
		}
		if line.Side == domain.Debit {
			entry.DebitPaisa = line.AmountPaisa
		} else {
			entry.CreditPaisa = line.AmountPaisa
		}
		entries = append(entries, entry)
	}

	if err := s.ledgerRepo.SaveTransactionInTx(ctx, tx, txn, entries); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}
	if err := s.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balances, createdBy, now); err != nil {
		return nil, fmt.Errorf("failed to update account balances: %w", err)
	}

	logger.Info("Journal posted",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("type", string(txn.Type)),
		slog.String("reference_kind", string(txn.Reference.Kind)),
		slog.String("reference_id", txn.Reference.ID),
		slog.Int64("amount_paisa", int64(txn.TotalAmountPaisa)))

	txn.Entries = entries
	return &txn, nil
}

// PostStandalone posts payload in its own unit of work.
func (s *ledgerService) PostStandalone(ctx context.Context, payload domain.JournalPayload, createdBy string) (*domain.Transaction, error) {
	var posted *domain.Transaction
	err := portsrepo.WithinTx(ctx, s.txManager, func(tx pgx.Tx) error {
		var err error
		posted, err = s.PostJournalEntry(ctx, tx, payload, createdBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// PostExternalEvent posts a security deposit, expense or revenue event.
func (s *ledgerService) PostExternalEvent(ctx context.Context, event domain.ExternalMoneyEvent, createdBy string) (*domain.Transaction, error) {
	payload, err := journal.BuildExternal(s.chart, event)
	if err != nil {
		return nil, err
	}
	return s.PostStandalone(ctx, payload, createdBy)
}

// VoidTransaction posts a mirror-image REVERSAL and marks the original VOIDED
// in one unit of work, restoring every affected balance.
func (s *ledgerService) VoidTransaction(ctx context.Context, transactionID, userID, reason string) (*domain.Transaction, error) {
	logger := s.GetLogger(ctx)
	var voided *domain.Transaction

	err := portsrepo.WithinTx(ctx, s.txManager, func(tx pgx.Tx) error {
		original, err := s.ledgerRepo.FindTransactionByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if err := original.CanVoid(); err != nil {
			return err
		}
		entries, err := s.ledgerRepo.FindEntriesByTransactionIDInTx(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		now := s.now()
		payload, err := journal.BuildReversal(*original, entries, now, reason)
		if err != nil {
			return err
		}
		reversal, err := s.PostJournalEntry(ctx, tx, payload, userID)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.MarkTransactionVoidedInTx(ctx, tx, transactionID, reversal.TransactionID, userID, now); err != nil {
			return fmt.Errorf("failed to mark transaction voided: %w", err)
		}

		event, err := newOutboxEvent(domain.EventTransactionVoided, "transaction", transactionID, domain.TransactionVoidedEvent{
			TransactionID: transactionID,
			ReversalID:    reversal.TransactionID,
			VoidedBy:      userID,
			Reason:        reason,
		}, now)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.EnqueueInTx(ctx, tx, event); err != nil {
			return fmt.Errorf("failed to enqueue void event: %w", err)
		}

		original.Status = domain.TxnVoided
		original.ReversedByID = &reversal.TransactionID
		original.LastUpdatedAt = now
		original.LastUpdatedBy = userID
		original.Entries = entries
		voided = original
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to void transaction", slog.String("transaction_id", transactionID))
		return nil, err
	}

	logger.Info("Transaction voided", slog.String("transaction_id", transactionID), slog.String("reversal_id", *voided.ReversedByID))
	return voided, nil
}

// GetTransaction returns a transaction with its entries.
func (s *ledgerService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	txn.Entries = entries
	return txn, nil
}

func (s *ledgerService) ListTransactionsByReference(ctx context.Context, ref domain.Reference) ([]domain.Transaction, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListTransactionsByReference(ctx, ref)
}

func (s *ledgerService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx)
}

func (s *ledgerService) GetAccount(ctx context.Context, code domain.AccountCode) (*domain.Account, error) {
	return s.accountRepo.FindAccountByCode(ctx, code)
}

// DeactivateAccount locks the account so no journal can post to it while the
// balance is checked.
func (s *ledgerService) DeactivateAccount(ctx context.Context, code domain.AccountCode, userID string) (*domain.Account, error) {
	logger := s.GetLogger(ctx).With(slog.String("account_code", string(code)))

	if role, bound := s.chart.RoleOf(code); bound {
		return nil, fmt.Errorf("%w: account %s is bound to role %s", apperrors.ErrConflict, code, role)
	}
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return account, nil
	}

	now := s.now()
	err = portsrepo.WithinTx(ctx, s.txManager, func(tx pgx.Tx) error {
		locked, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{account.AccountID})
		if err != nil {
			return err
		}
		current, ok := locked[account.AccountID]
		if !ok {
			return apperrors.NewNotFoundError("account " + string(code))
		}
		if current.CurrentBalancePaisa != 0 {
			return apperrors.NewValidationError("account %s still carries a balance of %d paisa", code, current.CurrentBalancePaisa)
		}
		*account = current
		return s.accountRepo.DeactivateAccount(ctx, tx, code, userID, now)
	})
	if err != nil {
		logger.Warn("Account not deactivated", slog.String("error", err.Error()))
		return nil, err
	}

	account.IsActive = false
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID
	logger.Info("Account deactivated", slog.String("user_id", userID))
	return account, nil
}

// ListEntriesByAccount pages an account's ledger, newest first.
func (s *ledgerService) ListEntriesByAccount(ctx context.Context, code domain.AccountCode, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = defaultEntriesPageSize
	}
	if limit > maxEntriesPageSize {
		limit = maxEntriesPageSize
	}
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	return s.ledgerRepo.ListEntriesByAccount(ctx, account.AccountID, limit, nextToken)
}

func uniqueAccountIDs(lines []domain.JournalLine) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	sort.Strings(ids)
	return ids
}

// newOutboxEvent marshals payload into a PENDING outbox event.
func newOutboxEvent(eventType, aggregateType, aggregateID string, payload any, now time.Time) (domain.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.OutboxEvent{}, fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return domain.OutboxEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       body,
		Status:        domain.OutboxPending,
		CreatedAt:     now,
	}, nil
}
